package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/SanjarHikmatov/unired-task/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

const subject = "Card Service Notification"

// Sender handles sending notifications via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

// Send emails message to destination. Destinations that are not addresses,
// such as phone numbers, go to the operator mailbox with the destination
// named in the body.
func (s *Sender) Send(_ context.Context, destination, message string) bool {
	e := s.buildEmail(destination, message)
	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", strings.Join(e.To, ","), err)
		return false
	}
	s.logger.Infof("Email sent to %s: %s", strings.Join(e.To, ","), e.Subject)
	return true
}

func (s *Sender) buildEmail(destination, message string) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.Subject = subject

	body := message
	if strings.Contains(destination, "@") {
		e.To = []string{destination}
	} else {
		e.To = []string{s.operatorAddress()}
		if destination != "" {
			body = fmt.Sprintf("Recipient: %s\n\n%s", destination, message)
		}
	}
	body += "\n\nBest regards,\nCard Service"
	e.Text = []byte(body)
	return e
}

func (s *Sender) operatorAddress() string {
	if strings.Contains(s.cfg.ReportDestination, "@") {
		return s.cfg.ReportDestination
	}
	return s.cfg.SenderEmail
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
