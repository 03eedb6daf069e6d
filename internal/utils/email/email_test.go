package email

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/SanjarHikmatov/unired-task/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

func newTestSender(sent *[]*email.Email, fail bool) *Sender {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewSender(&config.Config{
		SenderEmail:       "noreply@cards.local",
		ReportDestination: "ops@cards.local",
	}, log)
	s.send = func(e *email.Email) error {
		*sent = append(*sent, e)
		if fail {
			return errors.New("connection refused")
		}
		return nil
	}
	return s
}

func TestSendToAddress(t *testing.T) {
	var sent []*email.Email
	s := newTestSender(&sent, false)

	if !s.Send(context.Background(), "client@example.com", "hello") {
		t.Fatal("expected send to succeed")
	}
	if len(sent) != 1 || sent[0].To[0] != "client@example.com" || sent[0].From != "noreply@cards.local" {
		t.Fatalf("unexpected email %+v", sent)
	}
	if !strings.HasPrefix(string(sent[0].Text), "hello") {
		t.Errorf("unexpected body %q", sent[0].Text)
	}
}

func TestSendToPhoneGoesToOperator(t *testing.T) {
	var sent []*email.Email
	s := newTestSender(&sent, false)

	s.Send(context.Background(), "+998901234567", "code 012345")
	if sent[0].To[0] != "ops@cards.local" {
		t.Errorf("recipient = %v", sent[0].To)
	}
	if !strings.Contains(string(sent[0].Text), "Recipient: +998901234567") {
		t.Errorf("body does not name the destination: %q", sent[0].Text)
	}
}

func TestSendFailure(t *testing.T) {
	var sent []*email.Email
	if newTestSender(&sent, true).Send(context.Background(), "a@b.c", "x") {
		t.Error("expected send to report failure")
	}
}
