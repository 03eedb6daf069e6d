package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ReportStore counts the records included in the system report
type ReportStore interface {
	CountCards(ctx context.Context) (int, error)
	CountTransfers(ctx context.Context) (int, error)
}

// ReportService sends the periodic system report
type ReportService struct {
	store       ReportStore
	notifier    Notifier
	destination string
	log         *logrus.Logger
}

// NewReportService creates a report service sending to destination
func NewReportService(store ReportStore, notifier Notifier, destination string, log *logrus.Logger) *ReportService {
	return &ReportService{store: store, notifier: notifier, destination: destination, log: log}
}

// BuildReport renders the current system totals
func (s *ReportService) BuildReport(ctx context.Context) (string, error) {
	cards, err := s.store.CountCards(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count cards: %w", err)
	}
	transfers, err := s.store.CountTransfers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count transfers: %w", err)
	}
	return fmt.Sprintf("This is the total system report:\n - Total Cards: %d\n - Total Transfers: %d", cards, transfers), nil
}

// SendReport builds the report and hands it to the notifier
func (s *ReportService) SendReport(ctx context.Context) error {
	report, err := s.BuildReport(ctx)
	if err != nil {
		return err
	}
	if !s.notifier.Send(ctx, s.destination, report) {
		return fmt.Errorf("failed to deliver system report to %s", s.destination)
	}
	s.log.Info("System report sent")
	return nil
}
