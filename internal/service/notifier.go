package service

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes messages to the log instead of delivering them.
// It is the delivery channel for local development.
type LogNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier creates a log notifier
func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, destination, message string) bool {
	if destination == "" {
		destination = "N/A"
	}
	n.log.WithField("destination", destination).Infof("[FAKE SEND] %s", message)
	return true
}
