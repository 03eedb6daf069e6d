// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/SanjarHikmatov/unired-task/internal/models"
	"github.com/SanjarHikmatov/unired-task/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Card numbers that pass the Luhn check
const (
	SenderCard   = "8600123456789012"
	ReceiverCard = "4111111111111111"
	SenderExpiry = "12/27"
)

// Logger returns a logger that discards its output
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// NewRepository opens a migrated in-memory SQLite repository
func NewRepository(t *testing.T) *repository.Repository {
	t.Helper()

	db, err := repository.Open(context.Background(), "sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return repo
}

// SeedCard stores an active card with the given balance
func SeedCard(t *testing.T, repo *repository.Repository, number, expire, balance string) *models.Card {
	t.Helper()

	card := &models.Card{
		CardNumber: number,
		Expire:     expire,
		Phone:      "+998901234567",
		Status:     models.CardStatusActive,
		Balance:    decimal.RequireFromString(balance),
	}
	if err := repo.UpsertCard(context.Background(), card); err != nil {
		t.Fatalf("failed to seed card %s: %v", number, err)
	}
	return card
}

// SeedTransferCards stores the sender and receiver cards used by transfer tests
func SeedTransferCards(t *testing.T, repo *repository.Repository) {
	t.Helper()
	SeedCard(t, repo, SenderCard, SenderExpiry, "5000.00")
	SeedCard(t, repo, ReceiverCard, "01/28", "0")
}

// Message is a notification captured by Notifier
type Message struct {
	Destination string
	Text        string
}

// Notifier records sent messages and reports Fail as the delivery outcome
type Notifier struct {
	mu       sync.Mutex
	Fail     bool
	Messages []Message
}

func (n *Notifier) Send(_ context.Context, destination, message string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, Message{Destination: destination, Text: message})
	return !n.Fail
}

// Last returns the most recent message
func (n *Notifier) Last() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Messages) == 0 {
		return Message{}, false
	}
	return n.Messages[len(n.Messages)-1], true
}

// CardFinder is the lookup used by the card service
type CardFinder interface {
	GetCardByNumberAndExpiry(ctx context.Context, number, expire string) (*models.Card, error)
}

// CountingCardStore counts the lookups that reach the wrapped store
type CountingCardStore struct {
	Store CardFinder
	calls atomic.Int64
}

func (c *CountingCardStore) GetCardByNumberAndExpiry(ctx context.Context, number, expire string) (*models.Card, error) {
	c.calls.Add(1)
	return c.Store.GetCardByNumberAndExpiry(ctx, number, expire)
}

// Calls returns the number of lookups so far
func (c *CountingCardStore) Calls() int {
	return int(c.calls.Load())
}
