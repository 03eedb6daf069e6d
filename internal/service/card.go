package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SanjarHikmatov/unired-task/internal/cache"
	"github.com/SanjarHikmatov/unired-task/internal/models"
	"github.com/SanjarHikmatov/unired-task/internal/repository"
	"github.com/SanjarHikmatov/unired-task/internal/utils"
	"github.com/sirupsen/logrus"
)

// DefaultCardInfoTTL bounds how stale a lookup result may be
const DefaultCardInfoTTL = 30 * time.Second

// ErrCardNotFound is returned when no card matches the number and expiry
var ErrCardNotFound = errors.New("card not found")

// CardStore finds a card by its exact number and expiry
type CardStore interface {
	GetCardByNumberAndExpiry(ctx context.Context, number, expire string) (*models.Card, error)
}

// cachedCard is a cache entry; Found is false for a cached miss
type cachedCard struct {
	Found bool             `json:"found"`
	Info  *models.CardInfo `json:"info,omitempty"`
}

// CardService answers card lookups through a cache-aside layer
type CardService struct {
	store CardStore
	cache cache.Store
	ttl   time.Duration
	log   *logrus.Logger
}

// NewCardService creates a card lookup service; ttl <= 0 selects DefaultCardInfoTTL
func NewCardService(store CardStore, c cache.Store, ttl time.Duration, log *logrus.Logger) *CardService {
	if ttl <= 0 {
		ttl = DefaultCardInfoTTL
	}
	return &CardService{store: store, cache: c, ttl: ttl, log: log}
}

func cardInfoKey(number, expire string) string {
	return fmt.Sprintf("card_info:%s:%s", number, expire)
}

// Lookup returns the public view of the card identified by number and expiry.
// Both found and not-found results are cached for the service TTL.
func (s *CardService) Lookup(ctx context.Context, number, expire string) (*models.CardInfo, error) {
	key := cardInfoKey(number, expire)

	if entry, ok := s.fromCache(ctx, key); ok {
		if !entry.Found {
			return nil, ErrCardNotFound
		}
		return entry.Info, nil
	}

	card, err := s.store.GetCardByNumberAndExpiry(ctx, number, expire)
	if errors.Is(err, repository.ErrNotFound) {
		s.toCache(ctx, key, cachedCard{Found: false})
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	info := &models.CardInfo{
		CardStatus: string(card.Status),
		Balance:    card.Balance.StringFixed(2),
		Phone:      card.Phone,
		MaskedCard: utils.MaskCardNumber(card.CardNumber),
	}
	s.toCache(ctx, key, cachedCard{Found: true, Info: info})
	return info, nil
}

func (s *CardService) fromCache(ctx context.Context, key string) (cachedCard, bool) {
	var entry cachedCard
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warnf("Card cache read failed, falling back to store: %v", err)
		return entry, false
	}
	if !ok {
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		s.log.Warnf("Discarding malformed card cache entry %s: %v", key, err)
		return entry, false
	}
	return entry, true
}

func (s *CardService) toCache(ctx context.Context, key string, entry cachedCard) {
	data, err := json.Marshal(entry)
	if err != nil {
		s.log.Errorf("Failed to encode card cache entry: %v", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Warnf("Card cache write failed: %v", err)
	}
}
