// Package catalog resolves application error codes to localized messages.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/SanjarHikmatov/unired-task/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed errors.yaml
var defaultEntries []byte

// Source lists the entries stored in the errors table
type Source interface {
	ListErrors(ctx context.Context) ([]models.ErrorEntry, error)
}

// Inserter stores an entry unless its code already exists
type Inserter interface {
	InsertErrorIfAbsent(ctx context.Context, entry models.ErrorEntry) (bool, error)
}

// Catalog is an in-memory copy of the errors table. Codes missing from the
// table fall back to the built-in entries, then to a generic message.
type Catalog struct {
	source   Source
	log      *logrus.Logger
	defaults map[int]models.ErrorEntry

	mu      sync.RWMutex
	entries map[int]models.ErrorEntry
}

// New creates a catalog over source. Call Refresh to load it.
func New(source Source, log *logrus.Logger) (*Catalog, error) {
	defaults, err := Defaults()
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		source:   source,
		log:      log,
		defaults: make(map[int]models.ErrorEntry, len(defaults)),
		entries:  map[int]models.ErrorEntry{},
	}
	for _, e := range defaults {
		c.defaults[e.Code] = e
	}
	return c, nil
}

// Refresh reloads every entry from the source
func (c *Catalog) Refresh(ctx context.Context) error {
	list, err := c.source.ListErrors(ctx)
	if err != nil {
		return fmt.Errorf("failed to load error catalog: %w", err)
	}
	entries := make(map[int]models.ErrorEntry, len(list))
	for _, e := range list {
		entries[e.Code] = e
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	c.log.Debugf("Error catalog loaded with %d entries", len(entries))
	return nil
}

// Message returns the message of code in lang
func (c *Catalog) Message(code int, lang string) string {
	c.mu.RLock()
	entry, ok := c.entries[code]
	c.mu.RUnlock()
	if !ok {
		entry, ok = c.defaults[code]
	}
	if ok {
		if msg := entry.Message(lang); msg != "" {
			return msg
		}
	}
	return UnknownMessage(code)
}

// UnknownMessage is returned for codes with no catalog entry
func UnknownMessage(code int) string {
	return fmt.Sprintf("Unknown error: %d", code)
}

// Defaults returns the built-in entries
func Defaults() ([]models.ErrorEntry, error) {
	return Parse(defaultEntries)
}

// LoadFile reads entries from a YAML file with the layout of the built-in one
func LoadFile(path string) ([]models.ErrorEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and checks a YAML list of entries
func Parse(data []byte) ([]models.ErrorEntry, error) {
	var doc struct {
		Errors []models.ErrorEntry `yaml:"errors"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse error catalog: %w", err)
	}

	seen := make(map[int]bool, len(doc.Errors))
	for _, e := range doc.Errors {
		if e.Code == 0 {
			return nil, fmt.Errorf("error catalog entry without code")
		}
		if e.EN == "" {
			return nil, fmt.Errorf("error %d has no english message", e.Code)
		}
		if seen[e.Code] {
			return nil, fmt.Errorf("error %d is listed twice", e.Code)
		}
		seen[e.Code] = true
	}
	return doc.Errors, nil
}

// Populate inserts entries that are not stored yet
func Populate(ctx context.Context, store Inserter, entries []models.ErrorEntry) (created, existed int, err error) {
	for _, e := range entries {
		inserted, err := store.InsertErrorIfAbsent(ctx, e)
		if err != nil {
			return created, existed, fmt.Errorf("failed to insert error %d: %w", e.Code, err)
		}
		if inserted {
			created++
		} else {
			existed++
		}
	}
	return created, existed, nil
}
