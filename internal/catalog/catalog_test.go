package catalog

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/SanjarHikmatov/unired-task/internal/models"
	"github.com/sirupsen/logrus"
)

type fakeSource struct {
	entries []models.ErrorEntry
	err     error
	calls   int
}

func (f *fakeSource) ListErrors(context.Context) ([]models.ErrorEntry, error) {
	f.calls++
	return f.entries, f.err
}

type fakeInserter map[int]models.ErrorEntry

func (f fakeInserter) InsertErrorIfAbsent(_ context.Context, e models.ErrorEntry) (bool, error) {
	if _, ok := f[e.Code]; ok {
		return false, nil
	}
	f[e.Code] = e
	return true, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestCatalog(t *testing.T, source Source) *Catalog {
	t.Helper()
	c, err := New(source, quietLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestDefaults(t *testing.T) {
	entries, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults failed: %v", err)
	}
	codes := map[int]bool{}
	for _, e := range entries {
		codes[e.Code] = true
		if e.RU == "" || e.UZ == "" {
			t.Errorf("entry %d is missing a translation", e.Code)
		}
	}
	for code := 1001; code <= 1005; code++ {
		if !codes[code] {
			t.Errorf("missing built-in entry %d", code)
		}
	}
}

func TestMessage(t *testing.T) {
	source := &fakeSource{entries: []models.ErrorEntry{
		{Code: 1002, EN: "Wrong code", RU: "Неверный код"},
		{Code: 2000, EN: "Custom"},
	}}
	c := newTestCatalog(t, source)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	tests := []struct {
		name string
		code int
		lang string
		want string
	}{
		{"stored english", 1002, "en", "Wrong code"},
		{"stored russian", 1002, "ru", "Неверный код"},
		{"missing uzbek falls back to english", 1002, "uz", "Wrong code"},
		{"unknown language", 2000, "de", "Custom"},
		{"built-in entry", 1004, "en", "Transfer not found"},
		{"unknown code", 4242, "ru", "Unknown error: 4242"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Message(tt.code, tt.lang); got != tt.want {
				t.Errorf("Message(%d, %s) = %q, want %q", tt.code, tt.lang, got, tt.want)
			}
		})
	}
}

func TestRefreshKeepsEntriesOnFailure(t *testing.T) {
	source := &fakeSource{entries: []models.ErrorEntry{{Code: 3000, EN: "Stored"}}}
	c := newTestCatalog(t, source)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	source.err = errors.New("db down")
	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := c.Message(3000, "en"); got != "Stored" {
		t.Errorf("Message = %q after failed refresh", got)
	}
}

func TestParseRejectsBadEntries(t *testing.T) {
	tests := map[string]string{
		"missing code":    "errors:\n  - en: x\n",
		"missing english": "errors:\n  - code: 1\n    ru: y\n",
		"duplicate":       "errors:\n  - code: 1\n    en: a\n  - code: 1\n    en: b\n",
		"not yaml":        "errors: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPopulateIsIdempotent(t *testing.T) {
	entries, _ := Defaults()
	store := fakeInserter{}

	created, existed, err := Populate(context.Background(), store, entries)
	if err != nil || created != len(entries) || existed != 0 {
		t.Fatalf("first run: created=%d existed=%d err=%v", created, existed, err)
	}
	created, existed, err = Populate(context.Background(), store, entries)
	if err != nil || created != 0 || existed != len(entries) {
		t.Fatalf("second run: created=%d existed=%d err=%v", created, existed, err)
	}
}
