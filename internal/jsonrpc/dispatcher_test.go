package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestDispatcher() *Dispatcher {
	log := logrus.New()
	log.SetOutput(io.Discard)

	d := NewDispatcher(log)
	d.Register(func(ctx context.Context, params json.RawMessage) (any, error) {
		var p struct {
			Name string `json:"name"`
		}
		if err := DecodeParams(params, &p); err != nil {
			return nil, err
		}
		return map[string]string{"hello": p.Name, "lang": LangFromContext(ctx)}, nil
	}, "greet", "demo.greet")
	d.Register(func(context.Context, json.RawMessage) (any, error) {
		return nil, NewError(1002, "Wrong OTP", map[string]int{"attempts_left": 2})
	}, "reject")
	d.Register(func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("database is locked")
	}, "broken")
	d.Register(func(context.Context, json.RawMessage) (any, error) {
		panic("boom")
	}, "panics")
	return d
}

// decode turns a response into generic JSON to check the wire form
func decode(t *testing.T, resp *Response) map[string]any {
	t.Helper()
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return out
}

func errorCode(t *testing.T, out map[string]any) int {
	t.Helper()
	e, ok := out["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in %v", out)
	}
	return int(e["code"].(float64))
}

func TestHandleProtocolErrors(t *testing.T) {
	d := newTestDispatcher()

	tests := []struct {
		name   string
		body   string
		code   int
		wantID any
		hasID  bool
	}{
		{"malformed json", `{"jsonrpc":"2.0","method":`, CodeParseError, nil, false},
		{"empty body", ``, CodeParseError, nil, false},
		{"array body", `[1,2]`, CodeInvalidRequest, nil, true},
		{"missing method", `{"jsonrpc":"2.0","id":7}`, CodeInvalidRequest, float64(7), true},
		{"wrong version", `{"jsonrpc":"1.0","method":"greet","id":"a"}`, CodeInvalidRequest, "a", true},
		{"method not a string", `{"jsonrpc":"2.0","method":5,"id":3}`, CodeInvalidRequest, float64(3), true},
		{"unknown method", `{"jsonrpc":"2.0","method":"transfer.refund","id":1}`, CodeMethodNotFound, float64(1), true},
		{"bad params", `{"jsonrpc":"2.0","method":"greet","params":{"name":5},"id":2}`, CodeInvalidParams, float64(2), true},
		{"internal error", `{"jsonrpc":"2.0","method":"broken","id":4}`, CodeInternalError, float64(4), true},
		{"panic", `{"jsonrpc":"2.0","method":"panics","id":5}`, CodeInternalError, float64(5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decode(t, d.Handle(context.Background(), []byte(tt.body)))
			if out["jsonrpc"] != Version {
				t.Errorf("jsonrpc = %v", out["jsonrpc"])
			}
			if code := errorCode(t, out); code != tt.code {
				t.Errorf("code = %d, want %d", code, tt.code)
			}
			id, hasID := out["id"]
			if hasID != tt.hasID || id != tt.wantID {
				t.Errorf("id = %v (present %v), want %v (present %v)", id, hasID, tt.wantID, tt.hasID)
			}
			if _, ok := out["result"]; ok {
				t.Error("error response must not carry a result")
			}
		})
	}
}

func TestHandleInternalErrorCarriesDescription(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"panics","id":1}`))
	if resp.Error == nil || resp.Error.Data != "boom" {
		t.Errorf("expected panic value in data, got %+v", resp.Error)
	}
}

func TestHandleAliasesAndLanguage(t *testing.T) {
	d := newTestDispatcher()

	tests := []struct {
		name string
		ctx  context.Context
		body string
		lang string
	}{
		{"default", context.Background(), `{"jsonrpc":"2.0","method":"greet","params":{"name":"a"},"id":1}`, "en"},
		{"alias with envelope lang", context.Background(), `{"jsonrpc":"2.0","method":"demo.greet","params":{"name":"a","lang":"uz"},"lang":"ru","id":1}`, "ru"},
		{"params lang", context.Background(), `{"jsonrpc":"2.0","method":"greet","params":{"name":"a","lang":"UZ"},"id":1}`, "uz"},
		{"context lang", WithLang(context.Background(), "ru"), `{"jsonrpc":"2.0","method":"greet","id":1}`, "ru"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decode(t, d.Handle(tt.ctx, []byte(tt.body)))
			result, ok := out["result"].(map[string]any)
			if !ok {
				t.Fatalf("expected result, got %v", out)
			}
			if result["lang"] != tt.lang {
				t.Errorf("lang = %v, want %s", result["lang"], tt.lang)
			}
			if _, ok := out["error"]; ok {
				t.Error("success response must not carry an error")
			}
		})
	}
}

func TestHandleApplicationError(t *testing.T) {
	d := newTestDispatcher()

	out := decode(t, d.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"reject","id":"x"}`)))
	if code := errorCode(t, out); code != 1002 {
		t.Errorf("code = %d", code)
	}
	data := out["error"].(map[string]any)["data"].(map[string]any)
	if data["attempts_left"] != float64(2) {
		t.Errorf("data = %v", data)
	}
	if out["id"] != "x" {
		t.Errorf("id = %v", out["id"])
	}
}

func TestServeHTTPAlwaysOK(t *testing.T) {
	d := newTestDispatcher()

	tests := []struct {
		name string
		body string
		lang string
	}{
		{"parse error", `not json`, ""},
		{"success", `{"jsonrpc":"2.0","method":"greet","id":1}`, "ru"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(tt.body))
			req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")
			rec := httptest.NewRecorder()

			d.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q", ct)
			}
			var out map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatalf("invalid response body: %v", err)
			}
			if tt.lang != "" {
				if out["result"].(map[string]any)["lang"] != tt.lang {
					t.Errorf("expected Accept-Language to apply, got %v", out)
				}
			}
		})
	}
}

func TestParseAcceptLanguage(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"ru-RU,ru;q=0.9": "ru",
		"uz;q=0.8, en":   "uz",
		"*":              "",
		" EN-us ":        "en",
	}
	for header, want := range tests {
		if got := parseAcceptLanguage(header); got != want {
			t.Errorf("parseAcceptLanguage(%q) = %q, want %q", header, got, want)
		}
	}
}
