// Package jsonrpc implements a JSON-RPC 2.0 dispatcher over HTTP.
//
// Every response is sent with HTTP 200; failures are encoded in the
// envelope. Method handlers receive the raw params and the language tag
// resolved for the request through the context.
package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Version is the only protocol version accepted
const Version = "2.0"

// Protocol error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

var protocolMessages = map[int]string{
	CodeParseError:     "Parse error",
	CodeInvalidRequest: "Invalid Request",
	CodeMethodNotFound: "Method not found",
	CodeInvalidParams:  "Invalid params",
	CodeInternalError:  "Internal error",
}

// DefaultLang is used when a request carries no language tag
const DefaultLang = "en"

// Request is a JSON-RPC request envelope. Lang is an extension field
// carrying the language of error messages.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Lang    string          `json:"lang,omitempty"`
}

// Response is a JSON-RPC response envelope
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Error is a JSON-RPC error object
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewError builds an error object
func NewError(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// ProtocolError builds an error object with the standard message for code
func ProtocolError(code int, data any) *Error {
	return NewError(code, protocolMessages[code], data)
}

// DecodeParams decodes params into v. Missing params leave v untouched.
func DecodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return ProtocolError(CodeInvalidParams, err.Error())
	}
	return nil
}

type langKey struct{}

// WithLang returns a context carrying the language tag
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the language tag of ctx, or DefaultLang
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// normalizeLang reduces a tag such as "ru-RU" to its primary subtag
func normalizeLang(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// parseAcceptLanguage returns the primary subtag of the first listed language
func parseAcceptLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	if lang := normalizeLang(first); lang != "*" {
		return lang
	}
	return ""
}
