package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

var nullID = json.RawMessage("null")

// HandlerFunc serves one RPC method
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Dispatcher routes requests to registered methods
type Dispatcher struct {
	methods map[string]HandlerFunc
	log     *logrus.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(log *logrus.Logger) *Dispatcher {
	return &Dispatcher{methods: make(map[string]HandlerFunc), log: log}
}

// Register binds fn to every name in names
func (d *Dispatcher) Register(fn HandlerFunc, names ...string) {
	for _, name := range names {
		d.methods[name] = fn
	}
}

// ServeHTTP decodes the body and writes the response envelope with HTTP 200
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if lang := parseAcceptLanguage(r.Header.Get("Accept-Language")); lang != "" {
		ctx = WithLang(ctx, lang)
	}

	var resp *Response
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		resp = &Response{JSONRPC: Version, Error: ProtocolError(CodeParseError, err.Error())}
	} else {
		resp = d.Handle(ctx, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		d.log.Errorf("Failed to write rpc response: %v", err)
	}
}

// Handle processes one request body. It never returns nil.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) *Response {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return &Response{JSONRPC: Version, Error: ProtocolError(CodeParseError, "Invalid JSON")}
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return d.failure(recoverID(body), ProtocolError(CodeInvalidRequest, err.Error()))
	}
	id := req.ID
	if len(id) == 0 {
		id = nullID
	}
	if req.Method == "" || (req.JSONRPC != "" && req.JSONRPC != Version) {
		return d.failure(id, ProtocolError(CodeInvalidRequest, "jsonrpc must be \"2.0\" and method is required"))
	}

	fn, ok := d.methods[req.Method]
	if !ok {
		return d.failure(id, ProtocolError(CodeMethodNotFound, "Unknown method: "+req.Method))
	}

	ctx = WithLang(ctx, resolveLang(ctx, req))
	start := time.Now()
	result, err := d.call(ctx, fn, req.Params)
	fields := logrus.Fields{"method": req.Method, "duration_ms": time.Since(start).Milliseconds()}

	if err != nil {
		var rpcErr *Error
		if !errors.As(err, &rpcErr) {
			rpcErr = ProtocolError(CodeInternalError, err.Error())
		}
		fields["code"] = rpcErr.Code
		if rpcErr.Code == CodeInternalError {
			d.log.WithFields(fields).Errorf("RPC call failed: %v", err)
		} else {
			d.log.WithFields(fields).Info("RPC call rejected")
		}
		return &Response{JSONRPC: Version, Error: rpcErr, ID: id}
	}

	d.log.WithFields(fields).Info("RPC call completed")
	return &Response{JSONRPC: Version, Result: result, ID: id}
}

func (d *Dispatcher) call(ctx context.Context, fn HandlerFunc, params json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ProtocolError(CodeInternalError, fmt.Sprint(r))
		}
	}()
	return fn(ctx, params)
}

func (d *Dispatcher) failure(id json.RawMessage, rpcErr *Error) *Response {
	d.log.WithField("code", rpcErr.Code).Info("RPC request rejected")
	return &Response{JSONRPC: Version, Error: rpcErr, ID: id}
}

// resolveLang picks the envelope tag, then params.lang, then the tag already in ctx
func resolveLang(ctx context.Context, req Request) string {
	if lang := normalizeLang(req.Lang); lang != "" {
		return lang
	}
	var p struct {
		Lang string `json:"lang"`
	}
	if json.Unmarshal(req.Params, &p) == nil {
		if lang := normalizeLang(p.Lang); lang != "" {
			return lang
		}
	}
	return LangFromContext(ctx)
}

// recoverID extracts the id of an object that is not a valid request
func recoverID(body []byte) json.RawMessage {
	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) == nil {
		if id, ok := fields["id"]; ok && len(id) > 0 {
			return id
		}
	}
	return nullID
}
