package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SanjarHikmatov/unired-task/internal/catalog"
	"github.com/SanjarHikmatov/unired-task/internal/jsonrpc"
	"github.com/SanjarHikmatov/unired-task/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Pinger checks that the record store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	cards     *service.CardService
	transfers *service.TransferService
	catalog   *catalog.Catalog
	db        Pinger
	rpc       *jsonrpc.Dispatcher
	log       *logrus.Logger
}

func NewHandler(cards *service.CardService, transfers *service.TransferService, cat *catalog.Catalog, db Pinger, log *logrus.Logger) *Handler {
	h := &Handler{
		cards:     cards,
		transfers: transfers,
		catalog:   cat,
		db:        db,
		rpc:       jsonrpc.NewDispatcher(log),
		log:       log,
	}
	h.registerTransferMethods()
	return h
}

// RegisterRoutes binds the public endpoints to router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/card-info/", h.CardInfo).Methods(http.MethodPost)
	router.Handle("/rpc", h.rpc).Methods(http.MethodPost)
	router.Handle("/jsonrpc/", h.rpc).Methods(http.MethodPost)
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
}

// Health reports whether the database answers
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.WithError(err).Error("Health check failed")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Error("Failed to write response")
	}
}
