package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/SanjarHikmatov/unired-task/internal/service"
	"github.com/SanjarHikmatov/unired-task/internal/validation"
	"github.com/sirupsen/logrus"
)

const (
	maxCardNumberLen = 19
	maxExpireLen     = 5
)

type cardInfoRequest struct {
	CardNumber string `json:"card_number"`
	Expire     string `json:"expire"`
}

func (req cardInfoRequest) validate() validation.Errors {
	errs := validation.Errors{}
	checkField(errs, "card_number", req.CardNumber, maxCardNumberLen)
	checkField(errs, "expire", req.Expire, maxExpireLen)
	return errs
}

func checkField(errs validation.Errors, field, value string, maxLen int) {
	switch {
	case strings.TrimSpace(value) == "":
		errs.Add(field, validation.MsgRequired)
	case utf8.RuneCountInString(value) > maxLen:
		errs.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters", maxLen))
	}
}

// CardInfo answers a card lookup by exact number and expiry
func (h *Handler) CardInfo(w http.ResponseWriter, r *http.Request) {
	var req cardInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.WithError(err).Warn("Failed to decode card info request")
		h.writeJSON(w, http.StatusBadRequest, map[string][]string{validation.GeneralField: {"Invalid JSON body"}})
		return
	}
	if errs := req.validate(); !errs.Empty() {
		h.writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	info, err := h.cards.Lookup(r.Context(), req.CardNumber, req.Expire)
	if errors.Is(err, service.ErrCardNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Card not found"})
		return
	}
	if err != nil {
		h.log.WithFields(logrus.Fields{"error": err.Error()}).Error("Card lookup failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}
