package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle status of a card
type CardStatus string

const (
	CardStatusActive   CardStatus = "active"
	CardStatusInactive CardStatus = "inactive"
	CardStatusExpired  CardStatus = "expired"
)

// ParseCardStatus parses a status case-insensitively
func ParseCardStatus(s string) (CardStatus, bool) {
	switch status := CardStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case CardStatusActive, CardStatusInactive, CardStatusExpired:
		return status, true
	}
	return "", false
}

// Card represents a card in the directory
type Card struct {
	CardNumber string          `json:"card_number"` // 16 digits, Luhn-valid
	Expire     string          `json:"expire"`      // stored as entered
	Phone      string          `json:"phone"`       // empty when unknown
	Status     CardStatus      `json:"status"`
	Balance    decimal.Decimal `json:"balance"`
}

// CardInfo is the public view of a card returned by the lookup endpoint
type CardInfo struct {
	CardStatus string `json:"card_status"`
	Balance    string `json:"balance"`
	Phone      string `json:"phone"`
	MaskedCard string `json:"masked_card"`
}

// CardFilter narrows card listings; empty fields match everything
type CardFilter struct {
	Status     string
	CardNumber string
	Phone      string
}
