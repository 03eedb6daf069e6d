package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferState is the state of a transfer in its confirmation lifecycle
type TransferState string

const (
	TransferStateCreated   TransferState = "created"
	TransferStateConfirmed TransferState = "confirmed"
	TransferStateCancelled TransferState = "cancelled"
)

// legalTransitions lists the allowed target states per state.
// Terminal states have no outgoing transitions.
var legalTransitions = map[TransferState]map[TransferState]bool{
	TransferStateCreated: {
		TransferStateConfirmed: true,
		TransferStateCancelled: true,
	},
	TransferStateConfirmed: {},
	TransferStateCancelled: {},
}

// CanTransition reports whether a transfer may move from s to next
func (s TransferState) CanTransition(next TransferState) bool {
	return legalTransitions[s][next]
}

// IsTerminal reports whether no transition leaves s
func (s TransferState) IsTerminal() bool {
	return len(legalTransitions[s]) == 0
}

// Transfer represents an OTP-gated card-to-card transfer
type Transfer struct {
	ExtID              string          `json:"ext_id"`
	SenderCardNumber   string          `json:"sender_card_number"`
	SenderCardExpiry   string          `json:"sender_card_expiry"`
	ReceiverCardNumber string          `json:"receiver_card_number"`
	SenderPhone        string          `json:"sender_phone"`
	ReceiverPhone      string          `json:"receiver_phone"`
	SendingAmount      decimal.Decimal `json:"sending_amount"`
	Currency           int             `json:"currency"`
	ReceivingAmount    decimal.Decimal `json:"receiving_amount"`
	State              TransferState   `json:"state"`
	OTP                string          `json:"-"`
	TryCount           int             `json:"try_count"`
	CreatedAt          time.Time       `json:"created_at"`
	ConfirmedAt        *time.Time      `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
