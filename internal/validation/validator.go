// Package validation holds the field and cross-field rules for card records
// and transfer requests.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SanjarHikmatov/unired-task/internal/models"
	"github.com/SanjarHikmatov/unired-task/internal/repository"
	"github.com/shopspring/decimal"
)

// CardInput is a raw card record as entered by an administrator
type CardInput struct {
	CardNumber string
	Expire     string
	Phone      string
	Status     string
	Balance    string
}

// ValidateCard checks every field of a card record independently
func ValidateCard(in CardInput) (*models.Card, Errors) {
	errs := Errors{}
	card := &models.Card{}

	var msg string
	if card.CardNumber, msg = CardNumber(in.CardNumber); msg != "" {
		errs.Add("card_number", msg)
	}
	if card.Expire, msg = Expire(in.Expire); msg != "" {
		errs.Add("expire", msg)
	}
	if card.Phone, msg = Phone(in.Phone); msg != "" {
		errs.Add("phone", msg)
	}
	if card.Status, msg = Status(in.Status); msg != "" {
		errs.Add("status", msg)
	}

	balance := strings.TrimSpace(in.Balance)
	if balance == "" {
		balance = "0"
	}
	amount, err := decimal.NewFromString(balance)
	switch {
	case err != nil:
		errs.Add("balance", MsgBalanceFormat)
	case amount.IsNegative():
		errs.Add("balance", MsgBalanceNegative)
	default:
		card.Balance = amount.Round(2)
	}

	if !errs.Empty() {
		return nil, errs
	}
	return card, nil
}

// CardFinder looks cards up by exact key
type CardFinder interface {
	GetCardByNumberAndExpiry(ctx context.Context, number, expire string) (*models.Card, error)
	GetCardByNumber(ctx context.Context, number string) (*models.Card, error)
}

// ExtIDChecker reports whether a transfer already uses an external id
type ExtIDChecker interface {
	ExtIDExists(ctx context.Context, extID string) (bool, error)
}

// CreateTransferInput is a raw transfer creation request
type CreateTransferInput struct {
	ExtID              string
	SenderCardNumber   string
	SenderCardExpiry   string
	ReceiverCardNumber string
	SenderPhone        string
	ReceiverPhone      string
	SendingAmount      *decimal.Decimal
	ReceivingAmount    *decimal.Decimal
	Currency           string
}

// ValidatedTransfer is a creation request that passed every rule
type ValidatedTransfer struct {
	ExtID              string
	SenderCardNumber   string
	SenderCardExpiry   string
	ReceiverCardNumber string
	SenderPhone        string
	ReceiverPhone      string
	SendingAmount      decimal.Decimal
	ReceivingAmount    *decimal.Decimal
	Currency           int
	Sender             *models.Card
	Receiver           *models.Card
}

// TransferValidator validates transfer creation requests
type TransferValidator struct {
	cards      CardFinder
	transfers  ExtIDChecker
	currencies []int
}

// NewTransferValidator creates a validator with the allowed currency codes
func NewTransferValidator(cards CardFinder, transfers ExtIDChecker, currencies []int) *TransferValidator {
	return &TransferValidator{cards: cards, transfers: transfers, currencies: currencies}
}

// ValidateCreate runs the field rules and, when all fields are valid, the
// cross-field rules against the card store. Validation failures come back as
// Errors; a non-nil error means the store itself failed.
func (v *TransferValidator) ValidateCreate(ctx context.Context, in CreateTransferInput) (*ValidatedTransfer, Errors, error) {
	errs := Errors{}
	out := &ValidatedTransfer{}

	var msg string
	if out.SenderCardNumber, msg = CardNumber(in.SenderCardNumber); msg != "" {
		errs.Add("sender_card_number", msg)
	}
	if out.SenderCardExpiry, msg = Expire(in.SenderCardExpiry); msg != "" {
		errs.Add("sender_card_expiry", msg)
	}
	if out.ReceiverCardNumber, msg = CardNumber(in.ReceiverCardNumber); msg != "" {
		errs.Add("receiver_card_number", msg)
	}
	if out.SenderPhone, msg = Phone(withPlus(in.SenderPhone)); msg != "" {
		errs.Add("sender_phone", msg)
	}
	if out.ReceiverPhone, msg = Phone(withPlus(in.ReceiverPhone)); msg != "" {
		errs.Add("receiver_phone", msg)
	}
	if out.SendingAmount, msg = Amount(in.SendingAmount); msg != "" {
		errs.Add("sending_amount", msg)
	}
	if in.ReceivingAmount != nil {
		switch {
		case !in.ReceivingAmount.IsPositive():
			errs.Add("receiving_amount", MsgReceivingPositive)
		case !hasCents(*in.ReceivingAmount):
			errs.Add("receiving_amount", MsgAmountDecimals)
		default:
			out.ReceivingAmount = in.ReceivingAmount
		}
	}
	if out.Currency, msg = Currency(in.Currency, v.currencies); msg != "" {
		errs.Add("currency", msg)
	}

	if extID := strings.TrimSpace(in.ExtID); extID != "" {
		exists, err := v.transfers.ExtIDExists(ctx, extID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check ext id: %w", err)
		}
		if exists {
			errs.Add("ext_id", MsgExtIDExists)
		}
		out.ExtID = extID
	}

	if !errs.Empty() {
		return nil, errs, nil
	}

	msg, err := v.checkCards(ctx, out)
	if err != nil {
		return nil, nil, err
	}
	if msg != "" {
		errs.Add(GeneralField, msg)
		return nil, errs, nil
	}
	return out, nil, nil
}

func (v *TransferValidator) checkCards(ctx context.Context, out *ValidatedTransfer) (string, error) {
	sender, err := v.cards.GetCardByNumberAndExpiry(ctx, out.SenderCardNumber, out.SenderCardExpiry)
	if errors.Is(err, repository.ErrNotFound) {
		return MsgSenderNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find sender card: %w", err)
	}

	receiver, err := v.cards.GetCardByNumber(ctx, out.ReceiverCardNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return MsgReceiverNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find receiver card: %w", err)
	}

	if sender.Status != models.CardStatusActive {
		return MsgSenderNotActive, nil
	}
	if sender.Balance.LessThan(out.SendingAmount) {
		return MsgBalanceNotEnough, nil
	}

	out.Sender = sender
	out.Receiver = receiver
	return "", nil
}

func withPlus(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone != "" && !strings.HasPrefix(phone, "+") {
		return "+" + phone
	}
	return phone
}
