package handler

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/SanjarHikmatov/unired-task/internal/apperror"
	"github.com/SanjarHikmatov/unired-task/internal/jsonrpc"
	"github.com/SanjarHikmatov/unired-task/internal/validation"
	"github.com/shopspring/decimal"
)

const msgNumber = "A valid number is required"

// looseString accepts a JSON string or number
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

type createParams struct {
	ExtID              looseString `json:"ext_id"`
	SenderCardNumber   looseString `json:"sender_card_number"`
	SenderCardExpiry   string      `json:"sender_card_expiry"`
	ReceiverCardNumber looseString `json:"receiver_card_number"`
	SenderPhone        looseString `json:"sender_phone"`
	ReceiverPhone      looseString `json:"receiver_phone"`
	SendingAmount      looseString `json:"sending_amount"`
	ReceivingAmount    looseString `json:"receiving_amount"`
	Currency           looseString `json:"currency"`
}

type confirmParams struct {
	ExtID looseString `json:"ext_id"`
	OTP   looseString `json:"otp"`
}

type cancelParams struct {
	ExtID looseString `json:"ext_id"`
}

func (h *Handler) registerTransferMethods() {
	h.rpc.Register(h.createTransfer, "create", "transfer.create")
	h.rpc.Register(h.confirmTransfer, "confirm", "transfer.confirm")
	h.rpc.Register(h.cancelTransfer, "cancel", "transfer.cancel")
}

func (h *Handler) createTransfer(ctx context.Context, raw json.RawMessage) (any, error) {
	var p createParams
	if err := jsonrpc.DecodeParams(raw, &p); err != nil {
		return nil, err
	}

	errs := validation.Errors{}
	sending := parseAmount(errs, "sending_amount", string(p.SendingAmount))
	receiving := parseAmount(errs, "receiving_amount", string(p.ReceivingAmount))
	if !errs.Empty() {
		return nil, h.rpcError(ctx, apperror.Validation(errs))
	}

	res, err := h.transfers.Create(ctx, validation.CreateTransferInput{
		ExtID:              string(p.ExtID),
		SenderCardNumber:   string(p.SenderCardNumber),
		SenderCardExpiry:   p.SenderCardExpiry,
		ReceiverCardNumber: string(p.ReceiverCardNumber),
		SenderPhone:        string(p.SenderPhone),
		ReceiverPhone:      string(p.ReceiverPhone),
		SendingAmount:      sending,
		ReceivingAmount:    receiving,
		Currency:           string(p.Currency),
	})
	if err != nil {
		return nil, h.rpcError(ctx, err)
	}
	return res, nil
}

func (h *Handler) confirmTransfer(ctx context.Context, raw json.RawMessage) (any, error) {
	var p confirmParams
	if err := jsonrpc.DecodeParams(raw, &p); err != nil {
		return nil, err
	}
	res, err := h.transfers.Confirm(ctx, string(p.ExtID), string(p.OTP))
	if err != nil {
		return nil, h.rpcError(ctx, err)
	}
	return res, nil
}

func (h *Handler) cancelTransfer(ctx context.Context, raw json.RawMessage) (any, error) {
	var p cancelParams
	if err := jsonrpc.DecodeParams(raw, &p); err != nil {
		return nil, err
	}
	res, err := h.transfers.Cancel(ctx, string(p.ExtID))
	if err != nil {
		return nil, h.rpcError(ctx, err)
	}
	return res, nil
}

// rpcError turns an application error into an in-band RPC error with a
// localized message. Transient and unexpected errors are returned as is and
// reported by the dispatcher as internal errors.
func (h *Handler) rpcError(ctx context.Context, err error) error {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindTransient || appErr.Code == 0 {
		return err
	}
	msg := h.catalog.Message(appErr.Code, jsonrpc.LangFromContext(ctx))
	return jsonrpc.NewError(appErr.Code, msg, appErr.Detail())
}

// parseAmount returns nil for an absent amount
func parseAmount(errs validation.Errors, field, raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		errs.Add(field, msgNumber)
		return nil
	}
	return &amount
}
