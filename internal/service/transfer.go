package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SanjarHikmatov/unired-task/internal/apperror"
	"github.com/SanjarHikmatov/unired-task/internal/exchange"
	"github.com/SanjarHikmatov/unired-task/internal/models"
	"github.com/SanjarHikmatov/unired-task/internal/repository"
	"github.com/SanjarHikmatov/unired-task/internal/utils"
	"github.com/SanjarHikmatov/unired-task/internal/validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// MaxOTPAttempts is the number of wrong codes after which a transfer is cancelled
	MaxOTPAttempts = 3
	otpLength      = 6

	// DefaultNotifyTimeout bounds OTP delivery so that create answers well
	// within the HTTP server write timeout
	DefaultNotifyTimeout = 5 * time.Second
)

// TransferStore persists transfers and applies guarded state changes
type TransferStore interface {
	CreateTransfer(ctx context.Context, t *models.Transfer) error
	GetTransferByExtID(ctx context.Context, extID string) (*models.Transfer, error)
	ConfirmTransfer(ctx context.Context, extID, otp string, at time.Time) (*models.Transfer, error)
	RegisterFailedAttempt(ctx context.Context, extID string, maxAttempts int, at time.Time) (*models.Transfer, error)
	CancelTransfer(ctx context.Context, extID string, at time.Time) (*models.Transfer, error)
}

// CreateResult is returned by a successful create
type CreateResult struct {
	ExtID           string               `json:"ext_id"`
	State           models.TransferState `json:"state"`
	CreatedAt       time.Time            `json:"created_at"`
	SendingAmount   string               `json:"sending_amount"`
	ReceivingAmount string               `json:"receiving_amount"`
	Currency        int                  `json:"currency"`
	OTPSent         bool                 `json:"otp_sent"`
}

// ConfirmResult is returned by a successful confirm
type ConfirmResult struct {
	ExtID       string               `json:"ext_id"`
	State       models.TransferState `json:"state"`
	ConfirmedAt time.Time            `json:"confirmed_at"`
}

// CancelResult is returned by a successful cancel
type CancelResult struct {
	ExtID       string               `json:"ext_id"`
	State       models.TransferState `json:"state"`
	CancelledAt time.Time            `json:"cancelled_at"`
}

// TransferService drives the transfer lifecycle:
// created -> confirmed, or created -> cancelled.
type TransferService struct {
	store     TransferStore
	validator *validation.TransferValidator
	rates     exchange.Rates
	notifier  Notifier
	log       *logrus.Logger
	locks     *keyedMutex

	notifyTimeout time.Duration
	now           func() time.Time
	generateOTP   func(length int) (string, error)
}

// NewTransferService creates a transfer service
func NewTransferService(store TransferStore, validator *validation.TransferValidator, rates exchange.Rates, notifier Notifier, log *logrus.Logger) *TransferService {
	return &TransferService{
		store:         store,
		validator:     validator,
		rates:         rates,
		notifier:      notifier,
		log:           log,
		locks:         newKeyedMutex(),
		notifyTimeout: DefaultNotifyTimeout,
		now:           func() time.Time { return time.Now().UTC() },
		generateOTP:   utils.GenerateOTP,
	}
}

// Create validates the request, stores a new transfer in the created state
// and sends its OTP to the sender. A failed delivery does not fail the call;
// it is reported through OTPSent.
func (s *TransferService) Create(ctx context.Context, in validation.CreateTransferInput) (*CreateResult, error) {
	v, errs, err := s.validator.ValidateCreate(ctx, in)
	if err != nil {
		return nil, apperror.Transient(err)
	}
	if errs != nil {
		return nil, apperror.Validation(errs)
	}

	extID := v.ExtID
	if extID == "" {
		extID = uuid.NewString()
	}

	receiving := v.SendingAmount
	if v.ReceivingAmount != nil {
		receiving = *v.ReceivingAmount
	} else if receiving, err = s.rates.Calculate(v.SendingAmount, v.Currency); err != nil {
		return nil, apperror.Transient(fmt.Errorf("failed to calculate receiving amount: %w", err))
	}

	otp, err := s.generateOTP(otpLength)
	if err != nil {
		return nil, apperror.Transient(fmt.Errorf("failed to generate otp: %w", err))
	}

	now := s.now()
	transfer := &models.Transfer{
		ExtID:              extID,
		SenderCardNumber:   v.SenderCardNumber,
		SenderCardExpiry:   v.SenderCardExpiry,
		ReceiverCardNumber: v.ReceiverCardNumber,
		SenderPhone:        v.SenderPhone,
		ReceiverPhone:      v.ReceiverPhone,
		SendingAmount:      v.SendingAmount,
		Currency:           v.Currency,
		ReceivingAmount:    receiving,
		State:              models.TransferStateCreated,
		OTP:                otp,
		TryCount:           0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.CreateTransfer(ctx, transfer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Validation(map[string][]string{"ext_id": {validation.MsgExtIDExists}})
		}
		return nil, apperror.Transient(err)
	}

	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	sent := s.notifier.Send(notifyCtx, transfer.SenderPhone, otpMessage(extID, otp))
	cancel()
	if !sent {
		s.log.WithField("ext_id", extID).Warn("OTP delivery failed, transfer kept in created state")
	}

	s.log.WithFields(logrus.Fields{
		"ext_id":   extID,
		"amount":   transfer.SendingAmount.StringFixed(2),
		"currency": transfer.Currency,
	}).Info("Transfer created")

	return &CreateResult{
		ExtID:           extID,
		State:           transfer.State,
		CreatedAt:       transfer.CreatedAt,
		SendingAmount:   transfer.SendingAmount.StringFixed(2),
		ReceivingAmount: transfer.ReceivingAmount.StringFixed(2),
		Currency:        transfer.Currency,
		OTPSent:         sent,
	}, nil
}

// Confirm checks otp against the code stored for extID. A match confirms the
// transfer; a mismatch consumes one attempt and cancels the transfer once
// MaxOTPAttempts wrong codes were submitted.
func (s *TransferService) Confirm(ctx context.Context, extID, otp string) (*ConfirmResult, error) {
	extID = strings.TrimSpace(extID)
	errs := validation.Errors{}
	if extID == "" {
		errs.Add("ext_id", validation.MsgRequired)
	}
	otp, msg := validation.OTP(otp)
	if msg != "" {
		errs.Add("otp", msg)
	}
	if !errs.Empty() {
		return nil, apperror.Validation(errs)
	}

	unlock := s.locks.Lock(extID)
	defer unlock()

	transfer, err := s.pending(ctx, extID, models.TransferStateConfirmed)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(transfer.OTP), []byte(otp)) == 1 {
		confirmed, err := s.store.ConfirmTransfer(ctx, extID, otp, s.now())
		if err != nil {
			return nil, s.mutationError(ctx, extID, err)
		}
		s.log.WithField("ext_id", extID).Info("Transfer confirmed")
		return &ConfirmResult{
			ExtID:       confirmed.ExtID,
			State:       confirmed.State,
			ConfirmedAt: *confirmed.ConfirmedAt,
		}, nil
	}

	updated, err := s.store.RegisterFailedAttempt(ctx, extID, MaxOTPAttempts, s.now())
	if err != nil {
		return nil, s.mutationError(ctx, extID, err)
	}

	fields := logrus.Fields{"ext_id": extID, "try_count": updated.TryCount}
	if updated.State.IsTerminal() {
		s.log.WithFields(fields).Warn("OTP attempts exhausted, transfer cancelled")
		return nil, apperror.Business(apperror.CodeAttemptsExhausted, map[string]any{"ext_id": extID})
	}
	s.log.WithFields(fields).Info("Wrong OTP submitted")
	return nil, apperror.Business(apperror.CodeWrongOTP, map[string]any{
		"attempts_left": MaxOTPAttempts - updated.TryCount,
	})
}

// Cancel moves a created transfer to cancelled
func (s *TransferService) Cancel(ctx context.Context, extID string) (*CancelResult, error) {
	extID = strings.TrimSpace(extID)
	if extID == "" {
		return nil, apperror.Validation(map[string][]string{"ext_id": {validation.MsgRequired}})
	}

	unlock := s.locks.Lock(extID)
	defer unlock()

	if _, err := s.pending(ctx, extID, models.TransferStateCancelled); err != nil {
		return nil, err
	}

	cancelled, err := s.store.CancelTransfer(ctx, extID, s.now())
	if err != nil {
		return nil, s.mutationError(ctx, extID, err)
	}
	s.log.WithField("ext_id", extID).Info("Transfer cancelled")
	return &CancelResult{
		ExtID:       cancelled.ExtID,
		State:       cancelled.State,
		CancelledAt: *cancelled.CancelledAt,
	}, nil
}

// pending loads a transfer that may still move to next
func (s *TransferService) pending(ctx context.Context, extID string, next models.TransferState) (*models.Transfer, error) {
	transfer, err := s.store.GetTransferByExtID(ctx, extID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.State(apperror.CodeTransferNotFound, map[string]any{"ext_id": extID})
	}
	if err != nil {
		return nil, apperror.Transient(err)
	}
	if !transfer.State.CanTransition(next) {
		return nil, invalidState(transfer)
	}
	return transfer, nil
}

// mutationError maps a failed guarded update. A state conflict means another
// process moved the transfer first, so the current state is reported.
func (s *TransferService) mutationError(ctx context.Context, extID string, err error) error {
	if !errors.Is(err, repository.ErrStateConflict) {
		return apperror.Transient(err)
	}
	current, getErr := s.store.GetTransferByExtID(ctx, extID)
	if getErr != nil {
		return apperror.Transient(errors.Join(err, getErr))
	}
	return invalidState(current)
}

func invalidState(t *models.Transfer) error {
	return apperror.State(apperror.CodeInvalidState, map[string]any{
		"ext_id": t.ExtID,
		"state":  string(t.State),
	})
}

func otpMessage(extID, otp string) string {
	return fmt.Sprintf("Your confirmation code for transfer %s: %s", extID, otp)
}
