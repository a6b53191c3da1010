package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"instantpay/internal/models"
	"instantpay/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// service implements the transfer Service interface.
type service struct {
	accounts  repositories.AccountRepository
	transfers repositories.TransferRepository
	notifier  Notifier
	locks     *KeyedMutex
	config    Config
	metrics   MetricsCollector
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new transfer service instance.
func NewService(
	accounts repositories.AccountRepository,
	transfers repositories.TransferRepository,
	notifier Notifier,
	config Config,
	metrics MetricsCollector,
	logger *zap.Logger,
) Service {
	if accounts == nil {
		panic("account repository is required")
	}
	if transfers == nil {
		panic("transfer repository is required")
	}

	// Metrics, logger and notifier are optional
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &service{
		accounts:  accounts,
		transfers: transfers,
		notifier:  notifier,
		locks:     NewKeyedMutex(),
		config:    config,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Transfer moves cmd.Amount from the sender to the recipient at most once
// per idempotency key.
func (s *service) Transfer(ctx context.Context, cmd Command) (Outcome, error) {
	start := s.now()
	outcome, err := s.transfer(ctx, cmd)
	s.metrics.RecordDuration(s.now().Sub(start))
	if err == nil {
		s.metrics.RecordOutcome(outcome.SuccessCode, outcome.Message)
	}
	return outcome, err
}

func (s *service) transfer(ctx context.Context, cmd Command) (Outcome, error) {
	log := s.logger.With(
		zap.String("senderId", cmd.SenderID),
		zap.String("recipientId", cmd.RecipientID),
		zap.String("amount", cmd.Amount.String()),
		zap.String("idempotencyKey", cmd.IdempotencyKey),
	)

	processed, err := s.alreadyProcessed(ctx, cmd.IdempotencyKey)
	if err != nil {
		return Outcome{}, err
	}
	if processed {
		log.Info("payment is already processed")
		return succeeded(MessageAlreadyProcessed), nil
	}

	if s.config.RejectSelfTransfer && cmd.SenderID == cmd.RecipientID {
		log.Info("self transfer rejected")
		return failed(MessageSelfTransfer), nil
	}

	if _, err := s.accounts.GetByID(ctx, cmd.SenderID); err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			log.Warn("sender account not found")
			return failed(MessageSenderNotFound), nil
		}
		return Outcome{}, fmt.Errorf("failed to get sender account: %w", err)
	}

	if _, err := s.accounts.GetByID(ctx, cmd.RecipientID); err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			log.Warn("recipient account not found")
			return failed(MessageRecipientNotFound), nil
		}
		return Outcome{}, fmt.Errorf("failed to get recipient account: %w", err)
	}

	outcome, err := s.debitAndRecord(ctx, cmd, log)
	if err != nil || outcome.Message != MessageProcessed {
		return outcome, err
	}

	// Outside the sender lock: delivery time never extends the critical section.
	s.notify(ctx, cmd, log)

	return outcome, nil
}

func (s *service) alreadyProcessed(ctx context.Context, key string) (bool, error) {
	_, err := s.transfers.FindByIdempotencyKey(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrTransferNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
}

// debitAndRecord runs the funds check and the atomic mutation while holding
// the sender's lock.
func (s *service) debitAndRecord(ctx context.Context, cmd Command, log *zap.Logger) (Outcome, error) {
	unlock, err := s.locks.Lock(ctx, cmd.SenderID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to acquire sender lock: %w", err)
	}
	defer unlock()

	// A concurrent request with the same key may have committed while we
	// waited for the lock; its debit must not read as insufficient funds.
	processed, err := s.alreadyProcessed(ctx, cmd.IdempotencyKey)
	if err != nil {
		return Outcome{}, err
	}
	if processed {
		log.Info("payment is already processed")
		return succeeded(MessageAlreadyProcessed), nil
	}

	sender, err := s.accounts.GetByID(ctx, cmd.SenderID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			log.Warn("sender account not found")
			return failed(MessageSenderNotFound), nil
		}
		return Outcome{}, fmt.Errorf("failed to get sender account: %w", err)
	}

	if sender.Balance.LessThan(cmd.Amount) {
		log.Info("insufficient balance", zap.String("balance", sender.Balance.String()))
		return failed(MessageInsufficientFunds), nil
	}

	record := &models.Transfer{
		ID:             uuid.NewString(),
		SenderID:       cmd.SenderID,
		RecipientID:    cmd.RecipientID,
		Amount:         cmd.Amount,
		IdempotencyKey: cmd.IdempotencyKey,
		CreatedAt:      s.now().UTC(),
	}

	err = s.accounts.AtomicTransfer(ctx, record)
	switch {
	case err == nil:
		log.Debug("accounts updated and transfer saved", zap.String("transferId", record.ID))
		return succeeded(MessageProcessed), nil
	case errors.Is(err, repositories.ErrDuplicateTransfer):
		// Another request with the same key committed first.
		log.Info("payment is already processed")
		return succeeded(MessageAlreadyProcessed), nil
	case errors.Is(err, repositories.ErrInsufficientBalance):
		// Another replica may have committed the same key between our check
		// and the conditional debit.
		if processed, lookupErr := s.alreadyProcessed(ctx, cmd.IdempotencyKey); lookupErr == nil && processed {
			log.Info("payment is already processed")
			return succeeded(MessageAlreadyProcessed), nil
		}
		log.Info("insufficient balance")
		return failed(MessageInsufficientFunds), nil
	case errors.Is(err, repositories.ErrSenderNotFound):
		log.Warn("sender account not found")
		return failed(MessageSenderNotFound), nil
	case errors.Is(err, repositories.ErrRecipientNotFound):
		log.Warn("recipient account not found")
		return failed(MessageRecipientNotFound), nil
	default:
		return Outcome{}, fmt.Errorf("failed to apply transfer: %w", err)
	}
}

func (s *service) notify(ctx context.Context, cmd Command, log *zap.Logger) {
	if s.notifier == nil {
		return
	}
	// The request context may be cancelled as soon as we return.
	if err := s.notifier.Notify(context.WithoutCancel(ctx), cmd.RecipientID, cmd.Amount); err != nil {
		s.metrics.RecordNotificationFailure()
		log.Warn("failed to dispatch notification", zap.Error(err))
	}
}
