// Package custody implements the escrow custody state machine. Every
// mutating operation re-validates its full preconditions against the
// current record and renews the expiration horizon in the same write, so
// an active custody record can never lapse mid-engagement.
package custody

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artisan-escrow-ledger/internal/clock"
	"github.com/artisan-escrow-ledger/internal/domain/custody"
	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

// Operation names used in error classification
const (
	opFund    = "fund"
	opRelease = "release"
	opRefund  = "refund"
	opDispute = "dispute"
)

// Engine owns the guarded custody operations. All state lives in the
// ledger store; the engine holds no cached record state, so concurrent
// callers always race against the store's atomic compare-and-set writes.
type Engine struct {
	ledger         custody.Repository
	clock          clock.Clock
	recordHorizon  time.Duration
	counterHorizon time.Duration
	logger         *slog.Logger
}

// NewEngine creates a custody engine. The counter horizon should be much
// longer than the record horizon; the counter must never expire while the
// system is live.
func NewEngine(logger *slog.Logger, ledger custody.Repository, clk clock.Clock, recordHorizon, counterHorizon time.Duration) *Engine {
	return &Engine{
		ledger:         ledger,
		clock:          clk,
		recordHorizon:  recordHorizon,
		counterHorizon: counterHorizon,
		logger:         logger,
	}
}

// Open allocates the next custody id and writes a record in Created status
// on behalf of the paying caller. No funds move yet. The amount is
// validated before the counter is touched, so a rejected open never
// consumes an id.
func (e *Engine) Open(ctx context.Context, caller shared.Party, provider string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, custody.ErrInvalidAmount
	}

	now := e.clock.Now()

	id, err := e.ledger.NextID(ctx, now.Add(e.counterHorizon))
	if err != nil {
		e.logger.Error("Failed to allocate custody id", "error", err)
		return 0, fmt.Errorf("failed to allocate custody id: %w", err)
	}

	record, err := custody.NewRecord(id, caller.ID, provider, amount, now, now.Add(e.recordHorizon))
	if err != nil {
		return 0, err
	}

	if err := e.ledger.Create(ctx, record); err != nil {
		e.logger.Error("Failed to create custody record", "custody_id", id, "error", err)
		return 0, fmt.Errorf("failed to create custody record: %w", err)
	}

	e.logger.Info("Custody record opened",
		"custody_id", id,
		"client", record.Client,
		"provider", record.Provider,
		"amount", record.Amount,
	)
	return id, nil
}

// Fund locks the client's value in escrow, moving the record from Created
// to Funded. Only the record's client, or an administrator acting on the
// client's behalf, may fund.
func (e *Engine) Fund(ctx context.Context, id int64, caller shared.Party) error {
	record, err := e.getActive(ctx, id)
	if err != nil {
		return err
	}

	if record.Status != custody.StatusCreated {
		return custody.ErrInvalidState{ID: id, Status: record.Status, Op: opFund}
	}
	if caller.ID != record.Client && !caller.IsAdmin() {
		e.logger.Warn("Unauthorized fund attempt", "custody_id", id, "caller", caller.ID)
		return custody.ErrUnauthorized{ID: id, Caller: caller.ID, Op: opFund}
	}

	return e.transition(ctx, id, custody.StatusCreated, custody.StatusFunded, opFund)
}

// Release finalizes the engagement in the provider's favor. Allowed from
// Funded for the client (confirming satisfactory completion) or an
// administrator, and from Disputed for an administrator only.
func (e *Engine) Release(ctx context.Context, id int64, caller shared.Party) error {
	record, err := e.getActive(ctx, id)
	if err != nil {
		return err
	}

	switch record.Status {
	case custody.StatusFunded:
		if caller.ID != record.Client && !caller.IsAdmin() {
			e.logger.Warn("Unauthorized release attempt", "custody_id", id, "caller", caller.ID)
			return custody.ErrUnauthorized{ID: id, Caller: caller.ID, Op: opRelease}
		}
	case custody.StatusDisputed:
		if !caller.IsAdmin() {
			e.logger.Warn("Non-admin release attempt on disputed record", "custody_id", id, "caller", caller.ID)
			return custody.ErrUnauthorized{ID: id, Caller: caller.ID, Op: opRelease}
		}
	default:
		return custody.ErrInvalidState{ID: id, Status: record.Status, Op: opRelease}
	}

	if err := e.transition(ctx, id, record.Status, custody.StatusReleased, opRelease); err != nil {
		return err
	}

	e.logger.Info("Custody released to provider",
		"custody_id", id,
		"provider", record.Provider,
		"amount", record.Amount,
	)
	return nil
}

// Refund returns the escrowed value to the client. Allowed from Funded for
// either party (cancellation per policy) or an administrator, and from
// Disputed for an administrator only.
func (e *Engine) Refund(ctx context.Context, id int64, caller shared.Party) error {
	record, err := e.getActive(ctx, id)
	if err != nil {
		return err
	}

	switch record.Status {
	case custody.StatusFunded:
		if caller.ID != record.Client && caller.ID != record.Provider && !caller.IsAdmin() {
			e.logger.Warn("Unauthorized refund attempt", "custody_id", id, "caller", caller.ID)
			return custody.ErrUnauthorized{ID: id, Caller: caller.ID, Op: opRefund}
		}
	case custody.StatusDisputed:
		if !caller.IsAdmin() {
			e.logger.Warn("Non-admin refund attempt on disputed record", "custody_id", id, "caller", caller.ID)
			return custody.ErrUnauthorized{ID: id, Caller: caller.ID, Op: opRefund}
		}
	default:
		return custody.ErrInvalidState{ID: id, Status: record.Status, Op: opRefund}
	}

	if err := e.transition(ctx, id, record.Status, custody.StatusRefunded, opRefund); err != nil {
		return err
	}

	e.logger.Info("Custody refunded to client",
		"custody_id", id,
		"client", record.Client,
		"amount", record.Amount,
	)
	return nil
}

// Dispute freezes a funded record, restricting release and refund to
// administrators until resolved. Either party of the record may raise it.
func (e *Engine) Dispute(ctx context.Context, id int64, caller shared.Party) error {
	record, err := e.getActive(ctx, id)
	if err != nil {
		return err
	}

	if record.Status != custody.StatusFunded {
		return custody.ErrInvalidState{ID: id, Status: record.Status, Op: opDispute}
	}
	if caller.ID != record.Client && caller.ID != record.Provider {
		e.logger.Warn("Dispute attempt by non-party", "custody_id", id, "caller", caller.ID)
		return custody.ErrUnauthorized{ID: id, Caller: caller.ID, Op: opDispute}
	}

	return e.transition(ctx, id, custody.StatusFunded, custody.StatusDisputed, opDispute)
}

// Get retrieves the current custody record for status reads
func (e *Engine) Get(ctx context.Context, id int64) (*custody.Record, error) {
	return e.getActive(ctx, id)
}

// getActive fetches a record and defends against a lapsed horizon. A
// lapsed record still present in the store means the renewal invariant was
// violated by an external storage fault; it is logged as a critical
// integrity event and surfaced as expired.
func (e *Engine) getActive(ctx context.Context, id int64) (*custody.Record, error) {
	record, err := e.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.ExpiresAt.Before(e.clock.Now()) {
		e.logger.Error("Custody record past its expiration horizon, renewal invariant violated",
			"custody_id", id,
			"status", string(record.Status),
			"expired_at", record.ExpiresAt,
		)
		return nil, custody.ErrRecordExpired{ID: id, ExpiredAt: record.ExpiresAt}
	}

	return record, nil
}

// transition performs the atomic compare-and-set write, renewing the
// horizon. A miss means the record changed between the precondition read
// and the write; the call is re-classified against the current state and
// reported as a terminal failure, never retried.
func (e *Engine) transition(ctx context.Context, id int64, from, to custody.Status, op string) error {
	now := e.clock.Now()
	expiresAt := now.Add(e.recordHorizon)

	matched, err := e.ledger.Transition(ctx, id, []custody.Status{from}, to, now, expiresAt)
	if err != nil {
		e.logger.Error("Failed to write custody transition",
			"custody_id", id,
			"from", string(from),
			"to", string(to),
			"error", err,
		)
		return fmt.Errorf("failed to write custody transition: %w", err)
	}

	if !matched {
		record, getErr := e.getActive(ctx, id)
		if getErr != nil {
			return getErr
		}
		e.logger.Warn("Custody transition lost precondition race",
			"custody_id", id,
			"expected", string(from),
			"observed", string(record.Status),
			"op", op,
		)
		return custody.ErrInvalidState{ID: id, Status: record.Status, Op: op}
	}

	e.logger.Info("Custody transition applied",
		"custody_id", id,
		"from", string(from),
		"to", string(to),
		"expires_at", expiresAt,
	)
	return nil
}
