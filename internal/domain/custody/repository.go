package custody

import (
	"context"
	"strconv"
	"time"
)

// Repository defines the custody ledger store. Mutations on a given record
// are atomic compare-and-set writes: the expected status set is part of the
// write itself, so a precondition check can never be separated from the
// update it guards.
type Repository interface {
	// NextID atomically increments and returns the booking counter,
	// renewing the counter's own expiration horizon in the same write.
	NextID(ctx context.Context, counterExpiresAt time.Time) (int64, error)

	// Create stores a new record. Returns ErrDuplicateRecord if the id is taken.
	Create(ctx context.Context, record *Record) error

	// Get retrieves a record by id. Returns ErrRecordNotFound if absent.
	Get(ctx context.Context, id int64) (*Record, error)

	// Transition atomically moves the record from one of the expected
	// statuses to the target status, renewing the horizon in the same
	// write. The caller supplies both timestamps from one clock so
	// updated_at and expires_at cannot disagree. Returns false when no
	// record matched the precondition, in which case the caller must
	// re-read to classify the failure.
	Transition(ctx context.Context, id int64, from []Status, to Status, now, expiresAt time.Time) (bool, error)
}

// ErrRecordNotFound indicates a missing custody record
type ErrRecordNotFound struct {
	ID int64
}

func (e ErrRecordNotFound) Error() string {
	return "custody record not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrRecordNotFound when the target carries a zero id
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.ID == 0 {
		return true
	}
	return e.ID == t.ID
}

// ErrDuplicateRecord indicates an id collision on creation, which means the
// counter invariant was violated
type ErrDuplicateRecord struct {
	ID int64
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate custody record: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrDuplicateRecord when the target carries a zero id
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.ID == 0 {
		return true
	}
	return e.ID == t.ID
}

// ErrUnauthorized indicates the caller may not drive the requested custody
// operation in the record's current state
type ErrUnauthorized struct {
	ID     int64
	Caller string
	Op     string
}

func (e ErrUnauthorized) Error() string {
	return "caller " + e.Caller + " not authorized for " + e.Op + " on custody record " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrUnauthorized when the target carries a zero id
func (e ErrUnauthorized) Is(target error) bool {
	t, ok := target.(ErrUnauthorized)
	if !ok {
		return false
	}
	if t.ID == 0 {
		return true
	}
	return e.ID == t.ID && e.Op == t.Op
}

// ErrInvalidState indicates the operation is not legal from the record's
// current status
type ErrInvalidState struct {
	ID     int64
	Status Status
	Op     string
}

func (e ErrInvalidState) Error() string {
	return e.Op + " not allowed on custody record " + strconv.FormatInt(e.ID, 10) + " in status " + string(e.Status)
}

// Is matches any ErrInvalidState when the target carries a zero id
func (e ErrInvalidState) Is(target error) bool {
	t, ok := target.(ErrInvalidState)
	if !ok {
		return false
	}
	if t.ID == 0 {
		return true
	}
	return e.ID == t.ID && e.Status == t.Status && e.Op == t.Op
}

// ErrRecordExpired indicates an operation observed a record whose horizon
// already lapsed. This should be unreachable while renewal is working;
// callers treat it as not-found and the engine logs it as a critical
// integrity event.
type ErrRecordExpired struct {
	ID        int64
	ExpiredAt time.Time
}

func (e ErrRecordExpired) Error() string {
	return "custody record " + strconv.FormatInt(e.ID, 10) + " expired at " + e.ExpiredAt.UTC().Format(time.RFC3339)
}

// Is matches any ErrRecordExpired when the target carries a zero id
func (e ErrRecordExpired) Is(target error) bool {
	t, ok := target.(ErrRecordExpired)
	if !ok {
		return false
	}
	if t.ID == 0 {
		return true
	}
	return e.ID == t.ID
}
