package booking

import (
	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

// edge is one row key of the authorization table
type edge struct {
	From Status
	To   Status
}

// authzTable is the single authorization table for lifecycle transitions.
// Every transition path consults it through Authorize; a pair absent from
// the table is rejected outright, with no fallthrough.
var authzTable = map[edge][]shared.Role{
	{StatusPending, StatusConfirmed}:     {shared.RoleClient, shared.RoleAdmin},
	{StatusConfirmed, StatusInProgress}:  {shared.RoleProvider, shared.RoleAdmin},
	{StatusInProgress, StatusCompleted}:  {shared.RoleClient, shared.RoleAdmin},
	{StatusPending, StatusCancelled}:     {shared.RoleClient, shared.RoleAdmin},
	{StatusConfirmed, StatusCancelled}:   {shared.RoleClient, shared.RoleAdmin},
	{StatusInProgress, StatusCancelled}:  {shared.RoleProvider, shared.RoleAdmin},
	{StatusInProgress, StatusDisputed}:   {shared.RoleClient, shared.RoleProvider},
	{StatusDisputed, StatusCompleted}:    {shared.RoleAdmin},
	{StatusDisputed, StatusCancelled}:    {shared.RoleAdmin},
}

// ErrTransitionNotAllowed indicates the requested edge does not exist in
// the authorization table for any role
type ErrTransitionNotAllowed struct {
	From Status
	To   Status
}

func (e ErrTransitionNotAllowed) Error() string {
	return "booking transition " + string(e.From) + " -> " + string(e.To) + " is not allowed"
}

// Is matches any ErrTransitionNotAllowed when the target carries zero values
func (e ErrTransitionNotAllowed) Is(target error) bool {
	t, ok := target.(ErrTransitionNotAllowed)
	if !ok {
		return false
	}
	if t.From == "" && t.To == "" {
		return true
	}
	return e.From == t.From && e.To == t.To
}

// ErrUnauthorizedTransition indicates the edge exists but the caller's role
// or association with the booking does not permit it
type ErrUnauthorizedTransition struct {
	CallerID string
	From     Status
	To       Status
}

func (e ErrUnauthorizedTransition) Error() string {
	return "caller " + e.CallerID + " not authorized for booking transition " + string(e.From) + " -> " + string(e.To)
}

// Is matches any ErrUnauthorizedTransition when the target carries zero values
func (e ErrUnauthorizedTransition) Is(target error) bool {
	t, ok := target.(ErrUnauthorizedTransition)
	if !ok {
		return false
	}
	if t.CallerID == "" && t.From == "" && t.To == "" {
		return true
	}
	return e == t
}

// Authorize is the single gate for lifecycle transitions. It resolves the
// caller's effective role against the booking (an admin token always counts
// as admin; client and provider tokens only count when the caller is the
// booking's own party) and consults the authorization table.
func Authorize(b *Booking, to Status, caller shared.Party) error {
	roles, ok := authzTable[edge{b.Status, to}]
	if !ok {
		return ErrTransitionNotAllowed{From: b.Status, To: to}
	}

	effective, ok := effectiveRole(b, caller)
	if !ok {
		return ErrUnauthorizedTransition{CallerID: caller.ID, From: b.Status, To: to}
	}

	for _, r := range roles {
		if r == effective {
			return nil
		}
	}
	return ErrUnauthorizedTransition{CallerID: caller.ID, From: b.Status, To: to}
}

// effectiveRole maps a caller onto its role relative to this booking
func effectiveRole(b *Booking, caller shared.Party) (shared.Role, bool) {
	switch caller.Role {
	case shared.RoleAdmin:
		return shared.RoleAdmin, true
	case shared.RoleClient:
		if caller.ID == b.ClientID {
			return shared.RoleClient, true
		}
	case shared.RoleProvider:
		if caller.ID == b.ProviderID {
			return shared.RoleProvider, true
		}
	}
	return "", false
}
