// Package authz answers "may this acting identity perform this operation?".
// It is a pure decision over the actor's flags and the declared operation
// kind; call sites state their intended check explicitly instead of branching
// on the superuser flag ad hoc.
package authz

import (
	"github.com/altairlabs/user-management-api/internal/domain/entity"
	"github.com/altairlabs/user-management-api/pkg/apperr"
)

// Operation enumerates the permission checks the identity service performs.
type Operation int

const (
	OpReadSelf Operation = iota
	OpReadOther
	OpListAll
	OpCreate
	OpUpdateSelf
	OpUpdateOther
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpReadSelf:
		return "read_self"
	case OpReadOther:
		return "read_other"
	case OpListAll:
		return "list_all"
	case OpCreate:
		return "create"
	case OpUpdateSelf:
		return "update_self"
	case OpUpdateOther:
		return "update_other"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// requiresSuperuser reports whether the operation touches records other than
// the actor's own.
func (op Operation) requiresSuperuser() bool {
	switch op {
	case OpReadSelf, OpUpdateSelf:
		return false
	default:
		return true
	}
}

// Gate enforces the access policy. It holds no state and is safe for
// concurrent use.
type Gate struct{}

// Authorize returns nil when actor may perform op. An inactive actor is
// refused with an Authentication error before any operation-specific check;
// insufficient privilege is an Authorization error, kept distinct so the API
// surface can map them to 401 vs 403.
func (Gate) Authorize(actor *entity.User, op Operation) error {
	if actor == nil {
		return apperr.Authentication("not authenticated")
	}
	if !actor.IsActive {
		return apperr.Authentication("inactive user")
	}
	if op.requiresSuperuser() && !actor.IsSuperuser {
		return apperr.Authorization("the user doesn't have enough privileges")
	}
	return nil
}
