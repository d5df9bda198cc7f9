// Package policy holds pluggable credential policies. The identity service
// only requires a password to be non-empty; anything stricter is injected
// through the Password interface so deployments can tune it without touching
// the core.
package policy

import (
	"fmt"

	"github.com/altairlabs/user-management-api/pkg/apperr"
)

// Password validates a candidate plain-text password before hashing.
type Password interface {
	Validate(plain string) error
}

// Unrestricted accepts any non-empty password.
type Unrestricted struct{}

func (Unrestricted) Validate(plain string) error {
	if plain == "" {
		return apperr.Validation("password must not be empty")
	}
	return nil
}

// MinLength requires at least N characters.
type MinLength struct {
	N int
}

func (p MinLength) Validate(plain string) error {
	if plain == "" {
		return apperr.Validation("password must not be empty")
	}
	if len(plain) < p.N {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters long", p.N))
	}
	return nil
}

// ForMinLength picks the policy matching a configured minimum length;
// zero or negative means unrestricted.
func ForMinLength(n int) Password {
	if n > 0 {
		return MinLength{N: n}
	}
	return Unrestricted{}
}
