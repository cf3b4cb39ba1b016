package challenge

import (
	"errors"
	"fmt"
)

// Input and precondition failures. Callers should relay these as client
// errors.
var (
	ErrDiscountCodeNotFound  = errors.New("discount code not found")
	ErrPlatformGroupNotFound = errors.New("platform group not found")
	ErrSubtagNotFound        = errors.New("one or more subtags not found")
	ErrNoUsers               = errors.New("no user emails given")
	ErrUserNotFound          = errors.New("user not found")
	ErrTrialCodeInvalid      = errors.New("free trial code is invalid or already used")
	ErrFreeTrialsDisabled    = errors.New("free trials are currently disabled")
	ErrFreeTrialCapReached   = errors.New("free trial limit reached")
	ErrUserFreeTrialLimit    = errors.New("user has reached the free trial limit")
	ErrFreeTrialGroupMissing = errors.New("free trial platform group not found")
)

// ErrAccountDeclined is returned by the free-trial workflow when the trading
// engine refuses to create the account. Award batches report this per user
// instead.
var ErrAccountDeclined = errors.New("trading engine declined account creation")

var preconditionErrors = []error{
	ErrDiscountCodeNotFound,
	ErrPlatformGroupNotFound,
	ErrSubtagNotFound,
	ErrNoUsers,
	ErrUserNotFound,
	ErrTrialCodeInvalid,
	ErrFreeTrialsDisabled,
	ErrFreeTrialCapReached,
	ErrUserFreeTrialLimit,
	ErrFreeTrialGroupMissing,
}

// IsPreconditionError reports whether err is an input or state check failure.
func IsPreconditionError(err error) bool {
	for _, target := range preconditionErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MissingSubtagsError lists the subtag ids that do not exist.
type MissingSubtagsError struct {
	UUIDs []string
}

func (e *MissingSubtagsError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSubtagNotFound.Error(), e.UUIDs)
}

func (e *MissingSubtagsError) Unwrap() error {
	return ErrSubtagNotFound
}
