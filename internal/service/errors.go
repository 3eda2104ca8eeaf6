package service

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned on any cross-tenant access attempt.
	ErrForbidden = errors.New("forbidden")
	// ErrJobLocked is returned when mutating a checked-out job.
	ErrJobLocked = errors.New("job is locked after checkout")
	// ErrAlreadyLocked is returned when checking out a job twice.
	ErrAlreadyLocked = errors.New("job is already checked out and locked")
	// ErrInvalidStatus is returned for an unrecognized explicit status.
	// Stored legacy values are normalized leniently instead.
	ErrInvalidStatus = errors.New("invalid job status")
	// ErrPlanNotFound is returned when a subscription plan lookup misses.
	ErrPlanNotFound = errors.New("subscription plan not found")
	// ErrValidation marks bad caller input; wrap it with detail.
	ErrValidation = errors.New("validation failed")
	// ErrStaffLimitReached is returned when a shop is at its staff quota.
	ErrStaffLimitReached = errors.New("staff limit reached")
	// ErrInvalidCredentials is returned on a failed login or PIN check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSubscriptionExpired blocks shop logins past the expiry date.
	ErrSubscriptionExpired = errors.New("shop subscription has expired")
	// ErrShopDisabled blocks logins for deactivated shops.
	ErrShopDisabled = errors.New("shop account has been deactivated")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
