// Package errors defines the sentinel errors shared by the service
// layer. Handlers translate them to HTTP statuses; nothing in the core
// inspects error strings.
package errors

import (
	"fmt"
)

var (
	// ErrNotFound covers both absent entities and entities owned by a
	// different company, so cross-tenant existence never leaks.
	ErrNotFound     = fmt.Errorf("not found")
	ErrInvalidInput = fmt.Errorf("invalid input")

	ErrDuplicateName   = fmt.Errorf("duplicate name")
	ErrEmailExists     = fmt.Errorf("email already registered")
	ErrDeviceExists    = fmt.Errorf("device already registered")
	ErrNoLicense       = fmt.Errorf("no license available")
	ErrKeyConflict     = fmt.Errorf("license key conflict")
	ErrAgentAssigned   = fmt.Errorf("agent already assigned to a device")
	ErrAgentIneligible = fmt.Errorf("user is not an eligible agent")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAccountInactive    = fmt.Errorf("account inactive")
	ErrDeviceIDRequired   = fmt.Errorf("device identifier required")
	ErrDeviceNotFound     = fmt.Errorf("device not registered")
	ErrDeviceNotLicensed  = fmt.Errorf("device has no active license")
	ErrDeviceOwnedByOther = fmt.Errorf("device assigned to another agent")

	// ErrContention marks a lock wait that timed out. The operation is
	// safe to retry as a whole.
	ErrContention = fmt.Errorf("resource contention")
)
