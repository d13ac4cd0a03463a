package escrow

import "errors"

// Sentinel errors for every failure mode of the engine. Callers match with
// errors.Is; the engine wraps them with operation context via fmt.Errorf.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidState      = errors.New("operation not permitted in current job status")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyRegistered = errors.New("user already registered")
	ErrAlreadySelected   = errors.New("deposit is frozen while performing work")
	ErrTransferFailed    = errors.New("value transfer failed")
)
