package escrow

import (
	"fmt"
	"log"

	"freelance-escrow-go/internal/models"

	"github.com/shopspring/decimal"
)

// CustodyAddress is the account the external transfer primitive holds locked
// funds under. The vault moves value in and out of it; the ledger tracks how
// much of it belongs to which job.
const CustodyAddress models.Address = "escrow:custody"

// Transferor is the single capability the engine needs from the external
// value-transfer collaborator: move amount from one account to another,
// atomically, returning success or failure before the call returns.
type Transferor interface {
	Transfer(from, to models.Address, amount decimal.Decimal) error
}

// Vault is the fund-custody boundary. It owns no balances of its own; every
// call delegates one transfer against the custody account and reports the
// outcome. On failure no partial transfer occurred, and the caller must not
// commit the state transition the transfer belonged to.
type Vault struct {
	transferor Transferor
	logger     *log.Logger
}

// NewVault creates a vault over the given transfer primitive.
func NewVault(transferor Transferor, logger *log.Logger) *Vault {
	return &Vault{
		transferor: transferor,
		logger:     logger,
	}
}

// Lock moves amount from the payer into custody.
func (v *Vault) Lock(jobID uint64, from models.Address, amount decimal.Decimal) error {
	if err := v.transferor.Transfer(from, CustodyAddress, amount); err != nil {
		v.logger.Printf("lock failed for job %d: %v", jobID, err)
		return fmt.Errorf("%w: lock %s for job %d: %v", ErrTransferFailed, amount, jobID, err)
	}
	return nil
}

// Release moves amount out of custody to the payee.
func (v *Vault) Release(jobID uint64, to models.Address, amount decimal.Decimal) error {
	if err := v.transferor.Transfer(CustodyAddress, to, amount); err != nil {
		v.logger.Printf("release failed for job %d: %v", jobID, err)
		return fmt.Errorf("%w: release %s for job %d: %v", ErrTransferFailed, amount, jobID, err)
	}
	return nil
}

// Refund moves amount out of custody back to its depositor.
func (v *Vault) Refund(jobID uint64, to models.Address, amount decimal.Decimal) error {
	if err := v.transferor.Transfer(CustodyAddress, to, amount); err != nil {
		v.logger.Printf("refund failed for job %d: %v", jobID, err)
		return fmt.Errorf("%w: refund %s for job %d: %v", ErrTransferFailed, amount, jobID, err)
	}
	return nil
}
