package escrow

import (
	"fmt"
	"log"

	"freelance-escrow-go/internal/models"
)

// DisputeResolver adjudicates disputed jobs. The arbiter is an explicit
// configuration value fixed at construction, not ambient state; only calls
// from that address are honored.
type DisputeResolver struct {
	arbiter models.Address
	ledger  *Ledger
	logger  *log.Logger
}

// NewDisputeResolver creates a resolver bound to the configured arbiter.
func NewDisputeResolver(arbiter models.Address, ledger *Ledger, logger *log.Logger) *DisputeResolver {
	return &DisputeResolver{
		arbiter: arbiter,
		ledger:  ledger,
		logger:  logger,
	}
}

// Arbiter returns the configured arbiter address.
func (r *DisputeResolver) Arbiter() models.Address { return r.arbiter }

// Resolve settles a disputed job: the escrowed budget goes to the freelancer
// if releaseToFreelancer, back to the client otherwise, and the job closes.
func (r *DisputeResolver) Resolve(caller models.Address, jobID uint64, releaseToFreelancer bool) (models.Job, error) {
	if caller != r.arbiter {
		return models.Job{}, fmt.Errorf("%w: only the arbiter may resolve disputes", ErrUnauthorized)
	}
	job, err := r.ledger.resolveDispute(caller, jobID, releaseToFreelancer)
	if err != nil {
		return models.Job{}, err
	}
	r.logger.Printf("dispute on job %d resolved by arbiter %s", jobID, caller)
	return job, nil
}
