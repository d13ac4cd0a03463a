package escrow

import (
	"fmt"
	"time"

	"freelance-escrow-go/internal/models"

	"github.com/shopspring/decimal"
)

// BidRegistry tracks bids and their refundable deposits per job, in insertion
// order. Like the other components it relies on the ledger for serialization.
type BidRegistry struct {
	bidsByJob map[uint64][]*models.Bid
}

// NewBidRegistry creates an empty registry.
func NewBidRegistry() *BidRegistry {
	return &BidRegistry{
		bidsByJob: make(map[uint64][]*models.Bid),
	}
}

// Add records a new bid on a job. A bidder may bid once per job.
func (r *BidRegistry) Add(jobID uint64, bidder models.Address, amount decimal.Decimal, message string) (*models.Bid, error) {
	for _, bid := range r.bidsByJob[jobID] {
		if bid.Bidder == bidder {
			return nil, fmt.Errorf("%w: %s already bid on job %d", ErrInvalidState, bidder, jobID)
		}
	}

	bid := &models.Bid{
		JobID:     jobID,
		Bidder:    bidder,
		Amount:    amount,
		Message:   message,
		CreatedAt: time.Now(),
	}
	r.bidsByJob[jobID] = append(r.bidsByJob[jobID], bid)
	return bid, nil
}

// List returns the bids for a job in insertion order.
func (r *BidRegistry) List(jobID uint64) []*models.Bid {
	return r.bidsByJob[jobID]
}

// Get returns the bid a bidder placed on a job.
func (r *BidRegistry) Get(jobID uint64, bidder models.Address) (*models.Bid, error) {
	for _, bid := range r.bidsByJob[jobID] {
		if bid.Bidder == bidder {
			return bid, nil
		}
	}
	return nil, fmt.Errorf("%w: no bid by %s on job %d", ErrNotFound, bidder, jobID)
}

// MarkRefunded flags the bid as refunded. A refunded bid stays in the
// registry as history with zero withdrawable balance.
func (r *BidRegistry) MarkRefunded(jobID uint64, bidder models.Address) error {
	bid, err := r.Get(jobID, bidder)
	if err != nil {
		return err
	}
	bid.Refunded = true
	return nil
}

// Unrefunded returns the bids on a job whose deposits are still held.
func (r *BidRegistry) Unrefunded(jobID uint64) []*models.Bid {
	var pending []*models.Bid
	for _, bid := range r.bidsByJob[jobID] {
		if !bid.Refunded {
			pending = append(pending, bid)
		}
	}
	return pending
}
