package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address is an opaque address-like participant identity. The engine never
// interprets it; it only compares addresses for equality.
type Address string

// JobStatus is the lifecycle state of a job. Transitions are driven
// exclusively by the escrow ledger; see escrow.Ledger.
type JobStatus int

const (
	StatusOpen JobStatus = iota
	StatusInProgress
	StatusSubmitted
	StatusDisputed
	StatusClosed
	StatusCancelled
)

// String returns the human-readable status name.
func (s JobStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusInProgress:
		return "in_progress"
	case StatusSubmitted:
		return "submitted"
	case StatusDisputed:
		return "disputed"
	case StatusClosed:
		return "closed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// Job is a posted piece of work with a funded budget. Budget is fixed at
// creation; EscrowedAmount is zero until a freelancer is selected and then
// exactly Budget until released or refunded, never anything in between.
type Job struct {
	ID             uint64          `json:"id"`
	Client         Address         `json:"client"`
	Freelancer     Address         `json:"freelancer,omitempty"`
	Title          string          `json:"title"`
	Budget         decimal.Decimal `json:"budget"`
	SpecCID        string          `json:"spec_cid"`
	SubmissionCID  string          `json:"submission_cid,omitempty"`
	Status         JobStatus       `json:"status"`
	EscrowedAmount decimal.Decimal `json:"escrowed_amount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Bid is a sealed offer on a job with a refundable good-faith deposit.
// The deposit is independent of the job budget; it is returned by refundBid
// or by job cancellation, and frozen while its owner is the selected
// freelancer on an active job.
type Bid struct {
	JobID     uint64          `json:"job_id"`
	Bidder    Address         `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	Message   string          `json:"message,omitempty"`
	Refunded  bool            `json:"refunded"`
	CreatedAt time.Time       `json:"created_at"`
}

// User is a registered participant and their aggregate history. Accumulators
// only ever grow; the job id lists keep insertion order.
type User struct {
	Address       Address         `json:"address"`
	Registered    bool            `json:"registered"`
	ProfileCID    string          `json:"profile_cid,omitempty"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	TotalEarned   decimal.Decimal `json:"total_earned"`
	JobsPosted    []uint64        `json:"jobs_posted"`
	JobsBidOn     []uint64        `json:"jobs_bid_on"`
	JobsCompleted []uint64        `json:"jobs_completed"`
	RegisteredAt  time.Time       `json:"registered_at"`
}

// Event kinds, one per successful ledger transition.
const (
	EventJobCreated         = "JobCreated"
	EventBidPlaced          = "BidPlaced"
	EventFreelancerSelected = "FreelancerSelected"
	EventWorkSubmitted      = "WorkSubmitted"
	EventJobApproved        = "JobApproved"
	EventDisputeRaised      = "DisputeRaised"
	EventDisputeResolved    = "DisputeResolved"
	EventJobCancelled       = "JobCancelled"
	EventBidRefunded        = "BidRefunded"
)

// Event is one append-only record of a state transition or fund movement.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	JobID      uint64    `json:"job_id"`
	FromStatus JobStatus `json:"from_status"`
	ToStatus   JobStatus `json:"to_status"`
	Actor      Address   `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
}
