package escrow

import (
	"fmt"
	"log"
	"sync"
	"time"

	"freelance-escrow-go/internal/models"
	"freelance-escrow-go/internal/storage"

	"github.com/shopspring/decimal"
)

// Ledger owns the job and bid records and drives the lifecycle state machine.
// Every mutation funnels through it: it validates existence, state, and role
// in that order, asks the vault to move value, and only commits record
// changes once the transfer has succeeded. A single mutex totally orders all
// mutating operations; reads take the read lock and return copies.
type Ledger struct {
	mu     sync.RWMutex
	jobs   map[uint64]*models.Job
	nextID uint64

	users  *UserDirectory
	bids   *BidRegistry
	vault  *Vault
	events *EventLog
	store  storage.Store
	logger *log.Logger
}

// transitions is the closed set of legal status changes. Anything not listed
// here is rejected with ErrInvalidState.
var transitions = map[models.JobStatus][]models.JobStatus{
	models.StatusOpen:       {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress: {models.StatusSubmitted},
	models.StatusSubmitted:  {models.StatusClosed, models.StatusDisputed},
	models.StatusDisputed:   {models.StatusClosed},
}

// NewLedger creates a ledger over the given vault. store may be nil, in which
// case no mirror copies are written.
func NewLedger(vault *Vault, store storage.Store, logger *log.Logger) *Ledger {
	return &Ledger{
		jobs:   make(map[uint64]*models.Job),
		nextID: 1,
		users:  NewUserDirectory(),
		bids:   NewBidRegistry(),
		vault:  vault,
		events: NewEventLog(),
		store:  store,
		logger: logger,
	}
}

// Users exposes the directory for read-only collaborators.
func (l *Ledger) Users() *UserDirectory { return l.users }

/* -------------------------------------------------------------------------- */
/*                                Registration                                */
/* -------------------------------------------------------------------------- */

// RegisterUser registers a new participant.
func (l *Ledger) RegisterUser(caller models.Address) (models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, err := l.users.Register(caller)
	if err != nil {
		return models.User{}, err
	}
	l.logger.Printf("user %s registered", caller)
	return *user, nil
}

// IsRegistered reports whether the address has registered.
func (l *Ledger) IsRegistered(addr models.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.users.IsRegistered(addr)
}

// UpdateProfile sets the caller's own off-chain profile pointer.
func (l *Ledger) UpdateProfile(caller models.Address, profileCID string) (models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, err := l.users.UpdateProfile(caller, profileCID)
	if err != nil {
		return models.User{}, err
	}
	return *user, nil
}

/* -------------------------------------------------------------------------- */
/*                                 Lifecycle                                  */
/* -------------------------------------------------------------------------- */

// CreateJob posts a new job in Open with nothing escrowed yet.
func (l *Ledger) CreateJob(caller models.Address, title string, budget decimal.Decimal, specCID string) (models.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.users.IsRegistered(caller) {
		return models.Job{}, fmt.Errorf("%w: %s is not registered", ErrUnauthorized, caller)
	}
	if !budget.IsPositive() {
		return models.Job{}, fmt.Errorf("%w: budget must be positive, got %s", ErrInsufficientFunds, budget)
	}

	now := time.Now()
	job := &models.Job{
		ID:             l.nextID,
		Client:         caller,
		Title:          title,
		Budget:         budget,
		SpecCID:        specCID,
		Status:         models.StatusOpen,
		EscrowedAmount: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	l.jobs[job.ID] = job
	l.nextID++

	l.users.RecordJobPosted(caller, job.ID)
	l.record(models.EventJobCreated, job, caller)
	l.logger.Printf("job %d created by %s (budget %s)", job.ID, caller, budget)
	return *job, nil
}

// PlaceBid attaches a bid with an optional good-faith deposit to an open job.
// The deposit moves into custody before the bid is recorded.
func (l *Ledger) PlaceBid(caller models.Address, jobID uint64, amount decimal.Decimal, message string) (models.Bid, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, err := l.jobInState(jobID, models.StatusOpen)
	if err != nil {
		return models.Bid{}, err
	}
	if !l.users.IsRegistered(caller) {
		return models.Bid{}, fmt.Errorf("%w: %s is not registered", ErrUnauthorized, caller)
	}
	if caller == job.Client {
		return models.Bid{}, fmt.Errorf("%w: client cannot bid on own job %d", ErrUnauthorized, jobID)
	}
	if amount.IsNegative() {
		return models.Bid{}, fmt.Errorf("%w: deposit cannot be negative", ErrInsufficientFunds)
	}
	if _, err := l.bids.Get(jobID, caller); err == nil {
		return models.Bid{}, fmt.Errorf("%w: %s already bid on job %d", ErrInvalidState, caller, jobID)
	}

	if amount.IsPositive() {
		if err := l.vault.Lock(jobID, caller, amount); err != nil {
			return models.Bid{}, err
		}
	}

	bid, err := l.bids.Add(jobID, caller, amount, message)
	if err != nil {
		return models.Bid{}, err
	}
	l.users.RecordJobBidOn(caller, jobID)
	l.record(models.EventBidPlaced, job, caller)
	l.logger.Printf("bid by %s on job %d (deposit %s)", caller, jobID, amount)
	return *bid, nil
}

// SelectFreelancer locks the budget into escrow and moves the job to
// InProgress. paid must equal the budget exactly; the budget transfer and the
// state change commit together or not at all.
func (l *Ledger) SelectFreelancer(caller models.Address, jobID uint64, freelancer models.Address, paid decimal.Decimal) (models.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, err := l.jobInState(jobID, models.StatusOpen)
	if err != nil {
		return models.Job{}, err
	}
	if caller != job.Client {
		return models.Job{}, fmt.Errorf("%w: only the client may select a freelancer", ErrUnauthorized)
	}
	if _, err := l.bids.Get(jobID, freelancer); err != nil {
		return models.Job{}, fmt.Errorf("%w: %s has no bid on job %d", ErrNotFound, freelancer, jobID)
	}
	if !paid.Equal(job.Budget) {
		return models.Job{}, fmt.Errorf("%w: payment %s does not match budget %s", ErrInsufficientFunds, paid, job.Budget)
	}

	if err := l.vault.Lock(jobID, job.Client, job.Budget); err != nil {
		return models.Job{}, err
	}

	job.Freelancer = freelancer
	job.EscrowedAmount = job.Budget
	l.transition(job, models.StatusInProgress, models.EventFreelancerSelected, caller)
	l.logger.Printf("job %d: %s selected, %s locked in escrow", jobID, freelancer, job.Budget)
	return *job, nil
}

// SubmitWork records the deliverable pointer and moves the job to Submitted.
func (l *Ledger) SubmitWork(caller models.Address, jobID uint64, submissionCID string) (models.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, err := l.jobInState(jobID, models.StatusInProgress)
	if err != nil {
		return models.Job{}, err
	}
	if caller != job.Freelancer {
		return models.Job{}, fmt.Errorf("%w: only the selected freelancer may submit work", ErrUnauthorized)
	}

	job.SubmissionCID = submissionCID
	l.transition(job, models.StatusSubmitted, models.EventWorkSubmitted, caller)
	return *job, nil
}

// ApproveWork releases the escrowed budget to the freelancer and closes the
// job. The release and the close commit together or not at all.
func (l *Ledger) ApproveWork(caller models.Address, jobID uint64) (models.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, err := l.jobInState(jobID, models.StatusSubmitted)
	if err != nil {
		return models.Job{}, err
	}
	if caller != job.Client {
		return models.Job{}, fmt.Errorf("%w: only the client may approve work", ErrUnauthorized)
	}

	if err := l.vault.Release(jobID, job.Freelancer, job.EscrowedAmount); err != nil {
		return models.Job{}, err
	}

	l.settle(job, job.Freelancer)
	l.transition(job, models.StatusClosed, models.EventJobApproved, caller)
	l.logger.Printf("job %d approved, %s paid to %s", jobID, job.Budget, job.Freelancer)
	return *job, nil
}

// RaiseDispute moves a submitted job to Disputed. Either party may raise it.
func (l *Ledger) RaiseDispute(caller models.Address, jobID uint64) (models.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, err := l.jobInState(jobID, models.StatusSubmitted)
	if err != nil {
		return models.Job{}, err
	}
	if caller != job.Client && caller != job.Freelancer {
		return models.Job{}, fmt.Errorf("%w: only the client or freelancer may dispute", ErrUnauthorized)
	}

	l.transition(job, models.StatusDisputed, models.EventDisputeRaised, caller)
	l.logger.Printf("job %d disputed by %s", jobID, caller)
	return *job, nil
}

// CancelJob refunds every held bid deposit and cancels the job. Each deposit
// refund is individually atomic: a bid is marked refunded only once its
// transfer succeeds, and the job stays Open if any transfer fails, so a retry
// picks up where the failed call stopped without paying anyone twice.
func (l *Ledger) CancelJob(caller models.Address, jobID uint64) (models.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, err := l.jobInState(jobID, models.StatusOpen)
	if err != nil {
		return models.Job{}, err
	}
	if caller != job.Client {
		return models.Job{}, fmt.Errorf("%w: only the client may cancel", ErrUnauthorized)
	}

	for _, bid := range l.bids.Unrefunded(jobID) {
		if bid.Amount.IsPositive() {
			if err := l.vault.Refund(jobID, bid.Bidder, bid.Amount); err != nil {
				return models.Job{}, err
			}
		}
		bid.Refunded = true
		l.record(models.EventBidRefunded, job, bid.Bidder)
	}

	l.transition(job, models.StatusCancelled, models.EventJobCancelled, caller)
	l.logger.Printf("job %d cancelled by client", jobID)
	return *job, nil
}

// RefundBid returns the caller's own deposit. The selected freelancer's
// deposit is frozen while the job is active; an already-refunded deposit
// yields ErrTransferFailed and moves nothing.
func (l *Ledger) RefundBid(caller models.Address, jobID uint64) (models.Bid, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, exists := l.jobs[jobID]
	if !exists {
		return models.Bid{}, fmt.Errorf("%w: job %d", ErrNotFound, jobID)
	}
	bid, err := l.bids.Get(jobID, caller)
	if err != nil {
		return models.Bid{}, err
	}
	if bid.Refunded {
		return models.Bid{}, fmt.Errorf("%w: deposit already refunded", ErrTransferFailed)
	}
	if caller == job.Freelancer && !job.Status.Terminal() {
		return models.Bid{}, fmt.Errorf("%w: job %d is still active", ErrAlreadySelected, jobID)
	}

	if bid.Amount.IsPositive() {
		if err := l.vault.Refund(jobID, caller, bid.Amount); err != nil {
			return models.Bid{}, err
		}
	}

	bid.Refunded = true
	l.record(models.EventBidRefunded, job, caller)
	l.logger.Printf("bid deposit %s refunded to %s on job %d", bid.Amount, caller, jobID)
	return *bid, nil
}

// resolveDispute settles a disputed job either way. Authorization is the
// dispute resolver's job; this only enforces state and moves the funds.
func (l *Ledger) resolveDispute(arbiter models.Address, jobID uint64, releaseToFreelancer bool) (models.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, err := l.jobInState(jobID, models.StatusDisputed)
	if err != nil {
		return models.Job{}, err
	}

	if releaseToFreelancer {
		if err := l.vault.Release(jobID, job.Freelancer, job.EscrowedAmount); err != nil {
			return models.Job{}, err
		}
		l.settle(job, job.Freelancer)
	} else {
		if err := l.vault.Refund(jobID, job.Client, job.EscrowedAmount); err != nil {
			return models.Job{}, err
		}
		// The client got their own funds back; nobody spent or earned.
		job.EscrowedAmount = decimal.Zero
	}

	l.transition(job, models.StatusClosed, models.EventDisputeResolved, arbiter)
	l.logger.Printf("job %d dispute resolved (to freelancer: %t)", jobID, releaseToFreelancer)
	return *job, nil
}

/* -------------------------------------------------------------------------- */
/*                                   Reads                                    */
/* -------------------------------------------------------------------------- */

// GetJob returns a snapshot of one job.
func (l *Ledger) GetJob(jobID uint64) (models.Job, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	job, exists := l.jobs[jobID]
	if !exists {
		return models.Job{}, fmt.Errorf("%w: job %d", ErrNotFound, jobID)
	}
	return *job, nil
}

// ListOpenJobs returns snapshots of all jobs still accepting bids, in id order.
func (l *Ledger) ListOpenJobs() []models.Job {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var open []models.Job
	for id := uint64(1); id < l.nextID; id++ {
		if job, exists := l.jobs[id]; exists && job.Status == models.StatusOpen {
			open = append(open, *job)
		}
	}
	return open
}

// GetJobsByIds returns snapshots for each id, failing if any is unknown.
func (l *Ledger) GetJobsByIds(ids []uint64) ([]models.Job, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Job, 0, len(ids))
	for _, id := range ids {
		job, exists := l.jobs[id]
		if !exists {
			return nil, fmt.Errorf("%w: job %d", ErrNotFound, id)
		}
		out = append(out, *job)
	}
	return out, nil
}

// ListBids returns snapshots of a job's bids in insertion order.
func (l *Ledger) ListBids(jobID uint64) ([]models.Bid, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, exists := l.jobs[jobID]; !exists {
		return nil, fmt.Errorf("%w: job %d", ErrNotFound, jobID)
	}
	bids := l.bids.List(jobID)
	out := make([]models.Bid, 0, len(bids))
	for _, bid := range bids {
		out = append(out, *bid)
	}
	return out, nil
}

// GetFullUserProfile returns a snapshot of one user's record and history.
func (l *Ledger) GetFullUserProfile(addr models.Address) (models.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	user, err := l.users.Get(addr)
	if err != nil {
		return models.User{}, err
	}
	snapshot := *user
	snapshot.JobsPosted = append([]uint64(nil), user.JobsPosted...)
	snapshot.JobsBidOn = append([]uint64(nil), user.JobsBidOn...)
	snapshot.JobsCompleted = append([]uint64(nil), user.JobsCompleted...)
	return snapshot, nil
}

// Events returns the full append-only event log.
func (l *Ledger) Events() []models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.events.All()
}

// JobEvents returns the event log entries for one job.
func (l *Ledger) JobEvents(jobID uint64) []models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.events.ByJob(jobID)
}

/* -------------------------------------------------------------------------- */
/*                                  Internal                                  */
/* -------------------------------------------------------------------------- */

// jobInState fetches a job and checks it is in the wanted state. Existence is
// checked before state, state before role, per the operation contract.
func (l *Ledger) jobInState(jobID uint64, want models.JobStatus) (*models.Job, error) {
	job, exists := l.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: job %d", ErrNotFound, jobID)
	}
	if job.Status != want {
		return nil, fmt.Errorf("%w: job %d is %s, want %s", ErrInvalidState, jobID, job.Status, want)
	}
	return job, nil
}

// settle books the escrowed amount as spent by the client and earned by the
// recipient, and zeroes the escrow. Caller has already moved the funds.
func (l *Ledger) settle(job *models.Job, to models.Address) {
	l.users.RecordSpend(job.Client, job.EscrowedAmount)
	l.users.RecordEarn(to, job.EscrowedAmount)
	l.users.RecordJobCompleted(to, job.ID)
	job.EscrowedAmount = decimal.Zero
}

// transition applies a status change, verifying it against the transition
// table, and appends the matching event. Must hold the write lock.
func (l *Ledger) transition(job *models.Job, to models.JobStatus, kind string, actor models.Address) {
	from := job.Status
	if !legalTransition(from, to) {
		// Callers validate state first; reaching this is a programming error.
		panic(fmt.Sprintf("illegal transition %s -> %s on job %d", from, to, job.ID))
	}
	job.Status = to
	job.UpdatedAt = time.Now()
	event := l.events.Append(kind, job.ID, from, to, actor)
	l.mirror(job, event)
}

// record appends an event for a fund movement that does not change status.
func (l *Ledger) record(kind string, job *models.Job, actor models.Address) {
	job.UpdatedAt = time.Now()
	event := l.events.Append(kind, job.ID, job.Status, job.Status, actor)
	l.mirror(job, event)
}

func legalTransition(from, to models.JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// mirror copies the committed job and event to the external store. The
// in-process ledger stays authoritative; mirror failures are logged and
// never block or roll back a transition.
func (l *Ledger) mirror(job *models.Job, event models.Event) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveJob(job); err != nil {
		l.logger.Printf("mirror: failed to save job %d: %v", job.ID, err)
	}
	if err := l.store.SaveEvent(&event); err != nil {
		l.logger.Printf("mirror: failed to save event %s: %v", event.ID, err)
	}
}
