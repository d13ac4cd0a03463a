package escrow

import (
	"fmt"
	"time"

	"freelance-escrow-go/internal/models"

	"github.com/shopspring/decimal"
)

// UserDirectory tracks registered participants and their aggregate stats.
// It is not safe for concurrent use on its own; the ledger serializes access.
type UserDirectory struct {
	users map[models.Address]*models.User
}

// NewUserDirectory creates an empty directory.
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		users: make(map[models.Address]*models.User),
	}
}

// Register creates a User with zeroed accumulators. Registering the same
// address twice fails with ErrAlreadyRegistered.
func (d *UserDirectory) Register(addr models.Address) (*models.User, error) {
	if _, exists := d.users[addr]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, addr)
	}

	user := &models.User{
		Address:      addr,
		Registered:   true,
		TotalSpent:   decimal.Zero,
		TotalEarned:  decimal.Zero,
		RegisteredAt: time.Now(),
	}
	d.users[addr] = user
	return user, nil
}

// IsRegistered reports whether the address has registered.
func (d *UserDirectory) IsRegistered(addr models.Address) bool {
	_, exists := d.users[addr]
	return exists
}

// Get returns the user record for the address.
func (d *UserDirectory) Get(addr models.Address) (*models.User, error) {
	user, exists := d.users[addr]
	if !exists {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, addr)
	}
	return user, nil
}

// RecordSpend adds amount to the user's lifetime spend. Called only by the
// ledger when escrowed funds leave custody toward a freelancer.
func (d *UserDirectory) RecordSpend(addr models.Address, amount decimal.Decimal) {
	if user, exists := d.users[addr]; exists {
		user.TotalSpent = user.TotalSpent.Add(amount)
	}
}

// RecordEarn adds amount to the user's lifetime earnings.
func (d *UserDirectory) RecordEarn(addr models.Address, amount decimal.Decimal) {
	if user, exists := d.users[addr]; exists {
		user.TotalEarned = user.TotalEarned.Add(amount)
	}
}

// UpdateProfile sets the off-chain profile pointer for the address.
func (d *UserDirectory) UpdateProfile(addr models.Address, profileCID string) (*models.User, error) {
	user, exists := d.users[addr]
	if !exists {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, addr)
	}
	user.ProfileCID = profileCID
	return user, nil
}

// RecordJobPosted appends the job id to the user's posted list.
func (d *UserDirectory) RecordJobPosted(addr models.Address, jobID uint64) {
	if user, exists := d.users[addr]; exists {
		user.JobsPosted = appendUnique(user.JobsPosted, jobID)
	}
}

// RecordJobBidOn appends the job id to the user's bid-on list.
func (d *UserDirectory) RecordJobBidOn(addr models.Address, jobID uint64) {
	if user, exists := d.users[addr]; exists {
		user.JobsBidOn = appendUnique(user.JobsBidOn, jobID)
	}
}

// RecordJobCompleted appends the job id to the user's completed list.
func (d *UserDirectory) RecordJobCompleted(addr models.Address, jobID uint64) {
	if user, exists := d.users[addr]; exists {
		user.JobsCompleted = appendUnique(user.JobsCompleted, jobID)
	}
}

// appendUnique keeps the id lists ordered sets: insertion order, no repeats.
func appendUnique(ids []uint64, id uint64) []uint64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
