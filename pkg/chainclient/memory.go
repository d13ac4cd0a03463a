package chainclient

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"freelance-escrow-go/internal/models"
)

// Memory simulates the value-transfer node in process: a balance per account,
// debited and credited atomically under one lock. Used in development mode
// and by the CLI when no node URL is configured.
type Memory struct {
	mu       sync.Mutex
	balances map[models.Address]decimal.Decimal
}

// NewMemory creates an in-memory transfer simulator with no balances.
func NewMemory() *Memory {
	return &Memory{
		balances: make(map[models.Address]decimal.Decimal),
	}
}

// Credit seeds an account with funds.
func (m *Memory) Credit(addr models.Address, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[addr] = m.balance(addr).Add(amount)
}

// Balance returns the account's current balance.
func (m *Memory) Balance(addr models.Address) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance(addr)
}

// Transfer moves amount between accounts, failing without any movement if
// the source balance does not cover it.
func (m *Memory) Transfer(from, to models.Address, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fromBalance := m.balance(from)
	if fromBalance.LessThan(amount) {
		return fmt.Errorf("account %s holds %s, cannot transfer %s", from, fromBalance, amount)
	}
	m.balances[from] = fromBalance.Sub(amount)
	m.balances[to] = m.balance(to).Add(amount)
	return nil
}

func (m *Memory) balance(addr models.Address) decimal.Decimal {
	if balance, exists := m.balances[addr]; exists {
		return balance
	}
	return decimal.Zero
}
