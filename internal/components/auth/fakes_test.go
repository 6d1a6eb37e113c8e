package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/andrasnagy-data/gatehouse/internal/components/account"
	"github.com/andrasnagy-data/gatehouse/internal/shared/password"
)

// memoryAccounts enforces username uniqueness the way the users table does.
type memoryAccounts struct {
	mu         sync.Mutex
	byUsername map[string]*account.Account
	err        error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byUsername: map[string]*account.Account{}}
}

func (m *memoryAccounts) Create(_ context.Context, in account.CreateAccountIn) (account.CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return account.CreateResult{Outcome: account.InfraError}, m.err
	}
	if _, ok := m.byUsername[in.Username]; ok {
		return account.CreateResult{Outcome: account.DuplicateUsername}, nil
	}
	acc := &account.Account{ID: uuid.New(), Username: in.Username, PasswordHash: in.PasswordHash}
	if in.Name != "" {
		name := in.Name
		acc.Name = &name
	}
	if in.Email != "" {
		email := in.Email
		acc.Email = &email
	}
	m.byUsername[in.Username] = acc
	return account.CreateResult{Outcome: account.Created, Account: acc}, nil
}

func (m *memoryAccounts) FindByUsername(_ context.Context, username string) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return m.byUsername[username], nil
}

func (m *memoryAccounts) FindByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	for _, acc := range m.byUsername {
		if acc.ID == id {
			return acc, nil
		}
	}
	return nil, nil
}

func (m *memoryAccounts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byUsername)
}

// countingHasher records how often Verify runs.
type countingHasher struct {
	inner    password.Hasher
	verifies int
}

func (c *countingHasher) Hash(p string) (string, error) { return c.inner.Hash(p) }

func (c *countingHasher) Verify(d, p string) bool {
	c.verifies++
	return c.inner.Verify(d, p)
}
