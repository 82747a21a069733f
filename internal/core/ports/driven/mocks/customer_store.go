package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
)

// MockCustomerStore is an in-memory CustomerStore for testing.
// It enforces the same uniqueness rules as the database schema.
type MockCustomerStore struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
	byContact map[string]string
	byEmail   map[string]string

	// Optional error injection
	CreateErr error
	GetErr    error
	UpdateErr error
}

// NewMockCustomerStore creates a new MockCustomerStore
func NewMockCustomerStore() *MockCustomerStore {
	return &MockCustomerStore{
		customers: make(map[string]*domain.Customer),
		byContact: make(map[string]string),
		byEmail:   make(map[string]string),
	}
}

func (m *MockCustomerStore) Create(ctx context.Context, customer *domain.Customer) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byContact[customer.ContactNumber]; exists {
		return domain.ErrDuplicateContact
	}
	if _, exists := m.byEmail[customer.Email]; exists {
		return domain.ErrDuplicateEmail
	}
	m.customers[customer.ID] = copyCustomer(customer)
	m.byContact[customer.ContactNumber] = customer.ID
	m.byEmail[customer.Email] = customer.ID
	return nil
}

func (m *MockCustomerStore) Get(ctx context.Context, id string) (*domain.Customer, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	customer, ok := m.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyCustomer(customer), nil
}

func (m *MockCustomerStore) GetByContactNumber(ctx context.Context, contactNumber string) (*domain.Customer, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byContact[contactNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyCustomer(m.customers[id]), nil
}

// Update stores profile fields and leaves credentials as they were.
func (m *MockCustomerStore) Update(ctx context.Context, customer *domain.Customer) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.customers[customer.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if owner, taken := m.byEmail[customer.Email]; taken && owner != customer.ID {
		return domain.ErrDuplicateEmail
	}
	if owner, taken := m.byContact[customer.ContactNumber]; taken && owner != customer.ID {
		return domain.ErrDuplicateContact
	}

	delete(m.byEmail, stored.Email)
	delete(m.byContact, stored.ContactNumber)

	updated := copyCustomer(customer)
	updated.PasswordDigest = stored.PasswordDigest
	updated.PasswordSalt = stored.PasswordSalt
	updated.CreatedAt = stored.CreatedAt
	m.customers[customer.ID] = updated
	m.byEmail[updated.Email] = updated.ID
	m.byContact[updated.ContactNumber] = updated.ID
	return nil
}

func (m *MockCustomerStore) UpdatePassword(ctx context.Context, customer *domain.Customer) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.customers[customer.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.PasswordDigest = customer.PasswordDigest
	stored.PasswordSalt = customer.PasswordSalt
	stored.UpdatedAt = customer.UpdatedAt
	return nil
}

// Count returns the number of stored customers
func (m *MockCustomerStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.customers)
}

func copyCustomer(c *domain.Customer) *domain.Customer {
	cp := *c
	if c.Address != nil {
		addr := *c.Address
		cp.Address = &addr
	}
	return &cp
}
