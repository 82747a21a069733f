package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/samber/oops"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CustomerStore = (*CustomerStore)(nil)

const customerColumns = `id, first_name, last_name, email, contact_number,
	password_digest, password_salt, address, created_at, updated_at`

// CustomerStore implements driven.CustomerStore using PostgreSQL
type CustomerStore struct {
	db *DB
}

// NewCustomerStore creates a new CustomerStore
func NewCustomerStore(db *DB) *CustomerStore {
	return &CustomerStore{db: db}
}

// Create inserts a customer
func (s *CustomerStore) Create(ctx context.Context, customer *domain.Customer) error {
	address, err := marshalAddress(customer.Address)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.db.ExecContext(ctx, query,
		customer.ID,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.ContactNumber,
		customer.PasswordDigest,
		customer.PasswordSalt,
		address,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		return customerWriteError("CUSTOMER_INSERT_FAILED", customer.ID, err)
	}
	return nil
}

// Get retrieves a customer by ID
func (s *CustomerStore) Get(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomer(s.db.QueryRowContext(ctx, query, id))
}

// GetByContactNumber retrieves a customer by contact number
func (s *CustomerStore) GetByContactNumber(ctx context.Context, contactNumber string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE contact_number = $1`
	return scanCustomer(s.db.QueryRowContext(ctx, query, contactNumber))
}

// Update persists profile fields; digest and salt are not touched
func (s *CustomerStore) Update(ctx context.Context, customer *domain.Customer) error {
	address, err := marshalAddress(customer.Address)
	if err != nil {
		return err
	}

	query := `
		UPDATE customers
		SET first_name = $2, last_name = $3, email = $4, contact_number = $5, address = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		customer.ID,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.ContactNumber,
		address,
		customer.UpdatedAt,
	)
	if err != nil {
		return customerWriteError("CUSTOMER_UPDATE_FAILED", customer.ID, err)
	}
	return requireRow(result, customer.ID)
}

// UpdatePassword persists a new digest and salt
func (s *CustomerStore) UpdatePassword(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET password_digest = $2, password_salt = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		customer.ID,
		customer.PasswordDigest,
		customer.PasswordSalt,
		customer.UpdatedAt,
	)
	if err != nil {
		return oops.Code("CUSTOMER_UPDATE_FAILED").With("customer_id", customer.ID).Wrap(err)
	}
	return requireRow(result, customer.ID)
}

func scanCustomer(row *sql.Row) (*domain.Customer, error) {
	var (
		c       domain.Customer
		address []byte
	)
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.ContactNumber,
		&c.PasswordDigest,
		&c.PasswordSalt,
		&address,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("CUSTOMER_SCAN_FAILED").Wrap(err)
	}

	if len(address) > 0 {
		c.Address = &domain.Address{}
		if err := json.Unmarshal(address, c.Address); err != nil {
			return nil, oops.Code("CUSTOMER_SCAN_FAILED").With("customer_id", c.ID).Wrap(err)
		}
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// marshalAddress returns nil for a missing address so the column stays NULL
func marshalAddress(a *domain.Address) (interface{}, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, oops.Code("CUSTOMER_ADDRESS_INVALID").Wrap(err)
	}
	return string(b), nil
}

// customerWriteError maps unique violations onto the coded domain errors
func customerWriteError(code, id string, err error) error {
	switch uniqueViolation(err) {
	case "customers_contact_number_key":
		return domain.ErrDuplicateContact
	case "customers_email_key":
		return domain.ErrDuplicateEmail
	default:
		return oops.Code(code).With("customer_id", id).Wrap(err)
	}
}

func requireRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return oops.Code("CUSTOMER_UPDATE_FAILED").With("customer_id", id).Wrap(err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
