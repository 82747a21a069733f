package domain

import "time"

// Address is the optional delivery address kept on a customer profile
type Address struct {
	FlatBuildingName string `json:"flat_building_name,omitempty"`
	Locality         string `json:"locality,omitempty"`
	City             string `json:"city,omitempty"`
	Pincode          string `json:"pincode,omitempty"`
	State            string `json:"state,omitempty"`
}

// Customer represents a registered customer
type Customer struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	ContactNumber  string    `json:"contact_number"`
	PasswordDigest string    `json:"-"` // Never serialize
	PasswordSalt   string    `json:"-"` // Never serialize
	Address        *Address  `json:"address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CustomerSummary provides a safe view of customer data (no credentials)
type CustomerSummary struct {
	ID            string   `json:"id"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	Email         string   `json:"email"`
	ContactNumber string   `json:"contact_number"`
	Address       *Address `json:"address,omitempty"`
}

// ToSummary converts a Customer to CustomerSummary
func (c *Customer) ToSummary() *CustomerSummary {
	return &CustomerSummary{
		ID:            c.ID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.Email,
		ContactNumber: c.ContactNumber,
		Address:       c.Address,
	}
}
