package domain

import (
	"net/mail"
	"strings"
)

// Customer is the contact captured with a booking.
type Customer struct {
	Name  string
	Email string
	Phone string
	Notes string
}

// Normalize trims whitespace and lowercases the email.
func (c Customer) Normalize() Customer {
	return Customer{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Phone: strings.TrimSpace(c.Phone),
		Notes: strings.TrimSpace(c.Notes),
	}
}

// Validate requires a name and at least one way to reach the customer.
func (c Customer) Validate() error {
	if c.Name == "" {
		return ErrCustomerNameRequired
	}
	if c.Email == "" && c.Phone == "" {
		return ErrContactRequired
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return ErrInvalidEmail
		}
	}
	return nil
}
