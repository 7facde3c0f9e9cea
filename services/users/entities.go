package users

import (
	"strings"

	"github.com/mostafa20220/mini-erp/services/common"
)

const (
	RoleAdmin    = "ADMIN"
	RoleSales    = "SALES"
	RoleCustomer = "CUSTOMER"
)

type User struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Role         string  `json:"role"`
	Phone        *string `json:"phone,omitempty"`
	CustomerCode *string `json:"customer_code,omitempty"`
	IsActive     bool    `json:"is_active"`
	common.Audit
}

// NewCustomer builds a customer-role user from raw input.
func NewCustomer(email, firstName, lastName string, phone, customerCode *string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if email == "" || !strings.Contains(email, "@") {
		return nil, common.NewValidationError("a valid email is required")
	}
	if firstName == "" || lastName == "" {
		return nil, common.NewValidationError("first and last name are required")
	}

	return &User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         RoleCustomer,
		Phone:        phone,
		CustomerCode: customerCode,
		IsActive:     true,
	}, nil
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}
