package users

import (
	"errors"
	"testing"

	"github.com/mostafa20220/mini-erp/services/common"
)

func TestNewCustomer(t *testing.T) {
	u, err := NewCustomer("  Jo.Doe@Example.COM ", " Jo ", " Doe ", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "jo.doe@example.com" {
		t.Errorf("expected lowercased trimmed email, got %q", u.Email)
	}
	if u.Role != RoleCustomer {
		t.Errorf("expected role %s, got %s", RoleCustomer, u.Role)
	}
	if !u.IsActive {
		t.Error("new customers must start active")
	}
	if !u.IsCustomer() {
		t.Error("IsCustomer() must be true for customer-role users")
	}
}

func TestNewCustomer_Validation(t *testing.T) {
	cases := []struct {
		name                       string
		email, firstName, lastName string
	}{
		{"empty email", "", "Jo", "Doe"},
		{"email without at sign", "jo.example.com", "Jo", "Doe"},
		{"missing first name", "jo@example.com", "", "Doe"},
		{"missing last name", "jo@example.com", "Jo", " "},
	}

	for _, tc := range cases {
		_, err := NewCustomer(tc.email, tc.firstName, tc.lastName, nil, nil)
		var validation *common.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestFullName(t *testing.T) {
	u := &User{FirstName: "Jo", LastName: "Doe"}
	if got := u.FullName(); got != "Jo Doe" {
		t.Errorf("FullName() = %q, want %q", got, "Jo Doe")
	}
}

func TestIsCustomer(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleSales} {
		u := &User{Role: role}
		if u.IsCustomer() {
			t.Errorf("%s must not pass as customer", role)
		}
	}
}
