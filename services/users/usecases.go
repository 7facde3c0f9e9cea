package users

import "context"

// UseCase contains the user-facing business logic.
type UseCase struct {
	repo Repository
}

func NewUseCase(repo Repository) *UseCase {
	return &UseCase{repo: repo}
}

type CreateCustomerInput struct {
	Email        string
	FirstName    string
	LastName     string
	Phone        *string
	CustomerCode *string
}

func (uc *UseCase) CreateCustomer(ctx context.Context, input CreateCustomerInput, actor *int64) (*User, error) {
	customer, err := NewCustomer(input.Email, input.FirstName, input.LastName, input.Phone, input.CustomerCode)
	if err != nil {
		return nil, err
	}
	customer.CreatedBy = actor
	customer.ModifiedBy = actor

	if err := uc.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (uc *UseCase) GetUser(ctx context.Context, id int64) (*User, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *UseCase) ListCustomers(ctx context.Context) ([]User, error) {
	return uc.repo.List(ctx, RoleCustomer)
}
