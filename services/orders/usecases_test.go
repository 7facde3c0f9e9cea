package orders

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mostafa20220/mini-erp/services/common"
	"github.com/mostafa20220/mini-erp/services/products"
	"github.com/mostafa20220/mini-erp/services/users"
)

// fakeTx records the outcome of a unit of work.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	txs []*fakeTx
}

func (d *fakeDB) Begin(ctx context.Context) (common.Tx, error) {
	tx := &fakeTx{}
	d.txs = append(d.txs, tx)
	return tx, nil
}

func (d *fakeDB) lastTx() *fakeTx {
	return d.txs[len(d.txs)-1]
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, tx common.Tx, order *Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByIDForUpdate(ctx context.Context, tx common.Tx, id int64) (*Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter Filter) ([]Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, tx common.Tx, id int64, status string, modifiedBy *int64) error {
	args := m.Called(ctx, tx, id, status, modifiedBy)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, tx common.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockRepository) LastNumberForPrefix(ctx context.Context, tx common.Tx, prefix string) (string, error) {
	args := m.Called(ctx, tx, prefix)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(*DashboardSummary), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) DecreaseStock(ctx context.Context, tx common.Tx, productID int64, quantity int, actor, customerID *int64, reason string) (*products.StockChangeLog, error) {
	args := m.Called(ctx, tx, productID, quantity, actor, customerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*products.StockChangeLog), args.Error(1)
}

func (m *MockLedger) IncreaseStock(ctx context.Context, tx common.Tx, productID int64, quantity int, actor, customerID *int64, reason string) (*products.StockChangeLog, error) {
	args := m.Called(ctx, tx, productID, quantity, actor, customerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*products.StockChangeLog), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetProducts(ctx context.Context, ids []int64) (map[int64]*products.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[int64]*products.Product), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetUser(ctx context.Context, id int64) (*users.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

type useCaseMocks struct {
	db        *fakeDB
	repo      *MockRepository
	catalog   *MockCatalog
	customers *MockDirectory
	ledger    *MockLedger
}

func newTestUseCase() (*UseCase, *useCaseMocks) {
	mocks := &useCaseMocks{
		db:        &fakeDB{},
		repo:      new(MockRepository),
		catalog:   new(MockCatalog),
		customers: new(MockDirectory),
		ledger:    new(MockLedger),
	}
	numbers := NewNumberGenerator(mocks.repo)
	numbers.now = fixedClock
	uc := NewUseCase(mocks.db, mocks.repo, numbers, mocks.catalog, mocks.customers, mocks.ledger)
	return uc, mocks
}

func testCustomer(id int64) *users.User {
	return &users.User{ID: id, Email: "c@example.com", FirstName: "Jo", LastName: "Doe", Role: users.RoleCustomer}
}

func testProduct(id int64, name, sku string, stock int, price float64) *products.Product {
	return &products.Product{
		ID:           id,
		SKU:          sku,
		Name:         name,
		Category:     "tools",
		CostPrice:    decimal.NewFromFloat(1),
		SellingPrice: decimal.NewFromFloat(price),
		StockQty:     stock,
	}
}

func numberConflict() *pgconn.PgError {
	return &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
}

func TestCreateOrder_Success(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.customers.On("GetUser", ctx, int64(9)).Return(testCustomer(9), nil)
	m.catalog.On("GetProducts", ctx, []int64{1, 2}).Return(map[int64]*products.Product{
		1: testProduct(1, "Widget", "WID-1", 10, 12.50),
		2: testProduct(2, "Gadget", "GAD-1", 5, 3.00),
	}, nil)
	m.repo.On("LastNumberForPrefix", ctx, mock.Anything, "ORD-20260828").Return("", nil)
	m.repo.On("Create", ctx, mock.Anything, mock.AnythingOfType("*orders.Order")).Return(nil)

	order, err := uc.CreateOrder(ctx, 9, []LineItem{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 2},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ORD-20260828-0001", order.OrderNumber)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, "43.5", order.TotalAmount.String())
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Widget", order.Items[0].ProductName)
	assert.Equal(t, "WID-1", order.Items[0].ProductSKU)
	assert.Equal(t, "37.5", order.Items[0].TotalPrice.String())
	assert.True(t, m.db.lastTx().committed)
	// pending orders must not touch stock
	m.ledger.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.repo.AssertExpectations(t)
}

func TestCreateOrder_PriceOverride(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.customers.On("GetUser", ctx, int64(9)).Return(testCustomer(9), nil)
	m.catalog.On("GetProducts", ctx, []int64{1}).Return(map[int64]*products.Product{
		1: testProduct(1, "Widget", "WID-1", 10, 12.50),
	}, nil)
	m.repo.On("LastNumberForPrefix", ctx, mock.Anything, mock.Anything).Return("", nil)
	m.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(nil)

	override := decimal.NewFromFloat(9.99)
	order, err := uc.CreateOrder(ctx, 9, []LineItem{
		{ProductID: 1, Quantity: 2, Price: &override},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "9.99", order.Items[0].Price.String())
	assert.Equal(t, "19.98", order.TotalAmount.String())
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	uc, _ := newTestUseCase()

	_, err := uc.CreateOrder(context.Background(), 9, nil, nil)

	var validation *common.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestCreateOrder_DuplicateProduct(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.customers.On("GetUser", ctx, int64(9)).Return(testCustomer(9), nil)

	_, err := uc.CreateOrder(ctx, 9, []LineItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	}, nil)

	var validation *common.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Msg, "duplicate product id 1")
}

func TestCreateOrder_CustomerMissing(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.customers.On("GetUser", ctx, int64(9)).Return(nil, common.NewNotFoundError("user 9 not found"))

	_, err := uc.CreateOrder(ctx, 9, []LineItem{{ProductID: 1, Quantity: 1}}, nil)

	var validation *common.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestCreateOrder_NotACustomerRole(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	admin := testCustomer(9)
	admin.Role = users.RoleAdmin
	m.customers.On("GetUser", ctx, int64(9)).Return(admin, nil)

	_, err := uc.CreateOrder(ctx, 9, []LineItem{{ProductID: 1, Quantity: 1}}, nil)

	var validation *common.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestCreateOrder_ProductMissing(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.customers.On("GetUser", ctx, int64(9)).Return(testCustomer(9), nil)
	m.catalog.On("GetProducts", ctx, []int64{1, 2}).Return(map[int64]*products.Product{
		1: testProduct(1, "Widget", "WID-1", 10, 12.50),
	}, nil)

	_, err := uc.CreateOrder(ctx, 9, []LineItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	}, nil)

	var notFound *common.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Msg, "[2]")
}

func TestCreateOrder_InsufficientStockAdvisory(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.customers.On("GetUser", ctx, int64(9)).Return(testCustomer(9), nil)
	m.catalog.On("GetProducts", ctx, []int64{1}).Return(map[int64]*products.Product{
		1: testProduct(1, "Widget", "WID-1", 2, 12.50),
	}, nil)

	_, err := uc.CreateOrder(ctx, 9, []LineItem{{ProductID: 1, Quantity: 5}}, nil)

	var insufficient *common.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(1), insufficient.ProductID)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)
	assert.Empty(t, m.db.txs, "no unit of work should start for a rejected request")
}

func TestCreateOrder_NumberConflictRetriesOnce(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.customers.On("GetUser", ctx, int64(9)).Return(testCustomer(9), nil)
	m.catalog.On("GetProducts", ctx, []int64{1}).Return(map[int64]*products.Product{
		1: testProduct(1, "Widget", "WID-1", 10, 12.50),
	}, nil)
	m.repo.On("LastNumberForPrefix", ctx, mock.Anything, mock.Anything).Return("ORD-20260828-0004", nil).Once()
	m.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(numberConflict()).Once()
	m.repo.On("LastNumberForPrefix", ctx, mock.Anything, mock.Anything).Return("ORD-20260828-0005", nil).Once()
	m.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	order, err := uc.CreateOrder(ctx, 9, []LineItem{{ProductID: 1, Quantity: 1}}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ORD-20260828-0006", order.OrderNumber)
	m.repo.AssertExpectations(t)
}

func TestCreateOrder_NumberConflictExhausted(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.customers.On("GetUser", ctx, int64(9)).Return(testCustomer(9), nil)
	m.catalog.On("GetProducts", ctx, []int64{1}).Return(map[int64]*products.Product{
		1: testProduct(1, "Widget", "WID-1", 10, 12.50),
	}, nil)
	m.repo.On("LastNumberForPrefix", ctx, mock.Anything, mock.Anything).Return("", nil)
	m.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(numberConflict())

	_, err := uc.CreateOrder(ctx, 9, []LineItem{{ProductID: 1, Quantity: 1}}, nil)

	var conflict *common.ConflictError
	require.ErrorAs(t, err, &conflict)
	m.repo.AssertNumberOfCalls(t, "Create", 2)
}

func pendingOrder(id int64) *Order {
	five, three := int64(5), int64(3)
	return &Order{
		ID:          id,
		OrderNumber: "ORD-20260828-0001",
		CustomerID:  9,
		Status:      StatusPending,
		Items: []OrderItem{
			{ID: 1, OrderID: id, ProductID: &five, ProductName: "Widget", ProductSKU: "WID-1", Quantity: 3},
			{ID: 2, OrderID: id, ProductID: &three, ProductName: "Gadget", ProductSKU: "GAD-1", Quantity: 1},
		},
	}
}

func TestChangeStatus_Confirm(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.repo.On("GetByIDForUpdate", ctx, mock.Anything, int64(4)).Return(pendingOrder(4), nil)

	var lockedProducts []int64
	m.ledger.On("DecreaseStock", ctx, mock.Anything, mock.AnythingOfType("int64"), mock.AnythingOfType("int"),
		mock.Anything, mock.Anything, "Order ORD-20260828-0001 confirmed").
		Run(func(args mock.Arguments) {
			lockedProducts = append(lockedProducts, args.Get(2).(int64))
		}).
		Return(&products.StockChangeLog{}, nil)
	m.repo.On("UpdateStatus", ctx, mock.Anything, int64(4), StatusConfirmed, mock.Anything).Return(nil)

	order, err := uc.ChangeStatus(ctx, 4, StatusConfirmed, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, order.Status)
	// row locks are taken in product-id order regardless of line order
	assert.Equal(t, []int64{3, 5}, lockedProducts)
	assert.True(t, m.db.lastTx().committed)
	m.repo.AssertExpectations(t)
}

func TestChangeStatus_ConfirmInsufficientStock(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.repo.On("GetByIDForUpdate", ctx, mock.Anything, int64(4)).Return(pendingOrder(4), nil)
	m.ledger.On("DecreaseStock", ctx, mock.Anything, int64(3), 1, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &common.InsufficientStockError{ProductID: 3, ProductName: "Gadget", SKU: "GAD-1", Requested: 1, Available: 0})

	_, err := uc.ChangeStatus(ctx, 4, StatusConfirmed, nil)

	var insufficient *common.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(3), insufficient.ProductID)
	m.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, m.db.lastTx().rolledBack, "failed confirmation must roll back entirely")
}

func TestChangeStatus_SameStatusIsNoOp(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	confirmed := pendingOrder(4)
	confirmed.Status = StatusConfirmed
	m.repo.On("GetByIDForUpdate", ctx, mock.Anything, int64(4)).Return(confirmed, nil)

	order, err := uc.ChangeStatus(ctx, 4, StatusConfirmed, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, order.Status)
	m.ledger.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.ledger.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, m.db.lastTx().committed)
}

func TestChangeStatus_IllegalTransitions(t *testing.T) {
	cases := []struct{ from, to string }{
		{StatusConfirmed, StatusPending},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusConfirmed},
	}

	for _, tc := range cases {
		uc, m := newTestUseCase()
		ctx := context.Background()

		order := pendingOrder(4)
		order.Status = tc.from
		m.repo.On("GetByIDForUpdate", ctx, mock.Anything, int64(4)).Return(order, nil)

		_, err := uc.ChangeStatus(ctx, 4, tc.to, nil)

		var transition *common.TransitionError
		require.ErrorAs(t, err, &transition, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.from, transition.From)
		assert.Equal(t, tc.to, transition.To)
	}
}

func TestChangeStatus_CancelConfirmedReturnsStock(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	confirmed := pendingOrder(4)
	confirmed.Status = StatusConfirmed
	m.repo.On("GetByIDForUpdate", ctx, mock.Anything, int64(4)).Return(confirmed, nil)
	m.ledger.On("IncreaseStock", ctx, mock.Anything, int64(3), 1, mock.Anything, mock.Anything, "Order ORD-20260828-0001 cancelled").
		Return(&products.StockChangeLog{}, nil)
	m.ledger.On("IncreaseStock", ctx, mock.Anything, int64(5), 3, mock.Anything, mock.Anything, "Order ORD-20260828-0001 cancelled").
		Return(&products.StockChangeLog{}, nil)
	m.repo.On("UpdateStatus", ctx, mock.Anything, int64(4), StatusCancelled, mock.Anything).Return(nil)

	order, err := uc.ChangeStatus(ctx, 4, StatusCancelled, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, order.Status)
	m.ledger.AssertExpectations(t)
	assert.True(t, m.db.lastTx().committed)
}

func TestChangeStatus_CancelPendingHasNoStockEffect(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.repo.On("GetByIDForUpdate", ctx, mock.Anything, int64(4)).Return(pendingOrder(4), nil)
	m.repo.On("UpdateStatus", ctx, mock.Anything, int64(4), StatusCancelled, mock.Anything).Return(nil)

	order, err := uc.ChangeStatus(ctx, 4, StatusCancelled, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, order.Status)
	m.ledger.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, m.db.lastTx().committed)
}

func TestDeleteOrder_Pending(t *testing.T) {
	uc, m := newTestUseCase()
	ctx := context.Background()

	m.repo.On("GetByIDForUpdate", ctx, mock.Anything, int64(4)).Return(pendingOrder(4), nil)
	m.repo.On("Delete", ctx, mock.Anything, int64(4)).Return(nil)

	err := uc.DeleteOrder(ctx, 4, nil)

	require.NoError(t, err)
	assert.True(t, m.db.lastTx().committed)
	m.repo.AssertExpectations(t)
}

func TestDeleteOrder_NonPending(t *testing.T) {
	for _, status := range []string{StatusConfirmed, StatusCancelled} {
		uc, m := newTestUseCase()
		ctx := context.Background()

		order := pendingOrder(4)
		order.Status = status
		m.repo.On("GetByIDForUpdate", ctx, mock.Anything, int64(4)).Return(order, nil)

		err := uc.DeleteOrder(ctx, 4, nil)

		var invalidState *common.InvalidStateError
		require.ErrorAs(t, err, &invalidState, "status %s", status)
		m.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		assert.False(t, m.db.lastTx().committed)
	}
}
