package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/teebalk/marketplace/internal/application/uow"
	"github.com/teebalk/marketplace/internal/domain/cart"
	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/order"
	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/domain/shop"
)

// MockShopRepository is a testify mock of shop.Repository
type MockShopRepository struct {
	mock.Mock
}

func (m *MockShopRepository) FindByID(ctx context.Context, id uuid.UUID) (*shop.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Shop), args.Error(1)
}

func (m *MockShopRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*shop.Shop, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Shop), args.Error(1)
}

func (m *MockShopRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]shop.Shop, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]shop.Shop), args.Error(1)
}

func (m *MockShopRepository) FindPublished(ctx context.Context, filter shared.Filter) ([]shop.Shop, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]shop.Shop), args.Get(1).(int64), args.Error(2)
}

func (m *MockShopRepository) ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockShopRepository) Save(ctx context.Context, s *shop.Shop) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShopRepository) SaveWithLock(ctx context.Context, s *shop.Shop) error {
	return m.Called(ctx, s).Error(0)
}

// MockProductRepository is a testify mock of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByShop(ctx context.Context, shopID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) FindPublished(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockCartRepository is a testify mock of cart.Repository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.CartItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]cart.CartItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]cart.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*cart.CartItem, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindByIDsForUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]cart.CartItem, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).([]cart.CartItem), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, item *cart.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCartRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockCartRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// MockOrderRepository is a testify mock of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPaymentTransaction(ctx context.Context, transactionID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindByShop(ctx context.Context, shopID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

// MockTransactionRepository is a testify mock of payment.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*payment.Transaction, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, t *payment.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTransactionRepository) SaveWithLock(ctx context.Context, t *payment.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

// MockGateway is a testify mock of payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) CancelPaymentIntent(ctx context.Context, intentID string) error {
	return m.Called(ctx, intentID).Error(0)
}

func (m *MockGateway) RefundPaymentIntent(ctx context.Context, intentID string) error {
	return m.Called(ctx, intentID).Error(0)
}

// MockCoinWallet is a testify mock of payment.CoinWallet
type MockCoinWallet struct {
	mock.Mock
}

func (m *MockCoinWallet) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCoinWallet) Charge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) (string, error) {
	args := m.Called(ctx, userID, amount, reference)
	return args.String(0), args.Error(1)
}

func (m *MockCoinWallet) Refund(ctx context.Context, coinTransactionID string) error {
	return m.Called(ctx, coinTransactionID).Error(0)
}

// MockExperienceRepository is a testify mock of experience.Repository
type MockExperienceRepository struct {
	mock.Mock
}

func (m *MockExperienceRepository) FindByID(ctx context.Context, id uuid.UUID) (*experience.Experience, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*experience.Experience), args.Error(1)
}

func (m *MockExperienceRepository) FindPublished(ctx context.Context, filter shared.Filter) ([]experience.Experience, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]experience.Experience), args.Get(1).(int64), args.Error(2)
}

func (m *MockExperienceRepository) FindByShop(ctx context.Context, shopID uuid.UUID, filter shared.Filter) ([]experience.Experience, int64, error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).([]experience.Experience), args.Get(1).(int64), args.Error(2)
}

func (m *MockExperienceRepository) Save(ctx context.Context, e *experience.Experience) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockExperienceRepository) SaveTicket(ctx context.Context, t *experience.Ticket) error {
	return m.Called(ctx, t).Error(0)
}

// MockSessionRepository is a testify mock of experience.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*experience.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*experience.Session), args.Error(1)
}

func (m *MockSessionRepository) FindByExperience(ctx context.Context, experienceID uuid.UUID, from time.Time) ([]experience.Session, error) {
	args := m.Called(ctx, experienceID, from)
	return args.Get(0).([]experience.Session), args.Error(1)
}

func (m *MockSessionRepository) FindTicketsForUpdate(ctx context.Context, sessionID uuid.UUID) ([]experience.SessionTicket, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]experience.SessionTicket), args.Error(1)
}

func (m *MockSessionRepository) Save(ctx context.Context, s *experience.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSessionRepository) SaveTicketWithLock(ctx context.Context, t *experience.SessionTicket) error {
	return m.Called(ctx, t).Error(0)
}

// MockUnitOfWork implements uow.TransactionScope and uow.Repositories by
// running fn directly against the embedded repositories. Nil fields panic
// when a test reaches a repository it did not expect.
type MockUnitOfWork struct {
	ProductRepo         catalog.ProductRepository
	CartRepo            cart.Repository
	OrderRepo           order.Repository
	TransactionRepo     payment.TransactionRepository
	SessionRepo         experience.SessionRepository
	ReservationRepo     experience.ReservationRepository
	ExperienceOrderRepo experience.OrderRepository
	ExecuteErr          error
	Executions          int
}

// Execute runs fn unless ExecuteErr is set
func (u *MockUnitOfWork) Execute(_ context.Context, fn func(repos uow.Repositories) error) error {
	u.Executions++
	if u.ExecuteErr != nil {
		return u.ExecuteErr
	}
	return fn(u)
}

func (u *MockUnitOfWork) Products() catalog.ProductRepository { return u.ProductRepo }
func (u *MockUnitOfWork) Carts() cart.Repository { return u.CartRepo }
func (u *MockUnitOfWork) Orders() order.Repository { return u.OrderRepo }
func (u *MockUnitOfWork) Transactions() payment.TransactionRepository { return u.TransactionRepo }
func (u *MockUnitOfWork) Sessions() experience.SessionRepository { return u.SessionRepo }
func (u *MockUnitOfWork) Reservations() experience.ReservationRepository { return u.ReservationRepo }
func (u *MockUnitOfWork) ExperienceOrders() experience.OrderRepository { return u.ExperienceOrderRepo }
