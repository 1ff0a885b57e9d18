package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	cartapp "github.com/teebalk/marketplace/internal/application/cart"
	catalogapp "github.com/teebalk/marketplace/internal/application/catalog"
	experienceapp "github.com/teebalk/marketplace/internal/application/experience"
	orderapp "github.com/teebalk/marketplace/internal/application/order"
	paymentapp "github.com/teebalk/marketplace/internal/application/payment"
	shopapp "github.com/teebalk/marketplace/internal/application/shop"
	uploadapp "github.com/teebalk/marketplace/internal/application/upload"
	"github.com/teebalk/marketplace/internal/application/webhook"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/auth"
	"github.com/teebalk/marketplace/internal/infrastructure/exchange"
)

// result returns the typed first return value of a mock call, or nil
func result[T any](args mock.Arguments) *T {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*T)
}

// MockShopService is a mock implementation of ShopService
type MockShopService struct {
	mock.Mock
}

func (m *MockShopService) Create(ctx context.Context, userID uuid.UUID, req shopapp.ShopRequest) (*shopapp.ShopResponse, error) {
	args := m.Called(ctx, userID, req)
	return result[shopapp.ShopResponse](args), args.Error(1)
}

func (m *MockShopService) Update(ctx context.Context, userID, shopID uuid.UUID, req shopapp.ShopRequest) (*shopapp.ShopResponse, error) {
	args := m.Called(ctx, userID, shopID, req)
	return result[shopapp.ShopResponse](args), args.Error(1)
}

func (m *MockShopService) Publish(ctx context.Context, userID, shopID uuid.UUID) (*shopapp.ShopResponse, error) {
	args := m.Called(ctx, userID, shopID)
	return result[shopapp.ShopResponse](args), args.Error(1)
}

func (m *MockShopService) Unpublish(ctx context.Context, userID, shopID uuid.UUID) (*shopapp.ShopResponse, error) {
	args := m.Called(ctx, userID, shopID)
	return result[shopapp.ShopResponse](args), args.Error(1)
}

func (m *MockShopService) Get(ctx context.Context, viewerID *uuid.UUID, shopID uuid.UUID) (*shopapp.ShopResponse, error) {
	args := m.Called(ctx, viewerID, shopID)
	return result[shopapp.ShopResponse](args), args.Error(1)
}

func (m *MockShopService) GetMine(ctx context.Context, userID uuid.UUID) (*shopapp.ShopResponse, error) {
	args := m.Called(ctx, userID)
	return result[shopapp.ShopResponse](args), args.Error(1)
}

func (m *MockShopService) List(ctx context.Context, f shopapp.ShopListFilter) (*shared.Paginated[shopapp.ShopResponse], error) {
	args := m.Called(ctx, f)
	return result[shared.Paginated[shopapp.ShopResponse]](args), args.Error(1)
}

// MockProductService is a mock implementation of ProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, userID uuid.UUID, req catalogapp.ProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, userID, req)
	return result[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, userID, productID uuid.UUID, req catalogapp.ProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, userID, productID, req)
	return result[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) Publish(ctx context.Context, userID, productID uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, userID, productID)
	return result[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) Unpublish(ctx context.Context, userID, productID uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, userID, productID)
	return result[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *MockProductService) Get(ctx context.Context, viewerID *uuid.UUID, productID uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, viewerID, productID)
	return result[catalogapp.ProductResponse](args), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, f catalogapp.ProductListFilter) (*shared.Paginated[catalogapp.ProductResponse], error) {
	args := m.Called(ctx, f)
	return result[shared.Paginated[catalogapp.ProductResponse]](args), args.Error(1)
}

func (m *MockProductService) ListShop(ctx context.Context, viewerID *uuid.UUID, shopID uuid.UUID, f catalogapp.ProductListFilter) (*shared.Paginated[catalogapp.ProductResponse], error) {
	args := m.Called(ctx, viewerID, shopID, f)
	return result[shared.Paginated[catalogapp.ProductResponse]](args), args.Error(1)
}

// MockCartService is a mock implementation of CartService
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) AddItem(ctx context.Context, userID uuid.UUID, req cartapp.AddItemRequest) (*cartapp.CartItemResponse, error) {
	args := m.Called(ctx, userID, req)
	return result[cartapp.CartItemResponse](args), args.Error(1)
}

func (m *MockCartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, req cartapp.UpdateItemRequest) (*cartapp.CartItemResponse, error) {
	args := m.Called(ctx, userID, itemID, req)
	return result[cartapp.CartItemResponse](args), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return m.Called(ctx, userID, itemID).Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCartService) List(ctx context.Context, userID uuid.UUID) (*cartapp.CartResponse, error) {
	args := m.Called(ctx, userID)
	return result[cartapp.CartResponse](args), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, userID uuid.UUID, req orderapp.CheckoutRequest) (*orderapp.CheckoutResponse, error) {
	args := m.Called(ctx, userID, req)
	return result[orderapp.CheckoutResponse](args), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, userID, orderID)
	return result[orderapp.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, userID, orderID)
	return result[orderapp.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) ListMine(ctx context.Context, userID uuid.UUID, f orderapp.OrderListFilter) (*shared.Paginated[orderapp.OrderResponse], error) {
	args := m.Called(ctx, userID, f)
	return result[shared.Paginated[orderapp.OrderResponse]](args), args.Error(1)
}

func (m *MockOrderService) ListShop(ctx context.Context, sellerID uuid.UUID, f orderapp.OrderListFilter) (*shared.Paginated[orderapp.OrderResponse], error) {
	args := m.Called(ctx, sellerID, f)
	return result[shared.Paginated[orderapp.OrderResponse]](args), args.Error(1)
}

func (m *MockOrderService) Ship(ctx context.Context, sellerID, orderID uuid.UUID, req orderapp.ShipOrderRequest) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, sellerID, orderID, req)
	return result[orderapp.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) Complete(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	args := m.Called(ctx, userID, orderID)
	return result[orderapp.OrderResponse](args), args.Error(1)
}

// MockTransactionReader is a mock implementation of TransactionReader
type MockTransactionReader struct {
	mock.Mock
}

func (m *MockTransactionReader) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*paymentapp.TransactionResponse, error) {
	args := m.Called(ctx, userID, id)
	return result[paymentapp.TransactionResponse](args), args.Error(1)
}

// MockExperienceService is a mock implementation of ExperienceService
type MockExperienceService struct {
	mock.Mock
}

func (m *MockExperienceService) Create(ctx context.Context, sellerID uuid.UUID, req experienceapp.ExperienceRequest) (*experienceapp.ExperienceResponse, error) {
	args := m.Called(ctx, sellerID, req)
	return result[experienceapp.ExperienceResponse](args), args.Error(1)
}

func (m *MockExperienceService) Update(ctx context.Context, sellerID, id uuid.UUID, req experienceapp.ExperienceRequest) (*experienceapp.ExperienceResponse, error) {
	args := m.Called(ctx, sellerID, id, req)
	return result[experienceapp.ExperienceResponse](args), args.Error(1)
}

func (m *MockExperienceService) Publish(ctx context.Context, sellerID, id uuid.UUID) (*experienceapp.ExperienceResponse, error) {
	args := m.Called(ctx, sellerID, id)
	return result[experienceapp.ExperienceResponse](args), args.Error(1)
}

func (m *MockExperienceService) Unpublish(ctx context.Context, sellerID, id uuid.UUID) (*experienceapp.ExperienceResponse, error) {
	args := m.Called(ctx, sellerID, id)
	return result[experienceapp.ExperienceResponse](args), args.Error(1)
}

func (m *MockExperienceService) AddTicket(ctx context.Context, sellerID, id uuid.UUID, req experienceapp.TicketRequest) (*experienceapp.TicketResponse, error) {
	args := m.Called(ctx, sellerID, id, req)
	return result[experienceapp.TicketResponse](args), args.Error(1)
}

func (m *MockExperienceService) AddSession(ctx context.Context, sellerID, id uuid.UUID, req experienceapp.SessionRequest) (*experienceapp.SessionResponse, error) {
	args := m.Called(ctx, sellerID, id, req)
	return result[experienceapp.SessionResponse](args), args.Error(1)
}

func (m *MockExperienceService) CancelSession(ctx context.Context, sellerID, sessionID uuid.UUID) (*experienceapp.SessionResponse, error) {
	args := m.Called(ctx, sellerID, sessionID)
	return result[experienceapp.SessionResponse](args), args.Error(1)
}

func (m *MockExperienceService) Get(ctx context.Context, viewerID *uuid.UUID, id uuid.UUID) (*experienceapp.ExperienceResponse, error) {
	args := m.Called(ctx, viewerID, id)
	return result[experienceapp.ExperienceResponse](args), args.Error(1)
}

func (m *MockExperienceService) List(ctx context.Context, f experienceapp.ExperienceListFilter) (*shared.Paginated[experienceapp.ExperienceResponse], error) {
	args := m.Called(ctx, f)
	return result[shared.Paginated[experienceapp.ExperienceResponse]](args), args.Error(1)
}

func (m *MockExperienceService) ListShop(ctx context.Context, sellerID uuid.UUID, f experienceapp.ExperienceListFilter) (*shared.Paginated[experienceapp.ExperienceResponse], error) {
	args := m.Called(ctx, sellerID, f)
	return result[shared.Paginated[experienceapp.ExperienceResponse]](args), args.Error(1)
}

// MockBookingService is a mock implementation of BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) ReserveTickets(ctx context.Context, userID, sessionID uuid.UUID, req experienceapp.ReserveTicketsRequest) (*experienceapp.ReservationResponse, error) {
	args := m.Called(ctx, userID, sessionID, req)
	return result[experienceapp.ReservationResponse](args), args.Error(1)
}

func (m *MockBookingService) CreatePaymentIntent(ctx context.Context, userID, sessionID uuid.UUID, req experienceapp.BookingPaymentRequest) (*experienceapp.BookingPaymentResponse, error) {
	args := m.Called(ctx, userID, sessionID, req)
	return result[experienceapp.BookingPaymentResponse](args), args.Error(1)
}

func (m *MockBookingService) CancelReservation(ctx context.Context, userID, sessionID uuid.UUID) error {
	return m.Called(ctx, userID, sessionID).Error(0)
}

func (m *MockBookingService) CheckInTicket(ctx context.Context, sellerID uuid.UUID, req experienceapp.CheckInRequest) (*experienceapp.ExperienceOrderResponse, error) {
	args := m.Called(ctx, sellerID, req)
	return result[experienceapp.ExperienceOrderResponse](args), args.Error(1)
}

func (m *MockBookingService) ListMyOrders(ctx context.Context, userID uuid.UUID, f experienceapp.ExperienceOrderListFilter) (*shared.Paginated[experienceapp.ExperienceOrderResponse], error) {
	args := m.Called(ctx, userID, f)
	return result[shared.Paginated[experienceapp.ExperienceOrderResponse]](args), args.Error(1)
}

func (m *MockBookingService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*experienceapp.ExperienceOrderResponse, error) {
	args := m.Called(ctx, userID, orderID)
	return result[experienceapp.ExperienceOrderResponse](args), args.Error(1)
}

// MockWebhookProcessor is a mock implementation of WebhookProcessor
type MockWebhookProcessor struct {
	mock.Mock
}

func (m *MockWebhookProcessor) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*webhook.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	return result[webhook.WebhookResult](args), args.Error(1)
}

// MockRateSource is a mock implementation of RateSource
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) Latest(ctx context.Context, base shared.Currency) (*exchange.Rates, error) {
	args := m.Called(ctx, base)
	return result[exchange.Rates](args), args.Error(1)
}

func (m *MockRateSource) Convert(ctx context.Context, amount decimal.Decimal, from, to shared.Currency) (decimal.Decimal, error) {
	args := m.Called(ctx, amount, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockUploadPresigner is a mock implementation of UploadPresigner
type MockUploadPresigner struct {
	mock.Mock
}

func (m *MockUploadPresigner) Presign(ctx context.Context, userID uuid.UUID, req uploadapp.PresignRequest) (*uploadapp.PresignResponse, error) {
	args := m.Called(ctx, userID, req)
	return result[uploadapp.PresignResponse](args), args.Error(1)
}

// MockProfileReader is a mock implementation of ProfileReader
type MockProfileReader struct {
	mock.Mock
}

func (m *MockProfileReader) GetUser(ctx context.Context, token string) (*auth.Profile, error) {
	args := m.Called(ctx, token)
	return result[auth.Profile](args), args.Error(1)
}
