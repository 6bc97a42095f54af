package integration

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/docstore/memory"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/orders"
	"github.com/vladislavdragonenkov/storefront/internal/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/users"
)

// OrderLifecycleTestSuite прогоняет полный жизненный цикл заказа через
// настоящие сервисы поверх in-memory хранилища.
type OrderLifecycleTestSuite struct {
	suite.Suite
	store      *memory.Store
	catalog    *catalog.Service
	orders     *orders.Service
	users      *users.Service
	outboxRepo *outbox.Repository
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.store = memory.NewStore()
	suite.outboxRepo = outbox.NewRepository(suite.store)
	suite.catalog = catalog.NewService(suite.store, logger)
	suite.orders = orders.NewService(suite.store, suite.outboxRepo, nil, logger)
	suite.users = users.NewService(suite.store, logger)
}

func (suite *OrderLifecycleTestSuite) seedProduct(price string, stock int64) domain.Product {
	product, err := suite.catalog.Create(context.Background(), catalog.CreateInput{
		Name:     "Integration Widget",
		Price:    price,
		Category: "widgets",
		Stock:    stock,
	})
	require.NoError(suite.T(), err)
	return product
}

func (suite *OrderLifecycleTestSuite) placeOrder(product domain.Product, qty int32) domain.Order {
	order, err := suite.orders.Place(context.Background(), orders.PlaceOrderInput{
		UserID:          "buyer-1",
		ShippingAddress: "Test st. 1",
		Items: []orders.PlaceOrderItem{
			{ProductID: product.ID, ProductName: product.Name, Quantity: qty, Price: product.Price},
		},
	})
	require.NoError(suite.T(), err)
	return order
}

// TestHappyPath проверяет полный успешный путь заказа до доставки.
func (suite *OrderLifecycleTestSuite) TestHappyPath() {
	ctx := context.Background()
	product := suite.seedProduct("10.00", 5)
	order := suite.placeOrder(product, 2)

	suite.Equal(domain.OrderStatusPending, order.Status)
	suite.Equal("20.00", order.Total)

	// Сток списан в транзакции оформления.
	updated, err := suite.catalog.Get(ctx, product.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(3), updated.Stock)

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		suite.Require().NoError(suite.orders.UpdateStatus(ctx, order.ID, status))
	}

	final, err := suite.orders.Get(ctx, order.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusDelivered, final.Status)
	suite.Contains(final.StatusAt, domain.OrderStatusProcessing)
	suite.Contains(final.StatusAt, domain.OrderStatusShipped)
	suite.Contains(final.StatusAt, domain.OrderStatusDelivered)
}

// TestCancelRestoresStockFromProcessing проверяет возврат стока при отмене
// обрабатываемого заказа.
func (suite *OrderLifecycleTestSuite) TestCancelRestoresStockFromProcessing() {
	ctx := context.Background()
	product := suite.seedProduct("10.00", 5)
	order := suite.placeOrder(product, 2)

	suite.Require().NoError(suite.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing))
	suite.Require().NoError(suite.orders.Cancel(ctx, order.ID, "integration cancel"))

	updated, err := suite.catalog.Get(ctx, product.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(5), updated.Stock)

	cancelled, err := suite.orders.Get(ctx, order.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCancelled, cancelled.Status)
	suite.Equal("integration cancel", cancelled.CancellationReason)
}

// TestCancelPendingKeepsStock: отмена необработанного заказа сток не возвращает.
func (suite *OrderLifecycleTestSuite) TestCancelPendingKeepsStock() {
	ctx := context.Background()
	product := suite.seedProduct("10.00", 5)
	order := suite.placeOrder(product, 2)

	suite.Require().NoError(suite.orders.Cancel(ctx, order.ID, ""))

	updated, err := suite.catalog.Get(ctx, product.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(3), updated.Stock)
}

// TestOutboxDelivery проверяет путь доменного события от оформления заказа
// до публикации через outbox worker.
func (suite *OrderLifecycleTestSuite) TestOutboxDelivery() {
	ctx := context.Background()
	product := suite.seedProduct("10.00", 5)
	order := suite.placeOrder(product, 1)

	pending, err := suite.outboxRepo.PullPending(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	suite.Equal("order.created", pending[0].EventType)
	suite.Equal(order.ID, pending[0].AggregateID)

	var payload struct {
		OrderID string `json:"orderId"`
		Total   string `json:"total"`
	}
	suite.Require().NoError(json.Unmarshal(pending[0].Payload, &payload))
	suite.Equal(order.ID, payload.OrderID)
	suite.Equal("10.00", payload.Total)

	publisher := &capturingPublisher{}
	worker := outbox.NewWorker(suite.outboxRepo, publisher)
	worker.ProcessOnce(ctx)

	suite.Require().Len(publisher.published(), 1)

	// После публикации backlog пуст.
	left, err := suite.outboxRepo.PullPending(ctx, 10)
	suite.Require().NoError(err)
	suite.Empty(left)
}

// TestUserProfileAndAdminFlow проверяет профиль и fail-closed авторизацию.
func (suite *OrderLifecycleTestSuite) TestUserProfileAndAdminFlow() {
	ctx := context.Background()

	_, err := suite.users.EnsureProfile(ctx, "buyer-1", users.Profile{Email: "buyer@example.com"})
	suite.Require().NoError(err)

	suite.False(suite.users.IsAdmin(ctx, "buyer-1"))
	suite.False(suite.users.IsAdmin(ctx, "ghost"))

	suite.Require().NoError(suite.users.PromoteToAdmin(ctx, "buyer-1"))
	suite.True(suite.users.IsAdmin(ctx, "buyer-1"))
}

type capturingPublisher struct {
	mu   sync.Mutex
	msgs []domain.OutboxMessage
}

func (p *capturingPublisher) Publish(msg domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *capturingPublisher) published() []domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OutboxMessage(nil), p.msgs...)
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
