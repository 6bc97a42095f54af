package restsvc

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/orders"
)

// OrderHandler обслуживает маршруты заказов.
type OrderHandler struct {
	orders *orders.Service
	logger *log.Entry
	// placeRetryAttempts — количество попыток оформления при конфликте
	// транзакции; <=1 означает одну попытку (ретрай на стороне клиента).
	placeRetryAttempts int
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(ordersSvc *orders.Service, placeRetryAttempts int, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.New().WithField("component", "rest-orders")
	}
	return &OrderHandler{
		orders:             ordersSvc,
		logger:             logger,
		placeRetryAttempts: placeRetryAttempts,
	}
}

type placeOrderItemRequest struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int32  `json:"quantity"`
	Price       string `json:"price"`
}

type placeOrderRequest struct {
	ShippingAddress string                  `json:"shippingAddress"`
	Items           []placeOrderItemRequest `json:"items"`
}

// Place обрабатывает POST /orders: оформляет заказ от имени пользователя из
// заголовка. При настроенном ретрае конфликт повторяется ограниченное число раз.
func (h *OrderHandler) Place(c *gin.Context) {
	userID := requestUserID(c)

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	input := orders.PlaceOrderInput{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		Items:           make([]orders.PlaceOrderItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, orders.PlaceOrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	order, err := h.placeWithRetry(c, input)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Warn("place order failed")
		domainErrorResponse(c, err)
		return
	}

	h.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.Total,
	}).Info("order placed")
	SuccessResponse(c, http.StatusCreated, toOrderView(order))
}

func (h *OrderHandler) placeWithRetry(c *gin.Context, input orders.PlaceOrderInput) (domain.Order, error) {
	order, err := h.orders.Place(c.Request.Context(), input)
	for attempt := 1; attempt < h.placeRetryAttempts && docstore.IsConflict(err); attempt++ {
		h.logger.WithField("attempt", attempt).Info("retrying order placement after conflict")
		order, err = h.orders.Place(c.Request.Context(), input)
	}
	return order, err
}

// Get обрабатывает GET /orders/:id. Пользователь видит только свои заказы.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	if order.UserID != requestUserID(c) {
		ErrorResponse(c, http.StatusForbidden, "order belongs to another user")
		return
	}
	SuccessResponse(c, http.StatusOK, toOrderView(order))
}

// ListMine обрабатывает GET /orders: заказы пользователя из заголовка,
// новые первыми.
func (h *OrderHandler) ListMine(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	list, err := h.orders.ListByUser(c.Request.Context(), requestUserID(c), limit)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toOrderViews(list))
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Cancel обрабатывает POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID := c.Param("id")

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	if order.UserID != requestUserID(c) {
		ErrorResponse(c, http.StatusForbidden, "order belongs to another user")
		return
	}

	var req cancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	if err := h.orders.Cancel(c.Request.Context(), orderID, req.Reason); err != nil {
		h.logger.WithError(err).WithField("order_id", orderID).Warn("cancel order failed")
		domainErrorResponse(c, err)
		return
	}

	cancelled, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toOrderView(cancelled))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus обрабатывает PATCH /orders/:id/status (только администратор).
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	orderID := c.Param("id")
	if err := h.orders.UpdateStatus(c.Request.Context(), orderID, domain.OrderStatus(req.Status)); err != nil {
		h.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"status":   req.Status,
		}).Warn("update order status failed")
		domainErrorResponse(c, err)
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toOrderView(order))
}

// ListAll обрабатывает GET /admin/orders.
func (h *OrderHandler) ListAll(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	list, err := h.orders.ListAll(c.Request.Context(), limit)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toOrderViews(list))
}

// ListRecent обрабатывает GET /admin/orders/recent.
func (h *OrderHandler) ListRecent(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	list, err := h.orders.ListRecent(c.Request.Context(), limit)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toOrderViews(list))
}

// Statistics обрабатывает GET /admin/orders/statistics.
func (h *OrderHandler) Statistics(c *gin.Context) {
	stats, err := h.orders.Statistics(c.Request.Context())
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toStatisticsView(stats))
}

// queryLimit читает необязательный query-параметр limit; 0 означает значение
// по умолчанию сервисного слоя. При ошибке парсинга ответ уже записан.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		ErrorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
