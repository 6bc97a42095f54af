package restsvc

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
)

// ProductHandler обслуживает маршруты каталога.
type ProductHandler struct {
	catalog *catalog.Service
	logger  *log.Entry
}

// NewProductHandler создаёт обработчик каталога.
func NewProductHandler(catalogSvc *catalog.Service, logger *log.Entry) *ProductHandler {
	if logger == nil {
		logger = log.New().WithField("component", "rest-products")
	}
	return &ProductHandler{catalog: catalogSvc, logger: logger}
}

// List обрабатывает GET /products: фильтры и курсор приходят query-параметрами.
func (h *ProductHandler) List(c *gin.Context) {
	filters := catalog.Filters{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy"),
		Cursor:   c.Query("cursor"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			ErrorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filters.Limit = limit
	}

	page, err := h.catalog.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.WithError(err).Warn("list products failed")
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toProductPageView(page))
}

// Featured обрабатывает GET /products/featured.
func (h *ProductHandler) Featured(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			ErrorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	products, err := h.catalog.Featured(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Warn("list featured products failed")
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toProductViews(products))
}

// Get обрабатывает GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toProductView(product))
}

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"imageUrl"`
	Category    string `json:"category"`
	Stock       int64  `json:"stock"`
}

// Create обрабатывает POST /products (только администратор).
func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), catalog.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Stock:       req.Stock,
	})
	if err != nil {
		h.logger.WithError(err).Warn("create product failed")
		domainErrorResponse(c, err)
		return
	}

	h.logger.WithField("product_id", product.ID).Info("product created")
	SuccessResponse(c, http.StatusCreated, toProductView(product))
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	ImageURL    *string `json:"imageUrl"`
	Category    *string `json:"category"`
	Stock       *int64  `json:"stock"`
	IsActive    *bool   `json:"isActive"`
}

// Update обрабатывает PATCH /products/:id (только администратор).
// Отсутствующие в теле поля не изменяются.
func (h *ProductHandler) Update(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), c.Param("id"), catalog.Patch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
	})
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toProductView(product))
}

// Delete обрабатывает DELETE /products/:id (только администратор):
// мягкое удаление, товар скрывается из выдачи.
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.catalog.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		domainErrorResponse(c, err)
		return
	}

	h.logger.WithField("product_id", c.Param("id")).Info("product soft-deleted")
	SuccessResponse(c, http.StatusOK, gin.H{"deleted": true})
}
