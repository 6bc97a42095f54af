package restsvc

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/orders"
)

// Представления API отделены от доменных типов: формат JSON — контракт с
// клиентами и не должен дрейфовать вместе с внутренними структурами.

type productView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"imageUrl"`
	Category    string    `json:"category"`
	Stock       int64     `json:"stock"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type productPageView struct {
	Products   []productView `json:"products"`
	NextCursor string        `json:"nextCursor,omitempty"`
	HasMore    bool          `json:"hasMore"`
}

type orderItemView struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int32  `json:"quantity"`
	Price       string `json:"price"`
	Total       string `json:"total"`
}

type orderView struct {
	ID                 string               `json:"id"`
	UserID             string               `json:"userId"`
	Status             domain.OrderStatus   `json:"status"`
	Total              string               `json:"total"`
	ShippingAddress    string               `json:"shippingAddress"`
	CancellationReason string               `json:"cancellationReason,omitempty"`
	Items              []orderItemView      `json:"items"`
	StatusAt           map[string]time.Time `json:"statusAt,omitempty"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}

type userView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	PhotoURL    string    `json:"photoUrl"`
	IsAdmin     bool      `json:"isAdmin"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

type statisticsView struct {
	TotalOrders    int            `json:"totalOrders"`
	TotalRevenue   string         `json:"totalRevenue"`
	OrdersByStatus map[string]int `json:"ordersByStatus"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductViews(products []domain.Product) []productView {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	return views
}

func toProductPageView(page catalog.Page) productPageView {
	return productPageView{
		Products:   toProductViews(page.Products),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
}

func toOrderView(o domain.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		})
	}

	var statusAt map[string]time.Time
	if len(o.StatusAt) > 0 {
		statusAt = make(map[string]time.Time, len(o.StatusAt))
		for status, at := range o.StatusAt {
			statusAt[string(status)] = at
		}
	}

	return orderView{
		ID:                 o.ID,
		UserID:             o.UserID,
		Status:             o.Status,
		Total:              o.Total,
		ShippingAddress:    o.ShippingAddress,
		CancellationReason: o.CancellationReason,
		Items:              items,
		StatusAt:           statusAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toOrderViews(list []domain.Order) []orderView {
	views := make([]orderView, 0, len(list))
	for _, o := range list {
		views = append(views, toOrderView(o))
	}
	return views
}

func toUserView(u domain.User) userView {
	return userView{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhotoURL:    u.PhotoURL,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

func toStatisticsView(stats orders.Statistics) statisticsView {
	byStatus := make(map[string]int, len(stats.OrdersByStatus))
	for status, count := range stats.OrdersByStatus {
		byStatus[string(status)] = count
	}
	return statisticsView{
		TotalOrders:    stats.TotalOrders,
		TotalRevenue:   stats.TotalRevenue,
		OrdersByStatus: byStatus,
	}
}
