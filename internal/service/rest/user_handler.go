package restsvc

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/users"
)

// UserHandler обслуживает маршруты профилей.
type UserHandler struct {
	users  *users.Service
	logger *log.Entry
}

// NewUserHandler создаёт обработчик профилей.
func NewUserHandler(usersSvc *users.Service, logger *log.Entry) *UserHandler {
	if logger == nil {
		logger = log.New().WithField("component", "rest-users")
	}
	return &UserHandler{users: usersSvc, logger: logger}
}

type loginRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	PhotoURL  string `json:"photoUrl"`
}

// Login обрабатывает POST /users/login: создаёт профиль при первом входе,
// иначе обновляет отметку последнего входа.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	user, err := h.users.EnsureProfile(c.Request.Context(), requestUserID(c), users.Profile{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		PhotoURL:  req.PhotoURL,
	})
	if err != nil {
		h.logger.WithError(err).Warn("ensure profile failed")
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toUserView(user))
}

// Me обрабатывает GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), requestUserID(c))
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toUserView(user))
}

// Promote обрабатывает POST /admin/users/:id/promote (только администратор).
func (h *UserHandler) Promote(c *gin.Context) {
	targetID := c.Param("id")
	if err := h.users.PromoteToAdmin(c.Request.Context(), targetID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	h.logger.WithFields(log.Fields{
		"user_id":     targetID,
		"promoted_by": requestUserID(c),
	}).Info("user promoted to admin")

	user, err := h.users.Get(c.Request.Context(), targetID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, toUserView(user))
}
