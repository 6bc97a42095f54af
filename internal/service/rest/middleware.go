package restsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/users"
)

// userIDHeader несёт идентификатор аутентифицированного пользователя.
// Проверка подлинности токена выполняется на внешнем периметре; сервис
// доверяет заголовку и отвечает только за авторизацию.
const userIDHeader = "X-User-ID"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "HTTP request handling duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// requestUserID извлекает идентификатор пользователя из заголовка.
func requestUserID(c *gin.Context) string {
	return c.GetHeader(userIDHeader)
}

// requireUser отклоняет запросы без заголовка пользователя.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requestUserID(c) == "" {
			ErrorResponse(c, http.StatusUnauthorized, "user identification missing")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireAdmin пропускает только администраторов. Проверка fail-closed:
// любая ошибка чтения профиля трактуется как отказ в доступе.
func requireAdmin(usersSvc *users.Service, logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := requestUserID(c)
		if userID == "" {
			ErrorResponse(c, http.StatusUnauthorized, "user identification missing")
			c.Abort()
			return
		}
		if !usersSvc.IsAdmin(c.Request.Context(), userID) {
			logger.WithFields(log.Fields{
				"user_id": userID,
				"path":    c.FullPath(),
			}).Warn("admin access denied")
			ErrorResponse(c, http.StatusForbidden, "admin privileges required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// metricsMiddleware считает запросы и длительности по шаблону маршрута.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}

// loggingMiddleware пишет структурированную строку на каждый запрос.
func loggingMiddleware(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(log.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("http request")
	}
}
