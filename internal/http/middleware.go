package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/metrics"
	"github.com/tazhibayda/townboat/internal/security"
)

const (
	authUserKey  = "auth_user"
	requestIDKey = "X-Request-ID"
)

// AuthUser is the identity taken from a verified access token.
type AuthUser struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// RequestID keeps an incoming X-Request-ID or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDKey, id)
		c.Next()
	}
}

// Metrics records the request counters and latency per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.InFlight.Inc()
		c.Next()
		metrics.InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// AccessLog writes one line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Ctx(c.Request.Context()).Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	// browsers cannot set headers on a websocket handshake
	return c.Query("access_token")
}

func (h *Handler) identify(c *gin.Context) (bool, error) {
	tok := bearer(c)
	if tok == "" {
		return false, nil
	}
	claims, err := security.ParseAccess(h.JWTSecret, tok)
	if err != nil {
		return false, err
	}
	c.Set(authUserKey, AuthUser{ID: claims.UID, Email: claims.Email, Name: claims.Name, Role: claims.Role})
	return true, nil
}

// AuthJWT rejects requests without a valid access token.
func (h *Handler) AuthJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := h.identify(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer"})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the user when a token is sent; an invalid token
// is treated as signed out.
func (h *Handler) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _ = h.identify(c)
		c.Next()
	}
}

// RequireAdmin must follow AuthJWT. A non-admin reaching an admin route is
// signed out everywhere.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v := viewer(c)
		if v.Admin {
			c.Next()
			return
		}
		log.Ctx(c.Request.Context()).Warn("admin route denied", zap.String("uid", v.ID), zap.String("path", c.FullPath()))
		if oid, err := primitive.ObjectIDFromHex(v.ID); err == nil && h.Store != nil {
			if err := h.Store.RevokeAllForUser(c.Request.Context(), oid); err != nil {
				log.Ctx(c.Request.Context()).Error("revoke sessions", zap.Error(err))
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "signedOut": true})
	}
}
