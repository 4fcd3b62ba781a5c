package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/actorset"
	"github.com/tazhibayda/townboat/internal/bookmarks"
	"github.com/tazhibayda/townboat/internal/chat"
	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/oauth"
	"github.com/tazhibayda/townboat/internal/queue"
	"github.com/tazhibayda/townboat/internal/realtime"
	"github.com/tazhibayda/townboat/internal/repo"
	"github.com/tazhibayda/townboat/internal/service"
	"github.com/tazhibayda/townboat/internal/view"
)

type Handler struct {
	Store           *repo.Store
	JWTSecret       string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	Redis           *repo.Redis
	RateLimitPerMin int
	UploadMaxBytes  int64

	Events      *queue.Emitter
	Google      *oauth.GoogleOAuth
	Mutator     *actorset.Mutator
	Records     *service.Records
	Connections *service.Connections
	Chat        *chat.Service
	Expirer     *chat.Expirer
	Bookmarks   *bookmarks.Cache
	Source      realtime.Source
}

type Options struct {
	JWTSecret       string
	AccessTTL       time.Duration
	RefreshDays     int
	RateLimitPerMin int
	UploadMaxBytes  int64
	CompareAndSet   bool
	ExpiryDelay     time.Duration
	BookmarkTTL     time.Duration
}

// NewHandler wires the services over one store. rds may be nil; the rate
// limiter then falls back to process memory. sched is the chat expiry
// scheduler.
func NewHandler(store *repo.Store, rds *repo.Redis, pub queue.Publisher, exchange string, sched chat.Scheduler, o Options) *Handler {
	if pub == nil {
		pub = queue.NewNoop()
	}
	if o.AccessTTL <= 0 {
		o.AccessTTL = 15 * time.Minute
	}
	if o.BookmarkTTL <= 0 {
		o.BookmarkTTL = 30 * 24 * time.Hour
	}
	if o.UploadMaxBytes <= 0 {
		o.UploadMaxBytes = 5 << 20
	}
	if store.Signal == nil {
		store.Signal = repo.NewLocalSignal()
	}
	events := &queue.Emitter{Pub: pub, Exchange: exchange}
	expirer := chat.NewExpirer(store, sched, o.ExpiryDelay)
	return &Handler{
		Store:           store,
		JWTSecret:       o.JWTSecret,
		AccessTTL:       o.AccessTTL,
		RefreshTTL:      time.Duration(o.RefreshDays) * 24 * time.Hour,
		Redis:           rds,
		RateLimitPerMin: o.RateLimitPerMin,
		UploadMaxBytes:  o.UploadMaxBytes,

		Events: events,
		Mutator: actorset.New(store,
			actorset.WithCompareAndSet(o.CompareAndSet),
			actorset.WithOnSuccess(events.Toggled)),
		Records:     service.NewRecords(store, store),
		Connections: service.NewConnections(store, events),
		Chat:        chat.NewService(store, expirer, events.MessageSent),
		Expirer:     expirer,
		Bookmarks:   bookmarks.New(o.BookmarkTTL),
		Source:      &realtime.StoreSource{Finder: store, Signal: store.Signal},
	}
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAccount), errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrAlreadyVoted), errors.Is(err, domain.ErrClubFull),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownAction), errors.Is(err, repo.ErrBadPath):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// fail writes err inline; store failures are logged and hidden.
func fail(c *gin.Context, err error) {
	code := errorStatus(err)
	msg := err.Error()
	switch {
	case code == http.StatusNotFound:
		log.Ctx(c.Request.Context()).Info("not found", zap.String("path", c.FullPath()), zap.Error(err))
	case code >= http.StatusInternalServerError:
		log.Ctx(c.Request.Context()).Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "upstream error"
	}
	c.JSON(code, gin.H{"error": msg})
}

// viewer is the signed-in user of the request, zero when anonymous.
func viewer(c *gin.Context) view.Viewer {
	au, ok := c.Get(authUserKey)
	if !ok {
		return view.Viewer{}
	}
	u := au.(AuthUser)
	return view.Viewer{ID: u.ID, Name: u.Name, Admin: u.Role == domain.RoleAdmin}
}

func reqCtx(c *gin.Context) context.Context {
	return queue.WithRequestID(c.Request.Context(), c.GetString(requestIDKey))
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Compile-time checks that the store satisfies the service interfaces.
var (
	_ actorset.Store          = (*repo.Store)(nil)
	_ service.RecordStore     = (*repo.Store)(nil)
	_ service.ConnectionStore = (*repo.Store)(nil)
	_ chat.Store              = (*repo.Store)(nil)
	_ chat.MessageStore       = (*repo.Store)(nil)
	_ realtime.Finder         = (*repo.Store)(nil)
)
