package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/logging"
	"github.com/conorfennell/grestudy/internal/queue"
	"github.com/conorfennell/grestudy/internal/sm2"
	"github.com/conorfennell/grestudy/internal/storage"
)

// Store is the item storage the HTTP API reads and writes directly.
type Store interface {
	CreateItem(ctx context.Context, item domain.Item, created time.Time) (domain.Entry, error)
	FindItem(ctx context.Context, id int64) (domain.Entry, error)
	ListItems(ctx context.Context, f storage.Filter) ([]domain.Entry, error)
	DeleteItem(ctx context.Context, id int64) error
	Stats(ctx context.Context, today time.Time) ([]storage.CategoryStats, error)
}

// Scheduler owns every schedule write.
type Scheduler interface {
	SubmitReview(ctx context.Context, itemID int64, quality sm2.Quality) (domain.ScheduleState, error)
	ResetItem(ctx context.Context, itemID int64) (domain.ScheduleState, error)
	TodayReviews(ctx context.Context, today time.Time) (queue.Queue, error)
}

// Options tune the server.
type Options struct {
	// Origins are the browser origins allowed by CORS.
	Origins []string
	// Now replaces time.Now.
	Now func() time.Time
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	store  Store
	sched  Scheduler
	log    *logging.Logger
	now    func() time.Time
	router *gin.Engine
}

// NewServer creates and configures a new server.
func NewServer(store Store, sched Scheduler, log *logging.Logger, opts Options) *Server {
	s := &Server{
		store:  store,
		sched:  sched,
		log:    log,
		now:    opts.Now,
		router: gin.New(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.router.Use(requestID(), requestLogger(log), recovery(log), corsMiddleware(opts.Origins))
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	items := s.router.Group("/items")
	items.POST("", s.handleCreateItem)
	items.GET("", s.handleListItems)
	items.GET("/:id", s.handleGetItem)
	items.DELETE("/:id", s.handleDeleteItem)

	rev := s.router.Group("/review")
	rev.GET("/today", s.handleTodayReviews)
	rev.POST("/:id/submit", s.handleSubmitReview)
	rev.POST("/:id/reset", s.handleResetItem)

	s.router.GET("/stats", s.handleStats)
}
