// Package api serves quizzes, attempt history and recommendations over
// HTTP for web clients.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unisupport/unisupport/internal/history"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/realtime"
	"github.com/unisupport/unisupport/internal/session"
)

// Backend is the storage the API reads and writes.
type Backend interface {
	session.QuestionSource
	session.AttemptSink
	session.HistorySource

	ListCategories(ctx context.Context) ([]quiz.Category, error)
	GetCategory(ctx context.Context, id string) (quiz.Category, bool, error)
	RecentAttempts(ctx context.Context, userID string, limit int) ([]quiz.Attempt, error)
}

// Options configures a Server. Backend and Secret are required.
type Options struct {
	Backend Backend

	// KV backs the per-user recommendation caches. Nil keeps them in
	// process memory.
	KV history.KV

	// Generator produces recommendations. Nil disables the endpoint.
	Generator history.Generator

	// Hub receives attempt.created events. Nil disables /api/events.
	Hub *realtime.Hub

	Secret      []byte
	CORSOrigins []string

	// SessionTTL is how long an idle quiz session is kept.
	SessionTTL time.Duration

	Now func() time.Time
}

// Server is the HTTP API.
type Server struct {
	opts     Options
	engine   *gin.Engine
	sessions *registry

	cacheMu sync.Mutex
	caches  map[string]*userCache
}

// userCache is a user's recommendation cache and when it was last used.
// The cached content lives in the KV, so dropping an idle entry only drops
// its in-memory request ordering.
type userCache struct {
	cache    *history.Cache
	lastUsed time.Time
}

// New builds the server and its routes.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if opts.KV == nil {
		opts.KV = newMemoryKV()
	}

	s := &Server{
		opts:     opts,
		sessions: newRegistry(opts.SessionTTL, opts.Now),
		caches:   make(map[string]*userCache),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metricsMiddleware())

	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(bearerAuth(s.opts.Secret))
	{
		api.GET("/categories", s.listCategories)

		q := api.Group("/quiz")
		{
			q.POST("", s.startQuiz)
			q.GET("/:session", s.getQuiz)
			q.PUT("/:session/answers/:question", s.answerQuestion)
			q.POST("/:session/next", s.nextQuestion)
			q.POST("/:session/previous", s.previousQuestion)
			q.DELETE("/:session", s.deleteQuiz)
		}

		api.GET("/history", s.categoryHistory)
		api.GET("/history/latest", s.latestHistory)
		api.GET("/recommendations", s.recommendations)
		api.GET("/events", s.events)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("api: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("api: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cacheFor returns the recommendation cache of userID, creating it on first
// use. Each user gets their own key prefix in the shared KV. Caches idle
// longer than the session TTL are dropped.
func (s *Server) cacheFor(userID string) *history.Cache {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	now := s.opts.Now()
	for id, uc := range s.caches {
		if now.Sub(uc.lastUsed) > s.opts.SessionTTL {
			delete(s.caches, id)
		}
	}
	uc, ok := s.caches[userID]
	if !ok {
		uc = &userCache{cache: history.NewCache(history.Prefixed(s.opts.KV, "user:"+userID+":"), s.opts.Generator)}
		s.caches[userID] = uc
	}
	uc.lastUsed = now
	return uc.cache
}

func (s *Server) publisher() session.Publisher {
	if s.opts.Hub == nil {
		return nil
	}
	return s.opts.Hub
}
