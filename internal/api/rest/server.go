// Package rest exposes the matching core as a JSON API.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"kind-match/internal/applications"
	"kind-match/internal/credits"
	"kind-match/internal/feed"
	"kind-match/internal/interactions"
	"kind-match/internal/matches"
	"kind-match/internal/models"
	"kind-match/internal/scoring"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type FeedService interface {
	Feed(ctx context.Context, workerID int64, limit int) ([]scoring.RankedListing, error)
	Swipe(ctx context.Context, workerID int64, listingID string, action models.Action, message *string) (feed.SwipeResult, error)
	Rewind(ctx context.Context, workerID int64) (interactions.RewindResult, error)
	Invalidate(ctx context.Context, workerID int64)
}

type CreditService interface {
	Status(ctx context.Context, userID int64) (credits.Status, error)
	Grant(ctx context.Context, userID int64, value int) error
}

type ProfileService interface {
	GetWorkerProfile(ctx context.Context, userID int64) (*models.WorkerProfile, error)
	UpsertWorkerProfile(ctx context.Context, p *models.WorkerProfile) error
}

type ApplicationService interface {
	Apply(ctx context.Context, workerID int64, listingID string, message *string) (*models.Application, error)
	AuthorizeEmployer(ctx context.Context, employerID int64, applicationID string) (*models.Application, error)
	Approve(ctx context.Context, applicationID string) (applications.ApproveResult, error)
	Reject(ctx context.Context, applicationID string) error
	Skip(ctx context.Context, applicationID string) error
	ListPendingForEmployer(ctx context.Context, employerID int64, listingID *string) ([]applications.PendingApplicant, error)
}

type MatchService interface {
	Get(ctx context.Context, matchID string) (*models.Match, error)
	GetMatchesForUser(ctx context.Context, userID int64, role models.Role, opts matches.ListOptions) ([]models.Match, error)
	MarkOpened(ctx context.Context, matchID string, role models.Role) error
}

type ConversationService interface {
	FindOrCreate(ctx context.Context, employerID, workerID int64, matchID *string) (*models.Conversation, error)
	GetForParticipant(ctx context.Context, conversationID string, userID int64) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Conversation, error)
	SendMessage(ctx context.Context, conversationID string, senderID int64, content string, msgType models.MessageType) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID string, readerID int64) (int64, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// RateLimiter counts a request in the caller's current window.
type RateLimiter interface {
	IncrementUserRateLimit(ctx context.Context, userID int64) (int64, error)
}

// Pinger is a backing service checked by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Feed          FeedService
	Credits       CreditService
	Applications  ApplicationService
	Matches       MatchService
	Conversations ConversationService
	Profiles      ProfileService
	Limiter       RateLimiter
	Probes        map[string]Pinger
}

type Server struct {
	svc    Services
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

func New(addr, jwtSecret string, svc Services, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		svc:    svc,
		engine: gin.New(),
		logger: logger,
	}

	s.engine.Use(s.recovery(), s.requestLogger())
	s.routes(jwtSecret)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(s.engine)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) routes(jwtSecret string) {
	s.engine.GET("/healthz", s.healthz)

	api := s.engine.Group("/api/v1")
	api.Use(JWTAuth(jwtSecret), s.rateLimit())

	api.GET("/credits", s.getCredits)

	worker := api.Group("/")
	worker.Use(RequireRole(models.RoleWorker))
	{
		worker.GET("/feed", s.getFeed)
		worker.POST("/feed/swipes", s.postSwipe)
		worker.POST("/feed/rewind", s.postRewind)
		worker.POST("/applications", s.postApplication)
		worker.GET("/profile", s.getProfile)
		worker.PUT("/profile", s.putProfile)
	}

	employer := api.Group("/")
	employer.Use(RequireRole(models.RoleEmployer))
	{
		employer.GET("/applications/pending", s.getPending)
		employer.POST("/applications/:id/approve", s.postApprove)
		employer.POST("/applications/:id/reject", s.postReject)
		employer.POST("/applications/:id/skip", s.postSkip)
	}

	parties := api.Group("/")
	parties.Use(RequireRole(models.RoleWorker, models.RoleEmployer))
	{
		parties.GET("/matches", s.getMatches)
		parties.POST("/matches/:id/open", s.postMatchOpened)
		parties.POST("/matches/:id/conversation", s.postConversation)
		parties.GET("/conversations", s.getConversations)
		parties.GET("/conversations/:id/messages", s.getMessages)
		parties.POST("/conversations/:id/messages", s.postMessage)
		parties.POST("/conversations/:id/read", s.postRead)
		parties.DELETE("/conversations/:id", s.deleteConversation)
	}

	admin := api.Group("/admin")
	admin.Use(RequireRole(models.RoleAdmin))
	{
		admin.PUT("/users/:id/credits", s.putCredits)
	}
}

// Run serves until ctx is canceled and then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http api: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http api: %w", err)
	}
	s.logger.Info("http api stopped")
	return nil
}
