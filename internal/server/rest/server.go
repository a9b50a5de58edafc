// Package rest exposes the application services over HTTP.
package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/placekeeper/placekeeper/internal/logging"
	"github.com/placekeeper/placekeeper/internal/server/models"
)

// UserService is the account surface the handlers call into.
type UserService interface {
	Signup(ctx context.Context, name, email, password, imageRef string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	VerifyToken(token string) (userID string, email string, err error)
	List(ctx context.Context) ([]*models.UserSummary, error)
	RequestReset(ctx context.Context, email string) (string, error)
	CheckResetToken(ctx context.Context, token string) (string, error)
	ConsumeReset(ctx context.Context, userID, token, newPassword string) error
}

// PlaceService is the place surface the handlers call into.
type PlaceService interface {
	Create(ctx context.Context, ownerID, title, description, address, imageRef string) (*models.Place, error)
	Get(ctx context.Context, id string) (*models.Place, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Place, error)
	Update(ctx context.Context, id, requesterID, title, description string) (*models.Place, error)
	Delete(ctx context.Context, id, requesterID string) error
}

// ImageStore persists uploaded images and serves them back through
// presigned URLs.
type ImageStore interface {
	Store(ctx context.Context, body io.Reader, contentType string) (string, error)
	PresignGetURL(ctx context.Context, key string) (string, error)
}

type Server struct {
	address string
	users   UserService
	places  PlaceService
	images  ImageStore
	logger  logging.Logger
}

func NewServer(address string, us UserService, ps PlaceService, is ImageStore, l logging.Logger) *Server {
	return &Server{
		address: address,
		users:   us,
		places:  ps,
		images:  is,
		logger:  l.With("module", "rest_server"),
	}
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api")

	users := api.Group("/users")
	users.GET("", s.ListUsers)
	users.POST("/signup", s.Signup)
	users.POST("/login", s.Login)
	users.POST("/reset", s.RequestReset)
	users.GET("/reset/:token", s.CheckResetToken)
	users.POST("/reset/:token", s.ConsumeReset)
	users.GET("/:uid/places", s.ListPlacesByOwner)

	places := api.Group("/places")
	places.GET("/:pid", s.GetPlace)
	places.POST("", s.requireAuth(), s.CreatePlace)
	places.PATCH("/:pid", s.requireAuth(), s.UpdatePlace)
	places.DELETE("/:pid", s.requireAuth(), s.DeletePlace)

	return engine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
