// Package services implements the application services on top of the
// repository layer: account/credential flows, the password-reset lifecycle,
// and the place coordinator that keeps owner and place references consistent.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/placekeeper/placekeeper/internal/common"
	"github.com/placekeeper/placekeeper/internal/logging"
	"github.com/placekeeper/placekeeper/internal/server/auth"
	"github.com/placekeeper/placekeeper/internal/server/config"
	"github.com/placekeeper/placekeeper/internal/server/models"
	"github.com/placekeeper/placekeeper/internal/server/repositories/repomanager"
)

// resetTokenBytes is the entropy of a reset token before hex encoding.
const resetTokenBytes = 32

// Mailer delivers the password-reset token to the account's mailbox.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, name, token string) error
}

type UserService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	mailer             Mailer
	logger             logging.Logger
	jwtSecret          []byte
	tokenValidity      time.Duration
	resetTokenValidity time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, mailer Mailer, l logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                 db,
		repomanager:        m,
		mailer:             mailer,
		logger:             l.With("module", "user_service"),
		jwtSecret:          []byte(cfg.SecretKey),
		tokenValidity:      cfg.TokenValidityDuration,
		resetTokenValidity: cfg.ResetTokenValidityDuration,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignup(name, email, password string) error {
	if name == "" || !strings.Contains(email, "@") || len(password) < 6 {
		return common.ErrorValidation
	}
	return nil
}

// Signup registers a new account and issues its first session token.
// A duplicate email is common.ErrorConflict.
func (s *UserService) Signup(ctx context.Context, name, email, password, imageRef string) (*models.User, string, error) {
	if err := validateSignup(name, email, password); err != nil {
		return nil, "", err
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	user := &models.User{
		Name:           name,
		Email:          normalizeEmail(email),
		PasswordDigest: digest,
		ImageRef:       imageRef,
	}

	repo := s.repomanager.Users(s.db)
	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, "", common.ErrorConflict
		}
		return nil, "", common.ErrorInternal
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return user, token, nil
}

// Login verifies the credentials and issues a session token. A successful
// login clears any pending password reset: presenting the current password
// supersedes the outstanding reset request.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", common.ErrorInternal
	}

	if !auth.VerifyPassword(password, user.PasswordDigest) {
		return nil, "", common.ErrorUnauthorized
	}

	if user.ResetToken != "" {
		if err := repo.ClearResetToken(ctx, user.ID); err != nil {
			return nil, "", common.ErrorInternal
		}
		user.ResetToken = ""
		user.ResetExpiry = time.Time{}
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return user, token, nil
}

// VerifyToken extracts the identity from a session token.
func (s *UserService) VerifyToken(token string) (userID string, email string, err error) {
	return auth.ParseToken(token, s.jwtSecret)
}

// List returns the public projection of all users.
func (s *UserService) List(ctx context.Context) ([]*models.UserSummary, error) {
	result, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return result, nil
}

// RequestReset starts a password reset for the account registered under
// email. Any previously pending token is overwritten and thereby invalidated.
// The fresh token is handed to the mailer and also returned to the caller.
func (s *UserService) RequestReset(ctx context.Context, email string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", common.ErrorInternal
	}

	token, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := repo.SetResetToken(ctx, user.ID, token, time.Now().Add(s.resetTokenValidity)); err != nil {
		return "", common.ErrorInternal
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, token); err != nil {
		s.logger.Error(ctx, "reset mail delivery failed", "error", err.Error())
		return "", common.ErrorInternal
	}

	return token, nil
}

// CheckResetToken probes whether token is still valid without consuming it,
// returning the subject's user id.
func (s *UserService) CheckResetToken(ctx context.Context, token string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByResetToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidToken
		}
		return "", common.ErrorInternal
	}
	return user.ID, nil
}

// ConsumeReset finishes a password reset: subject, token and expiry must all
// match one stored record. Re-using the current password is
// common.ErrorSamePassword and mutates nothing. On success the digest is
// replaced and the pending token cleared in one statement.
func (s *UserService) ConsumeReset(ctx context.Context, userID, token, newPassword string) error {
	if len(newPassword) < 6 {
		return common.ErrorValidation
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByResetToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return common.ErrorInternal
	}
	if user.ID != userID {
		return common.ErrInvalidToken
	}

	if auth.VerifyPassword(newPassword, user.PasswordDigest) {
		return common.ErrorSamePassword
	}

	digest, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	if err := repo.UpdatePasswordClearReset(ctx, user.ID, digest); err != nil {
		return common.ErrorInternal
	}

	return nil
}
