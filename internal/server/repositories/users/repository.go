package users

import (
	"context"
	"time"

	"github.com/placekeeper/placekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.UserSummary, error)

	// Password-reset lifecycle. SetResetToken overwrites any pending token,
	// implicitly invalidating it. GetByResetToken only matches tokens that
	// have not expired as of now.
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error
	ClearResetToken(ctx context.Context, userID string) error
	GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	UpdatePasswordClearReset(ctx context.Context, userID, digest string) error

	// Owned-place back-reference set. AttachPlace and DetachPlace are only
	// ever called inside the same transaction that inserts or removes the
	// place row itself.
	PlaceIDs(ctx context.Context, userID string) ([]string, error)
	AttachPlace(ctx context.Context, userID, placeID string) error
	DetachPlace(ctx context.Context, userID, placeID string) error
}
