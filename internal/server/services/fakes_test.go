package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/placekeeper/placekeeper/internal/common"
	"github.com/placekeeper/placekeeper/internal/dbx"
	"github.com/placekeeper/placekeeper/internal/logging"
	"github.com/placekeeper/placekeeper/internal/server/config"
	"github.com/placekeeper/placekeeper/internal/server/models"
	placesrepo "github.com/placekeeper/placekeeper/internal/server/repositories/places"
	usersrepo "github.com/placekeeper/placekeeper/internal/server/repositories/users"
)

// --- shared helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                  "k",
		TokenValidityDuration:      time.Hour,
		ResetTokenValidityDuration: time.Hour,
	}
}

// --- fake users repository ---

type fakeUsersRepo struct {
	user *models.User // the single stored account, nil for empty store

	createErr error
	getErr    error

	setTokenCalls   int
	setToken        string
	setExpiry       time.Time
	setTokenErr     error
	clearCalls      int
	clearErr        error
	updatePassCalls int
	updatedDigest   string
	updateErr       error

	attached [][2]string
	detached [][2]string
	attachErr error
	detachErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.user != nil && f.user.Email == u.Email {
		return nil, common.ErrorConflict
	}
	u.ID = "u-new"
	f.user = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.user == nil || f.user.Email != email {
		return nil, common.ErrorNotFound
	}
	cp := *f.user
	return &cp, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.user == nil || f.user.ID != id {
		return nil, common.ErrorNotFound
	}
	cp := *f.user
	return &cp, nil
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]*models.UserSummary, error) {
	if f.user == nil {
		return nil, nil
	}
	return []*models.UserSummary{{
		ID: f.user.ID, Name: f.user.Name, Email: f.user.Email,
		NumberOfPlaces: len(f.user.PlaceIDs),
	}}, nil
}

func (f *fakeUsersRepo) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	if f.setTokenErr != nil {
		return f.setTokenErr
	}
	f.setTokenCalls++
	f.setToken = token
	f.setExpiry = expiry
	if f.user != nil && f.user.ID == userID {
		f.user.ResetToken = token
		f.user.ResetExpiry = expiry
	}
	return nil
}

func (f *fakeUsersRepo) ClearResetToken(ctx context.Context, userID string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clearCalls++
	if f.user != nil && f.user.ID == userID {
		f.user.ResetToken = ""
		f.user.ResetExpiry = time.Time{}
	}
	return nil
}

func (f *fakeUsersRepo) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.user == nil || f.user.ResetToken == "" || f.user.ResetToken != token || !now.Before(f.user.ResetExpiry) {
		return nil, common.ErrorNotFound
	}
	cp := *f.user
	return &cp, nil
}

func (f *fakeUsersRepo) UpdatePasswordClearReset(ctx context.Context, userID, digest string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatePassCalls++
	f.updatedDigest = digest
	if f.user != nil && f.user.ID == userID {
		f.user.PasswordDigest = digest
		f.user.ResetToken = ""
		f.user.ResetExpiry = time.Time{}
	}
	return nil
}

func (f *fakeUsersRepo) PlaceIDs(ctx context.Context, userID string) ([]string, error) {
	if f.user == nil || f.user.ID != userID {
		return nil, nil
	}
	return f.user.PlaceIDs, nil
}

func (f *fakeUsersRepo) AttachPlace(ctx context.Context, userID, placeID string) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attached = append(f.attached, [2]string{userID, placeID})
	if f.user != nil && f.user.ID == userID {
		f.user.PlaceIDs = append(f.user.PlaceIDs, placeID)
	}
	return nil
}

func (f *fakeUsersRepo) DetachPlace(ctx context.Context, userID, placeID string) error {
	if f.detachErr != nil {
		return f.detachErr
	}
	f.detached = append(f.detached, [2]string{userID, placeID})
	if f.user != nil && f.user.ID == userID {
		kept := f.user.PlaceIDs[:0]
		for _, id := range f.user.PlaceIDs {
			if id != placeID {
				kept = append(kept, id)
			}
		}
		f.user.PlaceIDs = kept
	}
	return nil
}

// --- fake places repository ---

type fakePlacesRepo struct {
	place *models.Place

	createErr error
	getErr    error
	updateErr error
	deleteErr error

	// createConflicts makes the first N Create calls fail with a retryable
	// serialization failure before letting one through.
	createConflicts int

	createCalls int
	deleteCalls int
	updateCalls int
}

func (f *fakePlacesRepo) Create(ctx context.Context, p *models.Place) (*models.Place, error) {
	f.createCalls++
	if f.createConflicts > 0 {
		f.createConflicts--
		return nil, &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = "p-new"
	f.place = p
	return p, nil
}

func (f *fakePlacesRepo) GetByID(ctx context.Context, id string) (*models.Place, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.place == nil || f.place.ID != id {
		return nil, common.ErrorNotFound
	}
	cp := *f.place
	return &cp, nil
}

func (f *fakePlacesRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Place, error) {
	if f.place == nil || f.place.OwnerID != ownerID {
		return nil, nil
	}
	cp := *f.place
	return []*models.Place{&cp}, nil
}

func (f *fakePlacesRepo) Update(ctx context.Context, id, title, description string) (*models.Place, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updateCalls++
	if f.place == nil || f.place.ID != id {
		return nil, common.ErrorNotFound
	}
	f.place.Title = title
	f.place.Description = description
	cp := *f.place
	return &cp, nil
}

func (f *fakePlacesRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleteCalls++
	if f.place == nil || f.place.ID != id {
		return common.ErrorNotFound
	}
	f.place = nil
	return nil
}

// --- fake repo manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakePlacesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }
func (m *fakeRepoManager) Places(db dbx.DBTX) placesrepo.Repository    { return m.p }

// --- fake collaborators ---

type fakeMailer struct {
	sent []string // tokens handed over for delivery
	err  error
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, email, name, token string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, token)
	return nil
}

type fakeGeocoder struct {
	loc models.Location
	err error
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (models.Location, error) {
	if f.err != nil {
		return models.Location{}, f.err
	}
	return f.loc, nil
}

type fakeFileStore struct {
	discarded chan string
	err       error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{discarded: make(chan string, 4)}
}

func (f *fakeFileStore) Discard(ctx context.Context, key string) error {
	f.discarded <- key
	return f.err
}
