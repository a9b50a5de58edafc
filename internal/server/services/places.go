package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/placekeeper/placekeeper/internal/common"
	"github.com/placekeeper/placekeeper/internal/dbx"
	"github.com/placekeeper/placekeeper/internal/logging"
	"github.com/placekeeper/placekeeper/internal/server/authz"
	"github.com/placekeeper/placekeeper/internal/server/models"
	"github.com/placekeeper/placekeeper/internal/server/repositories/repomanager"
)

// Geocoder resolves a free-text address into coordinates. It returns
// common.ErrorNotFound when the address cannot be resolved.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Location, error)
}

// FileStore releases stored image artifacts. Discard failures are logged
// and swallowed by the caller.
type FileStore interface {
	Discard(ctx context.Context, key string) error
}

// PlaceService coordinates place life cycle against two records at once:
// the place row and the owner's owned-place set. Create and delete touch
// both inside a single transaction, so no partial state is ever visible.
type PlaceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	geocoder    Geocoder
	files       FileStore
	logger      logging.Logger
}

func NewPlaceService(db *sql.DB, m repomanager.RepositoryManager, g Geocoder, f FileStore, l logging.Logger) *PlaceService {
	return &PlaceService{
		db:          db,
		repomanager: m,
		geocoder:    g,
		files:       f,
		logger:      l.With("module", "place_service"),
	}
}

func validatePlaceFields(title, description string) error {
	if title == "" || len(description) < 5 {
		return common.ErrorValidation
	}
	return nil
}

// Create inserts a place for ownerID and appends it to the owner's
// owned-place set, both inside one transaction. The owner must exist.
// A transaction that keeps conflicting after the bounded replay surfaces
// as common.ErrorConflict.
func (s *PlaceService) Create(ctx context.Context, ownerID, title, description, address, imageRef string) (*models.Place, error) {
	if err := validatePlaceFields(title, description); err != nil {
		return nil, err
	}
	if address == "" {
		return nil, common.ErrorValidation
	}

	location, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorValidation
		}
		return nil, common.ErrorInternal
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	place := &models.Place{
		Title:       title,
		Description: description,
		ImageRef:    imageRef,
		Address:     address,
		Location:    location,
		OwnerID:     ownerID,
	}

	// The closure may run more than once; the outer place must stay intact
	// until an attempt succeeds.
	err = dbx.WithTxRetry(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Places(tx).Create(ctx, place)
		if err != nil {
			return err
		}
		if err := s.repomanager.Users(tx).AttachPlace(ctx, ownerID, created.ID); err != nil {
			return err
		}
		place = created
		return nil
	})
	if err != nil {
		return nil, s.txError(ctx, "place create", err)
	}

	return place, nil
}

// Get returns a place by id. No ownership check: reads are public.
func (s *PlaceService) Get(ctx context.Context, id string) (*models.Place, error) {
	place, err := s.repomanager.Places(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return place, nil
}

// ListByOwner returns all places owned by ownerID, possibly empty.
func (s *PlaceService) ListByOwner(ctx context.Context, ownerID string) ([]*models.Place, error) {
	result, err := s.repomanager.Places(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return result, nil
}

// Update rewrites a place's title and description. Only the owner may
// update; no cross-record references change, so no transaction is needed.
func (s *PlaceService) Update(ctx context.Context, id, requesterID, title, description string) (*models.Place, error) {
	if err := validatePlaceFields(title, description); err != nil {
		return nil, err
	}

	repo := s.repomanager.Places(s.db)

	place, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if err := authz.AuthorizeOwner(requesterID, place.OwnerID); err != nil {
		return nil, err
	}

	updated, err := repo.Update(ctx, id, title, description)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	return updated, nil
}

// Delete removes a place and detaches it from the owner's owned-place set
// inside one transaction. Only after the transaction commits is the place's
// image artifact released, best-effort: a discard failure never undoes the
// delete.
func (s *PlaceService) Delete(ctx context.Context, id, requesterID string) error {
	place, err := s.repomanager.Places(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	if err := authz.AuthorizeOwner(requesterID, place.OwnerID); err != nil {
		return err
	}

	// Detach before the place row goes away so the foreign key from
	// user_places is never violated mid-transaction.
	err = dbx.WithTxRetry(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).DetachPlace(ctx, place.OwnerID, id); err != nil {
			return err
		}
		return s.repomanager.Places(tx).Delete(ctx, id)
	})
	if err != nil {
		// A concurrent delete of the same id may win the race; the loser
		// observes the row already gone.
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return s.txError(ctx, "place delete", err)
	}

	if place.ImageRef != "" {
		go s.discardImage(place.ImageRef)
	}

	return nil
}

func (s *PlaceService) discardImage(key string) {
	ctx := context.Background()
	if err := s.files.Discard(ctx, key); err != nil {
		s.logger.Warn(ctx, "image discard failed", "key", key, "error", err.Error())
	}
}

// txError classifies a failed coordinator transaction: exhausted retryable
// conflicts become common.ErrorConflict, anything else is internal. The
// storage error text stays on this side of the boundary.
func (s *PlaceService) txError(ctx context.Context, op string, err error) error {
	if dbx.IsRetryable(err) {
		s.logger.Warn(ctx, op+" gave up after retries", "error", err.Error())
		return common.ErrorConflict
	}
	s.logger.Error(ctx, op+" failed", "error", err.Error())
	return common.ErrorInternal
}
