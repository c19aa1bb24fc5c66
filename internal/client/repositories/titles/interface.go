// Package titles stores display information for shows, episodes and movies
// so user-facing messages can name what was checked in, rated or commented.
package titles

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
)

var ErrTitleNotFound = errors.New("title not found")

// Repository is CRUD over models.Title keyed by (type, trakt id).
type Repository interface {
	// Upsert inserts t or replaces the stored row with the same key.
	Upsert(ctx context.Context, t models.Title) error

	// Get returns ErrTitleNotFound when nothing is stored for the key.
	Get(ctx context.Context, itemType models.ItemType, traktID int) (*models.Title, error)

	List(ctx context.Context) ([]models.Title, error)

	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, itemType models.ItemType, traktID int) error
}
