package titles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/dmitrijs2005/sgtrakt/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, t models.Title) error {
	query := `INSERT INTO titles (item_type, trakt_id, title, show_title, season, number)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(item_type, trakt_id) DO UPDATE SET title = excluded.title,
				show_title = excluded.show_title,
				season = excluded.season,
				number = excluded.number
	`
	_, err := r.db.ExecContext(ctx, query,
		string(t.Type), t.TraktID, t.Title, t.ShowTitle, t.Season, t.Number)
	if err != nil {
		return fmt.Errorf("failed to upsert title: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, itemType models.ItemType, traktID int) (*models.Title, error) {
	query := `SELECT title, show_title, season, number FROM titles WHERE item_type = ? AND trakt_id = ?`
	row := r.db.QueryRowContext(ctx, query, string(itemType), traktID)

	t := &models.Title{Type: itemType, TraktID: traktID}
	if err := row.Scan(&t.Title, &t.ShowTitle, &t.Season, &t.Number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTitleNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Title, error) {
	query := `SELECT item_type, trakt_id, title, show_title, season, number FROM titles
		ORDER BY item_type, show_title, season, number, title`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select titles: %w", err)
	}
	defer rows.Close()

	var result []models.Title
	for rows.Next() {
		var (
			item     models.Title
			itemType string
		)
		if err := rows.Scan(&itemType, &item.TraktID, &item.Title, &item.ShowTitle, &item.Season, &item.Number); err != nil {
			return nil, err
		}
		item.Type = models.ItemType(itemType)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, itemType models.ItemType, traktID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM titles WHERE item_type = ? AND trakt_id = ?`, string(itemType), traktID)
	if err != nil {
		return fmt.Errorf("failed to delete title: %w", err)
	}
	return nil
}
