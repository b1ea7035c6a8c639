package library

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation    = "23505"
	uniqueUserCatalog  = "saved_books_user_id_catalog_id_key"
	selectSavedColumns = `id, user_id, catalog_id, title, authors, thumbnail, preview_link, status, rating, review, created_at, updated_at`
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Create relies on the (user_id, catalog_id) unique constraint; there is no
// read before the insert.
func (r *PostgresRepo) Create(ctx context.Context, b *SavedBook) error {
	const insertSQL = `
		INSERT INTO saved_books (id, user_id, catalog_id, title, authors, thumbnail, preview_link, status, rating, review, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, insertSQL,
		b.ID, b.UserID, b.CatalogID, b.Title, b.Authors, b.Thumbnail, b.PreviewLink,
		string(b.Status), b.Rating, b.Review, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == uniqueUserCatalog {
			return ErrAlreadySaved
		}
		return err
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (SavedBook, error) {
	query := `SELECT ` + selectSavedColumns + ` FROM saved_books WHERE id = $1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanSavedBook(r.db.QueryRow(timeoutCtx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return SavedBook{}, ErrNotFound
	}
	return b, err
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]SavedBook, error) {
	query := `SELECT ` + selectSavedColumns + ` FROM saved_books WHERE user_id = $1 ORDER BY updated_at DESC, id`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []SavedBook{}
	for rows.Next() {
		b, err := scanSavedBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, b *SavedBook) error {
	const updateSQL = `
		UPDATE saved_books
		SET title = $3, authors = $4, thumbnail = $5, preview_link = $6,
		    status = $7, rating = $8, review = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, updateSQL,
		b.ID, b.UserID, b.Title, b.Authors, b.Thumbnail, b.PreviewLink,
		string(b.Status), b.Rating, b.Review, b.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, userID, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM saved_books WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSavedBook(row pgx.Row) (SavedBook, error) {
	var (
		b      SavedBook
		status string
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.CatalogID, &b.Title, &b.Authors, &b.Thumbnail, &b.PreviewLink,
		&status, &b.Rating, &b.Review, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return SavedBook{}, err
	}
	b.Status = Status(status)
	if b.Authors == nil {
		b.Authors = []string{}
	}
	return b, nil
}
