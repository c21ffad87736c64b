package authorizations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, a *models.Authorization) error {
	query :=
		`INSERT INTO authorizations (id, user_id, provider, uid, token)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, provider)
		 DO UPDATE SET uid = EXCLUDED.uid, token = EXCLUDED.token, updated_at = NOW()
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), a.UserID, a.Provider, a.UID, a.Token).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// (provider, uid) already linked to somebody else
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.Authorization, error) {
	query :=
		`SELECT id, user_id, provider, uid, token, created_at, updated_at
		 FROM authorizations
		 WHERE user_id = $1
		 ORDER BY provider`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Authorization
	for rows.Next() {
		var a models.Authorization
		if err := rows.Scan(&a.ID, &a.UserID, &a.Provider, &a.UID, &a.Token, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByProviderUID(ctx context.Context, provider, uid string) (*models.Authorization, error) {
	query :=
		`SELECT id, user_id, provider, uid, token, created_at, updated_at
		 FROM authorizations
		 WHERE provider = $1 AND uid = $2`

	a := &models.Authorization{}
	err := r.db.QueryRowContext(ctx, query, provider, uid).
		Scan(&a.ID, &a.UserID, &a.Provider, &a.UID, &a.Token, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, provider string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authorizations WHERE user_id = $1 AND provider = $2`, userID, provider)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authorizations WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authorizations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
