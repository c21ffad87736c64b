package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const userColumns = `id, email, email_hash, username, password_digest, active, COALESCE(api_key, ''),
		 persistence_token, session_count, failed_auth_count, last_session_ip, last_session_at,
		 created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (id, email, email_hash, username, password_digest, active, api_key, persistence_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.EmailHash, user.Username, user.PasswordDigest,
		user.Active, nullString(user.APIKey), user.PersistenceToken,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, wrapWriteError(err)
	}

	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET email = $2, email_hash = $3, username = $4, password_digest = $5,
		     active = $6, api_key = $7, persistence_token = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.EmailHash, user.Username, user.PasswordDigest,
		user.Active, nullString(user.APIKey), user.PersistenceToken,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return wrapWriteError(err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return r.getBy(ctx, "id", id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *PostgresRepository) GetByEmailHash(ctx context.Context, hash string) (*models.User, error) {
	return r.getBy(ctx, "email_hash", hash)
}

func (r *PostgresRepository) GetByAPIKey(ctx context.Context, key string) (*models.User, error) {
	return r.getBy(ctx, "api_key", key)
}

// getBy is only called with the fixed column names above.
func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) RecordSuccess(ctx context.Context, id, ip string, at time.Time) (int64, error) {
	query :=
		`UPDATE users
		 SET session_count = session_count + 1, last_session_ip = $2, last_session_at = $3
		 WHERE id = $1
		 RETURNING session_count`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, id, ip, at).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) RecordFailure(ctx context.Context, id string) (int64, error) {
	query :=
		`UPDATE users
		 SET failed_auth_count = failed_auth_count + 1
		 WHERE id = $1
		 RETURNING failed_auth_count`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var lastAt sql.NullTime

	err := row.Scan(&u.ID, &u.Email, &u.EmailHash, &u.Username, &u.PasswordDigest, &u.Active, &u.APIKey,
		&u.PersistenceToken, &u.SessionCount, &u.FailedAuthCount, &u.LastSessionIP, &lastAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastAt.Valid {
		t := lastAt.Time
		u.LastSessionAt = &t
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func wrapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}
