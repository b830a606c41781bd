package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
	"github.com/AlibekovAA/refresh-token-service/internal/common/crypto"
	"github.com/AlibekovAA/refresh-token-service/internal/common/db"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

// RefreshTokenStore is the generic record store behind the refresh-tokens service.
type RefreshTokenStore interface {
	Find(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error)
	Get(ctx context.Context, id string) (authdomain.RefreshToken, error)
	Create(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error)
	Patch(ctx context.Context, id string, patch authdomain.Patch) (authdomain.RefreshToken, error)
	Remove(ctx context.Context, id string) (authdomain.RefreshToken, error)
	CountValid(ctx context.Context) (int64, error)
}

const refreshTokenColumns = `id, user_id, token, is_valid, device_id, location, created_at, updated_at`

type PgRefreshTokenRepository struct {
	pool  *pgxpool.Pool
	idGen crypto.IDGenerator
	log   *logger.Logger
}

func NewPgRefreshTokenRepository(pool *pgxpool.Pool, idGen crypto.IDGenerator, log *logger.Logger) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{pool: pool, idGen: idGen, log: log}
}

func (r *PgRefreshTokenRepository) Find(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	where, args := buildWhere(q)
	sql := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens` + where + ` ORDER BY created_at ASC, id ASC`

	var tokens []authdomain.RefreshToken
	err := db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func(ctx context.Context) error {
		start := time.Now()
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return db.HandleQueryError(err, nil, "find refresh tokens", start)
		}
		defer rows.Close()

		tokens = tokens[:0]
		for rows.Next() {
			token, err := scanRefreshToken(rows)
			if err != nil {
				return db.HandleQueryError(err, nil, "scan refresh token", start)
			}
			tokens = append(tokens, token)
		}
		return db.HandleQueryError(rows.Err(), nil, "find refresh tokens", start)
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *PgRefreshTokenRepository) Get(ctx context.Context, id string) (authdomain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	start := time.Now()
	row := r.pool.QueryRow(ctx, `SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE id = $1`, id)
	token, err := scanRefreshToken(row)
	if err := db.HandleQueryError(err, ErrRefreshTokenNotFound, "get refresh token", start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return token, nil
}

func (r *PgRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	if token.ID == "" {
		id, err := r.idGen.NewID()
		if err != nil {
			return authdomain.RefreshToken{}, err
		}
		token.ID = id
	}

	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO refresh_tokens (id, user_id, token, is_valid, device_id, location)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+refreshTokenColumns,
		token.ID,
		token.UserID,
		token.Token,
		token.IsValid,
		token.DeviceID,
		token.Location,
	)
	created, err := scanRefreshToken(row)
	if db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("create refresh token", start)
		return authdomain.RefreshToken{}, ErrDuplicateRefreshToken
	}
	if err := db.HandleExecError(err, "create refresh token", start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return created, nil
}

func (r *PgRefreshTokenRepository) Patch(ctx context.Context, id string, patch authdomain.Patch) (authdomain.RefreshToken, error) {
	if patch.IsValid == nil {
		return r.Get(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`UPDATE refresh_tokens SET is_valid = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+refreshTokenColumns,
		id,
		*patch.IsValid,
	)
	token, err := scanRefreshToken(row)
	if err := db.HandleQueryError(err, ErrRefreshTokenNotFound, "patch refresh token", start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return token, nil
}

func (r *PgRefreshTokenRepository) Remove(ctx context.Context, id string) (authdomain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	start := time.Now()
	row := r.pool.QueryRow(ctx, `DELETE FROM refresh_tokens WHERE id = $1 RETURNING `+refreshTokenColumns, id)
	token, err := scanRefreshToken(row)
	if err := db.HandleQueryError(err, ErrRefreshTokenNotFound, "remove refresh token", start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return token, nil
}

func (r *PgRefreshTokenRepository) CountValid(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	start := time.Now()
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM refresh_tokens WHERE is_valid`).Scan(&count)
	if err := db.HandleQueryError(err, nil, "count valid refresh tokens", start); err != nil {
		return 0, err
	}
	return count, nil
}

func buildWhere(q authdomain.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if q.UserID != "" {
		add("user_id", q.UserID)
	}
	if q.IsValid != nil {
		add("is_valid", *q.IsValid)
	}
	if q.DeviceID != nil {
		add("device_id", *q.DeviceID)
	}
	if q.Token != nil {
		add("token", *q.Token)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRefreshToken(row pgx.Row) (authdomain.RefreshToken, error) {
	var token authdomain.RefreshToken
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.Token,
		&token.IsValid,
		&token.DeviceID,
		&token.Location,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	return token, err
}
