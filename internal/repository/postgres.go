package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketloom/socialconnect/internal/domain"
)

var _ ConnectionRepository = (*PostgresConnectionRepo)(nil)

// PostgresConnectionRepo implements ConnectionRepository on pgx. Token
// records live in social_connections keyed by (user_id, platform); the
// user's connected-platform set lives in user_platforms so listing never
// scans the connections table.
type PostgresConnectionRepo struct {
	db   *pgxpool.Pool
	node *snowflake.Node
}

func NewPostgresConnectionRepo(db *pgxpool.Pool, node *snowflake.Node) *PostgresConnectionRepo {
	return &PostgresConnectionRepo{db: db, node: node}
}

const upsertConnectionSQL = `INSERT INTO social_connections
	(id, user_id, platform, account_id, account_name, email, access_token, refresh_token, scope, expires_at, connected_at, last_refresh_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (user_id, platform) DO UPDATE SET
	account_id = EXCLUDED.account_id,
	account_name = EXCLUDED.account_name,
	email = EXCLUDED.email,
	access_token = EXCLUDED.access_token,
	refresh_token = EXCLUDED.refresh_token,
	scope = EXCLUDED.scope,
	expires_at = EXCLUDED.expires_at,
	connected_at = EXCLUDED.connected_at,
	last_refresh_at = EXCLUDED.last_refresh_at
RETURNING id, user_id, platform, account_id, account_name, email, access_token, refresh_token, scope, expires_at, connected_at, last_refresh_at`

// Save upserts the record and adds the platform to the user's connected set.
// A second save for the same (user, platform) overwrites the prior record
// entirely.
func (r *PostgresConnectionRepo) Save(ctx context.Context, record domain.TokenRecord) (domain.TokenRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.TokenRecord{}, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, upsertConnectionSQL,
		r.node.Generate().Int64(),
		record.UserID,
		string(record.Platform),
		record.AccountID,
		record.AccountName,
		record.Email,
		record.AccessToken,
		record.RefreshToken,
		record.Scope,
		record.ExpiresAt,
		record.ConnectedAt,
		record.LastRefreshAt,
	)
	saved, err := scanConnection(row)
	if err != nil {
		return domain.TokenRecord{}, fmt.Errorf("save connection: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO user_platforms (user_id, platform) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		record.UserID, string(record.Platform),
	); err != nil {
		return domain.TokenRecord{}, fmt.Errorf("save connected platform: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.TokenRecord{}, fmt.Errorf("commit save: %w", err)
	}
	return saved, nil
}

const selectConnectionSQL = `SELECT id, user_id, platform, account_id, account_name, email, access_token, refresh_token, scope, expires_at, connected_at, last_refresh_at
FROM social_connections WHERE user_id = $1 AND platform = $2`

func (r *PostgresConnectionRepo) Get(ctx context.Context, userID string, platform domain.Platform) (*domain.TokenRecord, error) {
	row := r.db.QueryRow(ctx, selectConnectionSQL, userID, string(platform))
	record, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return &record, nil
}

func (r *PostgresConnectionRepo) ListPlatforms(ctx context.Context, userID string) ([]domain.Platform, error) {
	rows, err := r.db.Query(ctx, `SELECT platform FROM user_platforms WHERE user_id = $1 ORDER BY platform`, userID)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	defer rows.Close()

	var platforms []domain.Platform
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		platforms = append(platforms, domain.Platform(p))
	}
	return platforms, rows.Err()
}

// Remove deletes the record and the connected-set entry. Removing an absent
// connection is not an error.
func (r *PostgresConnectionRepo) Remove(ctx context.Context, userID string, platform domain.Platform) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin remove: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM social_connections WHERE user_id = $1 AND platform = $2`, userID, string(platform)); err != nil {
		return fmt.Errorf("remove connection: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_platforms WHERE user_id = $1 AND platform = $2`, userID, string(platform)); err != nil {
		return fmt.Errorf("remove connected platform: %w", err)
	}
	return tx.Commit(ctx)
}

const updateTokensSQL = `UPDATE social_connections SET
	access_token = $3,
	refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
	expires_at = $5,
	last_refresh_at = $6
WHERE user_id = $1 AND platform = $2
RETURNING id, user_id, platform, account_id, account_name, email, access_token, refresh_token, scope, expires_at, connected_at, last_refresh_at`

// UpdateTokens replaces the access token and expiry in place. The stored
// refresh token survives unless the provider handed back a new one.
func (r *PostgresConnectionRepo) UpdateTokens(ctx context.Context, userID string, platform domain.Platform, accessToken, refreshToken string, expiresAt, refreshedAt time.Time) (*domain.TokenRecord, error) {
	row := r.db.QueryRow(ctx, updateTokensSQL, userID, string(platform), accessToken, refreshToken, expiresAt, refreshedAt)
	record, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update tokens: %w", err)
	}
	return &record, nil
}

func scanConnection(row pgx.Row) (domain.TokenRecord, error) {
	var record domain.TokenRecord
	var platform string
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&platform,
		&record.AccountID,
		&record.AccountName,
		&record.Email,
		&record.AccessToken,
		&record.RefreshToken,
		&record.Scope,
		&record.ExpiresAt,
		&record.ConnectedAt,
		&record.LastRefreshAt,
	); err != nil {
		return domain.TokenRecord{}, err
	}
	record.Platform = domain.Platform(platform)
	return record, nil
}
