package identity

import (
	"context"
	"database/sql"
	"fmt"

	"mangaledger/pkg/database"
	"mangaledger/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, c models.Contributor) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO contributors (nickname, external_id, provider_access_token, provider_refresh_token, session_token)
		VALUES (?, ?, ?, ?, ?)
	`, c.Nickname, c.ExternalID, c.ProviderAccessToken, c.ProviderRefreshToken, c.SessionToken)
	if err != nil {
		return 0, database.WrapWriteError("create contributor", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create contributor id: %w", err)
	}
	return id, nil
}

func (r *Repo) GetByExternalID(ctx context.Context, externalID string) (*models.Contributor, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, `
		SELECT id, nickname, external_id, provider_access_token, provider_refresh_token, session_token, last_active_at
		FROM contributors
		WHERE external_id = ?
	`, externalID), "get by external id")
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Contributor, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, `
		SELECT id, nickname, external_id, provider_access_token, provider_refresh_token, session_token, last_active_at
		FROM contributors
		WHERE id = ?
	`, id), "get by id")
}

// UpdateTokens replaces the provider tokens and the local session
// credential after a successful login. The external id and nickname
// row identity stay as they were.
func (r *Repo) UpdateTokens(ctx context.Context, id int64, access, refresh, session string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE contributors
		SET provider_access_token = ?, provider_refresh_token = ?, session_token = ?
		WHERE id = ?
	`, access, refresh, session, id)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tokens rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update tokens: contributor not found")
	}
	return nil
}

func (r *Repo) scanOne(row *sql.Row, op string) (*models.Contributor, error) {
	var (
		c       models.Contributor
		session sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Nickname, &c.ExternalID, &c.ProviderAccessToken,
		&c.ProviderRefreshToken, &session, &c.LastActiveAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.SessionToken = session.String
	return &c, nil
}
