package postgres

import (
	"context"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/internal/domain/repository"
)

type RefreshTokenRepository struct {
	db DBTX
}

func NewRefreshTokenRepository(db DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Save(ctx context.Context, t *entity.RefreshToken) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expiration)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, t.UserID, t.Token, t.Expiration)
	return row.Scan(&t.ID, &t.CreatedAt)
}

func (r *RefreshTokenRepository) Exists(ctx context.Context, token string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token = $1)`, token).Scan(&ok)
	return ok, err
}

func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

var _ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
