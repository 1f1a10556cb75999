package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

// SQLSTATE unique_violation; users are unique by (provider, username).
const uniqueViolation = "23505"

const userColumns = `id, email, username, nickname, profile_image, role, provider, account, real_name, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role, provider string
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Nickname, &u.ProfileImage,
		&role, &provider, &u.Account, &u.RealName, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	u.Provider = entity.Provider(provider)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, username, nickname, profile_image, role, provider, account, real_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Username, u.Nickname, u.ProfileImage, string(u.Role), string(u.Provider), u.Account, u.RealName)

	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperror.Wrap(apperror.CodeConflict, err)
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.CodeNotFound, "user %d", id)
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByProviderUsername(ctx context.Context, provider entity.Provider, username string) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider = $1 AND username = $2`,
		string(provider), username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.New(apperror.CodeNotFound, "user %s/%s", provider, username)
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET email = $1, nickname = $2, profile_image = $3, account = $4, real_name = $5, updated_at = $6
		WHERE id = $7
	`, u.Email, u.Nickname, u.ProfileImage, u.Account, u.RealName, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}

	if res.RowsAffected() == 0 {
		return apperror.New(apperror.CodeNotFound, "user %d", u.ID)
	}

	return nil
}

// ListByIDs loads all given users in one round trip. Missing ids are skipped.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []int64) ([]*entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.User, 0, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
