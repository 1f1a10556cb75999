package application

import (
	"context"
	"strings"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	repo "github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

type UserService struct {
	Store repo.Repositories
}

func NewUserService(store repo.Repositories) *UserService {
	return &UserService{Store: store}
}

func (s *UserService) Profile(ctx context.Context, userID int64) (*entity.User, error) {
	return s.Store.Users().GetByID(ctx, userID)
}

type UpdateProfileInput struct {
	Nickname string
	Account  string
	RealName string
}

// UpdateProfile overwrites the non-empty fields of in.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (*entity.User, error) {
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.Account = strings.TrimSpace(in.Account)
	in.RealName = strings.TrimSpace(in.RealName)
	if in == (UpdateProfileInput{}) {
		return nil, apperror.New(apperror.CodeInvalidInput, "nothing to update")
	}

	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Nickname != "" {
		u.Nickname = in.Nickname
	}
	if in.Account != "" {
		u.Account = in.Account
	}
	if in.RealName != "" {
		u.RealName = in.RealName
	}
	if err := s.Store.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
