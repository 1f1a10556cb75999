package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	repo "github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/internal/metrics"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
	"github.com/trade-ham/marketplace-api/pkg/helpers"
)

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// TokenService issues access/refresh pairs and rotates refresh tokens against
// the persisted refresh token table.
type TokenService struct {
	JWT     *helpers.JWTManager
	Store   repo.Repositories
	UoW     repo.UnitOfWork
	Logger  *logrus.Logger
	Metrics metrics.Recorder
}

func NewTokenService(jwt *helpers.JWTManager, store repo.Repositories, uow repo.UnitOfWork, logger *logrus.Logger, rec metrics.Recorder) *TokenService {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &TokenService{JWT: jwt, Store: store, UoW: uow, Logger: logger, Metrics: rec}
}

func (s *TokenService) issueRefresh(u *entity.User) (string, time.Time, error) {
	return s.JWT.GenerateRefreshToken(u.ID, u.Email, string(u.Role))
}

func (s *TokenService) issueAccess(userID int64, email, role string) (string, time.Time, error) {
	return s.JWT.GenerateAccessToken(userID, email, role)
}

func refreshRow(userID int64, token string, exp time.Time) *entity.RefreshToken {
	return &entity.RefreshToken{
		UserID:     userID,
		Token:      token,
		Expiration: exp.UTC().Format(time.RFC3339),
	}
}

// IssuePair mints a fresh access/refresh pair for u and stores the refresh token.
func (s *TokenService) IssuePair(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.issueAccess(u.ID, u.Email, string(u.Role))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.issueRefresh(u)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Store.RefreshTokens().Save(ctx, refreshRow(u.ID, refresh, rexp)); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("save refresh token failed")
		}
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// validateRefresh runs the checks shared by Rotate and ReissueAccess. Expiry is
// decided from the token alone, before the store is consulted.
func (s *TokenService) validateRefresh(ctx context.Context, token string) (*helpers.Claims, error) {
	if token == "" {
		return nil, apperror.ErrInvalidToken
	}
	claims, err := s.JWT.Parse(token)
	if err != nil {
		if helpers.IsTokenExpired(err) {
			return nil, apperror.ErrExpiredToken
		}
		return nil, apperror.Wrap(apperror.CodeInvalidToken, err)
	}
	if claims.Category != helpers.TokenRefresh {
		return nil, apperror.ErrInvalidToken
	}
	ok, err := s.Store.RefreshTokens().Exists(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrInvalidToken
	}
	return claims, nil
}

// Rotate exchanges a stored refresh token for a new pair. The old row is
// deleted and the new one saved in one transaction; a token that was already
// rotated away fails with ErrInvalidToken.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.validateRefresh(ctx, refreshToken)
	if err != nil {
		s.recordRotation(err)
		return TokenPair{}, err
	}

	access, aexp, err := s.issueAccess(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		return TokenPair{}, err
	}

	err = s.UoW.Do(ctx, func(tx repo.Repositories) error {
		n, err := tx.RefreshTokens().DeleteByToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.ErrInvalidToken
		}
		return tx.RefreshTokens().Save(ctx, refreshRow(claims.UserID, refresh, rexp))
	})
	s.recordRotation(err)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// ReissueAccess validates the refresh token and returns only a new access token.
// The refresh token itself stays valid.
func (s *TokenService) ReissueAccess(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.validateRefresh(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.issueAccess(claims.UserID, claims.Email, claims.Role)
}

// Revoke deletes the stored refresh token. Unknown tokens are not an error.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, err := s.Store.RefreshTokens().DeleteByToken(ctx, refreshToken)
	return err
}

// RevokeAll signs the owner of refreshToken out of every session. The token
// must pass the same checks as a rotation.
func (s *TokenService) RevokeAll(ctx context.Context, refreshToken string) error {
	claims, err := s.validateRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	return s.Store.RefreshTokens().DeleteByUser(ctx, claims.UserID)
}

// ParseAccess authenticates a bearer token. Refresh tokens are rejected.
func (s *TokenService) ParseAccess(token string) (*helpers.Claims, error) {
	claims, err := s.JWT.ParseAccessToken(token)
	if err != nil {
		if helpers.IsTokenExpired(err) {
			return nil, apperror.Wrap(apperror.CodeUnauthorized, err)
		}
		if errors.Is(err, helpers.ErrWrongTokenKind) {
			return nil, apperror.ErrInvalidToken
		}
		return nil, apperror.Wrap(apperror.CodeUnauthorized, err)
	}
	return claims, nil
}

func (s *TokenService) recordRotation(err error) {
	switch {
	case err == nil:
		s.Metrics.RecordTokenRotation(metrics.OutcomeSuccess)
	case errors.Is(err, apperror.ErrInvalidToken), errors.Is(err, apperror.ErrExpiredToken):
		s.Metrics.RecordTokenRotation(metrics.OutcomeRejected)
	default:
		s.Metrics.RecordTokenRotation(metrics.OutcomeError)
	}
}
