package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	repo "github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

// OAuthProfile is the subset of provider user info the marketplace keeps.
type OAuthProfile struct {
	Subject      string
	Email        string
	Name         string
	ProfileImage string
}

// OAuthProvider performs the authorization code flow against one provider.
type OAuthProvider interface {
	Provider() entity.Provider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthProfile, error)
}

// StateStore keeps single-use OAuth state values.
type StateStore interface {
	Put(ctx context.Context, state, provider string) error
	Consume(ctx context.Context, state, provider string) (bool, error)
}

type AuthService struct {
	Store     repo.Repositories
	Tokens    *TokenService
	States    StateStore
	Providers map[entity.Provider]OAuthProvider
	Logger    *logrus.Logger
}

func NewAuthService(store repo.Repositories, tokens *TokenService, states StateStore, logger *logrus.Logger, providers ...OAuthProvider) *AuthService {
	m := make(map[entity.Provider]OAuthProvider, len(providers))
	for _, p := range providers {
		m[p.Provider()] = p
	}
	return &AuthService{Store: store, Tokens: tokens, States: states, Providers: m, Logger: logger}
}

func (s *AuthService) provider(name string) (OAuthProvider, error) {
	prov, ok := entity.ParseProvider(name)
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, "unknown provider %q", name)
	}
	p, ok := s.Providers[prov]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, "provider %s not configured", prov)
	}
	return p, nil
}

// LoginURL creates a fresh state for provider and returns the consent URL.
func (s *AuthService) LoginURL(ctx context.Context, provider string) (string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	state := uuid.NewString()
	if err := s.States.Put(ctx, state, string(p.Provider())); err != nil {
		return "", err
	}
	return p.AuthCodeURL(state), nil
}

// Callback completes the login: it checks state, exchanges code, finds or
// creates the user and issues a token pair.
func (s *AuthService) Callback(ctx context.Context, provider, state, code string) (*entity.User, TokenPair, error) {
	p, err := s.provider(provider)
	if err != nil {
		return nil, TokenPair{}, err
	}
	ok, err := s.States.Consume(ctx, state, string(p.Provider()))
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !ok {
		return nil, TokenPair{}, apperror.New(apperror.CodeUnauthorized, "oauth state mismatch")
	}
	if code == "" {
		return nil, TokenPair{}, apperror.New(apperror.CodeInvalidInput, "missing authorization code")
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("provider", p.Provider()).Warn("oauth exchange failed")
		}
		return nil, TokenPair{}, apperror.Wrap(apperror.CodeUnauthorized, err)
	}

	u, err := s.upsertUser(ctx, p.Provider(), profile)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.Tokens.IssuePair(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

func (s *AuthService) upsertUser(ctx context.Context, provider entity.Provider, profile *OAuthProfile) (*entity.User, error) {
	users := s.Store.Users()
	u, err := users.GetByProviderUsername(ctx, provider, profile.Subject)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		u = &entity.User{
			Email:        profile.Email,
			Username:     profile.Subject,
			Nickname:     profile.Name,
			ProfileImage: profile.ProfileImage,
			Role:         entity.RoleUser,
			Provider:     provider,
		}
		err := users.Create(ctx, u)
		if errors.Is(err, apperror.ErrConflict) {
			// a concurrent first login for the same account won the insert
			return users.GetByProviderUsername(ctx, provider, profile.Subject)
		}
		if err != nil {
			return nil, err
		}
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "provider": provider}).Info("user created on first login")
		}
		return u, nil
	case err != nil:
		return nil, err
	}

	if u.Email == profile.Email && u.Nickname == profile.Name {
		return u, nil
	}
	u.Email = profile.Email
	u.Nickname = profile.Name
	if err := users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
