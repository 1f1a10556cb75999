// Package oauth implements the Kakao and Naver authorization code flows.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/trade-ham/marketplace-api/internal/application"
	"github.com/trade-ham/marketplace-api/internal/domain/entity"
)

// Provider is one OAuth2 identity provider with its user-info decoder.
type Provider struct {
	name        entity.Provider
	Config      *oauth2.Config
	UserInfoURL string
	HTTPClient  *http.Client
	decode      func(r io.Reader) (*application.OAuthProfile, error)
}

func (p *Provider) Provider() entity.Provider { return p.name }

func (p *Provider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// Exchange trades code for a token and fetches the user's profile with it.
func (p *Provider) Exchange(ctx context.Context, code string) (*application.OAuthProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange: %w", p.name, err)
	}
	if !tok.Valid() {
		return nil, fmt.Errorf("%s returned an invalid token", p.name)
	}

	client := p.Config.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s user info: %w", p.name, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%s user info status %d: %s", p.name, res.StatusCode, body)
	}

	profile, err := p.decode(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s user info decode: %w", p.name, err)
	}
	if profile.Subject == "" {
		return nil, fmt.Errorf("%s user info without id", p.name)
	}
	return profile, nil
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:   "https://kauth.kakao.com/oauth/authorize",
	TokenURL:  "https://kauth.kakao.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// NewKakao builds the Kakao provider. Scopes cover email and profile.
func NewKakao(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		name: entity.ProviderKakao,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     kakaoEndpoint,
			Scopes:       []string{"account_email", "profile_nickname", "profile_image"},
		},
		UserInfoURL: "https://kapi.kakao.com/v2/user/me",
		HTTPClient:  defaultClient(),
		decode:      decodeKakao,
	}
}

func decodeKakao(r io.Reader) (*application.OAuthProfile, error) {
	var body struct {
		ID           int64 `json:"id"`
		KakaoAccount struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname        string `json:"nickname"`
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, err
	}
	p := &application.OAuthProfile{
		Email:        body.KakaoAccount.Email,
		Name:         body.KakaoAccount.Profile.Nickname,
		ProfileImage: body.KakaoAccount.Profile.ProfileImageURL,
	}
	if body.ID != 0 {
		p.Subject = strconv.FormatInt(body.ID, 10)
	}
	return p, nil
}

var naverEndpoint = oauth2.Endpoint{
	AuthURL:   "https://nid.naver.com/oauth2.0/authorize",
	TokenURL:  "https://nid.naver.com/oauth2.0/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

func NewNaver(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		name: entity.ProviderNaver,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     naverEndpoint,
		},
		UserInfoURL: "https://openapi.naver.com/v1/nid/me",
		HTTPClient:  defaultClient(),
		decode:      decodeNaver,
	}
}

func decodeNaver(r io.Reader) (*application.OAuthProfile, error) {
	var body struct {
		ResultCode string `json:"resultcode"`
		Message    string `json:"message"`
		Response   struct {
			ID           string `json:"id"`
			Email        string `json:"email"`
			Name         string `json:"name"`
			Nickname     string `json:"nickname"`
			ProfileImage string `json:"profile_image"`
		} `json:"response"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, err
	}
	if body.ResultCode != "" && body.ResultCode != "00" {
		return nil, fmt.Errorf("naver result %s: %s", body.ResultCode, body.Message)
	}
	name := body.Response.Nickname
	if name == "" {
		name = body.Response.Name
	}
	return &application.OAuthProfile{
		Subject:      body.Response.ID,
		Email:        body.Response.Email,
		Name:         name,
		ProfileImage: body.Response.ProfileImage,
	}, nil
}

var _ application.OAuthProvider = (*Provider)(nil)
