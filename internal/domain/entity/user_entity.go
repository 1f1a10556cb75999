package entity

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type Provider string

const (
	ProviderKakao Provider = "KAKAO"
	ProviderNaver Provider = "NAVER"
)

// ParseProvider maps a route segment such as "kakao" to a Provider.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(strings.ToUpper(s)) {
	case ProviderKakao:
		return ProviderKakao, true
	case ProviderNaver:
		return ProviderNaver, true
	}
	return "", false
}

// User is the aggregate root for the account domain.
// Username is the provider's stable subject id; (Provider, Username) is unique.
type User struct {
	ID           int64
	Email        string
	Username     string
	Nickname     string
	ProfileImage string
	Role         Role
	Provider     Provider
	Account      string // bank account, filled in later from my page
	RealName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName prefers the nickname and falls back to the provider username.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
