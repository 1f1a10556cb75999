package handlers

import (
	"time"

	"github.com/trade-ham/marketplace-api/internal/application"
	"github.com/trade-ham/marketplace-api/internal/domain/entity"
)

type userSummary struct {
	ID           int64  `json:"id"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type userView struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Role         string    `json:"role"`
	Provider     string    `json:"provider"`
	Account      string    `json:"account,omitempty"`
	RealName     string    `json:"real_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type productView struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       int64        `json:"price"`
	Status      string       `json:"status"`
	ImageURL    string       `json:"image_url,omitempty"`
	Seller      *userSummary `json:"seller,omitempty"`
	Buyer       *userSummary `json:"buyer,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type productDetailView struct {
	productView
	LikeCount int64 `json:"like_count"`
	Liked     bool  `json:"liked"`
}

type notificationView struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserSummary(u *entity.User) *userSummary {
	if u == nil {
		return nil
	}
	return &userSummary{ID: u.ID, Nickname: u.DisplayName(), ProfileImage: u.ProfileImage}
}

func toUserView(u *entity.User) userView {
	return userView{
		ID:           u.ID,
		Email:        u.Email,
		Nickname:     u.Nickname,
		ProfileImage: u.ProfileImage,
		Role:         string(u.Role),
		Provider:     string(u.Provider),
		Account:      u.Account,
		RealName:     u.RealName,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toProductView(p *entity.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Status:      string(p.Status),
		ImageURL:    p.ImageURL,
		Seller:      toUserSummary(p.Seller),
		Buyer:       toUserSummary(p.Buyer),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductViews(ps []*entity.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductView(p))
	}
	return out
}

func toProductDetailView(d *application.ProductDetail) productDetailView {
	return productDetailView{productView: toProductView(d.Product), LikeCount: d.LikeCount, Liked: d.Liked}
}

func toNotificationViews(ns []*entity.Notification) []notificationView {
	out := make([]notificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationView{
			ID:        n.ID,
			Type:      string(n.Type),
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
