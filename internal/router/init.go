package router

import (
	"github.com/trade-ham/marketplace-api/internal/application"
	"github.com/trade-ham/marketplace-api/internal/container"
	"github.com/trade-ham/marketplace-api/internal/infrastructure/oauth"
	pginfra "github.com/trade-ham/marketplace-api/internal/infrastructure/postgres"
	"github.com/trade-ham/marketplace-api/internal/infrastructure/redisstore"
	"github.com/trade-ham/marketplace-api/internal/infrastructure/search"
	"github.com/trade-ham/marketplace-api/internal/infrastructure/storage"
	handlers "github.com/trade-ham/marketplace-api/internal/interface/http"
	"github.com/trade-ham/marketplace-api/internal/metrics"
	"github.com/trade-ham/marketplace-api/internal/router/modules"
)

// Services groups the application layer built from the container.
type Services struct {
	Tokens        *application.TokenService
	Auth          *application.AuthService
	Purchase      *application.PurchaseService
	Products      *application.ProductService
	Likes         *application.LikeService
	Mypage        *application.MypageService
	Notifications *application.NotificationService
	Users         *application.UserService
}

// optional adapters stay untyped nil when their backend is not configured
func buildAdapters() (application.ProductIndexer, application.ProductSuggester, application.ImageStore, application.JobPublisher) {
	var (
		index     application.ProductIndexer
		suggester application.ProductSuggester
		images    application.ImageStore
		jobs      application.JobPublisher
	)
	cfg := container.GetConfig()
	if es := container.GetES(); es != nil {
		pi := search.NewProductIndex(es, cfg.ESProductsIndex, container.GetLogger())
		index, suggester = pi, pi
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		images = storage.NewGCSImageStore(gcs, cfg.GCSBucket)
	}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		jobs = pub
	}
	return index, suggester, images, jobs
}

func buildProviders() []application.OAuthProvider {
	cfg := container.GetConfig()
	var ps []application.OAuthProvider
	if cfg.KakaoClientID != "" {
		ps = append(ps, oauth.NewKakao(cfg.KakaoClientID, cfg.KakaoClientSecret, cfg.KakaoRedirectURL))
	}
	if cfg.NaverClientID != "" {
		ps = append(ps, oauth.NewNaver(cfg.NaverClientID, cfg.NaverClientSecret, cfg.NaverRedirectURL))
	}
	return ps
}

// BuildServices wires repositories, adapters and services from the container singletons.
func BuildServices() Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rec := metrics.NewCollector(container.GetPrometheus())

	store := pginfra.NewStore(container.GetPGPool(), logger)
	likes := redisstore.NewLikeRepository(container.GetRedis())
	states := redisstore.NewOAuthStateStore(container.GetRedis(), 0)
	index, suggester, images, jobs := buildAdapters()

	tokens := application.NewTokenService(container.GetJWT(), store, store, logger, rec)
	purchase := application.NewPurchaseService(store, store, index, jobs, logger, rec)
	purchase.AppName = cfg.AppName
	purchase.CompanyName = cfg.CompanyName
	purchase.SupportURL = cfg.SupportURL

	return Services{
		Tokens:        tokens,
		Auth:          application.NewAuthService(store, tokens, states, logger, buildProviders()...),
		Purchase:      purchase,
		Products:      application.NewProductService(store, store, likes, index, suggester, images, logger),
		Likes:         application.NewLikeService(store, likes, logger, rec),
		Mypage:        application.NewMypageService(store),
		Notifications: application.NewNotificationService(store, store),
		Users:         application.NewUserService(store),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	svc := BuildServices()

	likeHandler := handlers.NewLikeHandler(svc.Likes, logger)

	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(svc.Auth, svc.Tokens, logger, cfg.CookieDomain, cfg.CookieSecure, cfg.LoginSuccessURL),
		rdb,
	))
	r.Add(&modules.ProductModule{
		Products: handlers.NewProductHandler(svc.Products, logger),
		Purchase: handlers.NewPurchaseHandler(svc.Purchase, logger, cfg.LegacyPurchaseGETEnabled),
		Likes:    likeHandler,
		Tokens:   svc.Tokens,
		RDB:      rdb,
		Logger:   logger,
	})
	r.Add(&modules.MypageModule{
		Mypage:        handlers.NewMypageHandler(svc.Mypage, logger),
		Likes:         likeHandler,
		Users:         handlers.NewUserHandler(svc.Users, logger),
		Notifications: handlers.NewNotificationHandler(svc.Notifications, logger),
		Tokens:        svc.Tokens,
		RDB:           rdb,
	})
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb, container.GetPrometheus()))
	}
}
