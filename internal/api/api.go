// Package api exposes the gateway's HTTP surface: route table, credential
// middleware and one JSON handler per resource.
package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vrno/tokenmarket/internal/auth"
	"github.com/vrno/tokenmarket/internal/models"
	"github.com/vrno/tokenmarket/internal/notify"
)

// Store is the data access surface the handlers depend on. *db.DB satisfies
// it; tests substitute a fake.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetBalance(ctx context.Context, username string) (*models.Balance, error)
	GetBalanceByID(ctx context.Context, userID string) (*models.Balance, error)
	GetUserAssets(ctx context.Context, userID string) ([]models.Asset, error)
	GetUserReferrals(ctx context.Context, userID string) ([]models.Referral, error)
	GetUserMovements(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	GetPortfolioGains(ctx context.Context, userID string) (*models.PortfolioGains, error)

	ListCollectibles(ctx context.Context) ([]models.Collectible, error)
	GetCollectible(ctx context.Context, id string) (*models.Collectible, error)
	ListPrices(ctx context.Context) (map[string]float64, error)
	ListImages(ctx context.Context) (map[string]string, error)
	GetPriceHistory(ctx context.Context, collectibleID string, limit int) ([]models.PricePoint, error)
	GetMarketSummary(ctx context.Context, collectibleID string) (*models.MarketSummary, error)

	ExecuteTrade(ctx context.Context, userID, collectibleID, tradeType string, quantity float64) (*models.Transaction, error)
	RecordPurchase(ctx context.Context, userID string, tokens, amountUSD float64) (*models.Transaction, error)

	ListAdminConfigs(ctx context.Context) ([]models.AdminConfig, error)
	GetAdminConfig(ctx context.Context, key string) (string, error)
	SetAdminConfig(ctx context.Context, key, value string) error
	ListTokenPackages(ctx context.Context) ([]models.TokenPackage, error)
	GetTokenPackage(ctx context.Context, id string) (*models.TokenPackage, error)
	CreateTokenPackage(ctx context.Context, p *models.TokenPackage) (*models.TokenPackage, error)
	UpdateTokenPackage(ctx context.Context, p *models.TokenPackage) error
	DeleteTokenPackage(ctx context.Context, id string) error
	ListReferralCodes(ctx context.Context) ([]models.ReferralCode, error)
	CreateReferralCode(ctx context.Context, code, ownerID string, maxUses int) (*models.ReferralCode, error)
}

// Handler contains dependencies for HTTP handlers.
type Handler struct {
	Store    Store
	Auth     *auth.Service
	Email    notify.EmailSender
	SMS      notify.SMSSender
	Payments notify.Payments
	Log      zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(store Store, authSvc *auth.Service, email notify.EmailSender, sms notify.SMSSender, payments notify.Payments, log zerolog.Logger) *Handler {
	return &Handler{
		Store:    store,
		Auth:     authSvc,
		Email:    email,
		SMS:      sms,
		Payments: payments,
		Log:      log,
	}
}
