package models

import "time"

// User represents an account created by the external signup flow.
// This service reads users and adjusts their balances; it never deletes them.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Balance is a user's token balance.
type Balance struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

// Asset is a collectible holding in a user's portfolio.
type Asset struct {
	CollectibleID string    `json:"id"`
	Quantity      float64   `json:"quantity"`
	UserPrice     float64   `json:"user_price"`    // Average price paid
	CurrentPrice  float64   `json:"current_price"` // Live price from collectibles
	UpdatedAt     time.Time `json:"updated_at"`
}

// Collectible is a tradable item. Prices are mutated by an external
// price-feed process; this service only reads them.
type Collectible struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ImageURL     string    `json:"image_url"`
	CurrentPrice float64   `json:"current_price"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Transaction statuses. A transaction starts pending and finishes
// completed or failed; committed rows are never rewritten.
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
)

// Transaction types.
const (
	TxBuy      = "buy"
	TxSell     = "sell"
	TxPurchase = "purchase" // Token package bought with real money
)

// Transaction records a trade or a token purchase.
type Transaction struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CollectibleID string    `json:"collectible_id,omitempty"`
	Type          string    `json:"type"`
	Quantity      float64   `json:"quantity"`
	Amount        float64   `json:"amount"`
	Price         float64   `json:"price"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Referral links a referred user to the referrer.
type Referral struct {
	ID             string    `json:"id"`
	ReferrerID     string    `json:"referrer_id"`
	ReferredID     string    `json:"referred_id"`
	RewardedTokens float64   `json:"rewarded_tokens"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReferralCode is an admin-issued signup code.
type ReferralCode struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	OwnerID   string    `json:"owner_id"`
	Uses      int       `json:"uses"`
	MaxUses   int       `json:"max_uses"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminConfig is a key/value runtime flag (e.g. maintenance_mode).
type AdminConfig struct {
	Key       string    `json:"config_key"`
	Value     string    `json:"config_value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenPackage is a bundle of tokens purchasable through the payment provider.
type TokenPackage struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Tokens    float64 `json:"tokens"`
	PriceUSD  float64 `json:"price_usd"`
	SortOrder int     `json:"sort_order"`
	Active    bool    `json:"active"`
}

// PricePoint is one sample of a collectible's price history.
type PricePoint struct {
	CollectibleID string    `json:"collectible_id"`
	Timestamp     time.Time `json:"timestamp"`
	AvgPrice      float64   `json:"avg_price"`
	Volume        int       `json:"volume"`
}

// MarketSummary is the rolled-up market view of a collectible.
type MarketSummary struct {
	CollectibleID string    `json:"collectible_id"`
	CurrentPrice  float64   `json:"current_price"`
	PriceChange   float64   `json:"price_change"`
	PercentChange float64   `json:"percent_change"`
	Volume24h     int       `json:"volume_24h"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AssetGain is the per-holding slice of a portfolio gains report.
type AssetGain struct {
	CollectibleID string  `json:"collectible_id"`
	Quantity      float64 `json:"quantity"`
	UserPrice     float64 `json:"user_price"`
	CurrentPrice  float64 `json:"current_price"`
	GainPerUnit   float64 `json:"gain_per_unit"`
	TotalGain     float64 `json:"total_gain"`
	CurrentValue  float64 `json:"current_value"`
}

// PortfolioGains aggregates gains across a user's holdings.
type PortfolioGains struct {
	TotalGain      float64     `json:"total_gain"`
	TotalValue     float64     `json:"total_value"`
	GainPercentage float64     `json:"gain_percentage"`
	Assets         []AssetGain `json:"assets"`
}
