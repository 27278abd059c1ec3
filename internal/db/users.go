package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/vrno/tokenmarket/internal/apierr"
	"github.com/vrno/tokenmarket/internal/models"
)

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := db.pool.QueryRow(ctx,
		`SELECT id, username, COALESCE(email, ''), COALESCE(phone, ''), created_at
		 FROM users WHERE username = $1`,
		username).Scan(&user.ID, &user.Username, &user.Email, &user.Phone, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("user")
		}
		return nil, apierr.Data("get user", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := db.pool.QueryRow(ctx,
		`SELECT id, username, COALESCE(email, ''), COALESCE(phone, ''), created_at
		 FROM users WHERE id = $1`,
		id).Scan(&user.ID, &user.Username, &user.Email, &user.Phone, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("user")
		}
		return nil, apierr.Data("get user", err)
	}
	return user, nil
}

// GetBalance retrieves a user's token balance. The value is whatever the
// database holds right now; there is no cached copy to drift.
func (db *DB) GetBalance(ctx context.Context, username string) (*models.Balance, error) {
	b := &models.Balance{}
	err := db.pool.QueryRow(ctx,
		`SELECT u.id, u.username, COALESCE(tb.balance, 0)
		 FROM users u
		 LEFT JOIN token_balances tb ON tb.user_id = u.id
		 WHERE u.username = $1`,
		username).Scan(&b.UserID, &b.Username, &b.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("user")
		}
		return nil, apierr.Data("get balance", err)
	}
	return b, nil
}

// GetBalanceByID is GetBalance keyed by user id, for callers that already
// resolved the user (token-protected reads).
func (db *DB) GetBalanceByID(ctx context.Context, userID string) (*models.Balance, error) {
	b := &models.Balance{}
	err := db.pool.QueryRow(ctx,
		`SELECT u.id, u.username, COALESCE(tb.balance, 0)
		 FROM users u
		 LEFT JOIN token_balances tb ON tb.user_id = u.id
		 WHERE u.id = $1`,
		userID).Scan(&b.UserID, &b.Username, &b.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("user")
		}
		return nil, apierr.Data("get balance", err)
	}
	return b, nil
}

// CreditBalance adds tokens to a user's balance, creating the row on first
// credit.
func (db *DB) CreditBalance(ctx context.Context, userID string, amount float64) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO token_balances (user_id, balance) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance = token_balances.balance + EXCLUDED.balance`,
		userID, amount)
	if err != nil {
		return apierr.Data("credit balance", err)
	}
	return nil
}

// GetUserAssets retrieves a user's current holdings with live prices.
func (db *DB) GetUserAssets(ctx context.Context, userID string) ([]models.Asset, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT ua.collectible_id, ua.quantity, ua.user_price, c.current_price, ua.updated_at
		 FROM user_assets ua
		 JOIN collectibles c ON c.id = ua.collectible_id
		 WHERE ua.user_id = $1 AND ua.quantity > 0
		 ORDER BY ua.updated_at DESC`,
		userID)
	if err != nil {
		return nil, apierr.Data("get user assets", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.CollectibleID, &a.Quantity, &a.UserPrice, &a.CurrentPrice, &a.UpdatedAt); err != nil {
			return nil, apierr.Data("scan asset", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("get user assets", err)
	}
	return assets, nil
}

// GetUserReferrals retrieves referrals where the user is the referrer.
func (db *DB) GetUserReferrals(ctx context.Context, userID string) ([]models.Referral, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, referrer_id, referred_id, rewarded_tokens, created_at
		 FROM referrals WHERE referrer_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, apierr.Data("get referrals", err)
	}
	defer rows.Close()

	var referrals []models.Referral
	for rows.Next() {
		var r models.Referral
		if err := rows.Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &r.RewardedTokens, &r.CreatedAt); err != nil {
			return nil, apierr.Data("scan referral", err)
		}
		referrals = append(referrals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("get referrals", err)
	}
	return referrals, nil
}

// GetUserMovements retrieves a user's most recent transactions.
func (db *DB) GetUserMovements(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, COALESCE(collectible_id::text, ''), type, quantity, amount, price, status, created_at
		 FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, apierr.Data("get movements", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.CollectibleID, &t.Type, &t.Quantity,
			&t.Amount, &t.Price, &t.Status, &t.CreatedAt); err != nil {
			return nil, apierr.Data("scan movement", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("get movements", err)
	}
	return txs, nil
}

// GetPortfolioGains computes gains across a user's holdings from the live
// prices. The aggregation mirrors the movements view the clients render.
func (db *DB) GetPortfolioGains(ctx context.Context, userID string) (*models.PortfolioGains, error) {
	assets, err := db.GetUserAssets(ctx, userID)
	if err != nil {
		return nil, err
	}

	gains := &models.PortfolioGains{Assets: []models.AssetGain{}}
	for _, a := range assets {
		perUnit := a.CurrentPrice - a.UserPrice
		g := models.AssetGain{
			CollectibleID: a.CollectibleID,
			Quantity:      a.Quantity,
			UserPrice:     a.UserPrice,
			CurrentPrice:  a.CurrentPrice,
			GainPerUnit:   perUnit,
			TotalGain:     perUnit * a.Quantity,
			CurrentValue:  a.CurrentPrice * a.Quantity,
		}
		gains.TotalGain += g.TotalGain
		gains.TotalValue += g.CurrentValue
		gains.Assets = append(gains.Assets, g)
	}
	if gains.TotalValue > 0 {
		gains.GainPercentage = gains.TotalGain / gains.TotalValue * 100
	}
	return gains, nil
}
