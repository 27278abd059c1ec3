package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vrno/tokenmarket/internal/apierr"
	"github.com/vrno/tokenmarket/internal/models"
)

// ExecuteTrade settles a buy or sell in one database transaction: the
// balance row is locked, funds or holdings are checked, balance and holdings
// move together, and the transaction row is recorded with its final status.
// Atomicity belongs to the database; nothing here compensates after commit.
//
// A trade that fails its funds check is still recorded (status "failed") and
// returned as a validation error.
func (db *DB) ExecuteTrade(ctx context.Context, userID, collectibleID, tradeType string, quantity float64) (*models.Transaction, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, apierr.Data("begin trade", err)
	}
	defer tx.Rollback(ctx)

	var price float64
	err = tx.QueryRow(ctx,
		`SELECT current_price FROM collectibles WHERE id = $1`,
		collectibleID).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("collectible")
		}
		return nil, apierr.Data("get collectible price", err)
	}

	// Lock the balance row for the duration of the trade.
	var balance float64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM token_balances WHERE user_id = $1 FOR UPDATE`,
		userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("balance")
		}
		return nil, apierr.Data("lock balance", err)
	}

	cost := price * quantity
	status := models.TxCompleted
	var failure error

	switch tradeType {
	case models.TxBuy:
		if balance < cost {
			status = models.TxFailed
			failure = apierr.Validation("quantity", "insufficient balance")
			break
		}
		if _, err = tx.Exec(ctx,
			`UPDATE token_balances SET balance = balance - $2 WHERE user_id = $1`,
			userID, cost); err != nil {
			return nil, apierr.Data("debit balance", err)
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO user_assets (user_id, collectible_id, quantity, user_price, updated_at)
			 VALUES ($1, $2, $3, $4, now())
			 ON CONFLICT (user_id, collectible_id) DO UPDATE SET
			   user_price = (user_assets.user_price * user_assets.quantity + EXCLUDED.user_price * EXCLUDED.quantity)
			                / (user_assets.quantity + EXCLUDED.quantity),
			   quantity   = user_assets.quantity + EXCLUDED.quantity,
			   updated_at = now()`,
			userID, collectibleID, quantity, price); err != nil {
			return nil, apierr.Data("add holding", err)
		}

	case models.TxSell:
		var held float64
		err = tx.QueryRow(ctx,
			`SELECT quantity FROM user_assets WHERE user_id = $1 AND collectible_id = $2 FOR UPDATE`,
			userID, collectibleID).Scan(&held)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.Data("lock holding", err)
		}
		if held < quantity {
			status = models.TxFailed
			failure = apierr.Validation("quantity", "insufficient holdings")
			break
		}
		if _, err = tx.Exec(ctx,
			`UPDATE user_assets SET quantity = quantity - $3, updated_at = now()
			 WHERE user_id = $1 AND collectible_id = $2`,
			userID, collectibleID, quantity); err != nil {
			return nil, apierr.Data("reduce holding", err)
		}
		if _, err = tx.Exec(ctx,
			`UPDATE token_balances SET balance = balance + $2 WHERE user_id = $1`,
			userID, cost); err != nil {
			return nil, apierr.Data("credit balance", err)
		}

	default:
		return nil, apierr.Validation("type", "must be 'buy' or 'sell'")
	}

	result := &models.Transaction{}
	err = tx.QueryRow(ctx,
		`INSERT INTO transactions (id, user_id, collectible_id, type, quantity, amount, price, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, user_id, collectible_id, type, quantity, amount, price, status, created_at`,
		uuid.NewString(), userID, collectibleID, tradeType, quantity, cost, price, status).Scan(
		&result.ID, &result.UserID, &result.CollectibleID, &result.Type, &result.Quantity,
		&result.Amount, &result.Price, &result.Status, &result.CreatedAt)
	if err != nil {
		return nil, apierr.Data("record transaction", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apierr.Data("commit trade", err)
	}

	if failure != nil {
		return result, failure
	}
	return result, nil
}

// RecordPurchase records a completed token-package purchase and credits the
// balance in one database transaction.
func (db *DB) RecordPurchase(ctx context.Context, userID string, tokens, amountUSD float64) (*models.Transaction, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, apierr.Data("begin purchase", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx,
		`INSERT INTO token_balances (user_id, balance) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance = token_balances.balance + EXCLUDED.balance`,
		userID, tokens); err != nil {
		return nil, apierr.Data("credit balance", err)
	}

	result := &models.Transaction{}
	err = tx.QueryRow(ctx,
		`INSERT INTO transactions (id, user_id, type, quantity, amount, price, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, user_id, COALESCE(collectible_id::text, ''), type, quantity, amount, price, status, created_at`,
		uuid.NewString(), userID, models.TxPurchase, tokens, amountUSD, amountUSD, models.TxCompleted).Scan(
		&result.ID, &result.UserID, &result.CollectibleID, &result.Type, &result.Quantity,
		&result.Amount, &result.Price, &result.Status, &result.CreatedAt)
	if err != nil {
		return nil, apierr.Data("record purchase", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apierr.Data("commit purchase", err)
	}
	return result, nil
}
