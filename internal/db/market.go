package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/vrno/tokenmarket/internal/apierr"
	"github.com/vrno/tokenmarket/internal/models"
)

// ListCollectibles retrieves every collectible in the marketplace.
func (db *DB) ListCollectibles(ctx context.Context) ([]models.Collectible, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, COALESCE(image_url, ''), current_price, updated_at
		 FROM collectibles ORDER BY name`)
	if err != nil {
		return nil, apierr.Data("list collectibles", err)
	}
	defer rows.Close()

	var items []models.Collectible
	for rows.Next() {
		var c models.Collectible
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL, &c.CurrentPrice, &c.UpdatedAt); err != nil {
			return nil, apierr.Data("scan collectible", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("list collectibles", err)
	}
	return items, nil
}

// GetCollectible retrieves one collectible.
func (db *DB) GetCollectible(ctx context.Context, id string) (*models.Collectible, error) {
	c := &models.Collectible{}
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(image_url, ''), current_price, updated_at
		 FROM collectibles WHERE id = $1`,
		id).Scan(&c.ID, &c.Name, &c.ImageURL, &c.CurrentPrice, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("collectible")
		}
		return nil, apierr.Data("get collectible", err)
	}
	return c, nil
}

// ListPrices retrieves the current price of every collectible keyed by name.
func (db *DB) ListPrices(ctx context.Context) (map[string]float64, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name, current_price FROM collectibles`)
	if err != nil {
		return nil, apierr.Data("list prices", err)
	}
	defer rows.Close()

	prices := make(map[string]float64)
	for rows.Next() {
		var name string
		var price float64
		if err := rows.Scan(&name, &price); err != nil {
			return nil, apierr.Data("scan price", err)
		}
		prices[name] = price
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("list prices", err)
	}
	return prices, nil
}

// ListImages retrieves collectible image URLs keyed by name.
func (db *DB) ListImages(ctx context.Context) (map[string]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name, COALESCE(image_url, '') FROM collectibles`)
	if err != nil {
		return nil, apierr.Data("list images", err)
	}
	defer rows.Close()

	images := make(map[string]string)
	for rows.Next() {
		var name, url string
		if err := rows.Scan(&name, &url); err != nil {
			return nil, apierr.Data("scan image", err)
		}
		images[name] = url
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("list images", err)
	}
	return images, nil
}

// GetPriceHistory retrieves recent price samples for a collectible, newest
// first.
func (db *DB) GetPriceHistory(ctx context.Context, collectibleID string, limit int) ([]models.PricePoint, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT collectible_id, captured_at, avg_price, volume
		 FROM price_history WHERE collectible_id = $1
		 ORDER BY captured_at DESC LIMIT $2`,
		collectibleID, limit)
	if err != nil {
		return nil, apierr.Data("get price history", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.CollectibleID, &p.Timestamp, &p.AvgPrice, &p.Volume); err != nil {
			return nil, apierr.Data("scan price point", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("get price history", err)
	}
	return points, nil
}

// GetMarketSummary retrieves the rolled-up market view of a collectible.
func (db *DB) GetMarketSummary(ctx context.Context, collectibleID string) (*models.MarketSummary, error) {
	s := &models.MarketSummary{}
	err := db.pool.QueryRow(ctx,
		`SELECT collectible_id, current_price, price_change, percent_change, volume_24h, updated_at
		 FROM market_summaries WHERE collectible_id = $1`,
		collectibleID).Scan(&s.CollectibleID, &s.CurrentPrice, &s.PriceChange,
		&s.PercentChange, &s.Volume24h, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("market summary")
		}
		return nil, apierr.Data("get market summary", err)
	}
	return s, nil
}
