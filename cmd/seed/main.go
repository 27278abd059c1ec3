// Seed the database with development data: a demo user with a balance, a
// handful of collectibles, token packages and default admin configs.
package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/vrno/tokenmarket/internal/config"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	var collectibles int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM collectibles").Scan(&collectibles); err != nil {
		log.Fatal().Err(err).Msg("check collectibles")
	}
	if collectibles > 0 {
		log.Info().Int("collectibles", collectibles).Msg("database already seeded")
		return
	}

	var userID string
	err = pool.QueryRow(ctx,
		`INSERT INTO users (username, email) VALUES ('demo', 'demo@vrno.market')
		 ON CONFLICT (username) DO UPDATE SET email = EXCLUDED.email
		 RETURNING id`).Scan(&userID)
	if err != nil {
		log.Fatal().Err(err).Msg("seed user")
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO token_balances (user_id, balance) VALUES ($1, 1000)
		 ON CONFLICT (user_id) DO UPDATE SET balance = 1000`, userID); err != nil {
		log.Fatal().Err(err).Msg("seed balance")
	}

	seedCollectibles := []struct {
		name  string
		price float64
	}{
		{"Aurora Shard", 12.50},
		{"Obsidian Relic", 48.00},
		{"Gilded Compass", 7.25},
		{"Ember Sigil", 150.00},
	}
	for _, c := range seedCollectibles {
		if _, err := pool.Exec(ctx,
			`INSERT INTO collectibles (name, current_price) VALUES ($1, $2)`,
			c.name, c.price); err != nil {
			log.Fatal().Err(err).Str("name", c.name).Msg("seed collectible")
		}
	}

	seedPackages := []struct {
		name   string
		tokens float64
		price  float64
		order  int
	}{
		{"Starter", 100, 4.99, 1},
		{"Collector", 550, 19.99, 2},
		{"Whale", 3000, 89.99, 3},
	}
	for _, p := range seedPackages {
		if _, err := pool.Exec(ctx,
			`INSERT INTO token_packages (name, tokens, price_usd, sort_order, active)
			 VALUES ($1, $2, $3, $4, true)`,
			p.name, p.tokens, p.price, p.order); err != nil {
			log.Fatal().Err(err).Str("name", p.name).Msg("seed package")
		}
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO admin_configs (config_key, config_value) VALUES ('maintenance_mode', 'false')
		 ON CONFLICT (config_key) DO NOTHING`); err != nil {
		log.Fatal().Err(err).Msg("seed configs")
	}

	log.Info().Str("user_id", userID).Int("collectibles", len(seedCollectibles)).Msg("seed complete")
}
