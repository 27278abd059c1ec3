package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vrno/tokenmarket/internal/apierr"
	"github.com/vrno/tokenmarket/internal/models"
)

// ListAdminConfigs retrieves all admin configuration entries.
func (db *DB) ListAdminConfigs(ctx context.Context) ([]models.AdminConfig, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT config_key, config_value, updated_at FROM admin_configs ORDER BY config_key`)
	if err != nil {
		return nil, apierr.Data("list admin configs", err)
	}
	defer rows.Close()

	var configs []models.AdminConfig
	for rows.Next() {
		var c models.AdminConfig
		if err := rows.Scan(&c.Key, &c.Value, &c.UpdatedAt); err != nil {
			return nil, apierr.Data("scan admin config", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("list admin configs", err)
	}
	return configs, nil
}

// GetAdminConfig retrieves one admin configuration value.
func (db *DB) GetAdminConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := db.pool.QueryRow(ctx,
		`SELECT config_value FROM admin_configs WHERE config_key = $1`,
		key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apierr.NotFound("config")
		}
		return "", apierr.Data("get admin config", err)
	}
	return value, nil
}

// SetAdminConfig creates or updates an admin configuration value.
func (db *DB) SetAdminConfig(ctx context.Context, key, value string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO admin_configs (config_key, config_value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (config_key) DO UPDATE SET config_value = EXCLUDED.config_value, updated_at = now()`,
		key, value)
	if err != nil {
		return apierr.Data("set admin config", err)
	}
	return nil
}

// ListTokenPackages retrieves token packages in display order.
func (db *DB) ListTokenPackages(ctx context.Context) ([]models.TokenPackage, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, tokens, price_usd, sort_order, active
		 FROM token_packages ORDER BY sort_order`)
	if err != nil {
		return nil, apierr.Data("list token packages", err)
	}
	defer rows.Close()

	var packages []models.TokenPackage
	for rows.Next() {
		var p models.TokenPackage
		if err := rows.Scan(&p.ID, &p.Name, &p.Tokens, &p.PriceUSD, &p.SortOrder, &p.Active); err != nil {
			return nil, apierr.Data("scan token package", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("list token packages", err)
	}
	return packages, nil
}

// GetTokenPackage retrieves one token package.
func (db *DB) GetTokenPackage(ctx context.Context, id string) (*models.TokenPackage, error) {
	p := &models.TokenPackage{}
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, tokens, price_usd, sort_order, active FROM token_packages WHERE id = $1`,
		id).Scan(&p.ID, &p.Name, &p.Tokens, &p.PriceUSD, &p.SortOrder, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("token package")
		}
		return nil, apierr.Data("get token package", err)
	}
	return p, nil
}

// CreateTokenPackage inserts a new token package.
func (db *DB) CreateTokenPackage(ctx context.Context, p *models.TokenPackage) (*models.TokenPackage, error) {
	created := &models.TokenPackage{}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO token_packages (id, name, tokens, price_usd, sort_order, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, name, tokens, price_usd, sort_order, active`,
		uuid.NewString(), p.Name, p.Tokens, p.PriceUSD, p.SortOrder, p.Active).Scan(
		&created.ID, &created.Name, &created.Tokens, &created.PriceUSD, &created.SortOrder, &created.Active)
	if err != nil {
		return nil, apierr.Data("create token package", err)
	}
	return created, nil
}

// UpdateTokenPackage updates an existing token package.
func (db *DB) UpdateTokenPackage(ctx context.Context, p *models.TokenPackage) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE token_packages SET name = $2, tokens = $3, price_usd = $4, sort_order = $5, active = $6
		 WHERE id = $1`,
		p.ID, p.Name, p.Tokens, p.PriceUSD, p.SortOrder, p.Active)
	if err != nil {
		return apierr.Data("update token package", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFound("token package")
	}
	return nil
}

// DeleteTokenPackage removes a token package.
func (db *DB) DeleteTokenPackage(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM token_packages WHERE id = $1`, id)
	if err != nil {
		return apierr.Data("delete token package", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFound("token package")
	}
	return nil
}

// ListReferralCodes retrieves admin referral codes, newest first.
func (db *DB) ListReferralCodes(ctx context.Context) ([]models.ReferralCode, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, code, COALESCE(owner_id::text, ''), uses, max_uses, created_at
		 FROM referral_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, apierr.Data("list referral codes", err)
	}
	defer rows.Close()

	var codes []models.ReferralCode
	for rows.Next() {
		var c models.ReferralCode
		if err := rows.Scan(&c.ID, &c.Code, &c.OwnerID, &c.Uses, &c.MaxUses, &c.CreatedAt); err != nil {
			return nil, apierr.Data("scan referral code", err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Data("list referral codes", err)
	}
	return codes, nil
}

// CreateReferralCode inserts a new referral code.
func (db *DB) CreateReferralCode(ctx context.Context, code, ownerID string, maxUses int) (*models.ReferralCode, error) {
	created := &models.ReferralCode{}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO referral_codes (id, code, owner_id, uses, max_uses)
		 VALUES ($1, $2, NULLIF($3, '')::uuid, 0, $4)
		 RETURNING id, code, COALESCE(owner_id::text, ''), uses, max_uses, created_at`,
		uuid.NewString(), code, ownerID, maxUses).Scan(
		&created.ID, &created.Code, &created.OwnerID, &created.Uses, &created.MaxUses, &created.CreatedAt)
	if err != nil {
		return nil, apierr.Data("create referral code", err)
	}
	return created, nil
}
