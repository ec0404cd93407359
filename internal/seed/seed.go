package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/listino/internal/auth"
	"github.com/Simplici0/listino/internal/config"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	ParameterSet  config.DefaultParameterSet
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureDefaultParameterSet(ctx, tx, cfg.ParameterSet, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (email, display_name, password_hash, auth_provider)
		VALUES (?, ?, ?, 'local')
	`, email, "Administrator", hash); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

// ensureDefaultParameterSet inserts ps unless a set with the same name exists.
// It only becomes the default when no other set holds that role.
func ensureDefaultParameterSet(ctx context.Context, tx *sql.Tx, ps config.DefaultParameterSet, stats *Stats) error {
	if ps.Name == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM parameter_sets WHERE name = ? LIMIT 1)`, ps.Name).Scan(&exists); err != nil {
		return fmt.Errorf("check default parameter set existence: %w", err)
	}
	if exists {
		return nil
	}

	p := ps.Parameters
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO parameter_sets (
			name, description, purchase_currency, selling_currency,
			quality_control_percent, transport_insurance_cost, duty, exchange_rate,
			italy_accessory_costs, company_multiplier, retail_multiplier,
			is_default
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOT EXISTS(SELECT 1 FROM parameter_sets WHERE is_default))
	`,
		ps.Name, ps.Description, ps.PurchaseCurrency, ps.SellingCurrency,
		p.QualityControlPercent, p.TransportInsuranceCost, p.Duty, p.ExchangeRate,
		p.ItalyAccessoryCosts, p.CompanyMultiplier, p.RetailMultiplier,
	); err != nil {
		return fmt.Errorf("insert default parameter set: %w", err)
	}
	stats.Inserts++
	return nil
}
