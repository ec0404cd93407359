package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/listino/internal/pricing"
)

// ParameterSet is a named pricing.Parameters record with its currencies.
type ParameterSet struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	PurchaseCurrency string `json:"purchaseCurrency"`
	SellingCurrency  string `json:"sellingCurrency"`
	pricing.Parameters
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ParameterSetStore reads and writes the parameter_sets table.
type ParameterSetStore struct {
	db *sql.DB
}

func NewParameterSetStore(db *sql.DB) *ParameterSetStore {
	return &ParameterSetStore{db: db}
}

const parameterSetColumns = `
	id, name, description, purchase_currency, selling_currency,
	quality_control_percent, transport_insurance_cost, duty, exchange_rate,
	italy_accessory_costs, company_multiplier, retail_multiplier,
	is_default, created_at, updated_at`

// List returns every parameter set, the default one first.
func (s *ParameterSetStore) List(ctx context.Context) ([]ParameterSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+parameterSetColumns+`
		FROM parameter_sets
		ORDER BY is_default DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query parameter sets: %w", err)
	}
	defer rows.Close()

	sets := make([]ParameterSet, 0)
	for rows.Next() {
		ps, err := scanParameterSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parameter set: %w", err)
		}
		sets = append(sets, ps)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parameter sets: %w", err)
	}

	return sets, nil
}

func (s *ParameterSetStore) Get(ctx context.Context, id int64) (ParameterSet, error) {
	return s.getOne(ctx, `SELECT `+parameterSetColumns+` FROM parameter_sets WHERE id = ?`, id)
}

func (s *ParameterSetStore) GetDefault(ctx context.Context) (ParameterSet, error) {
	return s.getOne(ctx, `SELECT `+parameterSetColumns+` FROM parameter_sets WHERE is_default`)
}

// Create inserts ps. The first set ever stored becomes the default.
func (s *ParameterSetStore) Create(ctx context.Context, ps ParameterSet) (ParameterSet, error) {
	p := ps.Parameters
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO parameter_sets (
			name, description, purchase_currency, selling_currency,
			quality_control_percent, transport_insurance_cost, duty, exchange_rate,
			italy_accessory_costs, company_multiplier, retail_multiplier,
			is_default
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOT EXISTS(SELECT 1 FROM parameter_sets WHERE is_default))
	`,
		ps.Name, ps.Description, ps.PurchaseCurrency, ps.SellingCurrency,
		p.QualityControlPercent, p.TransportInsuranceCost, p.Duty, p.ExchangeRate,
		p.ItalyAccessoryCosts, p.CompanyMultiplier, p.RetailMultiplier,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ParameterSet{}, ErrConflict
		}
		return ParameterSet{}, fmt.Errorf("insert parameter set: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ParameterSet{}, fmt.Errorf("read parameter set id: %w", err)
	}
	return s.Get(ctx, id)
}

// Update replaces every editable field of the set. The default flag is left untouched.
func (s *ParameterSetStore) Update(ctx context.Context, id int64, ps ParameterSet) (ParameterSet, error) {
	p := ps.Parameters
	result, err := s.db.ExecContext(ctx, `
		UPDATE parameter_sets
		SET
			name = ?,
			description = ?,
			purchase_currency = ?,
			selling_currency = ?,
			quality_control_percent = ?,
			transport_insurance_cost = ?,
			duty = ?,
			exchange_rate = ?,
			italy_accessory_costs = ?,
			company_multiplier = ?,
			retail_multiplier = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		ps.Name, ps.Description, ps.PurchaseCurrency, ps.SellingCurrency,
		p.QualityControlPercent, p.TransportInsuranceCost, p.Duty, p.ExchangeRate,
		p.ItalyAccessoryCosts, p.CompanyMultiplier, p.RetailMultiplier,
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ParameterSet{}, ErrConflict
		}
		return ParameterSet{}, fmt.Errorf("update parameter set: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return ParameterSet{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes a non-default set.
func (s *ParameterSetStore) Delete(ctx context.Context, id int64) error {
	var isDefault bool
	err := s.db.QueryRowContext(ctx, `SELECT is_default FROM parameter_sets WHERE id = ?`, id).Scan(&isDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query parameter set: %w", err)
	}
	if isDefault {
		return ErrDefaultSet
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM parameter_sets WHERE id = ? AND NOT is_default`, id)
	if err != nil {
		return fmt.Errorf("delete parameter set: %w", err)
	}
	return requireAffected(result)
}

// SetDefault makes id the only default set.
func (s *ParameterSetStore) SetDefault(ctx context.Context, id int64) (ParameterSet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ParameterSet{}, fmt.Errorf("begin set default transaction: %w", err)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM parameter_sets WHERE id = ?)`, id).Scan(&exists); err != nil {
		_ = tx.Rollback()
		return ParameterSet{}, fmt.Errorf("check parameter set existence: %w", err)
	}
	if !exists {
		_ = tx.Rollback()
		return ParameterSet{}, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `UPDATE parameter_sets SET is_default = FALSE WHERE is_default AND id <> ?`, id); err != nil {
		_ = tx.Rollback()
		return ParameterSet{}, fmt.Errorf("clear default parameter set: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE parameter_sets SET is_default = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
		_ = tx.Rollback()
		return ParameterSet{}, fmt.Errorf("mark default parameter set: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ParameterSet{}, fmt.Errorf("commit set default transaction: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *ParameterSetStore) getOne(ctx context.Context, query string, args ...any) (ParameterSet, error) {
	ps, err := scanParameterSet(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return ParameterSet{}, ErrNotFound
	}
	if err != nil {
		return ParameterSet{}, fmt.Errorf("query parameter set: %w", err)
	}
	return ps, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParameterSet(row rowScanner) (ParameterSet, error) {
	var ps ParameterSet
	var createdAt, updatedAt string
	err := row.Scan(
		&ps.ID,
		&ps.Name,
		&ps.Description,
		&ps.PurchaseCurrency,
		&ps.SellingCurrency,
		&ps.QualityControlPercent,
		&ps.TransportInsuranceCost,
		&ps.Duty,
		&ps.ExchangeRate,
		&ps.ItalyAccessoryCosts,
		&ps.CompanyMultiplier,
		&ps.RetailMultiplier,
		&ps.IsDefault,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return ParameterSet{}, err
	}
	ps.CreatedAt = parseTimestamp(createdAt)
	ps.UpdatedAt = parseTimestamp(updatedAt)
	return ps, nil
}
