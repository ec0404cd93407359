package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Calculation is a stored snapshot of one sell or buy calculation.
type Calculation struct {
	ID               int64           `json:"id"`
	CreatedAt        time.Time       `json:"createdAt"`
	UserID           int64           `json:"userId,omitempty"`
	UserEmail        string          `json:"userEmail,omitempty"`
	ParameterSetID   int64           `json:"parameterSetId,omitempty"`
	ParameterSetName string          `json:"parameterSetName"`
	Direction        string          `json:"direction"`
	PurchaseCurrency string          `json:"purchaseCurrency"`
	SellingCurrency  string          `json:"sellingCurrency"`
	InputPrice       float64         `json:"inputPrice"`
	ResultPrice      float64         `json:"resultPrice"`
	Result           json.RawMessage `json:"result"`
}

// CalculationStore reads and writes the calculations table.
type CalculationStore struct {
	db *sql.DB
}

func NewCalculationStore(db *sql.DB) *CalculationStore {
	return &CalculationStore{db: db}
}

// Create appends c to the history and returns its id.
func (s *CalculationStore) Create(ctx context.Context, c Calculation) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO calculations (
			user_id, parameter_set_id, parameter_set_name, direction,
			purchase_currency, selling_currency, input_price, result_price, result_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		nullableID(c.UserID), nullableID(c.ParameterSetID), c.ParameterSetName, c.Direction,
		c.PurchaseCurrency, c.SellingCurrency, c.InputPrice, c.ResultPrice, string(c.Result),
	)
	if err != nil {
		return 0, fmt.Errorf("insert calculation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read calculation id: %w", err)
	}
	return id, nil
}

// List returns the newest calculations whose parameter set name contains query.
func (s *CalculationStore) List(ctx context.Context, query string, limit int) ([]Calculation, error) {
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.id,
			c.created_at,
			c.user_id,
			COALESCE(u.email, ''),
			c.parameter_set_id,
			c.parameter_set_name,
			c.direction,
			c.purchase_currency,
			c.selling_currency,
			c.input_price,
			c.result_price,
			c.result_json
		FROM calculations c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE (? = '' OR c.parameter_set_name LIKE ?)
		ORDER BY datetime(c.created_at) DESC, c.id DESC
		LIMIT ?
	`, query, search, limit)
	if err != nil {
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	calculations := make([]Calculation, 0)
	for rows.Next() {
		var c Calculation
		var createdAt, resultJSON string
		var userID, parameterSetID sql.NullInt64
		if err := rows.Scan(
			&c.ID,
			&createdAt,
			&userID,
			&c.UserEmail,
			&parameterSetID,
			&c.ParameterSetName,
			&c.Direction,
			&c.PurchaseCurrency,
			&c.SellingCurrency,
			&c.InputPrice,
			&c.ResultPrice,
			&resultJSON,
		); err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		c.CreatedAt = parseTimestamp(createdAt)
		c.UserID = userID.Int64
		c.ParameterSetID = parameterSetID.Int64
		c.Result = json.RawMessage(resultJSON)
		calculations = append(calculations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculations: %w", err)
	}

	return calculations, nil
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
