package database

import (
	"context"
	"fmt"

	"github.com/deppfellow/orders-report/internal/errs"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	insertUserQuery = `INSERT INTO users (name, age) VALUES ($1, $2) RETURNING id`

	insertOrderQuery = `INSERT INTO orders (user_id, amount) VALUES ($1, $2)`

	// Users without orders still show up (LEFT JOIN) with a zero total.
	// u.id makes the order of equal totals stable between runs.
	userTotalsQuery = `
		SELECT
			u.name,
			COALESCE(SUM(o.amount), 0) AS total_amount
		FROM users u
		LEFT JOIN orders o ON o.user_id = u.id
		GROUP BY u.id, u.name
		ORDER BY total_amount DESC, u.id`
)

// UserTotal is one line of the report: a user and the sum of their orders.
type UserTotal struct {
	Name  string
	Total decimal.Decimal
}

// AddUser inserts a user and returns the id assigned by the database.
func (d *Driver) AddUser(ctx context.Context, name string, age int) (int64, error) {
	rows, err := d.Execute(ctx, insertUserQuery, name, age)
	if err != nil {
		return 0, fmt.Errorf("add user %q: %w", name, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, errs.Data("add user", "insert returned no id")
	}

	id, err := toInt64(rows[0][0])
	if err != nil {
		return 0, errs.New(errs.KindData, "add user", err)
	}

	d.log.Info().Str("name", name).Int64("user_id", id).Msg("user added")
	return id, nil
}

// AddOrder inserts an order for userID.
//
// A userID that does not exist is rejected by the orders.user_id foreign key
// and comes back as a KindQuery error with code USER_NOT_FOUND.
func (d *Driver) AddOrder(ctx context.Context, userID int64, amount decimal.Decimal) error {
	if _, err := d.Execute(ctx, insertOrderQuery, userID, amount); err != nil {
		return fmt.Errorf("add order for user %d: %w", userID, err)
	}

	d.log.Info().Int64("user_id", userID).Str("amount", amount.String()).Msg("order added")
	return nil
}

// GetUserTotals returns every user with the sum of their orders, largest first.
func (d *Driver) GetUserTotals(ctx context.Context) ([]UserTotal, error) {
	rows, err := d.Execute(ctx, userTotalsQuery)
	if err != nil {
		return nil, fmt.Errorf("get user totals: %w", err)
	}

	totals := make([]UserTotal, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			return nil, errs.Data("get user totals", fmt.Sprintf("expected 2 columns, got %d", len(row)))
		}
		name, ok := row[0].(string)
		if !ok {
			return nil, errs.Data("get user totals", fmt.Sprintf("unexpected name type %T", row[0]))
		}
		total, err := toDecimal(row[1])
		if err != nil {
			return nil, errs.New(errs.KindData, "get user totals", err)
		}
		totals = append(totals, UserTotal{Name: name, Total: total})
	}

	return totals, nil
}

// toInt64 accepts the integer types pgx decodes identity columns into.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}

// toDecimal converts a NUMERIC value as decoded by pgx.
func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case pgtype.Numeric:
		if !n.Valid {
			return decimal.Zero, nil
		}
		if n.NaN || n.InfinityModifier != pgtype.Finite {
			return decimal.Zero, fmt.Errorf("amount is not a finite number")
		}
		if n.Int == nil {
			return decimal.Zero, nil
		}
		return decimal.NewFromBigInt(n.Int, n.Exp), nil
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected amount type %T", v)
	}
}
