// Package report runs the fixed demonstration script against a store and
// renders the per-user order totals.
//
// It is orchestration only: the script stops at the first failure and
// leaves whatever was already written in place.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/deppfellow/orders-report/internal/database"
	"github.com/shopspring/decimal"
)

// Store is what the script needs from the database driver.
type Store interface {
	AddUser(ctx context.Context, name string, age int) (int64, error)
	AddOrder(ctx context.Context, userID int64, amount decimal.Decimal) error
	GetUserTotals(ctx context.Context) ([]database.UserTotal, error)
}

// Format selects how the totals are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Header introduces the totals in text output.
const Header = "--- Order totals per user ---"

type demoUser struct {
	name string
	age  int
}

type demoOrder struct {
	user   int // index into demoUsers
	amount decimal.Decimal
}

var (
	demoUsers = []demoUser{
		{name: "Alice", age: 28},
		{name: "Bob", age: 35},
		{name: "Charlie", age: 22}, // no orders
	}

	demoOrders = []demoOrder{
		{user: 0, amount: decimal.RequireFromString("499.90")},
		{user: 0, amount: decimal.RequireFromString("120.50")},
		{user: 1, amount: decimal.RequireFromString("750.00")},
	}
)

// Run creates the demo users and orders, then writes the totals to w.
func Run(ctx context.Context, store Store, w io.Writer, format Format) error {
	ids := make([]int64, len(demoUsers))
	for i, u := range demoUsers {
		id, err := store.AddUser(ctx, u.name, u.age)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	for _, o := range demoOrders {
		if err := store.AddOrder(ctx, ids[o.user], o.amount); err != nil {
			return err
		}
	}

	totals, err := store.GetUserTotals(ctx)
	if err != nil {
		return err
	}

	return Render(w, totals, format)
}

// Render writes totals to w, one "name — total" line per user in text
// format, or as a JSON array.
func Render(w io.Writer, totals []database.UserTotal, format Format) error {
	if format == FormatJSON {
		return renderJSON(w, totals)
	}

	if _, err := fmt.Fprintf(w, "\n%s\n", Header); err != nil {
		return err
	}
	for _, t := range totals {
		if _, err := fmt.Fprintf(w, "%s — %s\n", t.Name, t.Total.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

type jsonTotal struct {
	Name  string `json:"name"`
	Total string `json:"total"`
}

func renderJSON(w io.Writer, totals []database.UserTotal) error {
	out := make([]jsonTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, jsonTotal{Name: t.Name, Total: t.Total.StringFixed(2)})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
