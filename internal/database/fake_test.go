package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// memConn is an in-memory stand-in for a PostgreSQL connection that
// understands exactly the statements this package sends.
type memConn struct {
	users  []memUser
	orders []memOrder
	nextID int32

	queries int
	failAt  int // 1-based Query call that fails, 0 = never
	failErr error

	closeCalls int
	closeCtx   context.Context
}

type memUser struct {
	id   int32
	name string
	age  int
}

type memOrder struct {
	userID int64
	amount decimal.Decimal
}

// connectCall records what connect was called with.
type connectCall struct {
	calls int
	cfg   *pgx.ConnConfig
}

// useMemConn routes connect to conn for the duration of the test.
func useMemConn(t *testing.T, conn *memConn) *connectCall {
	t.Helper()
	call := &connectCall{}
	original := connect
	connect = func(_ context.Context, cfg *pgx.ConnConfig) (Conn, error) {
		call.calls++
		call.cfg = cfg
		return conn, nil
	}
	t.Cleanup(func() { connect = original })
	return call
}

// failConnect makes connect fail with err for the duration of the test.
func failConnect(t *testing.T, err error) *connectCall {
	t.Helper()
	call := &connectCall{}
	original := connect
	connect = func(_ context.Context, cfg *pgx.ConnConfig) (Conn, error) {
		call.calls++
		call.cfg = cfg
		return nil, err
	}
	t.Cleanup(func() { connect = original })
	return call
}

func (m *memConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.queries++
	if m.failAt == m.queries {
		return nil, m.failErr
	}

	switch sql {
	case insertUserQuery:
		m.nextID++
		m.users = append(m.users, memUser{id: m.nextID, name: args[0].(string), age: args[1].(int)})
		return newRows([]string{"id"}, [][]any{{m.nextID}}, nil), nil

	case insertOrderQuery:
		userID := args[0].(int64)
		if !m.hasUser(userID) {
			return newRows(nil, nil, &pgconn.PgError{
				Severity:       "ERROR",
				Code:           "23503",
				Message:        `insert or update on table "orders" violates foreign key constraint "orders_user_id_fkey"`,
				TableName:      "orders",
				ConstraintName: "orders_user_id_fkey",
			}), nil
		}
		m.orders = append(m.orders, memOrder{userID: userID, amount: args[1].(decimal.Decimal)})
		return newRows(nil, nil, nil), nil

	case userTotalsQuery:
		return newRows([]string{"name", "total_amount"}, m.totals(), nil), nil

	default:
		return nil, fmt.Errorf("memConn: unexpected query %q", sql)
	}
}

func (m *memConn) Close(ctx context.Context) error {
	m.closeCalls++
	m.closeCtx = ctx
	return nil
}

func (m *memConn) hasUser(id int64) bool {
	for _, u := range m.users {
		if int64(u.id) == id {
			return true
		}
	}
	return false
}

// totals mirrors userTotalsQuery: every user, summed amounts, largest
// first, ties by id. Totals are returned the way pgx decodes NUMERIC.
func (m *memConn) totals() [][]any {
	type line struct {
		id    int32
		name  string
		total decimal.Decimal
	}
	lines := make([]line, 0, len(m.users))
	for _, u := range m.users {
		total := decimal.Zero
		for _, o := range m.orders {
			if o.userID == int64(u.id) {
				total = total.Add(o.amount)
			}
		}
		lines = append(lines, line{id: u.id, name: u.name, total: total})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if c := lines[i].total.Cmp(lines[j].total); c != 0 {
			return c > 0
		}
		return lines[i].id < lines[j].id
	})

	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []any{l.name, pgtype.Numeric{Int: l.total.Coefficient(), Exp: l.total.Exponent(), Valid: true}})
	}
	return rows
}

// fakeRows implements pgx.Rows over a fixed result.
type fakeRows struct {
	fields []pgconn.FieldDescription
	data   [][]any
	cur    int
	err    error
	closed bool
}

func newRows(columns []string, data [][]any, err error) *fakeRows {
	fields := make([]pgconn.FieldDescription, 0, len(columns))
	for _, c := range columns {
		fields = append(fields, pgconn.FieldDescription{Name: c})
	}
	return &fakeRows{fields: fields, data: data, err: err}
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.err != nil || r.cur >= len(r.data) {
		r.Close()
		return false
	}
	r.cur++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	if r.cur == 0 || r.cur > len(r.data) {
		return nil, errors.New("fakeRows: no current row")
	}
	return r.data[r.cur-1], nil
}

func (r *fakeRows) Scan(...any) error {
	return errors.New("fakeRows: Scan is not supported")
}
