// ABOUTME: Select query builder with equality filters, ordering and relation embeds
// ABOUTME: Encodes to PostgREST parameters for the hosted backend; read directly by the local backend
package gateway

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Embed asks the backend to attach the row referenced by FK under Alias.
type Embed struct {
	Alias string
	Table string
	FK    string
}

type Filter struct {
	Column string
	Value  string
}

type Order struct {
	Column    string
	Ascending bool
}

// Query describes a single-table read.
type Query struct {
	table   string
	columns []string
	embeds  []Embed
	filters []Filter
	orders  []Order
	single  bool
}

// From starts a query on table.
func From(table string) *Query {
	return &Query{table: table}
}

// Columns restricts the selected columns. The default is all columns.
func (q *Query) Columns(cols ...string) *Query {
	q.columns = append(q.columns, cols...)
	return q
}

// Embed attaches the row of table referenced by fk as alias.
func (q *Query) Embed(alias, table, fk string) *Query {
	q.embeds = append(q.embeds, Embed{Alias: alias, Table: table, FK: fk})
	return q
}

// Eq adds an equality filter. Values are compared in their text form.
func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, Filter{Column: column, Value: fmt.Sprint(value)})
	return q
}

// Order adds a sort key. Keys apply in the order they were added.
func (q *Query) Order(column string, ascending bool) *Query {
	q.orders = append(q.orders, Order{Column: column, Ascending: ascending})
	return q
}

// Single expects exactly one row and decodes it into a struct.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) Table() string { return q.table }
func (q *Query) ColumnList() []string { return q.columns }
func (q *Query) Embeds() []Embed { return q.embeds }
func (q *Query) Filters() []Filter { return q.filters }
func (q *Query) Orders() []Order { return q.orders }
func (q *Query) IsSingle() bool { return q.single }

// SelectParam renders the select list, e.g. "*,company:companies!organization_id(*)".
func (q *Query) SelectParam() string {
	parts := []string{"*"}
	if len(q.columns) > 0 {
		parts = append([]string(nil), q.columns...)
	}
	for _, e := range q.embeds {
		parts = append(parts, fmt.Sprintf("%s:%s!%s(*)", e.Alias, e.Table, e.FK))
	}
	return strings.Join(parts, ",")
}

// Params renders the query as PostgREST URL parameters.
func (q *Query) Params() url.Values {
	v := url.Values{}
	v.Set("select", q.SelectParam())
	for _, f := range q.filters {
		v.Add(f.Column, "eq."+f.Value)
	}
	if len(q.orders) > 0 {
		keys := make([]string, 0, len(q.orders))
		for _, o := range q.orders {
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			keys = append(keys, o.Column+"."+dir)
		}
		v.Set("order", strings.Join(keys, ","))
	}
	return v
}

func (q *Query) String() string {
	return q.table + "?" + q.Params().Encode()
}

// decodeRows unmarshals a JSON array of rows into dest, honoring Single.
func decodeRows(data []byte, q *Query, dest any) error {
	if !q.single {
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("failed to decode %s rows: %w", q.table, err)
		}
		return nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", q.table, err)
	}
	if len(rows) != 1 {
		return fmt.Errorf("%s: expected 1 row, got %d: %w", q.table, len(rows), ErrNotFound)
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("failed to decode %s row: %w", q.table, err)
	}
	return nil
}
