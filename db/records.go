// ABOUTME: Repository for table rows stored as JSON documents
// ABOUTME: Supports equality filters, multi-key ordering, batched lookups and reference cleanup
package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidRecord  = errors.New("invalid record")
)

// Document is one row as decoded JSON.
type Document map[string]any

// ID returns the document's id field as text.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Condition matches rows whose column equals Value in text form.
type Condition struct {
	Column string
	Value  string
}

type Sort struct {
	Column    string
	Ascending bool
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RecordsRepository provides CRUD over the records table.
type RecordsRepository struct {
	db   *sql.DB
	exec execer
}

// NewRecordsRepository creates a new records repository.
func NewRecordsRepository(db *sql.DB) *RecordsRepository {
	return &RecordsRepository{db: db, exec: db}
}

// WithTx runs fn against a repository bound to one transaction.
func (r *RecordsRepository) WithTx(ctx context.Context, fn func(tx *RecordsRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&RecordsRepository{db: r.db, exec: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Insert stores a new document. The document must carry an id.
func (r *RecordsRepository) Insert(ctx context.Context, table string, doc Document) error {
	if doc.ID() == "" {
		return ErrInvalidRecord
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = r.exec.ExecContext(ctx,
		`INSERT INTO records (tbl, id, data) VALUES (?, ?, ?)`,
		table, doc.ID(), string(data),
	)
	return err
}

// Get retrieves a document by id.
func (r *RecordsRepository) Get(ctx context.Context, table, id string) (Document, error) {
	var data string
	err := r.exec.QueryRowContext(ctx,
		`SELECT data FROM records WHERE tbl = ? AND id = ?`,
		table, id,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	return decodeDocument(data)
}

// Replace overwrites an existing document.
func (r *RecordsRepository) Replace(ctx context.Context, table string, doc Document) error {
	if doc.ID() == "" {
		return ErrInvalidRecord
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	result, err := r.exec.ExecContext(ctx,
		`UPDATE records SET data = ? WHERE tbl = ? AND id = ?`,
		string(data), table, doc.ID(),
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes a document by id.
func (r *RecordsRepository) Delete(ctx context.Context, table, id string) error {
	result, err := r.exec.ExecContext(ctx,
		`DELETE FROM records WHERE tbl = ? AND id = ?`,
		table, id,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// List returns documents matching every condition, sorted by sorts. Ties
// fall back to insertion order in the direction of the last sort key.
// Null values sort last ascending and first descending.
func (r *RecordsRepository) List(ctx context.Context, table string, conds []Condition, sorts []Sort) ([]Document, error) {
	var sb strings.Builder
	args := []any{table}

	sb.WriteString(`SELECT data FROM records WHERE tbl = ?`)
	for _, c := range conds {
		sb.WriteString(` AND CAST(json_extract(data, ?) AS TEXT) = ?`)
		args = append(args, jsonPath(c.Column), c.Value)
	}

	tieBreak := "ASC"
	if len(sorts) > 0 {
		keys := make([]string, 0, len(sorts)*2+1)
		for _, s := range sorts {
			dir := "DESC"
			if s.Ascending {
				dir = "ASC"
			}
			keys = append(keys,
				fmt.Sprintf(`(json_extract(data, ?) IS NULL) %s`, dir),
				fmt.Sprintf(`json_extract(data, ?) COLLATE NOCASE %s`, dir),
			)
			args = append(args, jsonPath(s.Column), jsonPath(s.Column))
			tieBreak = dir
		}
		sb.WriteString(` ORDER BY ` + strings.Join(keys, ", ") + `, rowid ` + tieBreak)
	} else {
		sb.WriteString(` ORDER BY rowid ASC`)
	}

	rows, err := r.exec.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetMany fetches documents by id in a single query, keyed by id.
// Unknown ids are absent from the result.
func (r *RecordsRepository) GetMany(ctx context.Context, table string, ids []string) (map[string]Document, error) {
	out := make(map[string]Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, table)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.exec.QueryContext(ctx,
		`SELECT id, data FROM records WHERE tbl = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, err
		}
		out[id] = doc
	}
	return out, rows.Err()
}

// ClearReference sets column to null on every row of table that points at id.
func (r *RecordsRepository) ClearReference(ctx context.Context, table, column, id string) (int64, error) {
	result, err := r.exec.ExecContext(ctx,
		`UPDATE records SET data = json_set(data, ?, json('null'))
		 WHERE tbl = ? AND json_extract(data, ?) = ?`,
		jsonPath(column), table, jsonPath(column), id,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteReferencing removes every row of table whose column equals id.
func (r *RecordsRepository) DeleteReferencing(ctx context.Context, table, column, id string) (int64, error) {
	result, err := r.exec.ExecContext(ctx,
		`DELETE FROM records WHERE tbl = ? AND json_extract(data, ?) = ?`,
		table, jsonPath(column), id,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns the number of rows in table.
func (r *RecordsRepository) Count(ctx context.Context, table string) (int, error) {
	var n int
	err := r.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE tbl = ?`, table).Scan(&n)
	return n, err
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func jsonPath(column string) string {
	return `$."` + strings.ReplaceAll(column, `"`, ``) + `"`
}

func decodeDocument(data string) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
