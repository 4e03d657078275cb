// ABOUTME: Embedded single-user backend on SQLite implementing the full gateway
// ABOUTME: Assigns ids, owners and timestamps, resolves embeds in batches and applies delete actions
package gateway

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/db"
	"github.com/harperreed/ancora/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// timestampLayout is fixed width so text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

const defaultSessionTTL = time.Hour

type tableSpec struct {
	owned     bool
	updatedAt bool
	defaults  map[string]any
}

var tableSpecs = map[string]tableSpec{
	models.TableProfiles:      {defaults: map[string]any{"role": models.RoleMember}},
	models.TableOrganizations: {owned: true, defaults: map[string]any{"type": models.OrganizationCompany}},
	models.TableContacts:      {owned: true, updatedAt: true, defaults: map[string]any{"status": models.ContactLead}},
	models.TableCompanies:     {owned: true, updatedAt: true},
	models.TableDeals: {owned: true, updatedAt: true, defaults: map[string]any{
		"stage":       models.StageProspecting,
		"probability": models.StageProbability(models.StageProspecting),
		"value":       0,
	}},
	models.TableProjects: {owned: true, updatedAt: true, defaults: map[string]any{"status": models.ProjectPlanning}},
	models.TableProjectTasks: {updatedAt: true, defaults: map[string]any{
		"status":   models.TaskTodo,
		"priority": models.PriorityMedium,
	}},
	models.TableActivities: {owned: true, defaults: map[string]any{"type": models.ActivityNote}},
}

// reference is a column in table pointing at a deleted row. cascade deletes
// the referencing row; otherwise the column is set to null.
type reference struct {
	table   string
	column  string
	cascade bool
}

var deleteActions = map[string][]reference{
	models.TableOrganizations: {
		{table: models.TableOrganizations, column: "parent_id"},
		{table: models.TableCompanies, column: "organization_id"},
	},
	models.TableCompanies: {
		{table: models.TableContacts, column: "organization_id"},
		{table: models.TableDeals, column: "company_id"},
		{table: models.TableProjects, column: "company_id"},
		{table: models.TableActivities, column: "company_id"},
	},
	models.TableContacts: {
		{table: models.TableDeals, column: "contact_id"},
		{table: models.TableProjects, column: "contact_id"},
		{table: models.TableActivities, column: "contact_id"},
	},
	models.TableDeals: {
		{table: models.TableActivities, column: "deal_id"},
	},
	models.TableProjects: {
		{table: models.TableProjectTasks, column: "project_id", cascade: true},
		{table: models.TableActivities, column: "project_id"},
	},
}

// Local is a Gateway backed by a local SQLite database.
type Local struct {
	sqlDB   *sql.DB
	ownsDB  bool
	records *db.RecordsRepository
	users   *db.AuthRepository
	cache   SessionCache
	logger  *zap.Logger
	now     func() time.Time

	confirmEmail bool
	bcryptCost   int
	sessionTTL   time.Duration

	mu        sync.RWMutex
	refreshMu sync.Mutex
	session   *Session

	events listeners
}

// LocalOption configures a Local gateway.
type LocalOption func(*Local)

// WithLocalSessionCache persists the session between runs.
func WithLocalSessionCache(cache SessionCache) LocalOption {
	return func(g *Local) { g.cache = cache }
}

// WithEmailConfirmation holds new sign-ups until ConfirmEmail is called.
func WithEmailConfirmation(enabled bool) LocalOption {
	return func(g *Local) { g.confirmEmail = enabled }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) LocalOption {
	return func(g *Local) { g.bcryptCost = cost }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) LocalOption {
	return func(g *Local) { g.now = now }
}

// WithSessionTTL sets how long access tokens stay valid.
func WithSessionTTL(ttl time.Duration) LocalOption {
	return func(g *Local) { g.sessionTTL = ttl }
}

// OpenLocal opens (creating if needed) the database at path.
func OpenLocal(path string, logger *zap.Logger, opts ...LocalOption) (*Local, error) {
	sqlDB, err := db.OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	g := NewLocal(sqlDB, logger, opts...)
	g.ownsDB = true
	return g, nil
}

// NewLocal wraps an already initialized database.
func NewLocal(sqlDB *sql.DB, logger *zap.Logger, opts ...LocalOption) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Local{
		sqlDB:      sqlDB,
		records:    db.NewRecordsRepository(sqlDB),
		users:      db.NewAuthRepository(sqlDB),
		logger:     logger,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.restoreSession()
	return g
}

// Close releases the database when the gateway opened it.
func (g *Local) Close() error {
	if g.ownsDB {
		return g.sqlDB.Close()
	}
	return nil
}

// Select implements Tables.
func (g *Local) Select(ctx context.Context, q *Query, dest any) error {
	if _, err := g.requireSession(ctx); err != nil {
		return err
	}
	if err := checkTable(q.Table()); err != nil {
		return err
	}

	conds := make([]db.Condition, 0, len(q.Filters()))
	for _, f := range q.Filters() {
		conds = append(conds, db.Condition{Column: f.Column, Value: f.Value})
	}
	sorts := make([]db.Sort, 0, len(q.Orders()))
	for _, o := range q.Orders() {
		sorts = append(sorts, db.Sort{Column: o.Column, Ascending: o.Ascending})
	}

	docs, err := g.records.List(ctx, q.Table(), conds, sorts)
	if err != nil {
		return fmt.Errorf("select %s: %w", q.Table(), err)
	}

	for _, e := range q.Embeds() {
		if err := g.embed(ctx, docs, e); err != nil {
			return fmt.Errorf("select %s: embed %s: %w", q.Table(), e.Alias, err)
		}
	}

	if cols := q.ColumnList(); len(cols) > 0 {
		docs = project(docs, cols, q.Embeds())
	}

	data, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return decodeRows(data, q, dest)
}

// Insert implements Tables.
func (g *Local) Insert(ctx context.Context, table string, row any) error {
	session, err := g.requireSession(ctx)
	if err != nil {
		return err
	}
	if err := checkTable(table); err != nil {
		return err
	}

	doc, err := toDocument(row)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}

	if doc.ID() == "" {
		doc["id"] = uuid.New().String()
	} else if _, err := uuid.Parse(doc.ID()); err != nil {
		return fmt.Errorf("insert %s: invalid id %q: %w", table, doc.ID(), err)
	}

	spec := tableSpecs[table]
	if spec.owned && doc["owner_id"] == nil {
		doc["owner_id"] = session.User.ID.String()
	}
	for k, v := range spec.defaults {
		if doc[k] == nil {
			doc[k] = v
		}
	}

	now := g.timestamp()
	doc["created_at"] = now
	if spec.updatedAt {
		doc["updated_at"] = now
	}

	if err := g.records.Insert(ctx, table, doc); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Update implements Tables. Fields present in patch overwrite the row,
// including explicit nulls.
func (g *Local) Update(ctx context.Context, table string, id uuid.UUID, patch any) error {
	if _, err := g.requireSession(ctx); err != nil {
		return err
	}
	if err := checkTable(table); err != nil {
		return err
	}

	changes, err := toDocument(patch)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}

	doc, err := g.records.Get(ctx, table, id.String())
	if errors.Is(err, db.ErrRecordNotFound) {
		return fmt.Errorf("update %s %s: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}

	for k, v := range changes {
		if k == "id" || k == "created_at" {
			continue
		}
		doc[k] = v
	}
	if tableSpecs[table].updatedAt {
		doc["updated_at"] = g.timestamp()
	}

	if err := g.records.Replace(ctx, table, doc); err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	return nil
}

// Delete implements Tables. Rows referencing the deleted row are nulled
// out or deleted in the same transaction.
func (g *Local) Delete(ctx context.Context, table string, id uuid.UUID) error {
	if _, err := g.requireSession(ctx); err != nil {
		return err
	}
	if err := checkTable(table); err != nil {
		return err
	}

	err := g.records.WithTx(ctx, func(tx *db.RecordsRepository) error {
		if err := tx.Delete(ctx, table, id.String()); err != nil {
			return err
		}
		for _, ref := range deleteActions[table] {
			var n int64
			var err error
			if ref.cascade {
				n, err = tx.DeleteReferencing(ctx, ref.table, ref.column, id.String())
			} else {
				n, err = tx.ClearReference(ctx, ref.table, ref.column, id.String())
			}
			if err != nil {
				return err
			}
			if n > 0 {
				g.logger.Debug("applied delete action",
					zap.String("table", ref.table),
					zap.String("column", ref.column),
					zap.Bool("cascade", ref.cascade),
					zap.Int64("rows", n))
			}
		}
		return nil
	})

	if errors.Is(err, db.ErrRecordNotFound) {
		return fmt.Errorf("delete %s %s: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	return nil
}

// embed attaches referenced rows with one lookup per embed.
func (g *Local) embed(ctx context.Context, docs []db.Document, e Embed) error {
	if err := checkTable(e.Table); err != nil {
		return err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, d := range docs {
		if id, ok := d[e.FK].(string); ok && id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	found, err := g.records.GetMany(ctx, e.Table, ids)
	if err != nil {
		return err
	}

	for _, d := range docs {
		id, _ := d[e.FK].(string)
		if ref, ok := found[id]; ok {
			d[e.Alias] = ref
		} else {
			d[e.Alias] = nil
		}
	}
	return nil
}

func (g *Local) timestamp() string {
	return g.now().UTC().Format(timestampLayout)
}

func checkTable(table string) error {
	if _, ok := tableSpecs[table]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return nil
}

// project keeps the selected columns and any embedded rows.
func project(docs []db.Document, cols []string, embeds []Embed) []db.Document {
	out := make([]db.Document, 0, len(docs))
	for _, d := range docs {
		p := make(db.Document, len(cols)+len(embeds))
		for _, c := range cols {
			if v, ok := d[c]; ok {
				p[c] = v
			}
		}
		for _, e := range embeds {
			p[e.Alias] = d[e.Alias]
		}
		out = append(out, p)
	}
	return out
}

func toDocument(v any) (db.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc db.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("row must encode as a JSON object: %w", err)
	}
	if doc == nil {
		doc = db.Document{}
	}
	return doc, nil
}
