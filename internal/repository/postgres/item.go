package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	pgstore "github.com/kailas-cloud/lostfound/internal/db/postgres"
	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
)

const itemColumns = `id, type, title, category, description, location, building, dropoff_location,
	date, status, image_url, owner_id, contact_name, contact_email, created_at, updated_at`

// ItemRepo implements usecase/item.Repository and the image search catalog.
type ItemRepo struct {
	q querier
}

// NewItemRepo creates a Postgres item repository.
func NewItemRepo(q querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create inserts a new item.
func (r *ItemRepo) Create(ctx context.Context, it *domitem.Item) error {
	s := it.Snapshot()
	_, err := r.q.Exec(ctx, `INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		s.ID, string(s.Type), s.Title, string(s.Category), s.Description, s.Location, s.Building,
		s.DropoffLocation, s.Date, string(s.Status), s.ImageURL, s.OwnerID, s.ContactName,
		s.ContactEmail, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if pgstore.IsUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// Save overwrites the mutable columns of an existing item.
func (r *ItemRepo) Save(ctx context.Context, it *domitem.Item) error {
	s := it.Snapshot()
	tag, err := r.q.Exec(ctx, `UPDATE items SET
		type = $2, title = $3, category = $4, description = $5, location = $6, building = $7,
		dropoff_location = $8, date = $9, status = $10, image_url = $11, contact_name = $12,
		contact_email = $13, updated_at = $14
		WHERE id = $1`,
		s.ID, string(s.Type), s.Title, string(s.Category), s.Description, s.Location, s.Building,
		s.DropoffLocation, s.Date, string(s.Status), s.ImageURL, s.ContactName, s.ContactEmail,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// Get returns an item by ID.
func (r *ItemRepo) Get(ctx context.Context, id string) (domitem.Item, error) {
	row := r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		if pgstore.IsNoRows(err) {
			return domitem.Item{}, domain.ErrItemNotFound
		}
		return domitem.Item{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return it, nil
}

// Delete removes an item.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// List returns items matching f, newest first, with offset-cursor pagination.
func (r *ItemRepo) List(ctx context.Context, f domitem.Filter) ([]domitem.Item, string, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = domitem.DefaultPageSize
	}
	offset := 0
	if f.Cursor != "" {
		parsed, err := strconv.Atoi(f.Cursor)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q: %w", f.Cursor, domain.ErrInvalidInput)
		}
		offset = parsed
	}

	sql, args := buildListQuery(f, offset, limit+1)
	items, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, "", fmt.Errorf("list items: %w", err)
	}

	var next string
	if len(items) > limit {
		items = items[:limit]
		next = strconv.Itoa(offset + limit)
	}
	return items, next, nil
}

// ListByOwner returns every item reported by ownerID, newest first.
func (r *ItemRepo) ListByOwner(ctx context.Context, ownerID string) ([]domitem.Item, error) {
	items, err := r.query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", ownerID, err)
	}
	return items, nil
}

// ListImaged returns every item with a stored image, newest first.
func (r *ItemRepo) ListImaged(ctx context.Context) ([]similarity.Candidate, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, image_url FROM items WHERE image_url <> '' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list imaged items: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (similarity.Candidate, error) {
		var c similarity.Candidate
		err := row.Scan(&c.ItemID, &c.ImageURL)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan imaged items: %w", err)
	}
	return out, nil
}

func (r *ItemRepo) query(ctx context.Context, sql string, args ...any) ([]domitem.Item, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domitem.Item, error) {
		return scanItem(row)
	})
}

func scanItem(row pgx.Row) (domitem.Item, error) {
	var (
		s                      domitem.Snapshot
		typ, category, status string
	)
	err := row.Scan(
		&s.ID, &typ, &s.Title, &category, &s.Description, &s.Location, &s.Building,
		&s.DropoffLocation, &s.Date, &status, &s.ImageURL, &s.OwnerID, &s.ContactName,
		&s.ContactEmail, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domitem.Item{}, err
	}
	s.Type = domitem.Type(typ)
	s.Category = domitem.Category(category)
	s.Status = domitem.Status(status)
	return domitem.Reconstruct(s), nil
}

// buildListQuery renders a parameterized SELECT for f.
func buildListQuery(f domitem.Filter, offset, limit int) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Type != "" {
		where = append(where, "type = "+arg(string(f.Type)))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(string(f.Category)))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.OwnerID != "" {
		where = append(where, "owner_id = "+arg(f.OwnerID))
	}
	if f.Keyword != "" {
		p := arg("%" + likeEscaper.Replace(f.Keyword) + "%")
		where = append(where, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	// dates are YYYY-MM-DD so lexical order is chronological
	if f.From != "" {
		where = append(where, "(date <> '' AND date >= "+arg(f.From)+")")
	}
	if f.To != "" {
		where = append(where, "(date <> '' AND date <= "+arg(f.To)+")")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(itemColumns)
	sb.WriteString(" FROM items")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id")
	sb.WriteString(" LIMIT " + arg(limit))
	sb.WriteString(" OFFSET " + arg(offset))
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
