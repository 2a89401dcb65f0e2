package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/model"
)

const itemColumns = `i.id, i.title, i.description, i.category, i.status, i.location,
	i.date_lost_found, i.image_filename, i.is_resolved, i.created_at, i.updated_at,
	i.user_id, u.username`

const itemFrom = ` FROM items i JOIN users u ON u.id = i.user_id`

// ItemFilter narrows the board. Zero values mean "any".
type ItemFilter struct {
	Status   model.Status
	Category model.Category
	Query    string
	UserID   int64

	// IncludeResolved also matches resolved items.
	IncludeResolved bool

	Limit  int
	Offset int
}

func (f ItemFilter) where() (string, []any) {
	var conds []string
	var args []any

	if !f.IncludeResolved {
		conds = append(conds, "i.is_resolved = 0")
	}
	if f.UserID != 0 {
		conds = append(conds, "i.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		conds = append(conds, "i.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Category != "" {
		conds = append(conds, "i.category = ?")
		args = append(args, string(f.Category))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := likePattern(q)
		conds = append(conds, `(i.title LIKE ? ESCAPE '\' OR i.description LIKE ? ESCAPE '\' OR i.location LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// InsertItem inserts an item and returns its id. CreatedAt and UpdatedAt
// are taken from the item.
func InsertItem(ctx context.Context, db Querier, item *model.Item) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (title, description, category, status, location, date_lost_found,
		                    image_filename, is_resolved, created_at, updated_at, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Title, item.Description, string(item.Category), string(item.Status),
		nullString(item.Location), item.DateLostFound, nullString(item.ImageFilename),
		item.IsResolved, item.CreatedAt, item.UpdatedAt, item.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

func scanItem(row scanner) (*model.Item, error) {
	item := &model.Item{}
	var category, status string
	var location, image sql.NullString
	err := row.Scan(&item.ID, &item.Title, &item.Description, &category, &status, &location,
		&item.DateLostFound, &image, &item.IsResolved, &item.CreatedAt, &item.UpdatedAt,
		&item.UserID, &item.OwnerUsername)
	if err != nil {
		return nil, err
	}
	item.Category = model.Category(category)
	item.Status = model.Status(status)
	item.Location = location.String
	item.ImageFilename = image.String
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItem returns an item by ID, including resolved ones.
func GetItem(ctx context.Context, db Querier, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+itemFrom+` WHERE i.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns the items matching f, newest first.
func ListItems(ctx context.Context, db Querier, f ItemFilter) ([]model.Item, error) {
	where, args := f.where()
	query := `SELECT ` + itemColumns + itemFrom + where + ` ORDER BY i.created_at DESC, i.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return scanItems(rows)
}

// CountItems returns how many items match f. Limit and Offset are ignored.
func CountItems(ctx context.Context, db Querier, f ItemFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items i`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// UpdateItem stores the item's editable fields and image.
func UpdateItem(ctx context.Context, db Querier, item *model.Item) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET title = ?, description = ?, category = ?, status = ?, location = ?,
		                  date_lost_found = ?, image_filename = ?, updated_at = ?
		 WHERE id = ?`,
		item.Title, item.Description, string(item.Category), string(item.Status),
		nullString(item.Location), item.DateLostFound, nullString(item.ImageFilename),
		item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// ResolveItem marks an item resolved. Resolving twice is a no-op.
func ResolveItem(ctx context.Context, db Querier, id int64, now time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET is_resolved = 1, updated_at = ? WHERE id = ? AND is_resolved = 0`,
		now, id,
	)
	if err != nil {
		return fmt.Errorf("resolving item: %w", err)
	}
	return nil
}

// DeleteItem removes an item. Messages about it go with it.
func DeleteItem(ctx context.Context, db Querier, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// ListUserImages returns the stored image filenames of a user's items.
func ListUserImages(ctx context.Context, db Querier, userID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT image_filename FROM items WHERE user_id = ? AND image_filename IS NOT NULL`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user images: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning image filename: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
