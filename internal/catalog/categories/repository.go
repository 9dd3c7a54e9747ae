package categories

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-labs/storefront/internal/catalog/shared"
	"github.com/storefront-labs/storefront/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Category, int, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, name string) (Category, error)
	CreateSubcategory(ctx context.Context, categoryID int64, name string) (Subcategory, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Category, int, error) {
	where := ""
	args := []interface{}{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = ` WHERE name ILIKE $1`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, name, created_at FROM categories` + where +
		` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	if filters.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, filters.Limit, filters.Offset())
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		var c Category
		err := row.Scan(&c.ID, &c.Name, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachSubcategories(ctx, categories); err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

func (r *repository) attachSubcategories(ctx context.Context, categories []Category) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]int64, len(categories))
	index := make(map[int64]int, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
		index[categories[i].ID] = i
		categories[i].Subcategories = []Subcategory{}
	}
	rows, err := r.pool.Query(ctx, `SELECT id, category_id, name, created_at
		FROM subcategories WHERE category_id = ANY($1) ORDER BY name, id`, ids)
	if err != nil {
		return err
	}
	subs, err := pgx.CollectRows(rows, scanSubcategory)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		i := index[sub.CategoryID]
		categories[i].Subcategories = append(categories[i].Subcategories, sub)
	}
	return nil
}

func scanSubcategory(row pgx.CollectableRow) (Subcategory, error) {
	var s Subcategory
	err := row.Scan(&s.ID, &s.CategoryID, &s.Name, &s.CreatedAt)
	return s, err
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, err
	}
	list := []Category{c}
	if err := r.attachSubcategories(ctx, list); err != nil {
		return Category{}, err
	}
	return list[0], nil
}

func (r *repository) Create(ctx context.Context, name string) (Category, error) {
	c := Category{Name: name, Subcategories: []Subcategory{}}
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at`, name).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if db.IsConstraint(err, db.CodeUniqueViolation) {
			return Category{}, ErrDuplicate
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) CreateSubcategory(ctx context.Context, categoryID int64, name string) (Subcategory, error) {
	s := Subcategory{CategoryID: categoryID, Name: name}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subcategories (category_id, name) VALUES ($1, $2) RETURNING id, created_at`,
		categoryID, name).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		switch {
		case db.IsConstraint(err, db.CodeUniqueViolation):
			return Subcategory{}, ErrDuplicate
		case db.IsConstraint(err, db.CodeForeignKeyViolation):
			return Subcategory{}, ErrNotFound
		}
		return Subcategory{}, err
	}
	return s, nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "id":
		return "id " + dir
	case "created_at":
		return "created_at " + dir + ", id " + dir
	default:
		return "name " + dir
	}
}
