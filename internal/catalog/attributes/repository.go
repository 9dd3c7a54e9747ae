package attributes

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
	List(ctx context.Context, filters shared.ListFilters) ([]Attribute, int, error)
	Get(ctx context.Context, id int64) (Attribute, error)
	Create(ctx context.Context, name string) (Attribute, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Attribute, int, error) {
	where := ""
	args := []interface{}{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = ` WHERE name ILIKE $1`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM product_attributes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, name, created_at FROM product_attributes` + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	if filters.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, filters.Limit, filters.Offset())
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	attrs, err := pgx.CollectRows(rows, scanAttribute)
	if err != nil {
		return nil, 0, err
	}
	return attrs, total, nil
}

func scanAttribute(row pgx.CollectableRow) (Attribute, error) {
	var a Attribute
	err := row.Scan(&a.ID, &a.Name, &a.CreatedAt)
	return a, err
}

func (r *repository) Get(ctx context.Context, id int64) (Attribute, error) {
	var a Attribute
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM product_attributes WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attribute{}, ErrNotFound
	}
	return a, err
}

func (r *repository) Create(ctx context.Context, name string) (Attribute, error) {
	a := Attribute{Name: name}
	err := r.pool.QueryRow(ctx, `INSERT INTO product_attributes (name) VALUES ($1) RETURNING id, created_at`, name).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if db.IsConstraint(err, db.CodeUniqueViolation) {
			return Attribute{}, ErrDuplicate
		}
		return Attribute{}, err
	}
	return a, nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "name":
		return "name " + dir
	default:
		return "id " + dir
	}
}
