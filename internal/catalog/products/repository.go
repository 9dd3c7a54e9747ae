package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/storefront-labs/storefront/internal/catalog/shared"
	"github.com/storefront-labs/storefront/internal/platform/db"
)

// Repository persists products, their images and their attribute values.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	CreateProduct(ctx context.Context, product Product) (Product, error)
	InsertImage(ctx context.Context, productID int64, url string) (int64, error)
	InsertAttributeValue(ctx context.Context, productID, attributeID int64, value string) (int64, error)
	Get(ctx context.Context, id int64) (Product, error)
	ListImageURLs(ctx context.Context, productID int64) ([]string, error)
	ListAttributes(ctx context.Context, productID int64) ([]AttributeEntry, error)
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Delete(ctx context.Context, id int64) ([]string, error)
	ReferencedImageURLs(ctx context.Context) ([]string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
	inTx bool
}

// NewRepository returns a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool, inTx: true})
	})
}

const productColumns = `id, category_id, subcategory_id, name, description, price, stock_quantity,
	ar_model_path, image, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.SubcategoryID, &p.Name, &p.Description, &p.Price,
		&p.StockQuantity, &p.ARModelPath, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) CreateProduct(ctx context.Context, product Product) (Product, error) {
	query := `INSERT INTO products (category_id, subcategory_id, name, description, price, stock_quantity,
		ar_model_path, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + productColumns
	created, err := scanProduct(r.db.QueryRow(ctx, query,
		product.CategoryID, product.SubcategoryID, product.Name, product.Description, product.Price,
		product.StockQuantity, product.ARModelPath, product.Image))
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

func (r *repository) InsertImage(ctx context.Context, productID int64, url string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO product_images (product_id, image_url) VALUES ($1, $2) RETURNING id`,
		productID, url).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product image: %w", err)
	}
	return id, nil
}

func (r *repository) InsertAttributeValue(ctx context.Context, productID, attributeID int64, value string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO product_attribute_values (product_id, attribute_id, value) VALUES ($1, $2, $3) RETURNING id`,
		productID, attributeID, value).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert attribute %d: %w", attributeID, err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) ListImageURLs(ctx context.Context, productID int64) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT image_url FROM product_images WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *repository) ListAttributes(ctx context.Context, productID int64) ([]AttributeEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT a.name, v.value
		FROM product_attribute_values v
		JOIN product_attributes a ON a.id = v.attribute_id
		WHERE v.product_id = $1
		ORDER BY v.id`, productID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AttributeEntry, error) {
		var e AttributeEntry
		err := row.Scan(&e.Name, &e.Value)
		return e, err
	})
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	where, args := listConditions(filters)

	var (
		total    int
		products []Product
	)
	load := func(ctx context.Context) error {
		query := `SELECT ` + productColumns + ` FROM products` + where +
			` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) +
			` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		rows, err := r.db.Query(ctx, query, append(args, filters.Limit, filters.Offset())...)
		if err != nil {
			return err
		}
		products, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
			return scanProduct(row)
		})
		return err
	}
	count := func(ctx context.Context) error {
		return r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total)
	}

	// A transaction connection cannot run queries concurrently.
	if r.inTx {
		if err := count(ctx); err != nil {
			return nil, 0, err
		}
		if err := load(ctx); err != nil {
			return nil, 0, err
		}
		return products, total, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return count(gctx) })
	g.Go(func() error { return load(gctx) })
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func listConditions(filters shared.ListFilters) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		clauses = append(clauses, `category_id = $`+strconv.Itoa(len(args)))
	}
	if filters.SubcategoryID != nil {
		args = append(args, *filters.SubcategoryID)
		clauses = append(clauses, `subcategory_id = $`+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		clauses = append(clauses, `(name ILIKE $`+n+` OR description ILIKE $`+n+`)`)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repository) Delete(ctx context.Context, id int64) ([]string, error) {
	urls, err := r.ListImageURLs(ctx, id)
	if err != nil {
		return nil, err
	}
	var image string
	err = r.db.QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING image`, id).Scan(&image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(urls) == 0 && image != "" {
		urls = []string{image}
	}
	return urls, nil
}

func (r *repository) ReferencedImageURLs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT image_url FROM product_images
		UNION SELECT image FROM products`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "name":
		return "name " + dir + ", id " + dir
	case "price":
		return "price " + dir + ", id " + dir
	case "stock":
		return "stock_quantity " + dir + ", id " + dir
	case "created_at":
		return "created_at " + dir + ", id " + dir
	default:
		return "id " + dir
	}
}
