package variants

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumi-commerce/lumi-admin/internal/catalog/shared"
	"github.com/lumi-commerce/lumi-admin/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Variant, int, error)
	Get(ctx context.Context, id int64) (Variant, error)
	Create(ctx context.Context, variant Variant) (Variant, error)
	Update(ctx context.Context, id int64, variant Variant) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Variant, int, error) {
	filters = filters.Normalize()

	where := ` WHERE 1=1`
	args := []any{}
	if filters.ProductID != nil {
		args = append(args, *filters.ProductID)
		where += ` AND product_id = $` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (sku ILIKE $` + n + ` OR name ILIKE $` + n + `)`
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM product_variants`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filters.Limit, (filters.Page-1)*filters.Limit)
	query := `SELECT id, product_id, sku, name, price, is_active, created_at, updated_at FROM product_variants` +
		where + ` ORDER BY sku ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Price, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Variant, error) {
	var v Variant
	err := r.db.QueryRow(ctx, `SELECT id, product_id, sku, name, price, is_active, created_at, updated_at
FROM product_variants WHERE id = $1`, id).
		Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Price, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Variant{}, httpx.ErrNotFound
		}
		return Variant{}, err
	}
	return v, nil
}

func (r *repository) Create(ctx context.Context, variant Variant) (Variant, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO product_variants (product_id, sku, name, price, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		variant.ProductID, variant.SKU, variant.Name, variant.Price, variant.IsActive, now).Scan(&variant.ID)
	if err != nil {
		return Variant{}, mapDuplicate(err)
	}
	variant.CreatedAt = now
	variant.UpdatedAt = now
	return variant, nil
}

func (r *repository) Update(ctx context.Context, id int64, variant Variant) error {
	tag, err := r.db.Exec(ctx, `UPDATE product_variants SET sku = $1, name = $2, price = $3, is_active = $4, updated_at = $5 WHERE id = $6`,
		variant.SKU, variant.Name, variant.Price, variant.IsActive, time.Now(), id)
	if err != nil {
		return mapDuplicate(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return httpx.ErrDuplicate
	}
	return err
}
