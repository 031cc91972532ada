package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product/dto"
	"github.com/fekuna/omnipos-catalog-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const productNameKey = "products_name_key"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (` + productColumns + `)
        VALUES (
            :id, :name, :base_price, :type, :grade, :commodity,
            :tire_category, :tire_usage, :tire_size, :tire_load_index, :tire_speed_rating, :tire_warranty,
            :bale_weight, :bale_category, :bale_origin, :bale_import_date, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Conn(ctx, r.DB), query, toRow(p))
	if err != nil {
		return translate(err, p.Name, "productRepo.Create")
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var row productRow
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 LIMIT 1`
	err := sqlx.GetContext(ctx, postgres.Conn(ctx, r.DB), &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || postgres.InvalidInput(err) {
			return nil, nil
		}
		return nil, postgres.TranslateError(errors.Wrap(err, "productRepo.FindByID"))
	}
	p := row.toProduct()
	return &p, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var count int

	conditions := []string{}
	args := map[string]any{}

	if f.Name != "" {
		conditions = append(conditions, "p.name ILIKE :name ESCAPE '\\'")
		args["name"] = containsPattern(f.Name)
	}
	if f.Commodity != "" {
		conditions = append(conditions, "p.commodity ILIKE :commodity ESCAPE '\\'")
		args["commodity"] = containsPattern(f.Commodity)
	}
	if f.TireCategory != "" {
		conditions = append(conditions, "p.tire_category ILIKE :tire_category ESCAPE '\\'")
		args["tire_category"] = containsPattern(f.TireCategory)
	}
	if f.Type != "" {
		conditions = append(conditions, "p.type = :type")
		args["type"] = f.Type
	}
	if f.Grade != "" {
		conditions = append(conditions, "p.grade = :grade")
		args["grade"] = f.Grade
	}
	if f.StoreID != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM store_products sp WHERE sp.product_id = p.id AND sp.store_id = :store_id)")
		args["store_id"] = f.StoreID
	}
	if f.MinPrice != nil {
		conditions = append(conditions, "p.base_price >= :min_price")
		args["min_price"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "p.base_price <= :max_price")
		args["max_price"] = *f.MaxPrice
	}
	if f.InStock != nil {
		// Products without any inventory record count as out of stock.
		inStock := "EXISTS (SELECT 1 FROM inventory i WHERE i.product_id = p.id AND i.quantity > 0)"
		if *f.InStock {
			conditions = append(conditions, inStock)
		} else {
			conditions = append(conditions, "NOT "+inStock)
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	conn := postgres.Conn(ctx, r.DB)
	if err := postgres.NamedGet(ctx, conn, &count, "SELECT count(*) FROM products p"+whereClause, args); err != nil {
		if postgres.InvalidInput(err) {
			return []model.Product{}, 0, nil
		}
		return nil, 0, postgres.TranslateError(errors.Wrap(err, "productRepo.FindAll count"))
	}

	// Whitelisted sort columns
	orderBy := "p.created_at DESC"
	if f.SortBy != "" {
		switch f.SortBy {
		case "name":
			orderBy = "p.name"
		case "price":
			orderBy = "p.base_price"
		default:
			orderBy = "p.created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT %s FROM products p%s ORDER BY %s, p.name ASC", prefixed(productColumns, "p."), whereClause, orderBy)
	if f.Limit > 0 {
		offset := (max(f.Page, 1) - 1) * f.Limit
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, offset)
	}

	rows := []productRow{}
	if err := postgres.NamedSelect(ctx, conn, &rows, query, args); err != nil {
		return nil, 0, postgres.TranslateError(errors.Wrap(err, "productRepo.FindAll"))
	}

	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toProduct())
	}
	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            base_price = :base_price,
            grade = :grade,
            commodity = :commodity,
            tire_category = :tire_category,
            tire_usage = :tire_usage,
            tire_size = :tire_size,
            tire_load_index = :tire_load_index,
            tire_speed_rating = :tire_speed_rating,
            tire_warranty = :tire_warranty,
            bale_weight = :bale_weight,
            bale_category = :bale_category,
            bale_origin = :bale_origin,
            bale_import_date = :bale_import_date,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := sqlx.NamedExecContext(ctx, postgres.Conn(ctx, r.DB), query, toRow(p))
	if err != nil {
		return translate(err, p.Name, "productRepo.Update")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "productRepo.Update rows")
	}
	if n == 0 {
		return apperror.ProductNotFound(p.ID)
	}
	return nil
}

func (r *PGRepository) IsNameUnique(ctx context.Context, name, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE name = $1`
	args := []any{name}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}

	if err := sqlx.GetContext(ctx, postgres.Conn(ctx, r.DB), &count, query, args...); err != nil {
		return false, postgres.TranslateError(errors.Wrap(err, "productRepo.IsNameUnique"))
	}
	return count == 0, nil
}

func (r *PGRepository) FindStoreInventory(ctx context.Context, productID string) ([]model.StoreInventory, error) {
	items := []model.StoreInventory{}
	query := `
        SELECT s.id AS store_id, s.code AS store_code, s.name AS store_name, sp.created_at AS assigned_at,
               i.id AS inventory_id, COALESCE(i.quantity, 0) AS quantity,
               i.store_price, i.reorder_level, i.optimal_level
        FROM store_products sp
        JOIN stores s ON s.id = sp.store_id
        LEFT JOIN inventory i ON i.product_id = sp.product_id AND i.store_id = sp.store_id
        WHERE sp.product_id = $1
        ORDER BY s.name ASC
    `
	if err := sqlx.SelectContext(ctx, postgres.Conn(ctx, r.DB), &items, query, productID); err != nil {
		return nil, postgres.TranslateError(errors.Wrap(err, "productRepo.FindStoreInventory"))
	}
	return items, nil
}

// translate turns a unique violation on the product name into DuplicateName.
func translate(err error, name, op string) error {
	if constraint, ok := postgres.UniqueViolation(err); ok && constraint == productNameKey {
		return apperror.DuplicateName(name)
	}
	return postgres.TranslateError(errors.Wrap(err, op))
}

func prefixed(columns, prefix string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE substring pattern that matches s literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
