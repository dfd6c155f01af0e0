package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nuvora/catalog-service/internal/catalog/dto"
	"github.com/nuvora/catalog-service/internal/model"
)

// sortClauses whitelists ORDER BY fragments per sort key; anything outside
// the map falls back to relevance.
var sortClauses = map[string]string{
	dto.SortRelevance:  "featured DESC, top_seller DESC, is_on_sale DESC, created_at DESC",
	dto.SortPriceAsc:   "final_price_nett ASC, id ASC",
	dto.SortPriceDesc:  "final_price_nett DESC, id ASC",
	dto.SortNameAsc:    "title ASC, id ASC",
	dto.SortNameDesc:   "title DESC, id ASC",
	dto.SortNewest:     "created_at DESC, id ASC",
	dto.SortDiscount:   "discount_percentage_nett DESC, id ASC",
	dto.SortSavings:    "(regular_price_nett - final_price_nett) DESC, id ASC",
	dto.SortUrgency:    "is_special_offer DESC, is_on_sale DESC, discount_percentage_nett DESC, id ASC",
	dto.SortPopularity: "top_seller DESC, featured DESC, created_at DESC, id ASC",
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Find(ctx context.Context, filters *dto.Filters) ([]model.Product, int, error) {
	where, args := buildConditions(filters)

	orderBy, ok := sortClauses[filters.SortBy]
	if !ok {
		orderBy = sortClauses[dto.SortRelevance]
	}

	countQuery := `SELECT count(*) FROM products` + where
	rowsQuery := `SELECT * FROM products` + where +
		` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`
	rowsArgs := append(append([]interface{}{}, args...),
		filters.PageSize, (filters.Page-1)*filters.PageSize)

	tx, err := r.DB.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, errors.Wrap(err, "catalogRepo begin tx")
	}
	defer tx.Rollback()

	var total int
	if err := tx.GetContext(ctx, &total, r.DB.Rebind(countQuery), args...); err != nil {
		return nil, 0, errors.Wrap(err, "catalogRepo count products")
	}

	products := []model.Product{}
	if err := tx.SelectContext(ctx, &products, r.DB.Rebind(rowsQuery), rowsArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "catalogRepo list products")
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, errors.Wrap(err, "catalogRepo commit tx")
	}
	return products, total, nil
}

func buildConditions(filters *dto.Filters) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if filters.PublishedOnly {
		conditions = append(conditions, "is_published = true", "is_active = true")
	}
	if filters.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filters.Status)
	}

	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + q + "%"
		textMatch := `(title ILIKE ? OR description ILIKE ? OR short_description ILIKE ? OR sku ILIKE ? OR ean ILIKE ?`
		args = append(args, pattern, pattern, pattern, pattern, pattern)
		if filters.SearchCustomDetails {
			textMatch += ` OR custom_details::text ILIKE ?`
			args = append(args, pattern)
		}
		conditions = append(conditions, textMatch+`)`)
	}

	if filters.CategoryID != "" {
		conditions = append(conditions,
			`id IN (SELECT product_id FROM product_categories WHERE category_id = ?)`)
		args = append(args, filters.CategoryID)
	}
	if filters.CompanyID != "" {
		conditions = append(conditions, "(company_id = ? OR supplier_id = ?)")
		args = append(args, filters.CompanyID, filters.CompanyID)
	}

	if filters.PriceMin != nil {
		conditions = append(conditions, "final_price_nett >= ?")
		args = append(args, *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		conditions = append(conditions, "final_price_nett <= ?")
		args = append(args, *filters.PriceMax)
	}

	flags := []struct {
		column string
		value  *bool
	}{
		{"in_stock", filters.InStock},
		{"featured", filters.Featured},
		{"top_seller", filters.TopSeller},
		{"is_on_sale", filters.OnSale},
		{"mark_as_new", filters.New},
		{"is_special_offer", filters.SpecialOffer},
		{"shipping_free", filters.ShippingFree},
		{"is_discounted", filters.Discounted},
	}
	for _, f := range flags {
		if f.value == nil {
			continue
		}
		conditions = append(conditions, f.column+" = ?")
		args = append(args, *f.value)
	}

	if filters.MinDiscount > 0 {
		conditions = append(conditions, "discount_percentage_nett >= ?")
		args = append(args, filters.MinDiscount)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return r.findOne(ctx, `SELECT * FROM products WHERE id = $1`, id)
}

func (r *PGRepository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Product, error) {
	query := `SELECT * FROM products WHERE slug = $1`
	if publishedOnly {
		query += ` AND is_published = true AND is_active = true`
	}
	return r.findOne(ctx, query, slug)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.Product, error) {
	p := &model.Product{}
	if err := r.DB.GetContext(ctx, p, query, arg); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "catalogRepo find product")
	}

	if err := r.DB.SelectContext(ctx, &p.Images,
		`SELECT * FROM product_images WHERE product_id = $1 ORDER BY sort_order ASC, id ASC`, p.ID); err != nil {
		return nil, errors.Wrap(err, "catalogRepo load images")
	}
	if err := r.DB.SelectContext(ctx, &p.Services,
		`SELECT * FROM product_services WHERE product_id = $1 ORDER BY name ASC`, p.ID); err != nil {
		return nil, errors.Wrap(err, "catalogRepo load services")
	}
	if err := r.DB.SelectContext(ctx, &p.Categories,
		`SELECT * FROM product_categories WHERE product_id = $1 ORDER BY is_primary DESC, id ASC`, p.ID); err != nil {
		return nil, errors.Wrap(err, "catalogRepo load categories")
	}
	return p, nil
}

func (r *PGRepository) CategoryLinks(ctx context.Context, productIDs []string) (map[string][]model.ProductCategory, error) {
	if len(productIDs) == 0 {
		return map[string][]model.ProductCategory{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT * FROM product_categories WHERE product_id IN (?) ORDER BY is_primary DESC, id ASC`, productIDs)
	if err != nil {
		return nil, errors.Wrap(err, "catalogRepo build category link query")
	}

	links := []model.ProductCategory{}
	if err := r.DB.SelectContext(ctx, &links, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "catalogRepo load category links")
	}

	byProduct := make(map[string][]model.ProductCategory, len(productIDs))
	for _, link := range links {
		byProduct[link.ProductID] = append(byProduct[link.ProductID], link)
	}
	return byProduct, nil
}
