package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nuvora/catalog-service/internal/model"
	optionrepo "github.com/nuvora/catalog-service/internal/option/repository"
	"github.com/nuvora/catalog-service/internal/product"
)

const productColumns = `
    id, sku, slug, barcode, ean, title, description, short_description,
    status, is_active, is_published,
    mark_as_new, featured, top_seller, is_on_sale, is_special_offer, shipping_free, in_stock,
    weight, weight_unit, length, width, height, dimension_unit, unit_type, lead_time,
    purchase_price_nett, purchase_price_gross, regular_price_nett, regular_price_gross,
    discount_percentage_nett, discount_percentage_gross, final_price_nett, final_price_gross,
    is_discounted, custom_details, tax_id, company_id, supplier_id,
    created_at, updated_at
`

const productPlaceholders = `
    :id, :sku, :slug, :barcode, :ean, :title, :description, :short_description,
    :status, :is_active, :is_published,
    :mark_as_new, :featured, :top_seller, :is_on_sale, :is_special_offer, :shipping_free, :in_stock,
    :weight, :weight_unit, :length, :width, :height, :dimension_unit, :unit_type, :lead_time,
    :purchase_price_nett, :purchase_price_gross, :regular_price_nett, :regular_price_gross,
    :discount_percentage_nett, :discount_percentage_gross, :final_price_nett, :final_price_gross,
    :is_discounted, :custom_details, :tax_id, :company_id, :supplier_id,
    :created_at, :updated_at
`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return r.columnTaken(ctx, "slug", slug, excludeID)
}

func (r *PGRepository) SKUExists(ctx context.Context, sku, excludeID string) (bool, error) {
	return r.columnTaken(ctx, "sku", sku, excludeID)
}

func (r *PGRepository) columnTaken(ctx context.Context, column, value, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE ` + column + ` = $1`
	args := []interface{}{value}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}
	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PGRepository) FindConflict(ctx context.Context, fields product.ConflictFields, excludeID string) (string, error) {
	type probe struct {
		name  string
		value string
	}
	probes := []probe{
		{"sku", fields.SKU},
		{"slug", fields.Slug},
		{"barcode", fields.Barcode},
		{"title", fields.Title},
		{"ean", fields.EAN},
	}

	conditions := []string{}
	args := []interface{}{}
	for _, p := range probes {
		if p.value == "" {
			continue
		}
		args = append(args, p.value)
		conditions = append(conditions, p.name+" = ?")
	}
	if len(conditions) == 0 {
		return "", nil
	}

	query := `SELECT sku, slug, barcode, title, ean FROM products WHERE (`
	for i, c := range conditions {
		if i > 0 {
			query += " OR "
		}
		query += c
	}
	query += `)`
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	query = r.DB.Rebind(query)

	var rows []struct {
		SKU     string `db:"sku"`
		Slug    string `db:"slug"`
		Barcode string `db:"barcode"`
		Title   string `db:"title"`
		EAN     string `db:"ean"`
	}
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return "", errors.Wrap(err, "productRepo.FindConflict")
	}

	// Report the first conflicting field in a stable order.
	for _, row := range rows {
		switch {
		case fields.SKU != "" && row.SKU == fields.SKU:
			return "sku", nil
		case fields.Slug != "" && row.Slug == fields.Slug:
			return "slug", nil
		case fields.Barcode != "" && row.Barcode == fields.Barcode:
			return "barcode", nil
		case fields.Title != "" && row.Title == fields.Title:
			return "title", nil
		case fields.EAN != "" && row.EAN == fields.EAN:
			return "ean", nil
		}
	}
	return "", nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadAssociations(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) loadAssociations(ctx context.Context, p *model.Product) error {
	if err := r.DB.SelectContext(ctx, &p.Images,
		`SELECT * FROM product_images WHERE product_id = $1 ORDER BY sort_order ASC, id ASC`, p.ID); err != nil {
		return errors.Wrap(err, "productRepo load images")
	}
	if err := r.DB.SelectContext(ctx, &p.Services,
		`SELECT * FROM product_services WHERE product_id = $1 ORDER BY name ASC`, p.ID); err != nil {
		return errors.Wrap(err, "productRepo load services")
	}
	if err := r.DB.SelectContext(ctx, &p.Categories,
		`SELECT * FROM product_categories WHERE product_id = $1 ORDER BY is_primary DESC, id ASC`, p.ID); err != nil {
		return errors.Wrap(err, "productRepo load categories")
	}
	return nil
}

func (r *PGRepository) CreateAggregate(ctx context.Context, p *model.Product) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "productRepo.CreateAggregate begin")
	}
	defer tx.Rollback()

	query := `INSERT INTO products (` + productColumns + `) VALUES (` + productPlaceholders + `)`
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		return errors.Wrap(err, "productRepo.CreateAggregate insert product")
	}

	for i := range p.Images {
		if err := insertImageTx(ctx, tx, &p.Images[i]); err != nil {
			return err
		}
	}
	for i := range p.Services {
		if err := insertServiceTx(ctx, tx, &p.Services[i]); err != nil {
			return err
		}
	}
	for i := range p.Categories {
		if err := insertCategoryLinkTx(ctx, tx, &p.Categories[i]); err != nil {
			return err
		}
	}
	for i := range p.Options {
		if err := optionrepo.InsertOptionTx(ctx, tx, &p.Options[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PGRepository) UpdateAggregate(ctx context.Context, p *model.Product, spec product.UpdateSpec) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "productRepo.UpdateAggregate begin")
	}
	defer tx.Rollback()

	query := `
        UPDATE products
        SET sku = :sku, slug = :slug, barcode = :barcode, ean = :ean,
            title = :title, description = :description, short_description = :short_description,
            status = :status, is_active = :is_active, is_published = :is_published,
            mark_as_new = :mark_as_new, featured = :featured, top_seller = :top_seller,
            is_on_sale = :is_on_sale, is_special_offer = :is_special_offer, shipping_free = :shipping_free, in_stock = :in_stock,
            weight = :weight, weight_unit = :weight_unit,
            length = :length, width = :width, height = :height, dimension_unit = :dimension_unit,
            unit_type = :unit_type, lead_time = :lead_time,
            purchase_price_nett = :purchase_price_nett, purchase_price_gross = :purchase_price_gross,
            regular_price_nett = :regular_price_nett, regular_price_gross = :regular_price_gross,
            discount_percentage_nett = :discount_percentage_nett, discount_percentage_gross = :discount_percentage_gross,
            final_price_nett = :final_price_nett, final_price_gross = :final_price_gross,
            is_discounted = :is_discounted, custom_details = :custom_details,
            tax_id = :tax_id, company_id = :company_id, supplier_id = :supplier_id,
            updated_at = :updated_at
        WHERE id = :id
    `
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		return errors.Wrap(err, "productRepo.UpdateAggregate update product")
	}

	if spec.ReplaceImages {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, p.ID); err != nil {
			return errors.Wrap(err, "productRepo.UpdateAggregate delete images")
		}
		for i := range p.Images {
			if err := insertImageTx(ctx, tx, &p.Images[i]); err != nil {
				return err
			}
		}
	} else if spec.AppendImages {
		for i := range p.Images {
			if err := insertImageTx(ctx, tx, &p.Images[i]); err != nil {
				return err
			}
		}
	}

	if spec.ReplaceCategories {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, p.ID); err != nil {
			return errors.Wrap(err, "productRepo.UpdateAggregate delete categories")
		}
		for i := range p.Categories {
			if err := insertCategoryLinkTx(ctx, tx, &p.Categories[i]); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *PGRepository) UpdateState(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET status = :status, is_active = :is_active, is_published = :is_published, updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return errors.Wrap(err, "productRepo.UpdateState")
}

func (r *PGRepository) AddServices(ctx context.Context, services []model.ProductService) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "productRepo.AddServices begin")
	}
	defer tx.Rollback()

	for i := range services {
		if err := insertServiceTx(ctx, tx, &services[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PGRepository) AddCategories(ctx context.Context, links []model.ProductCategory) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "productRepo.AddCategories begin")
	}
	defer tx.Rollback()

	for i := range links {
		if err := insertCategoryLinkTx(ctx, tx, &links[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertImageTx(ctx context.Context, tx *sqlx.Tx, img *model.ProductImage) error {
	query := `
        INSERT INTO product_images (id, product_id, url, alt_text, sort_order, is_main, created_at, updated_at)
        VALUES (:id, :product_id, :url, :alt_text, :sort_order, :is_main, :created_at, :updated_at)
    `
	_, err := tx.NamedExecContext(ctx, query, img)
	return errors.Wrap(err, "productRepo insert image")
}

func insertServiceTx(ctx context.Context, tx *sqlx.Tx, svc *model.ProductService) error {
	query := `
        INSERT INTO product_services (id, product_id, name, description, price, created_at, updated_at)
        VALUES (:id, :product_id, :name, :description, :price, :created_at, :updated_at)
    `
	_, err := tx.NamedExecContext(ctx, query, svc)
	return errors.Wrap(err, "productRepo insert service")
}

func insertCategoryLinkTx(ctx context.Context, tx *sqlx.Tx, link *model.ProductCategory) error {
	query := `
        INSERT INTO product_categories (id, product_id, category_id, is_primary, created_at, updated_at)
        VALUES (:id, :product_id, :category_id, :is_primary, :created_at, :updated_at)
    `
	_, err := tx.NamedExecContext(ctx, query, link)
	return errors.Wrap(err, "productRepo insert category link")
}
