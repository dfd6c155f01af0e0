package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nuvora/catalog-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ProductExists(ctx context.Context, productID string) (bool, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM products WHERE id = $1`, productID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PGRepository) FindByProduct(ctx context.Context, productID string) ([]model.CustomOption, error) {
	var options []model.CustomOption
	query := `SELECT * FROM custom_options WHERE product_id = $1 ORDER BY sort_order ASC, id ASC`
	if err := r.DB.SelectContext(ctx, &options, query, productID); err != nil {
		return nil, err
	}

	for i := range options {
		values, err := r.findValues(ctx, options[i].ID)
		if err != nil {
			return nil, err
		}
		options[i].Values = values
	}
	return options, nil
}

func (r *PGRepository) FindByID(ctx context.Context, optionID string) (*model.CustomOption, error) {
	var option model.CustomOption
	query := `SELECT * FROM custom_options WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &option, query, optionID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	values, err := r.findValues(ctx, option.ID)
	if err != nil {
		return nil, err
	}
	option.Values = values
	return &option, nil
}

func (r *PGRepository) FindValue(ctx context.Context, optionID, valueID string) (*model.CustomOptionValue, error) {
	var value model.CustomOptionValue
	query := `SELECT * FROM custom_option_values WHERE id = $1 AND option_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &value, query, valueID, optionID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &value, nil
}

func (r *PGRepository) findValues(ctx context.Context, optionID string) ([]model.CustomOptionValue, error) {
	var values []model.CustomOptionValue
	query := `SELECT * FROM custom_option_values WHERE option_id = $1 ORDER BY sort_order ASC, id ASC`
	if err := r.DB.SelectContext(ctx, &values, query, optionID); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *PGRepository) CreateForProduct(ctx context.Context, options []model.CustomOption) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "optionRepo.CreateForProduct begin")
	}
	defer tx.Rollback()

	for i := range options {
		if err := InsertOptionTx(ctx, tx, &options[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PGRepository) ReplaceForProduct(ctx context.Context, productID string, options []model.CustomOption) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "optionRepo.ReplaceForProduct begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM custom_option_values
		WHERE option_id IN (SELECT id FROM custom_options WHERE product_id = $1)
	`, productID)
	if err != nil {
		return errors.Wrap(err, "optionRepo.ReplaceForProduct delete values")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM custom_options WHERE product_id = $1`, productID); err != nil {
		return errors.Wrap(err, "optionRepo.ReplaceForProduct delete options")
	}

	for i := range options {
		if err := InsertOptionTx(ctx, tx, &options[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PGRepository) ReplaceOne(ctx context.Context, option *model.CustomOption) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "optionRepo.ReplaceOne begin")
	}
	defer tx.Rollback()

	query := `
        UPDATE custom_options
        SET name = :name,
            type = :type,
            required = :required,
            sort_order = :sort_order,
            affects_price = :affects_price,
            base_modifier = :base_modifier,
            updated_at = :updated_at
        WHERE id = :id
    `
	if _, err := tx.NamedExecContext(ctx, query, option); err != nil {
		return errors.Wrap(err, "optionRepo.ReplaceOne update")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM custom_option_values WHERE option_id = $1`, option.ID); err != nil {
		return errors.Wrap(err, "optionRepo.ReplaceOne delete values")
	}
	for i := range option.Values {
		if err := insertValueTx(ctx, tx, &option.Values[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PGRepository) Delete(ctx context.Context, optionID string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "optionRepo.Delete begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM custom_option_values WHERE option_id = $1`, optionID); err != nil {
		return errors.Wrap(err, "optionRepo.Delete values")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM custom_options WHERE id = $1`, optionID); err != nil {
		return errors.Wrap(err, "optionRepo.Delete option")
	}

	return tx.Commit()
}

func (r *PGRepository) UpdateValueImage(ctx context.Context, valueID, url string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE custom_option_values SET image_url = $1, updated_at = NOW() WHERE id = $2`, url, valueID)
	return errors.Wrap(err, "optionRepo.UpdateValueImage")
}

// InsertOptionTx inserts one option and its values inside the caller's
// transaction. The product repository reuses it so the create pipeline can
// persist the whole aggregate atomically.
func InsertOptionTx(ctx context.Context, tx *sqlx.Tx, option *model.CustomOption) error {
	query := `
        INSERT INTO custom_options (
            id, product_id, name, type, required, sort_order,
            affects_price, base_modifier, created_at, updated_at
        )
        VALUES (
            :id, :product_id, :name, :type, :required, :sort_order,
            :affects_price, :base_modifier, :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, query, option); err != nil {
		return errors.Wrap(err, "optionRepo insert option")
	}
	for i := range option.Values {
		if err := insertValueTx(ctx, tx, &option.Values[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertValueTx(ctx context.Context, tx *sqlx.Tx, value *model.CustomOptionValue) error {
	query := `
        INSERT INTO custom_option_values (
            id, option_id, value, display_name, sort_order, is_default,
            price_modifier, modifier_type, image_url, stock_quantity, in_stock,
            created_at, updated_at
        )
        VALUES (
            :id, :option_id, :value, :display_name, :sort_order, :is_default,
            :price_modifier, :modifier_type, :image_url, :stock_quantity, :in_stock,
            :created_at, :updated_at
        )
    `
	_, err := tx.NamedExecContext(ctx, query, value)
	return errors.Wrap(err, "optionRepo insert value")
}
