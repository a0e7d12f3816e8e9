package sqldb

import (
	"context"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/jmoiron/sqlx"
)

type namedRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// catalogTable implements the list/get/create/purge shape shared by
// categories and price bands.
type catalogTable struct {
	q     sqlx.ExtContext
	table string
}

func (t catalogTable) list(ctx context.Context) ([]namedRow, error) {
	var rows []namedRow
	err := sqlx.SelectContext(ctx, t.q, &rows, `SELECT id, name FROM `+t.table+` ORDER BY id`)
	return rows, err
}

func (t catalogTable) get(ctx context.Context, id int64) (namedRow, error) {
	var row namedRow
	query := t.q.Rebind(`SELECT id, name FROM ` + t.table + ` WHERE id = ?`)
	if err := sqlx.GetContext(ctx, t.q, &row, query, id); err != nil {
		return namedRow{}, mapNotFound(err)
	}
	return row, nil
}

func (t catalogTable) create(ctx context.Context, name string) (namedRow, error) {
	row := namedRow{Name: name}
	query := t.q.Rebind(`INSERT INTO ` + t.table + ` (name) VALUES (?) RETURNING id`)
	err := sqlx.GetContext(ctx, t.q, &row.ID, query, name)
	return row, err
}

func (t catalogTable) deleteAll(ctx context.Context) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM `+t.table)
	return err
}

type categoriesRepo struct {
	q sqlx.ExtContext
}

func (r *categoriesRepo) t() catalogTable { return catalogTable{q: r.q, table: "categories"} }

func mapCategory(r namedRow) domain.Category { return domain.Category{ID: r.ID, Name: r.Name} }

func (r *categoriesRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.t().list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapCategory(row))
	}
	return out, nil
}

func (r *categoriesRepo) GetCategoryByID(ctx context.Context, id int64) (domain.Category, error) {
	row, err := r.t().get(ctx, id)
	return mapCategory(row), err
}

func (r *categoriesRepo) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	row, err := r.t().create(ctx, name)
	return mapCategory(row), err
}

func (r *categoriesRepo) DeleteAllCategories(ctx context.Context) error {
	return r.t().deleteAll(ctx)
}

type priceBandsRepo struct {
	q sqlx.ExtContext
}

func (r *priceBandsRepo) t() catalogTable { return catalogTable{q: r.q, table: "price_bands"} }

func mapPriceBand(r namedRow) domain.PriceBand { return domain.PriceBand{ID: r.ID, Name: r.Name} }

func (r *priceBandsRepo) ListPriceBands(ctx context.Context) ([]domain.PriceBand, error) {
	rows, err := r.t().list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PriceBand, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapPriceBand(row))
	}
	return out, nil
}

func (r *priceBandsRepo) GetPriceBandByID(ctx context.Context, id int64) (domain.PriceBand, error) {
	row, err := r.t().get(ctx, id)
	return mapPriceBand(row), err
}

func (r *priceBandsRepo) CreatePriceBand(ctx context.Context, name string) (domain.PriceBand, error) {
	row, err := r.t().create(ctx, name)
	return mapPriceBand(row), err
}

func (r *priceBandsRepo) DeleteAllPriceBands(ctx context.Context) error {
	return r.t().deleteAll(ctx)
}
