package store

import (
	"fmt"
	"strings"
)

const (
	// Forecast submissions routinely cover the whole catalog, so the
	// default page is large; the cap keeps a runaway query bounded.
	defaultProductLimit = 1000
	maxProductLimit     = 10000
)

const baseProductsSelect = `SELECT p.id, p.name, p.sku, p.price, p.published, p.has_discounts_applied
FROM products p`

// ToSQL builds the product search statement and its positional
// parameters from the query's filters. Deleted products are always
// excluded; results are ordered by id for stable pagination.
func (q *ProductQuery) ToSQL() (string, []any) {
	var (
		conditions []string
		args       []any
	)
	paramIdx := 1

	conditions = append(conditions, "NOT p.deleted")

	if len(q.CategoryIDs) > 0 {
		placeholders := make([]string, len(q.CategoryIDs))
		for i, id := range q.CategoryIDs {
			placeholders[i] = fmt.Sprintf("$%d", paramIdx)
			args = append(args, id)
			paramIdx++
		}
		conditions = append(conditions, fmt.Sprintf(
			"p.id IN (SELECT product_id FROM product_categories WHERE category_id IN (%s))",
			strings.Join(placeholders, ", "),
		))
	}

	if q.ManufacturerID > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"p.id IN (SELECT product_id FROM product_manufacturers WHERE manufacturer_id = $%d)",
			paramIdx,
		))
		args = append(args, q.ManufacturerID)
		paramIdx++
	}

	if q.Keywords != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(p.name ILIKE $%d OR p.sku ILIKE $%d)", paramIdx, paramIdx,
		))
		args = append(args, "%"+q.Keywords+"%")
		paramIdx++
	}

	if q.Published != nil {
		conditions = append(conditions, fmt.Sprintf("p.published = $%d", paramIdx))
		args = append(args, *q.Published)
		paramIdx++
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultProductLimit
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}

	offset := max(q.Offset, 0)

	sql := fmt.Sprintf(
		"%s WHERE %s ORDER BY p.id LIMIT %d OFFSET %d",
		baseProductsSelect,
		strings.Join(conditions, " AND "),
		limit,
		offset,
	)

	return sql, args
}
