package forecast

import (
	"context"
	"fmt"

	"github.com/majako/sales-forecaster/internal/metrics"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// Catalog is the slice of the datastore the resolver needs. It is
// satisfied by store.Store.
type Catalog interface {
	ChildCategoryIDs(ctx context.Context, parentID int64) ([]int64, error)
	ProductIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error)
	ManufacturerIDsByProducts(ctx context.Context, productIDs []int64) (map[int64][]int64, error)
	ListDiscounts(ctx context.Context, showHidden bool) ([]domain.Discount, error)
	SKUDiscountMappings(ctx context.Context, productIDs []int64) (map[int64][]int64, error)
	CategoryDiscountMappings(ctx context.Context, discountIDs []int64) (map[int64][]int64, error)
	ManufacturerDiscountMappings(ctx context.Context, discountIDs []int64) (map[int64][]int64, error)
}

// Resolver indexes discounts per product for a forecast window. It
// considers all four association axes: direct SKU assignment, category
// assignment (optionally propagated to descendant categories),
// manufacturer assignment, and order-level discounts that apply to
// every product.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a Resolver backed by the given catalog.
func NewResolver(c Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// Resolve returns the discounts applicable to each product during the
// window. Every requested product is present in the result, with an
// empty list when nothing applies. Duplicate assignments in the host
// data are preserved, not collapsed.
func (r *Resolver) Resolve(
	ctx context.Context,
	products []domain.Product,
	w Window,
) (map[int64][]domain.Discount, error) {
	// Hidden and future discounts still matter for a forward-looking
	// window, so the fetch is unfiltered and the window check is done
	// here.
	all, err := r.catalog.ListDiscounts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}

	active := make([]domain.Discount, 0, len(all))
	for _, d := range all {
		if d.ActiveDuring(w.From, w.Until) {
			active = append(active, d)
		}
	}

	index := make(map[int64][]domain.Discount, len(products))
	for i := range products {
		index[products[i].ID] = []domain.Discount{}
	}

	add := func(pid int64, d domain.Discount) {
		if _, ok := index[pid]; ok {
			index[pid] = append(index[pid], d)
		}
	}

	if err := r.resolveSKU(ctx, products, active, add); err != nil {
		return nil, err
	}
	if err := r.resolveManufacturer(ctx, products, active, add); err != nil {
		return nil, err
	}
	if err := r.resolveCategory(ctx, active, add); err != nil {
		return nil, err
	}

	// Order-level discounts apply regardless of SKU, so every product
	// gets them.
	for _, d := range active {
		if !d.Type.OrderLevel() {
			continue
		}
		for pid := range index {
			index[pid] = append(index[pid], d)
		}
	}

	for _, ds := range index {
		metrics.ResolvedDiscountsPerProduct.Observe(float64(len(ds)))
	}

	return index, nil
}

// resolveSKU joins directly assigned discounts. Only products flagged
// with the host's has-discounts marker are queried, so the association
// table is never scanned for the whole catalog.
func (r *Resolver) resolveSKU(
	ctx context.Context,
	products []domain.Product,
	active []domain.Discount,
	add func(int64, domain.Discount),
) error {
	flagged := make([]int64, 0, len(products))
	for i := range products {
		if products[i].HasDiscounts {
			flagged = append(flagged, products[i].ID)
		}
	}
	if len(flagged) == 0 {
		return nil
	}

	mappings, err := r.catalog.SKUDiscountMappings(ctx, flagged)
	if err != nil {
		return fmt.Errorf("loading product discount mappings: %w", err)
	}

	activeByID := discountsByID(active)
	for _, pid := range flagged {
		for _, did := range mappings[pid] {
			if d, ok := activeByID[did]; ok {
				add(pid, d)
			}
		}
	}
	return nil
}

func (r *Resolver) resolveManufacturer(
	ctx context.Context,
	products []domain.Product,
	active []domain.Discount,
	add func(int64, domain.Discount),
) error {
	candidates := filterByType(active, domain.DiscountToManufacturer)
	if len(candidates) == 0 {
		return nil
	}

	mappings, err := r.catalog.ManufacturerDiscountMappings(ctx, discountIDs(candidates))
	if err != nil {
		return fmt.Errorf("loading manufacturer discount mappings: %w", err)
	}

	productIDs := make([]int64, len(products))
	for i := range products {
		productIDs[i] = products[i].ID
	}
	manufacturersByProduct, err := r.catalog.ManufacturerIDsByProducts(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("loading product manufacturers: %w", err)
	}

	productsByManufacturer := make(map[int64][]int64)
	for pid, mids := range manufacturersByProduct {
		for _, mid := range mids {
			productsByManufacturer[mid] = append(productsByManufacturer[mid], pid)
		}
	}

	for _, d := range candidates {
		for _, mid := range mappings[d.ID] {
			for _, pid := range productsByManufacturer[mid] {
				add(pid, d)
			}
		}
	}
	return nil
}

func (r *Resolver) resolveCategory(
	ctx context.Context,
	active []domain.Discount,
	add func(int64, domain.Discount),
) error {
	candidates := filterByType(active, domain.DiscountToCategory)
	if len(candidates) == 0 {
		return nil
	}

	mappings, err := r.catalog.CategoryDiscountMappings(ctx, discountIDs(candidates))
	if err != nil {
		return fmt.Errorf("loading category discount mappings: %w", err)
	}

	for _, d := range candidates {
		categoryIDs := mappings[d.ID]
		if len(categoryIDs) == 0 {
			continue
		}

		// Descendants are expanded before the product join when the
		// discount propagates to sub-categories.
		if d.AppliedToSubCategories {
			expanded := make([]int64, 0, len(categoryIDs))
			for _, cid := range categoryIDs {
				expanded = append(expanded, cid)
				children, err := r.catalog.ChildCategoryIDs(ctx, cid)
				if err != nil {
					return fmt.Errorf("expanding category %d: %w", cid, err)
				}
				expanded = append(expanded, children...)
			}
			categoryIDs = expanded
		}

		pids, err := r.catalog.ProductIDsByCategories(ctx, categoryIDs)
		if err != nil {
			return fmt.Errorf("loading category products: %w", err)
		}
		for _, pid := range pids {
			add(pid, d)
		}
	}
	return nil
}

func filterByType(ds []domain.Discount, t domain.DiscountType) []domain.Discount {
	out := make([]domain.Discount, 0, len(ds))
	for _, d := range ds {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

func discountIDs(ds []domain.Discount) []int64 {
	ids := make([]int64, len(ds))
	for i := range ds {
		ids[i] = ds[i].ID
	}
	return ids
}

func discountsByID(ds []domain.Discount) map[int64]domain.Discount {
	byID := make(map[int64]domain.Discount, len(ds))
	for _, d := range ds {
		byID[d.ID] = d
	}
	return byID
}
