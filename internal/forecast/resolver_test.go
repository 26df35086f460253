package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

type fakeCatalog struct {
	discounts              []domain.Discount
	skuMappings            map[int64][]int64 // product -> discounts
	categoryMappings       map[int64][]int64 // discount -> categories
	manufacturerMappings   map[int64][]int64 // discount -> manufacturers
	manufacturersByProduct map[int64][]int64
	childCategories        map[int64][]int64
	productsByCategory     map[int64][]int64

	skuQueriedWith []int64
}

func (f *fakeCatalog) ListDiscounts(context.Context, bool) ([]domain.Discount, error) {
	return f.discounts, nil
}

func (f *fakeCatalog) SKUDiscountMappings(_ context.Context, productIDs []int64) (map[int64][]int64, error) {
	f.skuQueriedWith = productIDs
	out := make(map[int64][]int64)
	for _, pid := range productIDs {
		if ds, ok := f.skuMappings[pid]; ok {
			out[pid] = ds
		}
	}
	return out, nil
}

func (f *fakeCatalog) CategoryDiscountMappings(_ context.Context, discountIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64)
	for _, did := range discountIDs {
		if cs, ok := f.categoryMappings[did]; ok {
			out[did] = cs
		}
	}
	return out, nil
}

func (f *fakeCatalog) ManufacturerDiscountMappings(_ context.Context, discountIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64)
	for _, did := range discountIDs {
		if ms, ok := f.manufacturerMappings[did]; ok {
			out[did] = ms
		}
	}
	return out, nil
}

func (f *fakeCatalog) ManufacturerIDsByProducts(_ context.Context, productIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64)
	for _, pid := range productIDs {
		if ms, ok := f.manufacturersByProduct[pid]; ok {
			out[pid] = ms
		}
	}
	return out, nil
}

func (f *fakeCatalog) ChildCategoryIDs(_ context.Context, parentID int64) ([]int64, error) {
	return f.childCategories[parentID], nil
}

func (f *fakeCatalog) ProductIDsByCategories(_ context.Context, categoryIDs []int64) ([]int64, error) {
	seen := make(map[int64]struct{})
	var out []int64
	for _, cid := range categoryIDs {
		for _, pid := range f.productsByCategory[cid] {
			if _, ok := seen[pid]; ok {
				continue
			}
			seen[pid] = struct{}{}
			out = append(out, pid)
		}
	}
	return out, nil
}

func resolverWindow() Window {
	return Window{
		From:  ts("2026-03-11T00:00:00Z"),
		Until: ts("2026-03-25T00:00:00Z"),
		Days:  14,
	}
}

func TestResolveEveryProductPresent(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{}
	products := []domain.Product{{ID: 1}, {ID: 2}}

	index, err := NewResolver(catalog).Resolve(context.Background(), products, resolverWindow())
	require.NoError(t, err)

	require.Len(t, index, 2)
	assert.NotNil(t, index[1])
	assert.Empty(t, index[1])
	assert.NotNil(t, index[2])
	assert.Empty(t, index[2])
}

func TestResolveSKUDiscounts(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		discounts: []domain.Discount{
			{ID: 10, Type: domain.DiscountToSKU},
		},
		skuMappings: map[int64][]int64{1: {10}, 2: {10}},
	}
	// Product 2 also has a mapping row but is not flagged, so it is
	// never even queried.
	products := []domain.Product{
		{ID: 1, HasDiscounts: true},
		{ID: 2, HasDiscounts: false},
	}

	index, err := NewResolver(catalog).Resolve(context.Background(), products, resolverWindow())
	require.NoError(t, err)

	require.Len(t, index[1], 1)
	assert.Equal(t, int64(10), index[1][0].ID)
	assert.Empty(t, index[2])
	assert.Equal(t, []int64{1}, catalog.skuQueriedWith)
}

func TestResolveFiltersByWindow(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		discounts: []domain.Discount{
			{ID: 10, Type: domain.DiscountToSKU, EndUTC: tsp("2026-03-01T00:00:00Z")},
			{ID: 11, Type: domain.DiscountToSKU, StartUTC: tsp("2026-04-01T00:00:00Z")},
			{ID: 12, Type: domain.DiscountToSKU, StartUTC: tsp("2026-03-20T00:00:00Z")},
		},
		skuMappings: map[int64][]int64{1: {10, 11, 12}},
	}
	products := []domain.Product{{ID: 1, HasDiscounts: true}}

	index, err := NewResolver(catalog).Resolve(context.Background(), products, resolverWindow())
	require.NoError(t, err)

	require.Len(t, index[1], 1, "only the discount intersecting the window survives")
	assert.Equal(t, int64(12), index[1][0].ID)
}

func TestResolveCategoryWithSubCategories(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		discounts: []domain.Discount{
			{ID: 20, Type: domain.DiscountToCategory, AppliedToSubCategories: true},
			{ID: 21, Type: domain.DiscountToCategory},
		},
		categoryMappings:   map[int64][]int64{20: {1}, 21: {1}},
		childCategories:    map[int64][]int64{1: {2}},
		productsByCategory: map[int64][]int64{2: {7}},
	}
	// Product 7 is assigned only to the child category.
	products := []domain.Product{{ID: 7}}

	index, err := NewResolver(catalog).Resolve(context.Background(), products, resolverWindow())
	require.NoError(t, err)

	require.Len(t, index[7], 1, "only the propagating discount reaches the child")
	assert.Equal(t, int64(20), index[7][0].ID)
}

func TestResolveManufacturerDiscounts(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		discounts: []domain.Discount{
			{ID: 30, Type: domain.DiscountToManufacturer},
		},
		manufacturerMappings:   map[int64][]int64{30: {100}},
		manufacturersByProduct: map[int64][]int64{1: {100}, 2: {200}},
	}
	products := []domain.Product{{ID: 1}, {ID: 2}}

	index, err := NewResolver(catalog).Resolve(context.Background(), products, resolverWindow())
	require.NoError(t, err)

	require.Len(t, index[1], 1)
	assert.Equal(t, int64(30), index[1][0].ID)
	assert.Empty(t, index[2])
}

func TestResolveOrderLevelAppliesToAll(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		discounts: []domain.Discount{
			{ID: 40, Type: domain.DiscountToOrderTotal},
			{ID: 41, Type: domain.DiscountToOrderSubTotal},
			{ID: 10, Type: domain.DiscountToSKU},
		},
		skuMappings: map[int64][]int64{1: {10}},
	}
	products := []domain.Product{
		{ID: 1, HasDiscounts: true},
		{ID: 2},
	}

	index, err := NewResolver(catalog).Resolve(context.Background(), products, resolverWindow())
	require.NoError(t, err)

	ids := func(ds []domain.Discount) []int64 {
		out := make([]int64, len(ds))
		for i, d := range ds {
			out[i] = d.ID
		}
		return out
	}

	assert.ElementsMatch(t, []int64{10, 40, 41}, ids(index[1]))
	assert.ElementsMatch(t, []int64{40, 41}, ids(index[2]), "order-level discounts reach undiscounted products too")
}

func TestResolvePreservesDuplicates(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{
		discounts: []domain.Discount{
			{ID: 10, Type: domain.DiscountToSKU},
		},
		skuMappings: map[int64][]int64{1: {10, 10}},
	}
	products := []domain.Product{{ID: 1, HasDiscounts: true}}

	index, err := NewResolver(catalog).Resolve(context.Background(), products, resolverWindow())
	require.NoError(t, err)

	assert.Len(t, index[1], 2, "denormalized duplicate assignments are kept")
}
