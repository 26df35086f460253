package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

func TestBuildRequest(t *testing.T) {
	t.Parallel()

	sales := []domain.Sale{{ProductID: "1", Quantity: 2}}
	discounts := map[string]float64{"1": 0.1}

	t.Run("without quantile", func(t *testing.T) {
		t.Parallel()

		req := BuildRequest(sales, 14, discounts, 0)

		assert.Equal(t, sales, req.Data)
		assert.Equal(t, 14, req.Period)
		assert.Equal(t, discounts, req.Discounts)
		assert.Nil(t, req.Quantiles)
	})

	t.Run("quantile percentile becomes a fraction", func(t *testing.T) {
		t.Parallel()

		req := BuildRequest(sales, 14, discounts, 90)
		require.Len(t, req.Quantiles, 1)
		assert.InDelta(t, 0.9, req.Quantiles[0], 1e-9)
	})
}

func TestMapResponse(t *testing.T) {
	t.Parallel()

	products := []domain.Product{
		{ID: 1, Name: "Alpha", SKU: "A-1"},
		{ID: 2, Name: "Beta", SKU: "B-2"},
		{ID: 3, Name: "Gamma", SKU: "G-3"},
	}
	predictions := []domain.Prediction{
		{ProductID: "1", Quantity: 12, Quantiles: []int{20}},
		{ProductID: "3", Quantity: 4},
	}

	results := MapResponse(products, predictions)

	require.Len(t, results, 3, "result cardinality always matches the product set")

	assert.Equal(t, "1", results[0].ProductID)
	assert.Equal(t, "Alpha", results[0].Name)
	assert.Equal(t, 12, results[0].Prediction)
	assert.Equal(t, 20, results[0].QuantilePrediction)

	assert.Equal(t, "2", results[1].ProductID)
	assert.Equal(t, 0, results[1].Prediction, "missing prediction fills zero")
	assert.Equal(t, 0, results[1].QuantilePrediction)

	assert.Equal(t, 4, results[2].Prediction)
	assert.Equal(t, 4, results[2].QuantilePrediction, "quantile mirrors the point prediction when absent")
}

func TestMapResponseEmptyPredictions(t *testing.T) {
	t.Parallel()

	products := []domain.Product{{ID: 1, Name: "Alpha"}}

	results := MapResponse(products, nil)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Prediction)
}
