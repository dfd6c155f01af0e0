package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvora/catalog-service/internal/model"
)

func pageProduct(price float64, inStock bool, details ...model.CustomDetail) model.Product {
	return model.Product{
		FinalPriceNett: price,
		InStock:        inStock,
		CustomDetails:  details,
	}
}

func TestExtractFacetsEmptyPage(t *testing.T) {
	facets := ExtractFacets(nil)

	assert.Zero(t, facets.PriceRange.Min)
	assert.Zero(t, facets.PriceRange.Max)
	assert.Empty(t, facets.Specifications)
}

func TestExtractFacetsPriceRangeAndAvailability(t *testing.T) {
	page := []model.Product{
		pageProduct(19.99, true),
		pageProduct(5.50, false),
		pageProduct(120, true),
	}

	facets := ExtractFacets(page)

	assert.Equal(t, 5.50, facets.PriceRange.Min)
	assert.Equal(t, 120.0, facets.PriceRange.Max)
	assert.Equal(t, 2, facets.Availability.InStock)
	assert.Equal(t, 1, facets.Availability.OutOfStock)
	assert.Equal(t, len(page), facets.Availability.InStock+facets.Availability.OutOfStock,
		"availability counts cover the whole page")
}

func TestExtractFacetsSpecificationsGroupByKey(t *testing.T) {
	page := []model.Product{
		pageProduct(10, true,
			model.CustomDetail{Key: "color", Label: "Color", Value: "Red"},
			model.CustomDetail{Key: "display_size", Label: "Display Size", Value: "15\""}),
		pageProduct(12, true,
			model.CustomDetail{Key: "color", Label: "Color", Value: "Red"}),
		pageProduct(14, true,
			model.CustomDetail{Key: "color", Label: "Color", Value: "Blue"}),
	}

	facets := ExtractFacets(page)

	require.Len(t, facets.Specifications, 2)
	color := facets.Specifications[0]
	assert.Equal(t, "color", color.Key)
	assert.Equal(t, "Color", color.Label)
	require.Len(t, color.Values, 2)
	assert.Equal(t, "Red", color.Values[0].Value, "most frequent value first")
	assert.Equal(t, 2, color.Values[0].Count)
	assert.Equal(t, "Blue", color.Values[1].Value)
	assert.Equal(t, 1, color.Values[1].Count)
}

func TestExtractFacetsSkipsEmptyDetails(t *testing.T) {
	page := []model.Product{
		pageProduct(10, true,
			model.CustomDetail{Key: "", Label: "Broken", Value: "x"},
			model.CustomDetail{Key: "material", Label: "", Value: "Steel"}),
	}

	facets := ExtractFacets(page)

	require.Len(t, facets.Specifications, 1)
	assert.Equal(t, "material", facets.Specifications[0].Key)
	assert.Equal(t, "Material", facets.Specifications[0].Label, "label falls back to a title-cased key")
}
