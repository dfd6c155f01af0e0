package catalog

import (
	"sort"
	"strings"

	"github.com/nuvora/catalog-service/internal/catalog/dto"
	"github.com/nuvora/catalog-service/internal/model"
)

// ExtractFacets summarizes the current result page. Counts add up to the
// page the caller is looking at, never the whole corpus.
func ExtractFacets(products []model.Product) *dto.Facets {
	if len(products) == 0 {
		return &dto.Facets{Specifications: []dto.SpecificationFacet{}}
	}

	facets := &dto.Facets{
		PriceRange: dto.PriceRangeFacet{
			Min: products[0].FinalPriceNett,
			Max: products[0].FinalPriceNett,
		},
		Specifications: []dto.SpecificationFacet{},
	}

	type spec struct {
		label  string
		counts map[string]int
		order  []string
	}
	specs := map[string]*spec{}
	specOrder := []string{}

	for _, p := range products {
		if p.FinalPriceNett < facets.PriceRange.Min {
			facets.PriceRange.Min = p.FinalPriceNett
		}
		if p.FinalPriceNett > facets.PriceRange.Max {
			facets.PriceRange.Max = p.FinalPriceNett
		}

		if p.InStock {
			facets.Availability.InStock++
		} else {
			facets.Availability.OutOfStock++
		}

		for _, detail := range p.CustomDetails {
			if detail.Key == "" || detail.Value == "" {
				continue
			}
			s, ok := specs[detail.Key]
			if !ok {
				s = &spec{label: specLabel(detail), counts: map[string]int{}}
				specs[detail.Key] = s
				specOrder = append(specOrder, detail.Key)
			}
			if _, seen := s.counts[detail.Value]; !seen {
				s.order = append(s.order, detail.Value)
			}
			s.counts[detail.Value]++
		}
	}

	for _, key := range specOrder {
		s := specs[key]
		values := make([]dto.SpecValueCount, 0, len(s.order))
		for _, v := range s.order {
			values = append(values, dto.SpecValueCount{Value: v, Count: s.counts[v]})
		}
		// Most frequent values first; ties keep first-seen order.
		sort.SliceStable(values, func(i, j int) bool { return values[i].Count > values[j].Count })
		facets.Specifications = append(facets.Specifications, dto.SpecificationFacet{
			Key:    key,
			Label:  s.label,
			Values: values,
		})
	}
	return facets
}

func specLabel(detail model.CustomDetail) string {
	if detail.Label != "" {
		return detail.Label
	}
	words := strings.Split(strings.ReplaceAll(detail.Key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
