package catalog

import (
	"math"

	"github.com/nuvora/catalog-service/internal/catalog/dto"
	"github.com/nuvora/catalog-service/internal/model"
)

// Deal tiers, best first. Flag overrides outrank the discount bands: a
// product flagged as special offer or on sale carries its flag tier
// regardless of how deep the discount is.
const (
	TierSpecialOffer = "special_offer"
	TierFlashSale    = "flash_sale"
	TierMega         = "mega_deal"
	TierSuper        = "super_deal"
	TierGreat        = "great_deal"
	TierGood         = "good_deal"
	TierStandard     = "standard"
)

// ScoreRecommendation rates how well candidate fits next to base. Shared
// categories dominate, price similarity and a shared owner help, badges give
// the final nudge. Reasons accumulate in scoring order.
func ScoreRecommendation(base, candidate *model.Product, baseCategories, candidateCategories []model.ProductCategory) (int, []string) {
	score := 0
	reasons := []string{}

	basePrimary := primaryCategoryID(baseCategories)
	baseSet := map[string]bool{}
	for _, link := range baseCategories {
		baseSet[link.CategoryID] = true
	}

	shared := 0
	primaryShared := false
	for _, link := range candidateCategories {
		if !baseSet[link.CategoryID] {
			continue
		}
		shared++
		if link.CategoryID == basePrimary && basePrimary != "" {
			primaryShared = true
		}
	}
	if shared > 0 {
		score += 15 * shared
		reasons = append(reasons, "same category")
	}
	if primaryShared {
		score += 25
		reasons = append(reasons, "same primary category")
	}

	if base.FinalPriceNett > 0 && candidate.FinalPriceNett > 0 {
		ratio := candidate.FinalPriceNett / base.FinalPriceNett
		switch {
		case ratio >= 0.8 && ratio <= 1.2:
			score += 15
			reasons = append(reasons, "similar price")
		case ratio >= 0.5 && ratio <= 1.5:
			score += 10
			reasons = append(reasons, "comparable price")
		}
	}

	if base.CompanyID != nil && candidate.CompanyID != nil && *base.CompanyID == *candidate.CompanyID {
		score += 20
		reasons = append(reasons, "same brand")
	}

	if candidate.Featured {
		score += 15
		reasons = append(reasons, "featured")
	}
	if candidate.TopSeller {
		score += 10
		reasons = append(reasons, "top seller")
	}
	if candidate.IsOnSale {
		score += 10
		reasons = append(reasons, "on sale")
	}
	if candidate.MarkAsNew {
		score += 5
		reasons = append(reasons, "new arrival")
	}
	if candidate.ShippingFree {
		score += 5
		reasons = append(reasons, "free shipping")
	}

	return score, reasons
}

// RecommendationLess orders equal-score recommendations: featured first,
// then top sellers, then the newest product.
func RecommendationLess(a, b *dto.Recommendation) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Product.Featured != b.Product.Featured {
		return a.Product.Featured
	}
	if a.Product.TopSeller != b.Product.TopSeller {
		return a.Product.TopSeller
	}
	return a.Product.CreatedAt.After(b.Product.CreatedAt)
}

func primaryCategoryID(links []model.ProductCategory) string {
	for _, link := range links {
		if link.IsPrimary {
			return link.CategoryID
		}
	}
	if len(links) > 0 {
		return links[0].CategoryID
	}
	return ""
}

// ClassifyFlashDeal derives the deal facts purely from the stored pricing
// block; it never recomputes prices.
func ClassifyFlashDeal(p *model.Product) dto.FlashDeal {
	deal := dto.FlashDeal{
		Product:      *p,
		SavingsNett:  round2(p.RegularPriceNett - p.FinalPriceNett),
		SavingsGross: round2(p.RegularPriceGross - p.FinalPriceGross),
	}
	deal.QualityScore = dealQualityScore(p.DiscountPctNett, deal.SavingsNett)

	switch {
	case p.IsSpecialOffer:
		deal.Tier = TierSpecialOffer
	case p.IsOnSale:
		deal.Tier = TierFlashSale
	case p.DiscountPctNett >= 70:
		deal.Tier = TierMega
	case p.DiscountPctNett >= 50:
		deal.Tier = TierSuper
	case p.DiscountPctNett >= 30:
		deal.Tier = TierGreat
	case p.DiscountPctNett >= 20:
		deal.Tier = TierGood
	default:
		deal.Tier = TierStandard
	}
	return deal
}

// dealQualityScore blends the relative discount with the absolute saving,
// capped at 100. Display ordering only; it never gates a deal.
func dealQualityScore(discountPct, savingsNett float64) int {
	score := discountPct*1.2 + savingsNett/10
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return int(math.Round(score))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
