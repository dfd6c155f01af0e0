package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nuvora/catalog-service/internal/catalog"
	"github.com/nuvora/catalog-service/internal/catalog/dto"
	"github.com/nuvora/catalog-service/internal/category"
	"github.com/nuvora/catalog-service/internal/model"
	"github.com/nuvora/catalog-service/pkg/apperrors"
	"github.com/nuvora/catalog-service/pkg/cache"
	"github.com/nuvora/catalog-service/pkg/logger"
	"github.com/nuvora/catalog-service/pkg/search"
)

const (
	listCacheTTL = 5 * time.Minute

	// recommendCandidatePool bounds how many published products the scorer
	// considers per request.
	recommendCandidatePool = 100
)

type catalogUseCase struct {
	repo       catalog.Repository
	categories category.Repository
	cache      *cache.RedisClient
	es         *search.Client
	logger     logger.ZapLogger
}

func NewCatalogUseCase(repo catalog.Repository, categories category.Repository, redis *cache.RedisClient, es *search.Client, log logger.ZapLogger) catalog.UseCase {
	return &catalogUseCase{repo: repo, categories: categories, cache: redis, es: es, logger: log}
}

func (uc *catalogUseCase) ListAll(ctx context.Context, filters *dto.Filters) (*dto.ProductList, error) {
	filters.Normalize()
	return uc.listCached(ctx, filters)
}

func (uc *catalogUseCase) ByCategory(ctx context.Context, categoryID string, filters *dto.Filters) (*dto.ProductList, error) {
	if categoryID == "" {
		return nil, apperrors.NewValidation("category id is required")
	}
	filters.CategoryID = categoryID
	filters.PublishedOnly = true
	filters.Normalize()
	return uc.listCached(ctx, filters)
}

// Search goes through Elasticsearch and falls back to the database when the
// cluster is down or not configured. Pagination semantics are identical on
// both paths.
func (uc *catalogUseCase) Search(ctx context.Context, query string, filters *dto.Filters) (*dto.ProductList, error) {
	filters.Query = query
	filters.SearchCustomDetails = true
	filters.PublishedOnly = true
	filters.Normalize()

	if uc.es != nil {
		list, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return list, nil
		}
		uc.logger.Warn("search fell back to database", zap.Error(err))
	}

	products, total, err := uc.repo.Find(ctx, filters)
	if err != nil {
		return nil, apperrors.From(err)
	}
	return buildList(products, total, filters), nil
}

func (uc *catalogUseCase) searchElastic(ctx context.Context, filters *dto.Filters) (*dto.ProductList, error) {
	result, err := uc.es.Search(ctx, catalog.SearchIndex, buildSearchQuery(filters))
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return buildList(products, result.Hits.Total.Value, filters), nil
}

// buildSearchQuery translates the shared filter contract into the ES bool
// query so the ES path and the SQL fallback answer the same question. Every
// populated Filters field maps onto either the multi_match or a filter
// clause.
func buildSearchQuery(filters *dto.Filters) map[string]interface{} {
	must := []map[string]interface{}{}
	if q := strings.TrimSpace(filters.Query); q != "" {
		fields := []string{"title^3", "description", "short_description", "sku", "ean"}
		if filters.SearchCustomDetails {
			fields = append(fields, "custom_details.label", "custom_details.value")
		}
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": fields,
			},
		})
	}

	filter := []map[string]interface{}{}
	if filters.PublishedOnly {
		filter = append(filter, termClause("is_published", true), termClause("is_active", true))
	}
	if filters.Status != "" {
		filter = append(filter, termClause("status", filters.Status))
	}
	if filters.CategoryID != "" {
		filter = append(filter, termClause("categories.category_id", filters.CategoryID))
	}
	if filters.CompanyID != "" {
		filter = append(filter, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					termClause("company_id", filters.CompanyID),
					termClause("supplier_id", filters.CompanyID),
				},
				"minimum_should_match": 1,
			},
		})
	}
	if filters.PriceMin != nil || filters.PriceMax != nil {
		bounds := map[string]interface{}{}
		if filters.PriceMin != nil {
			bounds["gte"] = *filters.PriceMin
		}
		if filters.PriceMax != nil {
			bounds["lte"] = *filters.PriceMax
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"final_price_nett": bounds},
		})
	}

	flags := []struct {
		field string
		value *bool
	}{
		{"in_stock", filters.InStock},
		{"featured", filters.Featured},
		{"top_seller", filters.TopSeller},
		{"is_on_sale", filters.OnSale},
		{"mark_as_new", filters.New},
		{"is_special_offer", filters.SpecialOffer},
		{"shipping_free", filters.ShippingFree},
		{"is_discounted", filters.Discounted},
	}
	for _, f := range flags {
		if f.value != nil {
			filter = append(filter, termClause(f.field, *f.value))
		}
	}
	if filters.MinDiscount > 0 {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"discount_percentage_nett": map[string]interface{}{"gte": filters.MinDiscount},
			},
		})
	}

	return map[string]interface{}{
		"from": (filters.Page - 1) * filters.PageSize,
		"size": filters.PageSize,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}
}

func termClause(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{field: value},
	}
}

func (uc *catalogUseCase) TopNew(ctx context.Context, limit int) ([]model.Product, error) {
	isNew := true
	filters := &dto.Filters{
		New:           &isNew,
		PublishedOnly: true,
		SortBy:        dto.SortNewest,
		PageSize:      limit,
	}
	filters.Normalize()

	products, _, err := uc.repo.Find(ctx, filters)
	if err != nil {
		return nil, apperrors.From(err)
	}
	return products, nil
}

func (uc *catalogUseCase) TopFlashDeals(ctx context.Context, limit int, minDiscount float64) ([]dto.FlashDeal, error) {
	discounted := true
	filters := &dto.Filters{
		Discounted:    &discounted,
		MinDiscount:   minDiscount,
		PublishedOnly: true,
		SortBy:        dto.SortDiscount,
		PageSize:      limit,
	}
	filters.Normalize()

	products, _, err := uc.repo.Find(ctx, filters)
	if err != nil {
		return nil, apperrors.From(err)
	}

	deals := make([]dto.FlashDeal, 0, len(products))
	for i := range products {
		deals = append(deals, catalog.ClassifyFlashDeal(&products[i]))
	}
	return deals, nil
}

func (uc *catalogUseCase) FlashDeals(ctx context.Context, filters *dto.FlashDealFilters) (*dto.FlashDealList, error) {
	discounted := true
	filters.Discounted = &discounted
	filters.PublishedOnly = true
	if filters.SortBy == "" {
		filters.SortBy = dto.SortDiscount
	}
	filters.Normalize()

	products, total, err := uc.repo.Find(ctx, &filters.Filters)
	if err != nil {
		return nil, apperrors.From(err)
	}

	// Tier and quality-score filters narrow the current page after
	// classification; the pagination header keeps describing the
	// discount query underneath.
	deals := make([]dto.FlashDeal, 0, len(products))
	for i := range products {
		deal := catalog.ClassifyFlashDeal(&products[i])
		if filters.Tier != "" && deal.Tier != filters.Tier {
			continue
		}
		if filters.MinQualityScore != nil && deal.QualityScore < *filters.MinQualityScore {
			continue
		}
		deals = append(deals, deal)
	}

	totalPages := pageCount(total, filters.PageSize)
	return &dto.FlashDealList{
		Deals:       deals,
		TotalCount:  total,
		CurrentPage: filters.Page,
		TotalPages:  totalPages,
		HasMore:     filters.Page < totalPages,
	}, nil
}

func (uc *catalogUseCase) Recommend(ctx context.Context, productSlug string, limit int) ([]dto.Recommendation, error) {
	base, err := uc.repo.FindBySlug(ctx, productSlug, true)
	if err != nil {
		return nil, apperrors.From(err)
	}
	if base == nil {
		return nil, apperrors.NewNotFound("product %s not found", productSlug)
	}
	if limit < 1 {
		limit = 10
	}

	filters := &dto.Filters{
		PublishedOnly: true,
		SortBy:        dto.SortRelevance,
		PageSize:      recommendCandidatePool,
	}
	filters.Normalize()

	candidates, _, err := uc.repo.Find(ctx, filters)
	if err != nil {
		return nil, apperrors.From(err)
	}

	ids := []string{base.ID}
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	links, err := uc.repo.CategoryLinks(ctx, ids)
	if err != nil {
		return nil, apperrors.From(err)
	}

	recommendations := []dto.Recommendation{}
	for i := range candidates {
		c := &candidates[i]
		if c.ID == base.ID {
			continue
		}
		score, reasons := catalog.ScoreRecommendation(base, c, links[base.ID], links[c.ID])
		if score <= 0 {
			continue
		}
		recommendations = append(recommendations, dto.Recommendation{Product: *c, Score: score, Reasons: reasons})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return catalog.RecommendationLess(&recommendations[i], &recommendations[j])
	})
	if len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}
	return recommendations, nil
}

func (uc *catalogUseCase) GetByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.From(err)
	}
	if p == nil {
		return nil, apperrors.NewNotFound("product %s not found", id)
	}
	return p, nil
}

func (uc *catalogUseCase) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	p, err := uc.repo.FindBySlug(ctx, slug, true)
	if err != nil {
		return nil, apperrors.From(err)
	}
	if p == nil {
		return nil, apperrors.NewNotFound("product %s not found", slug)
	}
	return p, nil
}

func (uc *catalogUseCase) Categories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	categories, err := uc.categories.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.From(err)
	}
	return categories, nil
}

func (uc *catalogUseCase) listCached(ctx context.Context, filters *dto.Filters) (*dto.ProductList, error) {
	key := listCacheKey(filters)
	if cached := uc.readCache(ctx, key); cached != nil {
		return cached, nil
	}

	products, total, err := uc.repo.Find(ctx, filters)
	if err != nil {
		return nil, apperrors.From(err)
	}

	list := buildList(products, total, filters)
	uc.writeCache(ctx, key, list)
	return list, nil
}

func (uc *catalogUseCase) readCache(ctx context.Context, key string) *dto.ProductList {
	if uc.cache == nil {
		return nil
	}
	raw, err := uc.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	list := &dto.ProductList{}
	if err := json.Unmarshal(raw, list); err != nil {
		return nil
	}
	return list
}

func (uc *catalogUseCase) writeCache(ctx context.Context, key string, list *dto.ProductList) {
	if uc.cache == nil {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := uc.cache.Client.Set(ctx, key, raw, listCacheTTL).Err(); err != nil {
		uc.logger.Warn("failed to cache product list", zap.String("key", key), zap.Error(err))
	}
}

func listCacheKey(filters *dto.Filters) string {
	raw, _ := json.Marshal(filters)
	return fmt.Sprintf("%s%x", catalog.ListCachePrefix, md5.Sum(raw))
}

func buildList(products []model.Product, total int, filters *dto.Filters) *dto.ProductList {
	totalPages := pageCount(total, filters.PageSize)
	return &dto.ProductList{
		Products:    products,
		TotalCount:  total,
		CurrentPage: filters.Page,
		TotalPages:  totalPages,
		HasMore:     filters.Page < totalPages,
		Facets:      catalog.ExtractFacets(products),
	}
}

func pageCount(total, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
