package usecase

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvora/catalog-service/internal/catalog"
	"github.com/nuvora/catalog-service/internal/catalog/dto"
	"github.com/nuvora/catalog-service/internal/model"
	"github.com/nuvora/catalog-service/pkg/apperrors"
	"github.com/nuvora/catalog-service/pkg/logger"
)

// fakeRepo applies the filter contract in memory the way the SQL layer
// does: conjunctive filters, whitelist sorts, page slicing.
type fakeRepo struct {
	products []model.Product
	links    map[string][]model.ProductCategory
	finds    int
}

func (r *fakeRepo) Find(_ context.Context, filters *dto.Filters) ([]model.Product, int, error) {
	r.finds++

	matched := []model.Product{}
	for _, p := range r.products {
		if filters.PublishedOnly && (!p.IsPublished || !p.IsActive) {
			continue
		}
		if filters.New != nil && p.MarkAsNew != *filters.New {
			continue
		}
		if filters.Discounted != nil && p.IsDiscounted != *filters.Discounted {
			continue
		}
		if filters.MinDiscount > 0 && p.DiscountPctNett < filters.MinDiscount {
			continue
		}
		if filters.CategoryID != "" && !r.linked(p.ID, filters.CategoryID) {
			continue
		}
		matched = append(matched, p)
	}

	switch filters.SortBy {
	case dto.SortNewest:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	case dto.SortDiscount:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].DiscountPctNett > matched[j].DiscountPctNett
		})
	}

	total := len(matched)
	start := (filters.Page - 1) * filters.PageSize
	if start > total {
		start = total
	}
	end := start + filters.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeRepo) linked(productID, categoryID string) bool {
	for _, link := range r.links[productID] {
		if link.CategoryID == categoryID {
			return true
		}
	}
	return false
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	for i := range r.products {
		if r.products[i].ID == id {
			copied := r.products[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindBySlug(_ context.Context, slug string, publishedOnly bool) (*model.Product, error) {
	for i := range r.products {
		p := r.products[i]
		if p.Slug != slug {
			continue
		}
		if publishedOnly && (!p.IsPublished || !p.IsActive) {
			return nil, nil
		}
		copied := p
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeRepo) CategoryLinks(_ context.Context, productIDs []string) (map[string][]model.ProductCategory, error) {
	out := map[string][]model.ProductCategory{}
	for _, id := range productIDs {
		if links, ok := r.links[id]; ok {
			out[id] = links
		}
	}
	return out, nil
}

func published(id, slug string, price float64) model.Product {
	return model.Product{
		BaseModel:      model.BaseModel{ID: id, CreatedAt: time.Now()},
		Slug:           slug,
		Title:          slug,
		IsPublished:    true,
		IsActive:       true,
		InStock:        true,
		FinalPriceNett: price,
	}
}

type fakeCategoryRepo struct {
	categories []model.Category
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, id string) (*model.Category, error) {
	for i := range r.categories {
		if r.categories[i].ID == id {
			copied := r.categories[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCategoryRepo) FindByIDs(_ context.Context, ids []string) ([]model.Category, error) {
	out := []model.Category{}
	for _, id := range ids {
		if c, _ := r.FindByID(context.Background(), id); c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) FindAll(_ context.Context, activeOnly bool) ([]model.Category, error) {
	out := []model.Category{}
	for _, c := range r.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func newUC(repo *fakeRepo) catalog.UseCase {
	return newUCWithCategories(repo, &fakeCategoryRepo{})
}

func newUCWithCategories(repo *fakeRepo, categories *fakeCategoryRepo) catalog.UseCase {
	log := logger.NewZapLogger(&logger.ZapLoggerConfig{Level: "fatal", Encoding: "json", DisableCaller: true, DisableStacktrace: true})
	return NewCatalogUseCase(repo, categories, nil, nil, log)
}

func TestListAllPaginationHeader(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 45; i++ {
		repo.products = append(repo.products, published(string(rune('a'+i)), "p", 10))
	}
	uc := newUC(repo)

	list, err := uc.ListAll(context.Background(), &dto.Filters{Page: 2, PageSize: 20})
	require.NoError(t, err)

	assert.Len(t, list.Products, 20)
	assert.Equal(t, 45, list.TotalCount)
	assert.Equal(t, 2, list.CurrentPage)
	assert.Equal(t, 3, list.TotalPages)
	assert.True(t, list.HasMore)
	require.NotNil(t, list.Facets)
	assert.Equal(t, 20, list.Facets.Availability.InStock+list.Facets.Availability.OutOfStock,
		"facets describe the page, not the corpus")
}

func TestListAllLastPageHasNoMore(t *testing.T) {
	repo := &fakeRepo{products: []model.Product{published("p1", "one", 10)}}
	uc := newUC(repo)

	list, err := uc.ListAll(context.Background(), &dto.Filters{})
	require.NoError(t, err)

	assert.Equal(t, 1, list.CurrentPage)
	assert.Equal(t, 1, list.TotalPages)
	assert.False(t, list.HasMore)
}

func TestByCategoryRequiresID(t *testing.T) {
	uc := newUC(&fakeRepo{})
	_, err := uc.ByCategory(context.Background(), "", &dto.Filters{})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestByCategoryFiltersAndHidesUnpublished(t *testing.T) {
	hidden := published("p2", "two", 10)
	hidden.IsPublished = false
	repo := &fakeRepo{
		products: []model.Product{published("p1", "one", 10), hidden},
		links: map[string][]model.ProductCategory{
			"p1": {{ProductID: "p1", CategoryID: "cat-1", IsPrimary: true}},
			"p2": {{ProductID: "p2", CategoryID: "cat-1", IsPrimary: true}},
		},
	}
	uc := newUC(repo)

	list, err := uc.ByCategory(context.Background(), "cat-1", &dto.Filters{})
	require.NoError(t, err)

	require.Len(t, list.Products, 1)
	assert.Equal(t, "p1", list.Products[0].ID)
}

func TestSearchFallsBackToDatabaseWithoutElastic(t *testing.T) {
	repo := &fakeRepo{products: []model.Product{published("p1", "one", 10)}}
	uc := newUC(repo)

	list, err := uc.Search(context.Background(), "one", &dto.Filters{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.finds, "no elastic client means a direct database query")
	assert.Len(t, list.Products, 1)
}

func TestTopNewOnlyNewProducts(t *testing.T) {
	fresh := published("p1", "fresh", 10)
	fresh.MarkAsNew = true
	stale := published("p2", "stale", 10)
	repo := &fakeRepo{products: []model.Product{stale, fresh}}
	uc := newUC(repo)

	products, err := uc.TopNew(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
}

func TestTopFlashDealsClassifiesAndOrders(t *testing.T) {
	deep := published("p1", "deep", 40)
	deep.IsDiscounted = true
	deep.DiscountPctNett = 60
	deep.RegularPriceNett = 100
	shallow := published("p2", "shallow", 19)
	shallow.IsDiscounted = true
	shallow.DiscountPctNett = 5
	shallow.RegularPriceNett = 20
	full := published("p3", "full", 30)
	repo := &fakeRepo{products: []model.Product{shallow, deep, full}}
	uc := newUC(repo)

	deals, err := uc.TopFlashDeals(context.Background(), 10, 0)
	require.NoError(t, err)

	require.Len(t, deals, 2, "undiscounted products never appear")
	assert.Equal(t, "p1", deals[0].Product.ID, "deepest discount first")
	assert.Equal(t, catalog.TierSuper, deals[0].Tier)
	assert.Equal(t, 60.0, deals[0].SavingsNett)
}

func TestFlashDealsTierFilterNarrowsPage(t *testing.T) {
	deep := published("p1", "deep", 40)
	deep.IsDiscounted = true
	deep.DiscountPctNett = 60
	deep.RegularPriceNett = 100
	shallow := published("p2", "shallow", 19)
	shallow.IsDiscounted = true
	shallow.DiscountPctNett = 5
	shallow.RegularPriceNett = 20
	repo := &fakeRepo{products: []model.Product{deep, shallow}}
	uc := newUC(repo)

	list, err := uc.FlashDeals(context.Background(), &dto.FlashDealFilters{Tier: catalog.TierSuper})
	require.NoError(t, err)

	require.Len(t, list.Deals, 1)
	assert.Equal(t, "p1", list.Deals[0].Product.ID)
	assert.Equal(t, 2, list.TotalCount, "the header still describes the discount query")
}

func TestRecommendRanksByCategoryOverlap(t *testing.T) {
	base := published("base", "base-product", 100)
	sibling := published("sib", "sibling", 95)
	stranger := published("str", "stranger", 100)
	repo := &fakeRepo{
		products: []model.Product{base, stranger, sibling},
		links: map[string][]model.ProductCategory{
			"base": {{ProductID: "base", CategoryID: "cat-1", IsPrimary: true}},
			"sib":  {{ProductID: "sib", CategoryID: "cat-1", IsPrimary: true}},
		},
	}
	uc := newUC(repo)

	recs, err := uc.Recommend(context.Background(), "base-product", 10)
	require.NoError(t, err)

	require.NotEmpty(t, recs)
	assert.Equal(t, "sib", recs[0].Product.ID)
	for _, rec := range recs {
		assert.NotEqual(t, "base", rec.Product.ID, "the base product never recommends itself")
		assert.Positive(t, rec.Score)
	}
}

func TestRecommendUnknownSlug(t *testing.T) {
	uc := newUC(&fakeRepo{})
	_, err := uc.Recommend(context.Background(), "missing", 5)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestGetBySlugHidesUnpublished(t *testing.T) {
	hidden := published("p1", "draft", 10)
	hidden.IsPublished = false
	repo := &fakeRepo{products: []model.Product{hidden}}
	uc := newUC(repo)

	_, err := uc.GetBySlug(context.Background(), "draft")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestCategoriesActiveOnly(t *testing.T) {
	categories := &fakeCategoryRepo{categories: []model.Category{
		{BaseModel: model.BaseModel{ID: "cat-1"}, Name: "Laptops", IsActive: true},
		{BaseModel: model.BaseModel{ID: "cat-2"}, Name: "Legacy", IsActive: false},
	}}
	uc := newUCWithCategories(&fakeRepo{}, categories)

	active, err := uc.Categories(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "cat-1", active[0].ID)

	all, err := uc.Categories(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetByIDReturnsDrafts(t *testing.T) {
	hidden := published("p1", "draft", 10)
	hidden.IsPublished = false
	repo := &fakeRepo{products: []model.Product{hidden}}
	uc := newUC(repo)

	p, err := uc.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}

func searchFilterClauses(t *testing.T, query map[string]interface{}) []map[string]interface{} {
	t.Helper()
	boolQuery, ok := query["query"].(map[string]interface{})["bool"].(map[string]interface{})
	require.True(t, ok)
	clauses, ok := boolQuery["filter"].([]map[string]interface{})
	require.True(t, ok)
	return clauses
}

func TestBuildSearchQueryMatchesCustomDetails(t *testing.T) {
	filters := &dto.Filters{Query: "aluminium", SearchCustomDetails: true}
	filters.Normalize()

	query := buildSearchQuery(filters)
	boolQuery := query["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]map[string]interface{})
	require.Len(t, must, 1)

	fields := must[0]["multi_match"].(map[string]interface{})["fields"].([]string)
	assert.Contains(t, fields, "custom_details.label")
	assert.Contains(t, fields, "custom_details.value")
	assert.Contains(t, fields, "title^3")

	plain := buildSearchQuery(&dto.Filters{Query: "aluminium", Page: 1, PageSize: 20})
	plainMust := plain["query"].(map[string]interface{})["bool"].(map[string]interface{})["must"].([]map[string]interface{})
	plainFields := plainMust[0]["multi_match"].(map[string]interface{})["fields"].([]string)
	assert.NotContains(t, plainFields, "custom_details.label")
}

func TestBuildSearchQueryTranslatesFilters(t *testing.T) {
	priceMin := 50.0
	priceMax := 200.0
	inStock := true
	featured := true
	filters := &dto.Filters{
		Query:         "stand",
		CategoryID:    "cat-1",
		CompanyID:     "co-1",
		PriceMin:      &priceMin,
		PriceMax:      &priceMax,
		InStock:       &inStock,
		Featured:      &featured,
		MinDiscount:   30,
		PublishedOnly: true,
		Status:        "active",
		Page:          2,
		PageSize:      10,
	}
	filters.Normalize()

	query := buildSearchQuery(filters)
	assert.Equal(t, 10, query["from"])
	assert.Equal(t, 10, query["size"])

	clauses := searchFilterClauses(t, query)

	var terms []map[string]interface{}
	var ranges []map[string]interface{}
	var shoulds []map[string]interface{}
	for _, c := range clauses {
		if term, ok := c["term"].(map[string]interface{}); ok {
			terms = append(terms, term)
		}
		if rng, ok := c["range"].(map[string]interface{}); ok {
			ranges = append(ranges, rng)
		}
		if nested, ok := c["bool"].(map[string]interface{}); ok {
			shoulds = append(shoulds, nested)
		}
	}

	wantTerms := map[string]interface{}{
		"is_published":           true,
		"is_active":              true,
		"status":                 "active",
		"categories.category_id": "cat-1",
		"in_stock":               true,
		"featured":               true,
	}
	for field, want := range wantTerms {
		found := false
		for _, term := range terms {
			if got, ok := term[field]; ok {
				assert.Equal(t, want, got, field)
				found = true
			}
		}
		assert.True(t, found, "missing term clause for %s", field)
	}

	require.Len(t, ranges, 2)
	priceRange := ranges[0]["final_price_nett"].(map[string]interface{})
	assert.Equal(t, 50.0, priceRange["gte"])
	assert.Equal(t, 200.0, priceRange["lte"])
	discountRange := ranges[1]["discount_percentage_nett"].(map[string]interface{})
	assert.Equal(t, 30.0, discountRange["gte"])

	require.Len(t, shoulds, 1)
	owner := shoulds[0]["should"].([]map[string]interface{})
	require.Len(t, owner, 2)
	assert.Equal(t, "co-1", owner[0]["term"].(map[string]interface{})["company_id"])
	assert.Equal(t, "co-1", owner[1]["term"].(map[string]interface{})["supplier_id"])
}

func TestBuildSearchQueryOmitsEmptyFilters(t *testing.T) {
	filters := &dto.Filters{Query: "stand"}
	filters.Normalize()

	query := buildSearchQuery(filters)
	assert.Equal(t, 0, query["from"])
	assert.Equal(t, 20, query["size"])
	assert.Empty(t, searchFilterClauses(t, query))
}
