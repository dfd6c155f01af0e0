package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nuvora/catalog-service/internal/activity"
	"github.com/nuvora/catalog-service/internal/catalog"
	"github.com/nuvora/catalog-service/internal/category"
	"github.com/nuvora/catalog-service/internal/company"
	"github.com/nuvora/catalog-service/internal/identifier"
	"github.com/nuvora/catalog-service/internal/model"
	"github.com/nuvora/catalog-service/internal/option"
	"github.com/nuvora/catalog-service/internal/pricing"
	"github.com/nuvora/catalog-service/internal/product"
	"github.com/nuvora/catalog-service/internal/product/dto"
	"github.com/nuvora/catalog-service/internal/tax"
	"github.com/nuvora/catalog-service/pkg/apperrors"
	"github.com/nuvora/catalog-service/pkg/cache"
	"github.com/nuvora/catalog-service/pkg/imagestore"
	"github.com/nuvora/catalog-service/pkg/logger"
	"github.com/nuvora/catalog-service/pkg/search"
)

const (
	imageNamespace = "products"

	copyTitleAttempts = 50
)

const productMapping = `{
	"mappings": {
		"properties": {
			"title": { "type": "text" },
			"description": { "type": "text" },
			"short_description": { "type": "text" },
			"sku": { "type": "keyword" },
			"ean": { "type": "keyword" },
			"slug": { "type": "keyword" },
			"status": { "type": "keyword" },
			"company_id": { "type": "keyword" },
			"supplier_id": { "type": "keyword" },
			"is_published": { "type": "boolean" },
			"is_active": { "type": "boolean" },
			"in_stock": { "type": "boolean" },
			"featured": { "type": "boolean" },
			"top_seller": { "type": "boolean" },
			"is_on_sale": { "type": "boolean" },
			"mark_as_new": { "type": "boolean" },
			"is_special_offer": { "type": "boolean" },
			"shipping_free": { "type": "boolean" },
			"is_discounted": { "type": "boolean" },
			"final_price_nett": { "type": "double" },
			"discount_percentage_nett": { "type": "double" },
			"created_at": { "type": "date" },
			"custom_details": {
				"properties": {
					"key": { "type": "keyword" },
					"label": { "type": "text" },
					"value": { "type": "text" }
				}
			},
			"categories": {
				"properties": {
					"category_id": { "type": "keyword" }
				}
			}
		}
	}
}`

type productUseCase struct {
	repo         product.Repository
	optionUC     option.UseCase
	optionRepo   option.Repository
	taxRepo      tax.Repository
	companyRepo  company.Repository
	categoryRepo category.Repository
	images       imagestore.Store
	cache        *cache.RedisClient
	es           *search.Client
	recorder     activity.Recorder
	logger       logger.ZapLogger
}

func NewProductUseCase(
	repo product.Repository,
	optionUC option.UseCase,
	optionRepo option.Repository,
	taxRepo tax.Repository,
	companyRepo company.Repository,
	categoryRepo category.Repository,
	images imagestore.Store,
	redis *cache.RedisClient,
	es *search.Client,
	recorder activity.Recorder,
	log logger.ZapLogger,
) product.UseCase {
	return &productUseCase{
		repo:         repo,
		optionUC:     optionUC,
		optionRepo:   optionRepo,
		taxRepo:      taxRepo,
		companyRepo:  companyRepo,
		categoryRepo: categoryRepo,
		images:       images,
		cache:        redis,
		es:           es,
		recorder:     recorder,
		logger:       log,
	}
}

func (uc *productUseCase) Create(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	taxRow, err := uc.requireActiveTax(ctx, input.TaxID)
	if err != nil {
		return nil, err
	}
	if err := uc.requireActiveCompanies(ctx, input.CompanyID, input.SupplierID); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Product{
		BaseModel:        model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Title:            input.Title,
		Description:      input.Description,
		ShortDescription: input.ShortDescription,
		Status:           model.StatusActive,
		IsActive:         true,
		IsPublished:      false,
		MarkAsNew:        input.MarkAsNew,
		Featured:         input.Featured,
		TopSeller:        input.TopSeller,
		IsOnSale:         input.IsOnSale,
		IsSpecialOffer:   input.IsSpecialOffer,
		ShippingFree:     input.ShippingFree,
		InStock:          input.InStock,
		Weight:           input.Weight,
		WeightUnit:       input.WeightUnit,
		Length:           input.Length,
		Width:            input.Width,
		Height:           input.Height,
		DimensionUnit:    input.DimensionUnit,
		UnitType:         input.UnitType,
		LeadTime:         input.LeadTime,
		CustomDetails:    buildCustomDetails(input.CustomDetails),
		TaxID:            input.TaxID,
		CompanyID:        normalizeRef(input.CompanyID),
		SupplierID:       normalizeRef(input.SupplierID),
	}

	if err := uc.assignIdentifiers(ctx, p, input); err != nil {
		return nil, err
	}

	conflict, err := uc.repo.FindConflict(ctx, product.ConflictFields{
		SKU: p.SKU, Slug: p.Slug, Barcode: p.Barcode, Title: p.Title, EAN: p.EAN,
	}, "")
	if err != nil {
		return nil, apperrors.FromStorage(err, "uniqueness probe failed")
	}
	if conflict != "" {
		return nil, apperrors.NewConflict("a product with this %s already exists", conflict)
	}

	pricing.Apply(p, pricing.Derive(pricing.Input{
		PurchaseNett: input.PurchasePriceNett,
		RegularNett:  input.RegularPriceNett,
		DiscountPct:  input.DiscountPct,
		TaxRate:      taxRow.Rate,
	}))

	images, err := uc.resolveImages(ctx, p.ID, nil, input.Images)
	if err != nil {
		return nil, err
	}
	p.Images = images

	links, err := uc.buildCategoryLinks(ctx, p.ID, input.Categories)
	if err != nil {
		return nil, err
	}
	p.Categories = links

	p.Services = buildServices(p.ID, input.Services)

	if len(input.Options) > 0 {
		options, err := uc.optionUC.BuildTree(ctx, p.ID, input.Options)
		if err != nil {
			return nil, err
		}
		p.Options = options
	}

	if err := uc.repo.CreateAggregate(ctx, p); err != nil {
		return nil, apperrors.FromStorage(err, "failed to create product")
	}

	uc.recorder.Record(activity.Event{Type: activity.EventProductCreated, ProductID: p.ID, Title: p.Title})
	go uc.invalidateCatalogCache(context.Background())
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) Edit(ctx context.Context, id string, input *dto.EditProductInput) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStorage(err, "failed to load product")
	}
	if p == nil {
		return nil, apperrors.NewNotFound("product %s not found", id)
	}

	if err := validateEdit(input); err != nil {
		return nil, err
	}

	titleChanged := input.Title != nil && *input.Title != p.Title
	if input.Title != nil {
		p.Title = *input.Title
	}
	if input.Description != nil {
		p.Description = input.Description
	}
	if input.ShortDescription != nil {
		p.ShortDescription = input.ShortDescription
	}

	conflictFields := product.ConflictFields{}
	if titleChanged {
		conflictFields.Title = p.Title
		slug, err := identifier.GenerateSlug(ctx, uc.repo, p.Title, p.ID)
		if err != nil {
			return nil, err
		}
		p.Slug = slug
	}
	if input.SKU != nil && *input.SKU != p.SKU {
		p.SKU = *input.SKU
		conflictFields.SKU = p.SKU
	}
	if input.Barcode != nil && *input.Barcode != p.Barcode {
		p.Barcode = *input.Barcode
		conflictFields.Barcode = p.Barcode
	}
	if input.EAN != nil && *input.EAN != p.EAN {
		p.EAN = *input.EAN
		conflictFields.EAN = p.EAN
	}
	if conflictFields != (product.ConflictFields{}) {
		conflict, err := uc.repo.FindConflict(ctx, conflictFields, p.ID)
		if err != nil {
			return nil, apperrors.FromStorage(err, "uniqueness probe failed")
		}
		if conflict != "" {
			return nil, apperrors.NewConflict("a product with this %s already exists", conflict)
		}
	}

	applyFlagPatches(p, input)
	applyPhysicalPatches(p, input)

	if input.CompanyID != nil || input.SupplierID != nil {
		if err := uc.requireActiveCompanies(ctx, input.CompanyID, input.SupplierID); err != nil {
			return nil, err
		}
		if input.CompanyID != nil {
			p.CompanyID = normalizeRef(input.CompanyID)
		}
		if input.SupplierID != nil {
			p.SupplierID = normalizeRef(input.SupplierID)
		}
	}

	// Any touched price dependency triggers a full re-derivation. An edit
	// without price fields carries the stored derived block forward.
	priceTouched := input.PurchasePriceNett != nil || input.RegularPriceNett != nil ||
		input.DiscountPct != nil || input.TaxID != nil
	if priceTouched {
		taxID := p.TaxID
		if input.TaxID != nil && *input.TaxID != "" {
			taxID = *input.TaxID
		}
		taxRow, err := uc.requireActiveTax(ctx, taxID)
		if err != nil {
			return nil, err
		}
		p.TaxID = taxID

		in := pricing.Input{
			PurchaseNett: p.PurchasePriceNett,
			RegularNett:  p.RegularPriceNett,
			DiscountPct:  p.DiscountPctNett,
			TaxRate:      taxRow.Rate,
		}
		if input.PurchasePriceNett != nil {
			in.PurchaseNett = *input.PurchasePriceNett
		}
		if input.RegularPriceNett != nil {
			in.RegularNett = *input.RegularPriceNett
		}
		if input.DiscountPct != nil {
			in.DiscountPct = *input.DiscountPct
		}
		pricing.Apply(p, pricing.Derive(in))
	}

	if input.CustomDetails != nil {
		p.CustomDetails = buildCustomDetails(*input.CustomDetails)
	}

	spec := product.UpdateSpec{}
	if len(input.Images) > 0 {
		existing := p.Images
		images, err := uc.resolveImages(ctx, p.ID, existing, input.Images)
		if err != nil {
			return nil, err
		}
		if input.ReplaceImages {
			p.Images = images
			spec.ReplaceImages = true
		} else {
			// Appended images never steal is_main from the current set.
			for i := range images {
				images[i].IsMain = len(existing) == 0 && i == 0
				images[i].SortOrder = len(existing) + i
			}
			p.Images = images
			spec.AppendImages = true
		}
	}

	if input.Categories != nil {
		links, err := uc.buildCategoryLinks(ctx, p.ID, *input.Categories)
		if err != nil {
			return nil, err
		}
		p.Categories = links
		spec.ReplaceCategories = true
	}

	p.UpdatedAt = time.Now()
	if err := uc.repo.UpdateAggregate(ctx, p, spec); err != nil {
		return nil, apperrors.FromStorage(err, "failed to update product")
	}

	uc.recorder.Record(activity.Event{Type: activity.EventProductUpdated, ProductID: p.ID, Title: p.Title})
	go uc.invalidateCatalogCache(context.Background())
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) Duplicate(ctx context.Context, id string) (*model.Product, error) {
	src, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStorage(err, "failed to load product")
	}
	if src == nil {
		return nil, apperrors.NewNotFound("product %s not found", id)
	}

	title, err := uc.availableCopyTitle(ctx, src.Title)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	clone := *src
	clone.BaseModel = model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	clone.Title = title
	clone.IsPublished = false
	clone.Images = nil
	clone.Services = nil
	clone.Categories = nil
	clone.Options = nil

	slug, err := identifier.GenerateSlug(ctx, uc.repo, clone.Title, "")
	if err != nil {
		return nil, err
	}
	clone.Slug = slug

	sku, err := identifier.GenerateUniqueSKU(ctx, uc.repo, "")
	if err != nil {
		return nil, apperrors.FromStorage(err, "sku generation failed")
	}
	clone.SKU = sku
	clone.EAN = identifier.GenerateEAN13()
	clone.Barcode = clone.EAN

	// Image metadata is cloned onto the same URLs; no re-upload happens.
	for _, img := range src.Images {
		clone.Images = append(clone.Images, model.ProductImage{
			BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ProductID: clone.ID,
			URL:       img.URL,
			AltText:   img.AltText,
			SortOrder: img.SortOrder,
			IsMain:    img.IsMain,
		})
	}

	if err := uc.repo.CreateAggregate(ctx, &clone); err != nil {
		return nil, apperrors.FromStorage(err, "failed to duplicate product")
	}

	// Sub-entity duplication is best-effort: a failed clone of services,
	// categories or options is logged and skipped, never unwound.
	uc.duplicateServices(ctx, src, &clone, now)
	uc.duplicateCategories(ctx, src, &clone, now)
	uc.duplicateOptions(ctx, src, &clone, now)

	uc.recorder.Record(activity.Event{
		Type: activity.EventProductDuplicated, ProductID: clone.ID, Title: clone.Title,
		Metadata: map[string]string{"source_product_id": src.ID},
	})
	go uc.invalidateCatalogCache(context.Background())
	go uc.syncToElastic(context.Background(), &clone)

	return &clone, nil
}

// availableCopyTitle tries "X (Copy)", then "X (Copy 2)" and so on until a
// title no other product holds; repeated duplicates of the same source get
// distinct titles instead of dying on the unique constraint.
func (uc *productUseCase) availableCopyTitle(ctx context.Context, base string) (string, error) {
	for i := 1; i <= copyTitleAttempts; i++ {
		title := base + " (Copy)"
		if i > 1 {
			title = fmt.Sprintf("%s (Copy %d)", base, i)
		}
		conflict, err := uc.repo.FindConflict(ctx, product.ConflictFields{Title: title}, "")
		if err != nil {
			return "", apperrors.FromStorage(err, "copy title lookup failed")
		}
		if conflict == "" {
			return title, nil
		}
	}
	return "", apperrors.NewConflict("no free copy title for %q", base)
}

func (uc *productUseCase) duplicateServices(ctx context.Context, src, clone *model.Product, now time.Time) {
	if len(src.Services) == 0 {
		return
	}
	services := make([]model.ProductService, 0, len(src.Services))
	for _, svc := range src.Services {
		services = append(services, model.ProductService{
			BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ProductID:   clone.ID,
			Name:        svc.Name,
			Description: svc.Description,
			Price:       svc.Price,
		})
	}
	if err := uc.repo.AddServices(ctx, services); err != nil {
		uc.logger.Error("duplicate: service clone skipped", zap.String("product_id", clone.ID), zap.Error(err))
		return
	}
	clone.Services = services
}

func (uc *productUseCase) duplicateCategories(ctx context.Context, src, clone *model.Product, now time.Time) {
	if len(src.Categories) == 0 {
		return
	}
	links := make([]model.ProductCategory, 0, len(src.Categories))
	for _, link := range src.Categories {
		links = append(links, model.ProductCategory{
			BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ProductID:  clone.ID,
			CategoryID: link.CategoryID,
			IsPrimary:  link.IsPrimary,
		})
	}
	if err := uc.repo.AddCategories(ctx, links); err != nil {
		uc.logger.Error("duplicate: category clone skipped", zap.String("product_id", clone.ID), zap.Error(err))
		return
	}
	clone.Categories = links
}

func (uc *productUseCase) duplicateOptions(ctx context.Context, src, clone *model.Product, now time.Time) {
	srcOptions, err := uc.optionRepo.FindByProduct(ctx, src.ID)
	if err != nil {
		uc.logger.Error("duplicate: option load skipped", zap.String("product_id", clone.ID), zap.Error(err))
		return
	}
	if len(srcOptions) == 0 {
		return
	}

	options := make([]model.CustomOption, 0, len(srcOptions))
	for _, opt := range srcOptions {
		cloned := model.CustomOption{
			BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ProductID:    clone.ID,
			Name:         opt.Name,
			Type:         opt.Type,
			Required:     opt.Required,
			SortOrder:    opt.SortOrder,
			AffectsPrice: opt.AffectsPrice,
			BaseModifier: opt.BaseModifier,
		}
		for _, v := range opt.Values {
			// Values keep their original image URLs.
			cloned.Values = append(cloned.Values, model.CustomOptionValue{
				BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
				OptionID:      cloned.ID,
				Value:         v.Value,
				DisplayName:   v.DisplayName,
				SortOrder:     v.SortOrder,
				IsDefault:     v.IsDefault,
				PriceModifier: v.PriceModifier,
				ModifierType:  v.ModifierType,
				ImageURL:      v.ImageURL,
				StockQuantity: v.StockQuantity,
				InStock:       v.InStock,
			})
		}
		options = append(options, cloned)
	}

	if err := uc.optionRepo.CreateForProduct(ctx, options); err != nil {
		uc.logger.Error("duplicate: option clone skipped", zap.String("product_id", clone.ID), zap.Error(err))
		return
	}
	clone.Options = options
}

func (uc *productUseCase) Publish(ctx context.Context, id string) (*model.Product, error) {
	return uc.transition(ctx, id, activity.EventProductPublished, func(p *model.Product) error {
		if !p.IsActive {
			return apperrors.NewInvalidState("cannot publish an inactive product")
		}
		if p.IsPublished {
			return apperrors.NewInvalidState("product is already published")
		}
		p.IsPublished = true
		return nil
	})
}

func (uc *productUseCase) Unpublish(ctx context.Context, id string) (*model.Product, error) {
	return uc.transition(ctx, id, activity.EventProductUnpublished, func(p *model.Product) error {
		if !p.IsPublished {
			return apperrors.NewInvalidState("product is not published")
		}
		p.IsPublished = false
		return nil
	})
}

func (uc *productUseCase) Archive(ctx context.Context, id string) (*model.Product, error) {
	return uc.transition(ctx, id, activity.EventProductArchived, func(p *model.Product) error {
		if p.Status == model.StatusArchived {
			return apperrors.NewInvalidState("product is already archived")
		}
		p.Status = model.StatusArchived
		p.IsActive = false
		p.IsPublished = false
		return nil
	})
}

func (uc *productUseCase) Unarchive(ctx context.Context, id string) (*model.Product, error) {
	return uc.transition(ctx, id, activity.EventProductUnarchived, func(p *model.Product) error {
		if p.Status != model.StatusArchived {
			return apperrors.NewInvalidState("product is not archived")
		}
		p.Status = model.StatusActive
		p.IsActive = true
		return nil
	})
}

func (uc *productUseCase) transition(ctx context.Context, id, event string, guard func(*model.Product) error) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStorage(err, "failed to load product")
	}
	if p == nil {
		return nil, apperrors.NewNotFound("product %s not found", id)
	}

	if err := guard(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = time.Now()
	if err := uc.repo.UpdateState(ctx, p); err != nil {
		return nil, apperrors.FromStorage(err, "failed to update product state")
	}

	uc.recorder.Record(activity.Event{Type: event, ProductID: p.ID, Title: p.Title})
	go uc.invalidateCatalogCache(context.Background())
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) assignIdentifiers(ctx context.Context, p *model.Product, input *dto.CreateProductInput) error {
	if input.Slug != "" {
		slug := identifier.NormalizeSlug(input.Slug)
		if slug == "" {
			return apperrors.NewValidation("cannot build a slug from %q", input.Slug)
		}
		p.Slug = slug
	} else {
		slug, err := identifier.GenerateSlug(ctx, uc.repo, input.Title, "")
		if err != nil {
			return err
		}
		p.Slug = slug
	}

	if input.SKU != "" {
		p.SKU = input.SKU
	} else {
		sku, err := identifier.GenerateUniqueSKU(ctx, uc.repo, "")
		if err != nil {
			return apperrors.FromStorage(err, "sku generation failed")
		}
		p.SKU = sku
	}

	if input.EAN != "" {
		p.EAN = input.EAN
	} else {
		p.EAN = identifier.GenerateEAN13()
	}

	if input.Barcode != "" {
		p.Barcode = input.Barcode
	} else {
		p.Barcode = p.EAN
	}
	return nil
}

func (uc *productUseCase) requireActiveTax(ctx context.Context, id string) (*model.Tax, error) {
	taxRow, err := uc.taxRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStorage(err, "failed to load tax")
	}
	if taxRow == nil || !taxRow.IsActive {
		return nil, apperrors.NewNotFound("tax %s not found or inactive", id)
	}
	return taxRow, nil
}

func (uc *productUseCase) requireActiveCompanies(ctx context.Context, companyID, supplierID *string) error {
	for _, ref := range []*string{companyID, supplierID} {
		if ref == nil || *ref == "" {
			continue
		}
		row, err := uc.companyRepo.FindByID(ctx, *ref)
		if err != nil {
			return apperrors.FromStorage(err, "failed to load company")
		}
		if row == nil || !row.IsActive {
			return apperrors.NewNotFound("company %s not found or inactive", *ref)
		}
	}
	return nil
}

// resolveImages turns inputs into persistable rows. Existing rows may be
// referenced by id (edit reordering), hosted files by URL, and fresh bytes
// go through the image store; an upload failure aborts the pipeline.
func (uc *productUseCase) resolveImages(ctx context.Context, productID string, existing []model.ProductImage, inputs []dto.ImageInput) ([]model.ProductImage, error) {
	byID := map[string]model.ProductImage{}
	for _, img := range existing {
		byID[img.ID] = img
	}

	now := time.Now()
	images := make([]model.ProductImage, 0, len(inputs))
	mainIndex := -1

	for i, in := range inputs {
		img := model.ProductImage{
			BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ProductID: productID,
			SortOrder: i,
		}
		if in.AltText != "" {
			altText := in.AltText
			img.AltText = &altText
		}

		switch {
		case in.ID != "":
			prior, ok := byID[in.ID]
			if !ok {
				return nil, apperrors.NewValidation("image %s does not belong to this product", in.ID)
			}
			img.BaseModel = prior.BaseModel
			img.UpdatedAt = now
			img.URL = prior.URL
			if img.AltText == nil {
				img.AltText = prior.AltText
			}
		case in.URL != "":
			img.URL = in.URL
		case in.Upload != nil:
			url, err := uc.images.Upload(ctx, in.Upload.Data, in.Upload.Filename, imageNamespace, imagestore.VisibilityPublic)
			if err != nil {
				return nil, apperrors.NewDependency("image upload failed", err)
			}
			img.URL = url
		default:
			return nil, apperrors.NewValidation("image %d has neither id, url nor upload", i)
		}

		if in.IsMain && mainIndex == -1 {
			mainIndex = i
		}
		images = append(images, img)
	}

	// Exactly one main image: the first flagged one, or the first image.
	if len(images) > 0 {
		if mainIndex == -1 {
			mainIndex = 0
		}
		for i := range images {
			images[i].IsMain = i == mainIndex
		}
	}
	return images, nil
}

func (uc *productUseCase) buildCategoryLinks(ctx context.Context, productID string, inputs []dto.CategoryInput) ([]model.ProductCategory, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	primaryIndex := -1
	for i, in := range inputs {
		if in.CategoryID == "" {
			return nil, apperrors.NewValidation("category %d is missing its id", i)
		}
		if in.IsPrimary {
			if primaryIndex != -1 {
				return nil, apperrors.NewValidation("more than one category is marked primary")
			}
			primaryIndex = i
		}
	}
	// Nobody marked primary: the first supplied category is promoted.
	if primaryIndex == -1 {
		primaryIndex = 0
	}

	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.CategoryID)
	}
	rows, err := uc.categoryRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.FromStorage(err, "failed to load categories")
	}
	byID := make(map[string]model.Category, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	now := time.Now()
	links := make([]model.ProductCategory, 0, len(inputs))
	for i, in := range inputs {
		row, ok := byID[in.CategoryID]
		if !ok || !row.IsActive {
			return nil, apperrors.NewNotFound("category %s not found or inactive", in.CategoryID)
		}
		links = append(links, model.ProductCategory{
			BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ProductID:  productID,
			CategoryID: in.CategoryID,
			IsPrimary:  i == primaryIndex,
		})
	}
	return links, nil
}

func (uc *productUseCase) invalidateCatalogCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	keys, err := uc.cache.Client.Keys(ctx, catalog.ListCachePrefix+"*").Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	_ = uc.es.CreateIndex(ctx, catalog.SearchIndex, productMapping)
	if err := uc.es.Index(ctx, catalog.SearchIndex, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func validateCreate(input *dto.CreateProductInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return apperrors.NewValidation("title is required")
	}
	if input.TaxID == "" {
		return apperrors.NewValidation("tax_id is required")
	}
	if input.PurchasePriceNett < 0 || input.RegularPriceNett < 0 {
		return apperrors.NewValidation("prices must not be negative")
	}
	if input.DiscountPct < 0 || input.DiscountPct > 100 {
		return apperrors.NewValidation("discount percentage must be between 0 and 100")
	}
	if len(input.Images) == 0 {
		return apperrors.NewValidation("at least one image is required")
	}
	return nil
}

func validateEdit(input *dto.EditProductInput) error {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return apperrors.NewValidation("title must not be empty")
	}
	if input.PurchasePriceNett != nil && *input.PurchasePriceNett < 0 {
		return apperrors.NewValidation("prices must not be negative")
	}
	if input.RegularPriceNett != nil && *input.RegularPriceNett < 0 {
		return apperrors.NewValidation("prices must not be negative")
	}
	if input.DiscountPct != nil && (*input.DiscountPct < 0 || *input.DiscountPct > 100) {
		return apperrors.NewValidation("discount percentage must be between 0 and 100")
	}
	return nil
}

func applyFlagPatches(p *model.Product, input *dto.EditProductInput) {
	if input.MarkAsNew != nil {
		p.MarkAsNew = *input.MarkAsNew
	}
	if input.Featured != nil {
		p.Featured = *input.Featured
	}
	if input.TopSeller != nil {
		p.TopSeller = *input.TopSeller
	}
	if input.IsOnSale != nil {
		p.IsOnSale = *input.IsOnSale
	}
	if input.IsSpecialOffer != nil {
		p.IsSpecialOffer = *input.IsSpecialOffer
	}
	if input.ShippingFree != nil {
		p.ShippingFree = *input.ShippingFree
	}
	if input.InStock != nil {
		p.InStock = *input.InStock
	}
}

func applyPhysicalPatches(p *model.Product, input *dto.EditProductInput) {
	if input.Weight != nil {
		p.Weight = input.Weight
	}
	if input.WeightUnit != nil {
		p.WeightUnit = input.WeightUnit
	}
	if input.Length != nil {
		p.Length = input.Length
	}
	if input.Width != nil {
		p.Width = input.Width
	}
	if input.Height != nil {
		p.Height = input.Height
	}
	if input.DimensionUnit != nil {
		p.DimensionUnit = input.DimensionUnit
	}
	if input.UnitType != nil {
		p.UnitType = input.UnitType
	}
	if input.LeadTime != nil {
		p.LeadTime = input.LeadTime
	}
}

// buildCustomDetails generates collision-tolerant keys from labels:
// "Display Size" becomes display_size, a second "Display Size" becomes
// display_size_2, and so on.
func buildCustomDetails(inputs []dto.CustomDetailInput) model.CustomDetails {
	details := make(model.CustomDetails, 0, len(inputs))
	taken := map[string]int{}

	for _, in := range inputs {
		if strings.TrimSpace(in.Label) == "" {
			continue
		}
		base := strings.ReplaceAll(identifier.NormalizeSlug(in.Label), "-", "_")
		if base == "" {
			base = "detail"
		}
		key := base
		taken[base]++
		if n := taken[base]; n > 1 {
			key = fmt.Sprintf("%s_%d", base, n)
		}
		details = append(details, model.CustomDetail{Key: key, Label: in.Label, Value: in.Value})
	}
	return details
}

func buildServices(productID string, inputs []dto.ServiceInput) []model.ProductService {
	if len(inputs) == 0 {
		return nil
	}
	now := time.Now()
	services := make([]model.ProductService, 0, len(inputs))
	for _, in := range inputs {
		services = append(services, model.ProductService{
			BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ProductID:   productID,
			Name:        in.Name,
			Description: in.Description,
			Price:       in.Price,
		})
	}
	return services
}

func normalizeRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	return ref
}
