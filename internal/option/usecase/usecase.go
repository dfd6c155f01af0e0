package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nuvora/catalog-service/internal/activity"
	"github.com/nuvora/catalog-service/internal/model"
	"github.com/nuvora/catalog-service/internal/option"
	"github.com/nuvora/catalog-service/internal/option/dto"
	"github.com/nuvora/catalog-service/pkg/apperrors"
	"github.com/nuvora/catalog-service/pkg/imagestore"
	"github.com/nuvora/catalog-service/pkg/logger"
)

const imageNamespace = "option-values"

type optionUseCase struct {
	repo     option.Repository
	images   imagestore.Store
	recorder activity.Recorder
	logger   logger.ZapLogger
}

func NewOptionUseCase(repo option.Repository, images imagestore.Store, recorder activity.Recorder, log logger.ZapLogger) option.UseCase {
	return &optionUseCase{
		repo:     repo,
		images:   images,
		recorder: recorder,
		logger:   log,
	}
}

func (uc *optionUseCase) BuildTree(ctx context.Context, productID string, inputs []dto.OptionInput) ([]model.CustomOption, error) {
	return uc.assemble(ctx, productID, inputs, nil)
}

func (uc *optionUseCase) CreateOptions(ctx context.Context, productID string, inputs []dto.OptionInput) ([]model.CustomOption, error) {
	if err := uc.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	options, err := uc.assemble(ctx, productID, inputs, nil)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.CreateForProduct(ctx, options); err != nil {
		return nil, apperrors.FromStorage(err, "failed to create options")
	}
	return options, nil
}

func (uc *optionUseCase) ListOptions(ctx context.Context, productID string) ([]model.CustomOption, error) {
	if err := uc.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	options, err := uc.repo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, apperrors.FromStorage(err, "failed to list options")
	}
	return options, nil
}

// ReplaceOptions implements the delete-then-recreate update protocol.
// Clients resend the full option tree on every edit but do not re-upload
// unchanged images, so prior image URLs are matched back onto new values by
// normalized (option name, value) key before the old tree is destroyed.
func (uc *optionUseCase) ReplaceOptions(ctx context.Context, productID string, inputs []dto.OptionInput) ([]model.CustomOption, error) {
	if err := uc.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	existing, err := uc.repo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, apperrors.FromStorage(err, "failed to load existing options")
	}
	preserved := buildPreservationMap(existing)

	options, err := uc.assemble(ctx, productID, inputs, preserved)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.ReplaceForProduct(ctx, productID, options); err != nil {
		return nil, apperrors.FromStorage(err, "failed to replace options")
	}

	uc.recorder.Record(activity.Event{Type: activity.EventOptionsReplaced, ProductID: productID})
	return options, nil
}

func (uc *optionUseCase) UpdateOption(ctx context.Context, optionID string, input dto.OptionInput) (*model.CustomOption, error) {
	existing, err := uc.repo.FindByID(ctx, optionID)
	if err != nil {
		return nil, apperrors.FromStorage(err, "failed to load option")
	}
	if existing == nil {
		return nil, apperrors.NewNotFound("option %s not found", optionID)
	}

	preserved := buildPreservationMap([]model.CustomOption{*existing})
	assembled, err := uc.assemble(ctx, existing.ProductID, []dto.OptionInput{input}, preserved)
	if err != nil {
		return nil, err
	}

	updated := assembled[0]
	updated.BaseModel = existing.BaseModel
	updated.UpdatedAt = time.Now()
	for i := range updated.Values {
		updated.Values[i].OptionID = updated.ID
	}

	if err := uc.repo.ReplaceOne(ctx, &updated); err != nil {
		return nil, apperrors.FromStorage(err, "failed to update option")
	}
	return &updated, nil
}

func (uc *optionUseCase) DeleteOption(ctx context.Context, optionID string) error {
	existing, err := uc.repo.FindByID(ctx, optionID)
	if err != nil {
		return apperrors.FromStorage(err, "failed to load option")
	}
	if existing == nil {
		return apperrors.NewNotFound("option %s not found", optionID)
	}
	if err := uc.repo.Delete(ctx, optionID); err != nil {
		return apperrors.FromStorage(err, "failed to delete option")
	}
	return nil
}

func (uc *optionUseCase) UploadValueImage(ctx context.Context, optionID, valueID string, file dto.FileUpload) (string, error) {
	value, err := uc.repo.FindValue(ctx, optionID, valueID)
	if err != nil {
		return "", apperrors.FromStorage(err, "failed to load option value")
	}
	if value == nil {
		return "", apperrors.NewNotFound("option value %s not found", valueID)
	}

	url, err := uc.images.Upload(ctx, file.Data, file.Filename, imageNamespace, imagestore.VisibilityPublic)
	if err != nil {
		return "", apperrors.NewDependency("image upload failed", err)
	}

	if err := uc.repo.UpdateValueImage(ctx, valueID, url); err != nil {
		return "", apperrors.FromStorage(err, "failed to store image url")
	}
	return url, nil
}

func (uc *optionUseCase) requireProduct(ctx context.Context, productID string) error {
	exists, err := uc.repo.ProductExists(ctx, productID)
	if err != nil {
		return apperrors.FromStorage(err, "failed to check product")
	}
	if !exists {
		return apperrors.NewNotFound("product %s not found", productID)
	}
	return nil
}

// assemble validates inputs and builds the persistable tree. A missing
// option name fails the whole call; a failed per-value image upload only
// degrades that value to its preserved (or empty) URL.
func (uc *optionUseCase) assemble(ctx context.Context, productID string, inputs []dto.OptionInput, preserved map[string]string) ([]model.CustomOption, error) {
	now := time.Now()
	options := make([]model.CustomOption, 0, len(inputs))

	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, apperrors.NewValidation("option name is required")
		}

		optType := in.Type
		if optType == "" {
			optType = model.OptionTypeText
		}
		if !optType.Valid() {
			return nil, apperrors.NewValidation("invalid option type %q", in.Type)
		}

		opt := model.CustomOption{
			BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ProductID:    productID,
			Name:         name,
			Type:         optType,
			Required:     in.Required,
			SortOrder:    in.SortOrder,
			AffectsPrice: in.AffectsPrice,
			BaseModifier: in.BaseModifier,
		}

		for _, vin := range in.Values {
			if strings.TrimSpace(vin.Value) == "" {
				return nil, apperrors.NewValidation("option %q has a value without a label", name)
			}

			modifierType := vin.ModifierType
			if modifierType == "" {
				modifierType = model.ModifierFixed
			}
			if modifierType != model.ModifierFixed && modifierType != model.ModifierPercentage {
				return nil, apperrors.NewValidation("invalid modifier type %q", vin.ModifierType)
			}

			value := model.CustomOptionValue{
				BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
				OptionID:      opt.ID,
				Value:         vin.Value,
				SortOrder:     vin.SortOrder,
				IsDefault:     vin.IsDefault,
				PriceModifier: vin.PriceModifier,
				ModifierType:  modifierType,
				StockQuantity: vin.StockQuantity,
				InStock:       vin.InStock,
			}
			if vin.DisplayName != "" {
				displayName := vin.DisplayName
				value.DisplayName = &displayName
			}

			value.ImageURL = uc.resolveValueImage(ctx, name, vin, preserved)
			opt.Values = append(opt.Values, value)
		}

		options = append(options, opt)
	}

	return options, nil
}

func (uc *optionUseCase) resolveValueImage(ctx context.Context, optionName string, vin dto.ValueInput, preserved map[string]string) *string {
	if vin.ImageURL != nil && *vin.ImageURL != "" {
		return vin.ImageURL
	}

	if vin.Image != nil {
		url, err := uc.images.Upload(ctx, vin.Image.Data, vin.Image.Filename, imageNamespace, imagestore.VisibilityPublic)
		if err == nil {
			return &url
		}
		uc.logger.Warn("option value image upload failed, keeping preserved url",
			zap.String("option", optionName),
			zap.String("value", vin.Value),
			zap.Error(err))
	}

	if url, ok := preserved[preservationKey(optionName, vin.Value)]; ok {
		return &url
	}
	if vin.DisplayName != "" {
		if url, ok := preserved[preservationKey(optionName, vin.DisplayName)]; ok {
			return &url
		}
	}
	return nil
}

// buildPreservationMap indexes existing image URLs by normalized
// (option name, value) and (option name, display name). Options and values
// arrive ordered by sort_order then id; the first entry for a key wins, so
// two values collapsing to the same normalized key resolve deterministically
// to the earlier-sorted one.
func buildPreservationMap(options []model.CustomOption) map[string]string {
	preserved := map[string]string{}
	for _, opt := range options {
		for _, v := range opt.Values {
			if v.ImageURL == nil || *v.ImageURL == "" {
				continue
			}
			keys := []string{preservationKey(opt.Name, v.Value)}
			if v.DisplayName != nil && *v.DisplayName != "" {
				keys = append(keys, preservationKey(opt.Name, *v.DisplayName))
			}
			for _, key := range keys {
				if _, ok := preserved[key]; !ok {
					preserved[key] = *v.ImageURL
				}
			}
		}
	}
	return preserved
}

func preservationKey(optionName, value string) string {
	return strings.ToLower(strings.TrimSpace(optionName)) + "|" + strings.ToLower(strings.TrimSpace(value))
}
