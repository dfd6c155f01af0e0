package usecase

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvora/catalog-service/internal/activity"
	"github.com/nuvora/catalog-service/internal/model"
	"github.com/nuvora/catalog-service/internal/option/dto"
	"github.com/nuvora/catalog-service/pkg/apperrors"
	"github.com/nuvora/catalog-service/pkg/imagestore"
	"github.com/nuvora/catalog-service/pkg/logger"
)

type fakeRepo struct {
	products map[string]bool
	options  map[string][]model.CustomOption // by product id
}

func newFakeRepo(productIDs ...string) *fakeRepo {
	products := map[string]bool{}
	for _, id := range productIDs {
		products[id] = true
	}
	return &fakeRepo{products: products, options: map[string][]model.CustomOption{}}
}

func (r *fakeRepo) ProductExists(_ context.Context, productID string) (bool, error) {
	return r.products[productID], nil
}

func (r *fakeRepo) FindByProduct(_ context.Context, productID string) ([]model.CustomOption, error) {
	return r.options[productID], nil
}

func (r *fakeRepo) FindByID(_ context.Context, optionID string) (*model.CustomOption, error) {
	for _, opts := range r.options {
		for _, o := range opts {
			if o.ID == optionID {
				copied := o
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindValue(_ context.Context, optionID, valueID string) (*model.CustomOptionValue, error) {
	for _, opts := range r.options {
		for _, o := range opts {
			if o.ID != optionID {
				continue
			}
			for _, v := range o.Values {
				if v.ID == valueID {
					copied := v
					return &copied, nil
				}
			}
		}
	}
	return nil, nil
}

func (r *fakeRepo) CreateForProduct(_ context.Context, options []model.CustomOption) error {
	if len(options) == 0 {
		return nil
	}
	productID := options[0].ProductID
	r.options[productID] = append(r.options[productID], options...)
	return nil
}

func (r *fakeRepo) ReplaceForProduct(_ context.Context, productID string, options []model.CustomOption) error {
	r.options[productID] = options
	return nil
}

func (r *fakeRepo) ReplaceOne(_ context.Context, option *model.CustomOption) error {
	opts := r.options[option.ProductID]
	for i := range opts {
		if opts[i].ID == option.ID {
			opts[i] = *option
			return nil
		}
	}
	return errors.New("option not found")
}

func (r *fakeRepo) Delete(_ context.Context, optionID string) error {
	for productID, opts := range r.options {
		for i := range opts {
			if opts[i].ID == optionID {
				r.options[productID] = append(opts[:i], opts[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *fakeRepo) UpdateValueImage(_ context.Context, valueID, url string) error {
	for _, opts := range r.options {
		for i := range opts {
			for j := range opts[i].Values {
				if opts[i].Values[j].ID == valueID {
					u := url
					opts[i].Values[j].ImageURL = &u
					return nil
				}
			}
		}
	}
	return errors.New("value not found")
}

type fakeImageStore struct {
	fail    bool
	uploads int
}

func (s *fakeImageStore) Upload(_ context.Context, _ []byte, filename, namespace string, _ imagestore.Visibility) (string, error) {
	if s.fail {
		return "", errors.New("upload failed")
	}
	s.uploads++
	return "https://img.test/" + namespace + "/" + filename, nil
}

func testLogger() logger.ZapLogger {
	return logger.NewZapLogger(&logger.ZapLoggerConfig{Level: "fatal", Encoding: "json", DisableCaller: true, DisableStacktrace: true})
}

func strPtr(s string) *string { return &s }

func TestCreateOptionsMissingNameFailsWhole(t *testing.T) {
	repo := newFakeRepo("p1")
	uc := NewOptionUseCase(repo, &fakeImageStore{}, activity.NopRecorder{}, testLogger())

	_, err := uc.CreateOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color", Values: []dto.ValueInput{{Value: "Red"}}},
		{Name: "   "},
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Empty(t, repo.options["p1"], "nothing may be persisted when one option is invalid")
}

func TestCreateOptionsUnknownProduct(t *testing.T) {
	uc := NewOptionUseCase(newFakeRepo(), &fakeImageStore{}, activity.NopRecorder{}, testLogger())
	_, err := uc.CreateOptions(context.Background(), "missing", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestReplaceOptionsPreservesImagesByNaturalKey(t *testing.T) {
	repo := newFakeRepo("p1")
	uc := NewOptionUseCase(repo, &fakeImageStore{}, activity.NopRecorder{}, testLogger())

	// Seed a tree whose red value has an uploaded image.
	created, err := uc.CreateOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color", Type: model.OptionTypeSelect, Values: []dto.ValueInput{
			{Value: "Red", ImageURL: strPtr("https://img.test/red.png")},
			{Value: "Blue"},
		}},
	})
	require.NoError(t, err)
	require.NotNil(t, created[0].Values[0].ImageURL)

	// Client resends the tree without image payloads, as clients do.
	replaced, err := uc.ReplaceOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color", Type: model.OptionTypeSelect, Values: []dto.ValueInput{
			{Value: "Red"},
			{Value: "Blue"},
			{Value: "Green"},
		}},
	})
	require.NoError(t, err)

	require.NotNil(t, replaced[0].Values[0].ImageURL)
	assert.Equal(t, "https://img.test/red.png", *replaced[0].Values[0].ImageURL)
	assert.Nil(t, replaced[0].Values[1].ImageURL)
	assert.Nil(t, replaced[0].Values[2].ImageURL)

	// New identifiers: the tree really was recreated.
	assert.NotEqual(t, created[0].ID, replaced[0].ID)
}

func TestReplaceOptionsNormalizedKeyMatch(t *testing.T) {
	repo := newFakeRepo("p1")
	uc := NewOptionUseCase(repo, &fakeImageStore{}, activity.NopRecorder{}, testLogger())

	_, err := uc.CreateOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color ", Values: []dto.ValueInput{
			{Value: "Red ", ImageURL: strPtr("https://img.test/red.png")},
		}},
	})
	require.NoError(t, err)

	replaced, err := uc.ReplaceOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "color", Values: []dto.ValueInput{{Value: "red"}}},
	})
	require.NoError(t, err)
	require.NotNil(t, replaced[0].Values[0].ImageURL)
	assert.Equal(t, "https://img.test/red.png", *replaced[0].Values[0].ImageURL)
}

func TestReplaceOptionsFirstMatchWinsOnKeyCollision(t *testing.T) {
	repo := newFakeRepo("p1")
	uc := NewOptionUseCase(repo, &fakeImageStore{}, activity.NopRecorder{}, testLogger())

	// Two values collapse to the same normalized key; the earlier-sorted
	// one must supply the preserved URL.
	_, err := uc.CreateOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color", Values: []dto.ValueInput{
			{Value: "Red ", SortOrder: 0, ImageURL: strPtr("https://img.test/first.png")},
			{Value: "red", SortOrder: 1, ImageURL: strPtr("https://img.test/second.png")},
		}},
	})
	require.NoError(t, err)

	replaced, err := uc.ReplaceOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color", Values: []dto.ValueInput{{Value: "RED"}}},
	})
	require.NoError(t, err)
	require.NotNil(t, replaced[0].Values[0].ImageURL)
	assert.Equal(t, "https://img.test/first.png", *replaced[0].Values[0].ImageURL)
}

func TestReplaceOptionsUploadFailureKeepsPreserved(t *testing.T) {
	repo := newFakeRepo("p1")
	store := &fakeImageStore{}
	uc := NewOptionUseCase(repo, store, activity.NopRecorder{}, testLogger())

	_, err := uc.CreateOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color", Values: []dto.ValueInput{
			{Value: "Red", ImageURL: strPtr("https://img.test/old-red.png")},
		}},
	})
	require.NoError(t, err)

	store.fail = true
	replaced, err := uc.ReplaceOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color", Values: []dto.ValueInput{
			{Value: "Red", Image: &dto.FileUpload{Filename: "new-red.png", Data: []byte("x")}},
		}},
	})

	// Partial-failure tolerant: the tree persists with the preserved URL.
	require.NoError(t, err)
	require.NotNil(t, replaced[0].Values[0].ImageURL)
	assert.Equal(t, "https://img.test/old-red.png", *replaced[0].Values[0].ImageURL)
}

func TestUpdateOptionReplacesValuesInPlace(t *testing.T) {
	repo := newFakeRepo("p1")
	uc := NewOptionUseCase(repo, &fakeImageStore{}, activity.NopRecorder{}, testLogger())

	created, err := uc.CreateOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Size", Values: []dto.ValueInput{
			{Value: "M", ImageURL: strPtr("https://img.test/m.png")},
		}},
	})
	require.NoError(t, err)

	updated, err := uc.UpdateOption(context.Background(), created[0].ID, dto.OptionInput{
		Name: "Size",
		Values: []dto.ValueInput{
			{Value: "M"},
			{Value: "L", PriceModifier: 5, ModifierType: model.ModifierFixed},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, created[0].ID, updated.ID, "option id is stable across value replacement")
	require.Len(t, updated.Values, 2)
	require.NotNil(t, updated.Values[0].ImageURL)
	assert.Equal(t, "https://img.test/m.png", *updated.Values[0].ImageURL)
}

func TestUpdateOptionNotFound(t *testing.T) {
	uc := NewOptionUseCase(newFakeRepo("p1"), &fakeImageStore{}, activity.NopRecorder{}, testLogger())
	_, err := uc.UpdateOption(context.Background(), "nope", dto.OptionInput{Name: "Size"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUploadValueImage(t *testing.T) {
	repo := newFakeRepo("p1")
	uc := NewOptionUseCase(repo, &fakeImageStore{}, activity.NopRecorder{}, testLogger())

	created, err := uc.CreateOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color", Values: []dto.ValueInput{{Value: "Red"}}},
	})
	require.NoError(t, err)

	url, err := uc.UploadValueImage(context.Background(), created[0].ID, created[0].Values[0].ID, dto.FileUpload{
		Filename: "red.png",
		Data:     []byte("bytes"),
	})
	require.NoError(t, err)
	assert.Contains(t, url, "option-values")

	value, err := repo.FindValue(context.Background(), created[0].ID, created[0].Values[0].ID)
	require.NoError(t, err)
	require.NotNil(t, value.ImageURL)
	assert.Equal(t, url, *value.ImageURL)
}

func TestDeleteOptionNotFound(t *testing.T) {
	uc := NewOptionUseCase(newFakeRepo("p1"), &fakeImageStore{}, activity.NopRecorder{}, testLogger())
	err := uc.DeleteOption(context.Background(), "nope")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

type capturingRecorder struct {
	events []activity.Event
}

func (r *capturingRecorder) Record(event activity.Event) {
	r.events = append(r.events, event)
}

func TestReplaceOptionsRecordsActivity(t *testing.T) {
	repo := newFakeRepo("p1")
	recorder := &capturingRecorder{}
	uc := NewOptionUseCase(repo, &fakeImageStore{}, recorder, testLogger())

	_, err := uc.ReplaceOptions(context.Background(), "p1", []dto.OptionInput{
		{Name: "Color", Values: []dto.ValueInput{{Value: "Red"}}},
	})
	require.NoError(t, err)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, activity.EventOptionsReplaced, recorder.events[0].Type)
	assert.Equal(t, "p1", recorder.events[0].ProductID)
}

func TestReplaceOptionsFailureRecordsNothing(t *testing.T) {
	recorder := &capturingRecorder{}
	uc := NewOptionUseCase(newFakeRepo("p1"), &fakeImageStore{}, recorder, testLogger())

	_, err := uc.ReplaceOptions(context.Background(), "p1", []dto.OptionInput{{Name: "  "}})
	require.Error(t, err)
	assert.Empty(t, recorder.events)
}
