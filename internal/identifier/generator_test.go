package identifier

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProbe persists every identifier it has confirmed free, so repeated
// generation behaves like a store that inserts each result.
type fakeProbe struct {
	slugs map[string]bool
	skus  map[string]bool
}

func newFakeProbe() *fakeProbe {
	return &fakeProbe{slugs: map[string]bool{}, skus: map[string]bool{}}
}

func (p *fakeProbe) SlugExists(_ context.Context, slug, _ string) (bool, error) {
	return p.slugs[slug], nil
}

func (p *fakeProbe) SKUExists(_ context.Context, sku, _ string) (bool, error) {
	return p.skus[sku], nil
}

func TestNormalizeSlug(t *testing.T) {
	cases := map[string]string{
		"Café Déjà Vu!!":      "cafe-deja-vu",
		"  Hello   World  ":   "hello-world",
		"Über_Größe 2.0":      "uber-groe-2.0",
		"---":                 "",
		"Plain":               "plain",
		"foo--bar__baz":       "foo-bar-baz",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSlug(in), "input %q", in)
	}
}

func TestGenerateSlugEmptyBase(t *testing.T) {
	_, err := GenerateSlug(context.Background(), newFakeProbe(), "!!!", "")
	require.Error(t, err)
}

func TestGenerateSlugCollisionSuffix(t *testing.T) {
	probe := newFakeProbe()
	probe.slugs["cafe-deja-vu"] = true
	probe.slugs["cafe-deja-vu-1"] = true

	slug, err := GenerateSlug(context.Background(), probe, "Café Déjà Vu!!", "")
	require.NoError(t, err)
	assert.Equal(t, "cafe-deja-vu-2", slug)
}

func TestGenerateSlugNeverRepeats(t *testing.T) {
	probe := newFakeProbe()
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		slug, err := GenerateSlug(ctx, probe, "Same Title", "")
		require.NoError(t, err)
		require.False(t, seen[slug], "slug %q returned twice", slug)
		seen[slug] = true
		probe.slugs[slug] = true
	}
}

func TestGenerateSlugTimestampFallback(t *testing.T) {
	probe := newFakeProbe()
	probe.slugs["x"] = true
	for i := 1; i <= 100; i++ {
		probe.slugs["x-"+strconv.Itoa(i)] = true
	}

	slug, err := GenerateSlug(context.Background(), probe, "x", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(slug, "x-"))
	assert.False(t, probe.slugs[slug])
}

func TestGenerateSKUShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		sku := GenerateSKU()
		require.Len(t, sku, 8)
		for _, r := range sku {
			require.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestGenerateUniqueSKU(t *testing.T) {
	probe := newFakeProbe()
	sku, err := GenerateUniqueSKU(context.Background(), probe, "")
	require.NoError(t, err)
	assert.Len(t, sku, 8)
}

func TestGenerateEAN13Checksum(t *testing.T) {
	for i := 0; i < 100; i++ {
		ean := GenerateEAN13()
		require.Len(t, ean, 13)
		assert.True(t, strings.HasPrefix(ean, "200"))

		want := CheckDigitEAN13(ean[:12])
		assert.Equal(t, want, int(ean[12]-'0'))
	}
}

func TestCheckDigitKnownValue(t *testing.T) {
	// 4006381333931 is a published EAN-13 example.
	assert.Equal(t, 1, CheckDigitEAN13("400638133393"))
}
