// Package identifier issues slugs, SKUs and EAN-13 barcodes. Generation is
// probabilistic with bounded retry against a uniqueness probe; the storage
// unique constraint stays the authoritative guard, so probe races surface as
// conflicts at insert time.
package identifier

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nuvora/catalog-service/pkg/apperrors"
)

const (
	slugMaxAttempts = 100
	skuMaxAttempts  = 50

	// GS1 "internal use" prefix; generated barcodes must not collide with
	// real retail ranges.
	eanPrefix = "200"
)

// UniquenessProbe answers whether a candidate identifier is already taken,
// optionally ignoring one row (the product being edited).
type UniquenessProbe interface {
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	SKUExists(ctx context.Context, sku, excludeID string) (bool, error)
}

// GenerateSlug normalizes text into a URL slug and probes for collisions,
// suffixing -1..-100 before falling back to a timestamp suffix that is not
// probed.
func GenerateSlug(ctx context.Context, probe UniquenessProbe, text, excludeID string) (string, error) {
	base := NormalizeSlug(text)
	if base == "" {
		return "", apperrors.NewValidation("cannot build a slug from %q", text)
	}

	candidate := base
	for i := 0; i <= slugMaxAttempts; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		exists, err := probe.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return fmt.Sprintf("%s-%d", base, time.Now().UnixMilli()), nil
}

// NormalizeSlug lowercases, folds diacritics, drops everything outside
// [a-z0-9.-], turns separator runs into single dashes and trims the edges.
func NormalizeSlug(text string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '-' || r == '_' || unicode.IsSpace(r):
			pendingSep = true
		}
	}

	return strings.Trim(b.String(), "-.")
}

// GenerateSKU returns an 8-digit numeric string.
func GenerateSKU() string {
	return fmt.Sprintf("%08d", rand.Intn(100000000))
}

// GenerateUniqueSKU retries GenerateSKU against the probe, falling back to
// the last 8 digits of the current time on exhaustion.
func GenerateUniqueSKU(ctx context.Context, probe UniquenessProbe, excludeID string) (string, error) {
	for i := 0; i < skuMaxAttempts; i++ {
		candidate := GenerateSKU()
		exists, err := probe.SKUExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	nanos := fmt.Sprintf("%d", time.Now().UnixNano())
	return nanos[len(nanos)-8:], nil
}

// GenerateEAN13 builds prefix + two random blocks + check digit. There is
// no uniqueness probe here; the caller detects collisions at insert time.
func GenerateEAN13() string {
	body := fmt.Sprintf("%s%04d%05d", eanPrefix, rand.Intn(10000), rand.Intn(100000))
	return body + fmt.Sprintf("%d", CheckDigitEAN13(body))
}

// CheckDigitEAN13 computes the standard check digit for the first 12 digits:
// alternating 1/3 weights, mod-10 complement.
func CheckDigitEAN13(digits12 string) int {
	sum := 0
	for i, r := range digits12 {
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}
