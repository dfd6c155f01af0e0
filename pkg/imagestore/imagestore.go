package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Store is the binary file collaborator the catalog depends on. Upload is
// synchronous and may fail; callers decide whether a failure aborts.
type Store interface {
	Upload(ctx context.Context, data []byte, filename, namespace string, visibility Visibility) (string, error)
}

// LocalStore writes files under a root directory and returns URLs below a
// base URL. It stands in for an object store in development and tests.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Upload(ctx context.Context, data []byte, filename, namespace string, visibility Visibility) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s", uuid.New().String(), filepath.Base(filename))
	dir := filepath.Join(s.Root, string(visibility), namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s/%s", s.BaseURL, visibility, namespace, name), nil
}
