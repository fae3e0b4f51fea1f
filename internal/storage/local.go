package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider keeps objects on disk under RootPath. The router serves
// RootPath at PublicURL.
type LocalProvider struct {
	RootPath  string
	PublicURL string
}

func NewLocalProvider(root, publicURL string) *LocalProvider {
	_ = os.MkdirAll(root, 0755)
	return &LocalProvider{RootPath: root, PublicURL: strings.TrimRight(publicURL, "/")}
}

func (l *LocalProvider) Put(_ context.Context, key string, body io.ReadSeeker, _ string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	p := filepath.Join(l.RootPath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, body)
	return err
}

func (l *LocalProvider) Delete(_ context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(l.RootPath, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (l *LocalProvider) URL(key string) string {
	return l.PublicURL + "/" + key
}
