// Package icons manages the on-disk icon cache under ~/.gainhour/icons.
// Activities reference cached files by absolute path; the database only
// stores the reference.
package icons

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Cache is a flat directory of icon files keyed by a sanitized activity
// name.
type Cache struct {
	dir string
}

// NewCache ensures dir exists and returns a cache rooted there.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create icon cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// Lookup returns the cached icon path for an activity name, or empty when
// no icon has been cached yet. The engine calls this every tick for newly
// observed windows, so a later-added icon is picked up without a restart.
func (c *Cache) Lookup(name string) string {
	for _, ext := range []string{".png", ".ico", ".jpg"} {
		p := filepath.Join(c.dir, sanitize(name)+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Save copies the file at src into the cache under the given activity
// name, replacing any previous icon, and returns the cached path.
func (c *Cache) Save(name, src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open icon source: %w", err)
	}
	defer in.Close()

	dst := filepath.Join(c.dir, sanitize(name)+filepath.Ext(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create cached icon: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("copy icon: %w", err)
	}
	return dst, nil
}

// Remove deletes a cached icon file. Paths outside the cache directory
// and missing files are ignored.
func (c *Cache) Remove(path string) error {
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, c.dir+string(filepath.Separator)) {
		return nil
	}
	err = os.Remove(abs)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// sanitize turns an activity name into a safe file stem.
func sanitize(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	if mapped == "" {
		mapped = "icon"
	}
	return mapped
}
