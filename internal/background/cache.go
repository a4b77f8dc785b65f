package background

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cacheNamePrefix tags on-disk cache directories so stale versions can be
// recognized and purged on activation.
const cacheNamePrefix = "shell-cache-"

type cachedAsset struct {
	body        []byte
	contentType string
	storedAt    time.Time
}

// ShellCache keeps a version-tagged copy of the application shell so it
// stays servable while the upstream is unreachable. Entries live in
// memory and are mirrored to disk under <dir>/<cacheNamePrefix><version>
// so activation can purge what older versions left behind.
type ShellCache struct {
	version  string
	upstream string
	dir      string
	manifest []string
	httpc    *http.Client
	logger   *zap.Logger

	mu      sync.RWMutex
	entries map[string]cachedAsset
}

// NewShellCache prepares an empty cache for the given app version.
// upstream is the origin the shell is fetched from; manifest lists the
// asset paths pre-fetched on install.
func NewShellCache(version, upstream, dir string, manifest []string, logger *zap.Logger) *ShellCache {
	return &ShellCache{
		version:  version,
		upstream: strings.TrimRight(upstream, "/"),
		dir:      dir,
		manifest: manifest,
		httpc:    &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
		entries:  make(map[string]cachedAsset),
	}
}

func (c *ShellCache) cacheName() string {
	return cacheNamePrefix + c.version
}

// Install pre-fetches every manifest asset. A failing asset is skipped
// with a warning; install never fails wholesale because of one URL.
func (c *ShellCache) Install(ctx context.Context) {
	c.logger.Info("pre-caching shell assets",
		zap.String("cache", c.cacheName()),
		zap.Int("assets", len(c.manifest)),
	)
	for _, path := range c.manifest {
		if _, err := c.fetchAndStore(ctx, path); err != nil {
			c.logger.Warn("skipped shell asset", zap.String("path", path), zap.Error(err))
		}
	}
}

// Activate removes on-disk caches tagged with any version other than the
// current one.
func (c *ShellCache) Activate(ctx context.Context) {
	dirs, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("cannot scan cache dir", zap.Error(err))
		}
		return
	}
	for _, d := range dirs {
		name := d.Name()
		if !strings.HasPrefix(name, cacheNamePrefix) || name == c.cacheName() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.dir, name)); err != nil {
			c.logger.Warn("cannot remove stale cache", zap.String("cache", name), zap.Error(err))
			continue
		}
		c.logger.Info("removed stale cache", zap.String("cache", name))
	}
}

// Get returns a cached asset, if present.
func (c *ShellCache) Get(path string) (cachedAsset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.entries[path]
	return a, ok
}

// Revalidate refreshes a cached entry from upstream in the background.
// Failures are silent; the cached copy simply stays current.
func (c *ShellCache) Revalidate(path string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, err := c.fetchAndStore(ctx, path); err != nil {
			c.logger.Debug("revalidation failed", zap.String("path", path), zap.Error(err))
		}
	}()
}

// Fetch fetches a path from upstream and stores it on success.
func (c *ShellCache) Fetch(ctx context.Context, path string) (cachedAsset, error) {
	return c.fetchAndStore(ctx, path)
}

func (c *ShellCache) fetchAndStore(ctx context.Context, path string) (cachedAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.upstream+path, nil)
	if err != nil {
		return cachedAsset{}, err
	}
	// Bypass any intermediary HTTP caching; the point is a fresh copy.
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return cachedAsset{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cachedAsset{}, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cachedAsset{}, err
	}

	asset := cachedAsset{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
		storedAt:    time.Now(),
	}

	c.mu.Lock()
	c.entries[path] = asset
	c.mu.Unlock()

	c.persist(path, body)
	return asset, nil
}

// persist mirrors the asset to the version-tagged directory. Disk is a
// best-effort mirror for purge bookkeeping; memory remains the source of
// truth while the process lives.
func (c *ShellCache) persist(path string, body []byte) {
	name := strings.ReplaceAll(strings.Trim(path, "/"), "/", "_")
	if name == "" {
		name = "index"
	}
	dir := filepath.Join(c.dir, c.cacheName())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.logger.Debug("cannot create cache dir", zap.Error(err))
		return
	}
	if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
		c.logger.Debug("cannot persist cached asset", zap.String("path", path), zap.Error(err))
	}
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}
