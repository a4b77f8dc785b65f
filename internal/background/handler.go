package background

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// NewShellServer builds the HTTP surface that serves the application
// shell cache-first: cached copies are returned immediately and
// revalidated in the background; uncached paths go to upstream and are
// cached on success. When both the cache and the upstream miss, the
// client gets an offline response. Paths under any bypass prefix (API
// traffic) are never cached and proxied as-is.
func NewShellServer(cache *ShellCache, bypassPrefixes []string, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/*", func(c echo.Context) error {
		path := c.Request().URL.Path

		for _, prefix := range bypassPrefixes {
			if strings.HasPrefix(path, prefix) {
				return passThrough(c, cache)
			}
		}

		if asset, ok := cache.Get(path); ok {
			cache.Revalidate(path)
			return serveAsset(c, asset)
		}

		asset, err := cache.Fetch(c.Request().Context(), path)
		if err != nil {
			logger.Debug("shell fetch failed", zap.String("path", path), zap.Error(err))
			return c.String(http.StatusServiceUnavailable, "Offline")
		}
		return serveAsset(c, asset)
	})

	return e
}

func serveAsset(c echo.Context, asset cachedAsset) error {
	contentType := asset.contentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Blob(http.StatusOK, contentType, asset.body)
}

// passThrough forwards the request upstream without touching the cache.
func passThrough(c echo.Context, cache *ShellCache) error {
	req, err := http.NewRequestWithContext(
		c.Request().Context(),
		http.MethodGet,
		cache.upstream+c.Request().URL.RequestURI(),
		nil,
	)
	if err != nil {
		return c.NoContent(http.StatusBadGateway)
	}

	resp, err := cache.httpc.Do(req)
	if err != nil {
		return c.NoContent(http.StatusBadGateway)
	}
	defer resp.Body.Close()

	return c.Stream(resp.StatusCode, resp.Header.Get("Content-Type"), resp.Body)
}
