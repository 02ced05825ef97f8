package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	applog "timegrid/internal/log"
)

// Bucket names carry the cache version: bumping them orphans the previous
// generation, which Activate then sweeps.
const (
	mainBucketName   = "timegrid-v2"
	staticBucketName = "timegrid-static-v2"

	// FallbackPath is the cached document served when a navigation
	// request cannot reach the network.
	FallbackPath = "/offline.html"
)

// precacheManifest lists the assets Install stores up front so the shell
// keeps loading with no network at all.
var precacheManifest = []string{
	"/",
	"/offline.html",
	"/manifest.json",
	"/favicon.ico",
}

// Only page-shell asset types are cached opportunistically; images and
// other media always go to the network.
var cacheableExts = map[string]bool{
	".html": true,
	".css":  true,
	".js":   true,
	".json": true,
}

// Source says where a Result came from.
type Source int

const (
	SourceCache Source = iota
	SourceNetwork
	SourceFallback
	SourceFailure
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceNetwork:
		return "network"
	case SourceFallback:
		return "fallback"
	case SourceFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of a gateway fetch. A failure carries the
// underlying error instead of being swallowed, so the boundary behavior for
// non-document assets is explicit.
type Result struct {
	Source Source
	Entry  *Entry
	Err    error
}

// Gateway intercepts asset requests and answers them cache-first.
type Gateway struct {
	root     string
	upstream Upstream
	main     *Bucket
	static   *Bucket
}

// New opens the two live cache buckets under cacheRoot. Install and
// Activate complete the lifecycle.
func New(cacheRoot string, up Upstream) (*Gateway, error) {
	main, err := openBucket(cacheRoot, mainBucketName)
	if err != nil {
		return nil, err
	}
	static, err := openBucket(cacheRoot, staticBucketName)
	if err != nil {
		return nil, err
	}
	return &Gateway{root: cacheRoot, upstream: up, main: main, static: static}, nil
}

// Install pre-populates the static bucket with the asset manifest. Any
// manifest asset that cannot be fetched and stored fails the install.
func (g *Gateway) Install(ctx context.Context) error {
	for _, p := range precacheManifest {
		entry, err := g.upstream.Fetch(ctx, p)
		if err != nil {
			return fmt.Errorf("precache %s: %w", p, err)
		}
		if entry.Status != http.StatusOK {
			return fmt.Errorf("precache %s: upstream returned %d", p, entry.Status)
		}
		if err := g.static.Put(p, entry); err != nil {
			return err
		}
	}
	applog.Info("gateway installed", "assets", len(precacheManifest))
	return nil
}

// Activate deletes every bucket directory under the cache root whose name
// is not one of the two live bucket names, reclaiming superseded versions.
func (g *Gateway) Activate() error {
	dirs, err := os.ReadDir(g.root)
	if err != nil {
		return err
	}

	removed := 0
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		name := d.Name()
		if name == mainBucketName || name == staticBucketName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(g.root, name)); err != nil {
			return fmt.Errorf("sweep stale bucket %s: %w", name, err)
		}
		removed++
	}
	if removed > 0 {
		applog.Info("gateway swept stale cache buckets", "removed", removed)
	}
	return nil
}

// Fetch answers one request. GET requests are served cache-first; anything
// else passes straight through to the upstream untouched.
func (g *Gateway) Fetch(ctx context.Context, r *http.Request) Result {
	if r.Method != http.MethodGet {
		entry, err := g.upstream.Fetch(ctx, r.URL.Path)
		if err != nil {
			return Result{Source: SourceFailure, Err: err}
		}
		return Result{Source: SourceNetwork, Entry: entry}
	}

	reqPath := r.URL.Path

	// Cache lookup across both buckets; a hit is served as-is, never
	// revalidated against the network.
	for _, b := range []*Bucket{g.static, g.main} {
		if entry, ok, err := b.Get(reqPath); err == nil && ok {
			return Result{Source: SourceCache, Entry: entry}
		}
	}

	entry, err := g.upstream.Fetch(ctx, reqPath)
	if err == nil {
		if entry.Status == http.StatusOK && cacheablePath(reqPath) {
			if perr := g.static.Put(reqPath, entry); perr != nil {
				applog.Error("gateway cache populate failed", perr, "path", reqPath)
			}
		}
		return Result{Source: SourceNetwork, Entry: entry}
	}

	// Network down. Document navigations degrade to the offline page;
	// everything else reports a typed failure.
	if isNavigation(r) {
		if fb, ok, ferr := g.static.Get(FallbackPath); ferr == nil && ok {
			return Result{Source: SourceFallback, Entry: fb}
		}
	}
	return Result{Source: SourceFailure, Err: err}
}

// ServeHTTP adapts Fetch to a plain handler. Failures surface as 502.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := g.Fetch(r.Context(), r)
	if res.Source == SourceFailure {
		applog.Error("gateway fetch failed", res.Err, "path", r.URL.Path)
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	if res.Entry.ContentType != "" {
		w.Header().Set("Content-Type", res.Entry.ContentType)
	}
	w.Header().Set("X-Timegrid-Source", res.Source.String())
	w.WriteHeader(res.Entry.Status)
	w.Write(res.Entry.Body)
}

// RefreshManifest re-fetches the precache manifest, tolerating individual
// failures. Run opportunistically while online.
func (g *Gateway) RefreshManifest(ctx context.Context) error {
	var errs []error
	for _, p := range precacheManifest {
		entry, err := g.upstream.Fetch(ctx, p)
		if err != nil || entry.Status != http.StatusOK {
			if err == nil {
				err = fmt.Errorf("upstream returned %d", entry.Status)
			}
			errs = append(errs, fmt.Errorf("refresh %s: %w", p, err))
			continue
		}
		if err := g.static.Put(p, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SyncTimesheet is the named background-sync hook. There is no backend to
// sync against; the hook is a deliberate no-op.
func (g *Gateway) SyncTimesheet(ctx context.Context) error {
	applog.Debug("background sync tick")
	return nil
}

// isNavigation reports whether the request loads a full document rather
// than a subresource.
func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.HasPrefix(r.Header.Get("Accept"), "text/html")
}

// cacheablePath reports whether a path's extension is opportunistically
// cached after a successful network fetch.
func cacheablePath(p string) bool {
	return cacheableExts[strings.ToLower(path.Ext(p))]
}
