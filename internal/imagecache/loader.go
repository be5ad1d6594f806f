// Package imagecache serves remote images from a bounded in-memory cache and
// shares one in-flight fetch among every concurrent caller of the same URL.
package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"photofx/internal/observability"
)

const (
	DefaultMaxItems            = 200
	DefaultMaxBytes            = 200 << 20
	DefaultMaxImageBytes       = 64 << 20
	DefaultPrefetchConcurrency = 4
	defaultFetchTimeout        = 30 * time.Second
)

// Image is a decoded-and-verified remote image kept in its original encoding.
type Image struct {
	URL    string
	Data   []byte
	Format string
	Width  int
	Height int
}

// ContentType is the MIME type of the original encoding.
func (i *Image) ContentType() string {
	return "image/" + i.Format
}

func (i *Image) cost() int64 {
	return int64(len(i.Data))
}

type Options struct {
	MaxItems            int
	MaxBytes            int64
	// MaxImageBytes caps one download of the default fetcher. It is
	// independent of MaxBytes: images over the cache budget are still served.
	MaxImageBytes       int64
	PrefetchConcurrency int
	// Fetcher defaults to an HTTPFetcher on http.DefaultClient.
	Fetcher Fetcher
	Timeout time.Duration
	Logger  *zerolog.Logger
	Metrics *observability.Metrics
}

// Loader is safe for concurrent use.
type Loader struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, *Image]
	bytes    int64
	maxBytes int64

	group         singleflight.Group
	fetcher       Fetcher
	timeout       time.Duration
	prefetchLimit int

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewLoader(opts Options) (*Loader, error) {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	if opts.PrefetchConcurrency <= 0 {
		opts.PrefetchConcurrency = DefaultPrefetchConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}
	if opts.Fetcher == nil {
		opts.Fetcher = &HTTPFetcher{MaxBytes: opts.MaxImageBytes}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "imagecache").Logger()
	}

	l := &Loader{
		maxBytes:      opts.MaxBytes,
		fetcher:       opts.Fetcher,
		timeout:       opts.Timeout,
		prefetchLimit: opts.PrefetchConcurrency,
		logger:        logger,
		metrics:       opts.Metrics,
	}
	cache, err := simplelru.NewLRU[string, *Image](opts.MaxItems, func(_ string, img *Image) {
		l.bytes -= img.cost()
	})
	if err != nil {
		return nil, fmt.Errorf("imagecache: %w", err)
	}
	l.lru = cache
	l.baseCtx, l.cancel = context.WithCancel(context.Background())
	return l, nil
}

// Cached returns the resident image for url without blocking on the network.
func (l *Loader) Cached(url string) *Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	img, ok := l.lru.Get(url)
	if !ok {
		return nil
	}
	return img
}

// Load returns the image for url, fetching it at most once no matter how many
// callers ask concurrently. Failures are logged and reported as nil. A caller
// whose ctx ends stops waiting; the shared fetch carries on for the others
// and still populates the cache.
func (l *Loader) Load(ctx context.Context, url string) *Image {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if img := l.Cached(url); img != nil {
		l.metrics.ImageLookup("hit")
		return img
	}

	ch := l.group.DoChan(url, func() (any, error) {
		return l.loadShared(url)
	})
	select {
	case res := <-ch:
		if res.Shared {
			l.metrics.ImageLookup("shared")
		} else {
			l.metrics.ImageLookup("miss")
		}
		if res.Err != nil {
			return nil
		}
		return res.Val.(*Image)
	case <-ctx.Done():
		return nil
	}
}

// Prefetch warms the cache in the background. It never blocks the caller and
// runs at most PrefetchConcurrency fetches at a time per call.
func (l *Loader) Prefetch(urls []string) {
	pending := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if l.Cached(u) == nil {
			pending = append(pending, u)
		}
	}
	if len(pending) == 0 || l.baseCtx.Err() != nil {
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		g, ctx := errgroup.WithContext(l.baseCtx)
		g.SetLimit(l.prefetchLimit)
		for _, u := range pending {
			g.Go(func() error {
				l.Load(ctx, u)
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Len reports the number of resident images and their total byte cost.
func (l *Loader) Len() (items int, size int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lru.Len(), l.bytes
}

// Purge drops every resident image.
func (l *Loader) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lru.Purge()
}

// Close stops outstanding fetches and waits for prefetch workers to exit.
func (l *Loader) Close() {
	l.cancel()
	l.wg.Wait()
}

// loadShared runs once per url at a time. A fetch that finished between the
// caller's cache check and this call has already stored the image.
func (l *Loader) loadShared(url string) (*Image, error) {
	if img := l.Cached(url); img != nil {
		return img, nil
	}
	return l.fetch(url)
}

func (l *Loader) fetch(url string) (*Image, error) {
	ctx, cancel := context.WithTimeout(l.baseCtx, l.timeout)
	defer cancel()

	data, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		l.metrics.ImageFetch("error")
		l.logger.Warn().Err(err).Str("url", url).Msg("image fetch failed")
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		l.metrics.ImageFetch("undecodable")
		l.logger.Warn().Err(err).Str("url", url).Int("bytes", len(data)).Msg("image payload is not a supported image")
		return nil, err
	}
	img := &Image{URL: url, Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}
	l.metrics.ImageFetch("ok")
	l.store(img)
	return img, nil
}

func (l *Loader) store(img *Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cost := img.cost()
	if cost > l.maxBytes {
		l.logger.Debug().Str("url", img.URL).Int64("bytes", cost).Msg("image larger than cache budget; not cached")
		return
	}
	if prev, ok := l.lru.Peek(img.URL); ok {
		l.bytes -= prev.cost()
	}
	l.lru.Add(img.URL, img)
	l.bytes += cost
	for l.bytes > l.maxBytes {
		if _, _, ok := l.lru.RemoveOldest(); !ok {
			break
		}
	}
}
