package bundlephobia

import (
	"context"
	"math"
	"time"

	"github.com/matzehuels/stackscout/pkg/cache"
	"github.com/matzehuels/stackscout/pkg/integrations"
)

const requestTimeout = 15 * time.Second

// Size is the published bundle size of a package's latest version.
type Size struct {
	SizeKB float64 `json:"size_kb"`
	GzipKB float64 `json:"gzip_kb"`
}

// Client reads bundle sizes from bundlephobia.com.
type Client struct {
	*integrations.Client
	baseURL string

	// Refresh bypasses cached sizes.
	Refresh bool
}

// NewClient creates a bundlephobia client.
func NewClient(c cache.Cache, ttl time.Duration, opts ...integrations.Option) *Client {
	opts = append([]integrations.Option{integrations.WithTimeout(requestTimeout)}, opts...)
	return &Client{
		Client:  integrations.NewClient(c, "bundlephobia", ttl, nil, opts...),
		baseURL: "https://bundlephobia.com/api/size",
	}
}

// FetchSize returns the minified and gzipped size in KB, rounded to two
// decimals. Any failure degrades to a zero Size; bundlephobia cannot build
// many packages and says so with a 4xx.
func (c *Client) FetchSize(ctx context.Context, name string) integrations.Result[Size] {
	var resp sizeResponse
	err := c.Cached(ctx, "size:"+name, c.Refresh, &resp, func() error {
		return c.Get(ctx, c.baseURL+"?package="+integrations.URLEncode(name), &resp)
	})
	if err != nil {
		return integrations.Degrade(Size{}, err)
	}
	return integrations.Success(Size{
		SizeKB: toKB(resp.Size),
		GzipKB: toKB(resp.Gzip),
	})
}

type sizeResponse struct {
	Size int64 `json:"size"`
	Gzip int64 `json:"gzip"`
}

func toKB(bytes int64) float64 {
	return math.Round(float64(bytes)/1024*100) / 100
}
