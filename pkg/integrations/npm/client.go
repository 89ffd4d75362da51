package npm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/stackscout/pkg/cache"
	errs "github.com/matzehuels/stackscout/pkg/errors"
	"github.com/matzehuels/stackscout/pkg/integrations"
)

const (
	// SearchPageSize is the number of results requested per search page.
	SearchPageSize = 250

	// DefaultPageDelay is the pause between search pages.
	DefaultPageDelay = 300 * time.Millisecond

	searchTimeout = 15 * time.Second
	detailTimeout = 10 * time.Second
)

// Search ranking weights sent with every query.
const (
	weightQuality     = "0.5"
	weightPopularity  = "0.3"
	weightMaintenance = "0.2"
)

// Client talks to the npm registry and the downloads API.
type Client struct {
	*integrations.Client
	baseURL      string
	downloadsURL string

	// PageDelay is the pause between search pages.
	PageDelay time.Duration
	// Refresh bypasses cached package documents and download counts.
	Refresh bool
}

// NewClient creates a registry client. Package documents and download
// counts are cached in c for ttl.
func NewClient(c cache.Cache, ttl time.Duration, opts ...integrations.Option) *Client {
	opts = append([]integrations.Option{integrations.WithTimeout(searchTimeout)}, opts...)
	return &Client{
		Client:       integrations.NewClient(c, "npm", ttl, map[string]string{"Accept": "application/json"}, opts...),
		baseURL:      "https://registry.npmjs.org",
		downloadsURL: "https://api.npmjs.org/downloads/point/last-month",
		PageDelay:    DefaultPageDelay,
	}
}

// Search pages through the registry search for keyword and yields at most
// limit candidates. The sequence is single-use: ranging over it a second
// time yields nothing, while calling Search again starts over at offset 0.
// Any failed page ends the sequence quietly.
func (c *Client) Search(ctx context.Context, keyword string, limit int) iter.Seq[Candidate] {
	var used atomic.Bool
	return func(yield func(Candidate) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		yielded := 0
		for from := 0; yielded < limit; from += SearchPageSize {
			if from > 0 && !sleep(ctx, c.PageDelay) {
				return
			}
			page, err := c.searchPage(ctx, keyword, from)
			if err != nil || len(page) == 0 {
				return
			}
			for _, cand := range page {
				if yielded >= limit || !yield(cand) {
					return
				}
				yielded++
			}
			if len(page) < SearchPageSize {
				return
			}
		}
	}
}

func (c *Client) searchPage(ctx context.Context, keyword string, from int) ([]Candidate, error) {
	q := url.Values{}
	q.Set("text", keyword)
	q.Set("size", strconv.Itoa(SearchPageSize))
	q.Set("from", strconv.Itoa(from))
	q.Set("quality", weightQuality)
	q.Set("popularity", weightPopularity)
	q.Set("maintenance", weightMaintenance)
	endpoint := c.baseURL + "/-/v1/search?" + q.Encode()

	var body []byte
	err := c.Retry(ctx, func() error {
		var err error
		body, _, err = c.GetRaw(ctx, endpoint, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed search response", integrations.ErrNetwork)
	}

	var page []Candidate
	for _, obj := range gjson.GetBytes(body, "objects").Array() {
		name := obj.Get("package.name").String()
		if name == "" {
			continue
		}
		page = append(page, Candidate{Name: name, Raw: json.RawMessage(obj.Raw)})
	}
	return page, nil
}

// FetchPackage retrieves the registry document for name. Invalid names,
// missing packages and transport failures all produce a skipped result.
func (c *Client) FetchPackage(ctx context.Context, name string) integrations.Result[*PackageDetail] {
	if err := errs.ValidateNpmPackageName(name); err != nil {
		return integrations.Skip[*PackageDetail](err)
	}

	var detail PackageDetail
	err := c.Cached(ctx, "package:"+name, c.Refresh, &detail, func() error {
		detail = PackageDetail{}
		ctx, cancel := context.WithTimeout(ctx, detailTimeout)
		defer cancel()
		return c.Get(ctx, c.baseURL+"/"+integrations.PathEscape(name), &detail)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			err = fmt.Errorf("%w: npm package %s", err, name)
		}
		return integrations.Skip[*PackageDetail](err)
	}
	return integrations.Success(&detail)
}

// FetchDownloads returns last month's download count, degraded to 0 on
// failure.
func (c *Client) FetchDownloads(ctx context.Context, name string) integrations.Result[int] {
	var resp downloadsResponse
	err := c.Cached(ctx, "downloads:"+name, c.Refresh, &resp, func() error {
		ctx, cancel := context.WithTimeout(ctx, detailTimeout)
		defer cancel()
		return c.Get(ctx, c.downloadsURL+"/"+integrations.PathEscape(name), &resp)
	})
	if err != nil {
		return integrations.Degrade(0, err)
	}
	return integrations.Success(resp.Downloads)
}

type downloadsResponse struct {
	Downloads int    `json:"downloads"`
	Package   string `json:"package"`
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
