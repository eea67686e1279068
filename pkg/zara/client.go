package zara

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== Configuration ====================

const (
	// DefaultBaseURL is the public storefront root; all catalog documents
	// hang off it with ajax=true.
	DefaultBaseURL = "https://www.zara.com/tr/tr"

	// The source rejects non-browser clients.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

	defaultTimeout = 20 * time.Second
)

// ==================== Client ====================

// Client fetches raw catalog documents. One long-lived instance is shared
// by every component; fetch timeouts keep slow responses from starving the
// periodic cycles.
type Client struct {
	http    *resty.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := resty.New().
		SetTimeout(defaultTimeout).
		SetRetryCount(2).
		SetHeader("User-Agent", userAgent)

	return &Client{http: httpClient, baseURL: baseURL}
}

// GetCategories fetches the full nested category tree.
func (c *Client) GetCategories(ctx context.Context) (*CategoriesResponse, error) {
	var out CategoriesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("%s/categories?ajax=true", c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch categories: status %d", resp.StatusCode())
	}
	return &out, nil
}

// GetCategoryProducts fetches the grouped commercial-item listing of one
// leaf category.
func (c *Client) GetCategoryProducts(ctx context.Context, categoryApiID int64) (*ProductGroupsResponse, error) {
	var out ProductGroupsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("%s/category/%d/products?ajax=true", c.baseURL, categoryApiID))
	if err != nil {
		return nil, fmt.Errorf("fetch category %d products: %w", categoryApiID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch category %d products: status %d", categoryApiID, resp.StatusCode())
	}
	return &out, nil
}

// GetProductDetail fetches the full detail page of one item, addressed by
// its SEO identifiers. This is the only document carrying complete
// color/size/availability data.
func (c *Client) GetProductDetail(ctx context.Context, seo Seo, categoryApiID int64) (*ProductResponse, error) {
	var out ProductResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("%s/%s-p%s.html?v1=%s&v2=%d&ajax=true",
			c.baseURL, seo.Keyword, seo.SeoProductID, seo.DiscernProductID, categoryApiID))
	if err != nil {
		return nil, fmt.Errorf("fetch product detail %s: %w", seo.DiscernProductID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch product detail %s: status %d", seo.DiscernProductID, resp.StatusCode())
	}
	return &out, nil
}

// GetProductsDetails fetches live availability for one discern product id.
// The endpoint answers with a JSON array even for a single id.
func (c *Client) GetProductsDetails(ctx context.Context, discernProductID string) ([]ProductsDetailsItem, error) {
	var out []ProductsDetailsItem
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("%s/products-details?productIds=%s&ajax=true", c.baseURL, discernProductID))
	if err != nil {
		return nil, fmt.Errorf("fetch products-details %s: %w", discernProductID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch products-details %s: status %d", discernProductID, resp.StatusCode())
	}
	return out, nil
}

// ProductLink rebuilds the human-facing product URL from the SEO triplet.
func (c *Client) ProductLink(seo Seo) string {
	return fmt.Sprintf("%s/%s-p%s.html?v1=%s", c.baseURL, seo.Keyword, seo.SeoProductID, seo.DiscernProductID)
}
