package cartapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ikkim/storefront-bff/internal/app/model"
)

// GetProduct reads the public catalog entry for sku. No credential needed.
func (c *Client) GetProduct(ctx context.Context, sku string) Result[model.Product] {
	if sku == "" {
		return failure[model.Product](&callFailure{kind: KindValidation, message: "sku is required"})
	}

	var resp ProductResponse
	if f := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(sku), "", nil, &resp); f != nil {
		return failure[model.Product](f)
	}
	return success(resp.toProduct())
}
