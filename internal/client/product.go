package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
	"github.com/anmar534/loctah-sub000/pkg/httpclient"
	"github.com/anmar534/loctah-sub000/pkg/logger"
)

const productService = "product"

// HTTPDoer executes requests. httpclient.Client and
// httpclient.CircuitBreakerClient both satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback replaces the breaker's raw ErrCircuitOpen with a 503.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("product service is temporarily unavailable")
}

// ProductClient asks the product service whether a product exists.
type ProductClient struct {
	http    HTTPDoer
	baseURL string
}

// NewProductClient creates a client for the product service at baseURL.
func NewProductClient(doer HTTPDoer, baseURL string) *ProductClient {
	return &ProductClient{http: doer, baseURL: strings.TrimRight(baseURL, "/")}
}

// Exists returns true on 200 and false on 404. Other statuses are errors.
func (c *ProductClient) Exists(ctx context.Context, productID string) (bool, error) {
	endpoint := c.baseURL + "/api/v1/products/" + url.PathEscape(productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("create product request: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("call product service: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return true, nil
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return false, nil
	default:
		return false, httpclient.ParseResponseError(resp, productService)
	}
}

// ProjectionLookup reads the local product projection.
type ProjectionLookup interface {
	Exists(ctx context.Context, productID string) (bool, error)
}

// RemoteLookup asks the owning service.
type RemoteLookup interface {
	Exists(ctx context.Context, productID string) (bool, error)
}

// ProductCatalog answers product existence from the local projection and
// asks the product service only on a projection miss, which covers products
// whose created event has not been consumed yet.
type ProductCatalog struct {
	projection ProjectionLookup
	remote     RemoteLookup
	logger     *slog.Logger
}

// NewProductCatalog creates a ProductCatalog. remote may be nil, in which
// case the projection is authoritative.
func NewProductCatalog(projection ProjectionLookup, remote RemoteLookup, logger *slog.Logger) *ProductCatalog {
	return &ProductCatalog{projection: projection, remote: remote, logger: logger}
}

// ProductExists implements offer.ProductCatalog.
func (c *ProductCatalog) ProductExists(ctx context.Context, productID string) (bool, error) {
	ok, err := c.projection.Exists(ctx, productID)
	if err == nil && ok {
		return true, nil
	}
	if err != nil {
		if c.remote == nil {
			return false, fmt.Errorf("product projection lookup: %w", err)
		}
		c.logger.WarnContext(ctx, "product projection lookup failed, asking product service",
			slog.String("product_id", productID),
			logger.Err(err),
		)
	}
	if c.remote == nil {
		return false, nil
	}

	ok, err = c.remote.Exists(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("product service lookup: %w", err)
	}
	return ok, nil
}
