package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/pkg/model"
)

// Fetcher retrieves fully-rendered page content. The crawler does not care
// how rendering is achieved, only that the returned document contains the
// content a browser would see.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// Downloader retrieves raw linked documents, e.g. product-passport PDFs.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// SiteAdapter encodes one bank's document shape. DiscoverProducts turns the
// already-fetched listing page into product detail links; ExtractRates pulls
// the raw rate rows out of one product's detail document. Adapters carry no
// mutable state beyond their static configuration.
type SiteAdapter interface {
	Bank() model.Bank
	DiscoverProducts(listingHTML string) ([]model.DiscoveredProduct, error)
	ExtractRates(ctx context.Context, product model.DiscoveredProduct, detailHTML string) ([]model.RawRateRow, error)
}

// AdapterDeps are the collaborators an adapter may need at construction.
type AdapterDeps struct {
	Downloader Downloader
	Logger     *zap.Logger
}

var adapterFactories = map[string]func(AdapterDeps) SiteAdapter{
	"oschadbank":  func(d AdapterDeps) SiteAdapter { return NewOschadbank(d.Logger) },
	"privatbank":  func(d AdapterDeps) SiteAdapter { return NewPrivatbank(d.Logger) },
	"pumb":        func(d AdapterDeps) SiteAdapter { return NewPumb(d.Logger) },
	"sensbank":    func(d AdapterDeps) SiteAdapter { return NewSensbank(d.Downloader, d.Logger) },
	"ukreximbank": func(d AdapterDeps) SiteAdapter { return NewUkreximbank(d.Logger) },
}

// NewAdapter builds the adapter registered for the given bank identifier.
// The identifier is matched case-insensitively with spaces removed, so
// config section names map directly onto registry keys.
func NewAdapter(id string, deps AdapterDeps) (SiteAdapter, error) {
	key := strings.ToLower(strings.ReplaceAll(id, " ", ""))
	factory, ok := adapterFactories[key]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for bank %q", id)
	}
	return factory(deps), nil
}

// absoluteURL resolves href against the page it was found on.
func absoluteURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// cleanText collapses all whitespace runs (non-breaking spaces included,
// strings.Fields treats them as whitespace) into single spaces and trims.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
