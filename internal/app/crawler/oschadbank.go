package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/pkg/model"
)

var oschadbankBank = model.Bank{
	ID:         "Oschad",
	FullName:   `АТ "Ощадбанк"`,
	Code:       6,
	Ownership:  model.OwnershipState,
	ListingURL: "https://www.oschadbank.ua/deposits",
}

var _ SiteAdapter = &Oschadbank{}

// Oschadbank publishes a card per deposit product on the listing page and a
// column-keyed rate table on every detail page.
type Oschadbank struct {
	logger *zap.Logger
}

func NewOschadbank(logger *zap.Logger) *Oschadbank {
	return &Oschadbank{logger: logger}
}

func (a *Oschadbank) Bank() model.Bank { return oschadbankBank }

func (a *Oschadbank) DiscoverProducts(listingHTML string) ([]model.DiscoveredProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var products []model.DiscoveredProduct
	doc.Find("section.all-private-deposits article.all-private-deposits-card").Each(func(_ int, card *goquery.Selection) {
		title := cleanText(card.Find("h3.base-title").First().Text())
		href, ok := card.Find("a[href]").First().Attr("href")
		if title == "" || !ok || strings.TrimSpace(href) == "" {
			return
		}
		products = append(products, model.DiscoveredProduct{
			Name:      title,
			DetailURL: absoluteURL(oschadbankBank.ListingURL, href),
		})
	})
	return products, nil
}

func (a *Oschadbank) ExtractRates(_ context.Context, product model.DiscoveredProduct, detailHTML string) ([]model.RawRateRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	section := doc.Find("section.block-table-rates").First()
	if section.Length() == 0 {
		return nil, fmt.Errorf("no rate table section on %s", product.DetailURL)
	}
	return parseColumnTable(section), nil
}
