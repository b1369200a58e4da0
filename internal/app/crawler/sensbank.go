package crawler

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/pkg/model"
	"github.com/deporate/crawler/internal/pkg/pdftable"
)

var sensbankBank = model.Bank{
	ID:         "Sensbank",
	FullName:   `АТ "СЕНС БАНК"`,
	Code:       272,
	Ownership:  model.OwnershipState,
	ListingURL: "https://sensebank.ua/deposits",
}

const (
	// sensPassportMarker is the fixed phrase in the anchor text of the
	// product-passport link; the product name must appear alongside it.
	sensPassportMarker = "Паспорт продукта"

	// the rate schedule sits in the second table on the first page, with a
	// fixed term/UAH/USD/EUR column order
	sensPassportPage       = 1
	sensPassportTableIndex = 1
	sensPassportColumns    = 4
)

var sensPassportHrefRe = regexp.MustCompile(`/upload/PASPORT_PRODUKTA_.*\.pdf`)

var sensPassportCurrencies = []model.Currency{model.CurrencyUAH, model.CurrencyUSD, model.CurrencyEUR}

var _ SiteAdapter = &Sensbank{}

// Sensbank publishes rates only inside a per-product "passport" PDF linked
// from the detail page, so extraction goes HTML link discovery → download →
// fixed-position PDF table.
type Sensbank struct {
	downloader Downloader
	logger     *zap.Logger
}

func NewSensbank(downloader Downloader, logger *zap.Logger) *Sensbank {
	return &Sensbank{downloader: downloader, logger: logger}
}

func (a *Sensbank) Bank() model.Bank { return sensbankBank }

func (a *Sensbank) DiscoverProducts(listingHTML string) ([]model.DiscoveredProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var products []model.DiscoveredProduct
	doc.Find("section.deposit-list article.deposit-card").Each(func(_ int, card *goquery.Selection) {
		title := cleanText(card.Find("h3.base-title").First().Text())
		content := cleanText(card.Find("div.deposit-card__content.text").First().Text())
		if title == "" || !strings.HasPrefix(content, "На термін від") {
			return
		}
		href, ok := card.Find("a[href]").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		products = append(products, model.DiscoveredProduct{
			Name:      title,
			DetailURL: absoluteURL(sensbankBank.ListingURL, href),
		})
	})
	return products, nil
}

func (a *Sensbank) ExtractRates(ctx context.Context, product model.DiscoveredProduct, detailHTML string) ([]model.RawRateRow, error) {
	link, err := a.findPassportLink(product, detailHTML)
	if err != nil {
		return nil, model.NewFailure(model.FailureExtraction, sensbankBank.ID, product.Name, err)
	}

	a.logger.Debug("downloading product passport", zap.String("url", link))
	data, err := a.downloader.Download(ctx, link)
	if err != nil {
		return nil, model.NewFailure(model.FailureFetch, sensbankBank.ID, product.Name,
			fmt.Errorf("download passport: %w", err))
	}

	rows, err := a.parsePassport(data)
	if err != nil {
		return nil, model.NewFailure(model.FailureExtraction, sensbankBank.ID, product.Name, err)
	}
	return rows, nil
}

// findPassportLink locates the passport PDF via text-matched link discovery:
// the anchor must carry the marker phrase together with the product name.
func (a *Sensbank) findPassportLink(product model.DiscoveredProduct, detailHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
	if err != nil {
		return "", fmt.Errorf("parse detail page: %w", err)
	}

	var link string
	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href, _ := anchor.Attr("href")
		if !sensPassportHrefRe.MatchString(href) {
			return true
		}
		text := cleanText(anchor.Text())
		if !strings.Contains(text, sensPassportMarker) || !strings.Contains(text, product.Name) {
			return true
		}
		link = absoluteURL(sensbankBank.ListingURL, href)
		return false
	})
	if link == "" {
		return "", fmt.Errorf("no passport link for product %q", product.Name)
	}
	return link, nil
}

func (a *Sensbank) parsePassport(data []byte) ([]model.RawRateRow, error) {
	table, err := pdftable.ExtractTable(data, sensPassportPage, sensPassportTableIndex)
	if err != nil {
		return nil, fmt.Errorf("extract passport table: %w", err)
	}
	if len(table) < 2 {
		return nil, fmt.Errorf("passport table has no data rows")
	}

	var rows []model.RawRateRow
	for _, cells := range table[1:] {
		if len(cells) != sensPassportColumns {
			return nil, fmt.Errorf("passport table row has %d cells, want %d", len(cells), sensPassportColumns)
		}
		termRaw := cells[0]
		for i, currency := range sensPassportCurrencies {
			rate := strings.TrimSpace(cells[i+1])
			if rate == "" || rate == "-" {
				continue
			}
			rows = append(rows, model.RawRateRow{
				TermRaw:     termRaw,
				CurrencyRaw: string(currency),
				RateRaw:     rate,
			})
		}
	}
	return rows, nil
}
