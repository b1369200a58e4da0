package crawler

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/deporate/crawler/internal/pkg/model"
	"github.com/deporate/crawler/internal/pkg/normalize"
)

var ukreximbankBank = model.Bank{
	ID:         "UkrEximBank",
	FullName:   `АТ "Укрексімбанк"`,
	Code:       2,
	Ownership:  model.OwnershipState,
	ListingURL: "https://www.eximb.com/ua/business/pryvatnym-klientam/pryvatnym-klientam-depozyty/",
}

var (
	ukreximQuotedNameRe = regexp.MustCompile(`«([^»]+)»`)
	ukreximDayRangeRe   = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
)

var _ SiteAdapter = &Ukreximbank{}

// Ukreximbank expresses terms as day ranges ("93 - 183 дні"); each known
// range maps onto a fixed pair of month buckets. Unknown ranges map to the
// zero sentinel, which the normalizer rejects.
type Ukreximbank struct {
	logger *zap.Logger
}

func NewUkreximbank(logger *zap.Logger) *Ukreximbank {
	return &Ukreximbank{logger: logger}
}

func (a *Ukreximbank) Bank() model.Bank { return ukreximbankBank }

func (a *Ukreximbank) DiscoverProducts(listingHTML string) ([]model.DiscoveredProduct, error) {
	doc, err := htmlquery.Parse(strings.NewReader(listingHTML))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	links, err := htmlquery.QueryAll(doc, `//a[contains(@class,'direction-item')]`)
	if err != nil {
		return nil, fmt.Errorf("xpath product links: %w", err)
	}

	var products []model.DiscoveredProduct
	for _, link := range links {
		heading, err := htmlquery.Query(link, `.//h3[contains(@class,'direction-text')]`)
		if err != nil || heading == nil {
			continue
		}
		text := cleanText(htmlquery.InnerText(heading))

		lower := strings.ToLower(text)
		if strings.Contains(lower, "не залучаються") || strings.Contains(lower, "калькулятор") {
			continue
		}

		m := ukreximQuotedNameRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		href := htmlquery.SelectAttr(link, "href")
		if strings.TrimSpace(href) == "" {
			continue
		}
		products = append(products, model.DiscoveredProduct{
			Name:      strings.TrimSpace(m[1]),
			DetailURL: absoluteURL(ukreximbankBank.ListingURL, href),
		})
	}
	return products, nil
}

func (a *Ukreximbank) ExtractRates(_ context.Context, product model.DiscoveredProduct, detailHTML string) ([]model.RawRateRow, error) {
	doc, err := htmlquery.Parse(strings.NewReader(detailHTML))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	block, err := htmlquery.Query(doc, `//div[contains(@class,'additional-info')]`)
	if err != nil || block == nil {
		return nil, fmt.Errorf("no rate table block on %s", product.DetailURL)
	}

	currencies, err := ukreximHeaderCurrencies(block)
	if err != nil {
		return nil, err
	}

	trs, err := htmlquery.QueryAll(block, `.//tr`)
	if err != nil {
		return nil, fmt.Errorf("xpath table rows: %w", err)
	}

	var rows []model.RawRateRow
	for _, tr := range trs {
		tds, err := htmlquery.QueryAll(tr, `.//td`)
		if err != nil || len(tds) < 2 {
			continue
		}

		termText := cleanText(htmlquery.InnerText(tds[0]))
		m := ukreximDayRangeRe.FindStringSubmatch(termText)
		if m == nil {
			continue
		}
		fromDay, _ := strconv.Atoi(m[1])
		toDay, _ := strconv.Atoi(m[2])

		for _, months := range dayRangeBuckets(fromDay, toDay) {
			for i, currency := range currencies {
				if i+1 >= len(tds) {
					break
				}
				rows = append(rows, model.RawRateRow{
					TermRaw:     strconv.Itoa(months),
					CurrencyRaw: string(currency),
					RateRaw:     cleanText(htmlquery.InnerText(tds[i+1])),
				})
			}
		}
	}
	return rows, nil
}

// ukreximHeaderCurrencies maps the table's currency column headers; the
// first header is the term column.
func ukreximHeaderCurrencies(block *html.Node) ([]model.Currency, error) {
	ths, err := htmlquery.QueryAll(block, `.//th`)
	if err != nil {
		return nil, fmt.Errorf("xpath table headers: %w", err)
	}
	if len(ths) < 2 {
		return nil, fmt.Errorf("rate table has %d headers, want term plus currencies", len(ths))
	}

	var currencies []model.Currency
	for _, th := range ths[1:] {
		label := cleanText(htmlquery.InnerText(th))
		currency, ok := normalize.FindCurrency(label)
		if !ok {
			return nil, fmt.Errorf("unrecognized currency header %q", label)
		}
		currencies = append(currencies, currency)
	}
	return currencies, nil
}

// dayRangeBuckets maps known day-range boundaries to their month buckets.
// The mapping is a fixed lookup, not division; an unknown range yields the
// zero sentinel so the rows get dropped during normalization.
func dayRangeBuckets(fromDay, toDay int) [2]int {
	switch {
	case fromDay == 93 && toDay == 183:
		return [2]int{3, 6}
	case fromDay == 184 && toDay == 367:
		return [2]int{7, 12}
	case fromDay == 368 && toDay == 3650:
		return [2]int{13, 121}
	default:
		return [2]int{0, 0}
	}
}
