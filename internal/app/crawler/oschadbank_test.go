package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/pkg/model"
	"github.com/deporate/crawler/internal/pkg/normalize"
)

const oschadListingHTML = `<html><body>
<section class="all-private-deposits">
  <article class="all-private-deposits-card">
    <h3 class="base-title">Мій депозит</h3>
    <a href="/deposits/my-deposit">Детальніше</a>
  </article>
  <article class="all-private-deposits-card">
    <h3 class="base-title">Накопичувальний</h3>
    <a href="https://www.oschadbank.ua/deposits/savings">Детальніше</a>
  </article>
  <article class="all-private-deposits-card">
    <h3 class="base-title">Без посилання</h3>
  </article>
</section>
</body></html>`

func TestOschadbankDiscoverProducts(t *testing.T) {
	t.Parallel()

	adapter := NewOschadbank(zap.NewNop())
	products, err := adapter.DiscoverProducts(oschadListingHTML)
	require.NoError(t, err)
	require.Equal(t, []model.DiscoveredProduct{
		{Name: "Мій депозит", DetailURL: "https://www.oschadbank.ua/deposits/my-deposit"},
		{Name: "Накопичувальний", DetailURL: "https://www.oschadbank.ua/deposits/savings"},
	}, products)
}

func TestOschadbankExtractColumnKeyedTable(t *testing.T) {
	t.Parallel()

	detail := `<html><body><section class="block-table-rates"><table>
<thead><tr><th>Строк</th><th>UAH</th><th>EUR</th></tr></thead>
<tbody><tr><td>12 місяців</td><td>5,25%</td><td>3%</td></tr></tbody>
</table></section></body></html>`

	adapter := NewOschadbank(zap.NewNop())
	rows, err := adapter.ExtractRates(context.Background(), model.DiscoveredProduct{Name: "Мій депозит"}, detail)
	require.NoError(t, err)
	require.Equal(t, []model.RawRateRow{
		{TermRaw: "12 місяців", CurrencyRaw: "UAH", RateRaw: "5,25%"},
		{TermRaw: "12 місяців", CurrencyRaw: "EUR", RateRaw: "3%"},
	}, rows)

	capturedAt := time.Now()
	first, err := normalize.Normalize(oschadbankBank, "Мій депозит", "https://example.com", capturedAt, rows[0])
	require.NoError(t, err)
	require.Equal(t, 12, first.TermMonths)
	require.Equal(t, model.CurrencyUAH, first.Currency)
	require.InDelta(t, 5.25, first.RatePercent, 1e-9)

	second, err := normalize.Normalize(oschadbankBank, "Мій депозит", "https://example.com", capturedAt, rows[1])
	require.NoError(t, err)
	require.Equal(t, model.CurrencyEUR, second.Currency)
	require.InDelta(t, 3.0, second.RatePercent, 1e-9)
}

func TestOschadbankExtractSimpleModeTable(t *testing.T) {
	t.Parallel()

	// no currency-bearing column header: the currency sits in the term cell
	detail := `<html><body><section class="block-table-rates"><table>
<thead><tr><th>Строк</th><th>Ставка</th></tr></thead>
<tbody><tr><td>12 months (USD)</td><td>4.5%</td></tr></tbody>
</table></section></body></html>`

	adapter := NewOschadbank(zap.NewNop())
	rows, err := adapter.ExtractRates(context.Background(), model.DiscoveredProduct{Name: "Валютний"}, detail)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	record, err := normalize.Normalize(oschadbankBank, "Валютний", "https://example.com", time.Now(), rows[0])
	require.NoError(t, err)
	require.Equal(t, 12, record.TermMonths)
	require.Equal(t, model.CurrencyUSD, record.Currency)
	require.InDelta(t, 4.5, record.RatePercent, 1e-9)
}

func TestOschadbankExtractMissingSection(t *testing.T) {
	t.Parallel()

	adapter := NewOschadbank(zap.NewNop())
	_, err := adapter.ExtractRates(context.Background(), model.DiscoveredProduct{Name: "x"}, "<html><body></body></html>")
	require.Error(t, err)
}
