package crawler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/pkg/model"
)

const pumbListingHTML = `<html><body>
<div class="deposit-list-card">
  <div class="deposit-list-title">Депозит Прибутковий</div>
  <a href="/deposits/pributkoviy">Детальніше</a>
</div>
<div class="deposit-list-card" style="display: none;">
  <div class="deposit-list-title">Депозит Прихований</div>
  <a href="/deposits/hidden">Детальніше</a>
</div>
<div class="deposit-list-card">
  <div class="deposit-list-title">Депозит МаніБокс</div>
  <a href="/deposits/moneybox">Детальніше</a>
</div>
<div class="deposit-list-card">
  <div class="deposit-list-title">Депозит Без кнопки</div>
  <a href="/promo">Акція</a>
</div>
</body></html>`

func TestPumbDiscoverProducts(t *testing.T) {
	t.Parallel()

	adapter := NewPumb(zap.NewNop())
	products, err := adapter.DiscoverProducts(pumbListingHTML)
	require.NoError(t, err)
	require.Equal(t, []model.DiscoveredProduct{
		{Name: "Прибутковий", DetailURL: "https://persona.pumb.ua/deposits/pributkoviy"},
	}, products)
}

const pumbDetailHTML = `<html><body>
<section class="line-tab tabs-wr deposit-rates">
  <div class="tabs-btns-wr">
    <a data-id="1"><span>Гривня<sup>1</sup></span></a>
    <a data-id="2"><span>Долар США</span></a>
    <a data-id="3"><span>Бонус</span></a>
  </div>
  <div class="tab-pane" data-id="1">
    <div class="row header-row">
      <div class="col">3 міс</div><div class="col">6 міс</div>
    </div>
    <div class="row">
      <div class="col">5%</div><div class="col">6%</div>
    </div>
    <div class="transparent-table">
      <div class="row header-row"><div class="col">9 міс</div></div>
      <div class="row"><div class="col">9%</div></div>
    </div>
  </div>
  <div class="tab-pane" data-id="2">
    <div class="row header-row">
      <div class="col">12 міс</div>
    </div>
    <div class="row">
      <div class="col">1,5%</div>
    </div>
  </div>
  <div class="tab-pane" data-id="3">
    <div class="row header-row"><div class="col">12 міс</div></div>
    <div class="row"><div class="col">99%</div></div>
  </div>
</section>
</body></html>`

func TestPumbExtractTabPanels(t *testing.T) {
	t.Parallel()

	adapter := NewPumb(zap.NewNop())
	rows, err := adapter.ExtractRates(context.Background(), model.DiscoveredProduct{Name: "Прибутковий"}, pumbDetailHTML)
	require.NoError(t, err)

	// panel 3 has no currency label and the transparent sub-table is
	// excluded from both headers and data
	require.Equal(t, []model.RawRateRow{
		{TermRaw: "3 міс", CurrencyRaw: "UAH", RateRaw: "5%"},
		{TermRaw: "6 міс", CurrencyRaw: "UAH", RateRaw: "6%"},
		{TermRaw: "12 міс", CurrencyRaw: "USD", RateRaw: "1,5%"},
	}, rows)
}

func TestPumbExtractMissingSection(t *testing.T) {
	t.Parallel()

	adapter := NewPumb(zap.NewNop())
	_, err := adapter.ExtractRates(context.Background(), model.DiscoveredProduct{Name: "x"}, "<html><body></body></html>")
	require.Error(t, err)
}
