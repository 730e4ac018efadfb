package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	when, err := time.Parse(DateFormat, value)
	require.NoError(t, err)
	return when
}

func priceDirective(t *testing.T, date, commodity, number, currency string) *Price {
	t.Helper()
	return &Price{
		DirectiveBase: DirectiveBase{When: day(t, date)},
		Commodity:     commodity,
		Rate:          mustAmount(t, number, currency),
	}
}

func TestPriceIndex_LatestOnOrBefore(t *testing.T) {
	idx := BuildPriceIndex([]Directive{
		priceDirective(t, "2020-01-01", "EUR", "1.10", "USD"),
		priceDirective(t, "2020-02-01", "EUR", "1.20", "USD"),
		priceDirective(t, "2020-03-01", "EUR", "1.30", "USD"),
	})

	rate, ok := idx.Rate("EUR", "USD", day(t, "2020-02-15"))
	require.True(t, ok)
	assert.Equal(t, "1.2", rate.String())

	// Zero as-of means the latest known rate.
	rate, ok = idx.Rate("EUR", "USD", time.Time{})
	require.True(t, ok)
	assert.Equal(t, "1.3", rate.String())

	_, ok = idx.Rate("EUR", "USD", day(t, "2019-12-31"))
	assert.False(t, ok)
}

func TestPriceIndex_InverseFallback(t *testing.T) {
	idx := BuildPriceIndex([]Directive{
		priceDirective(t, "2020-01-01", "EUR", "2", "USD"),
	})

	rate, ok := idx.Rate("USD", "EUR", time.Time{})
	require.True(t, ok)
	assert.Equal(t, "0.5", rate.String())
}

func TestPriceIndex_ConvertPassesThroughUnknownCurrencies(t *testing.T) {
	idx := BuildPriceIndex([]Directive{
		priceDirective(t, "2020-01-01", "EUR", "1.10", "USD"),
	})

	inv := NewInventory()
	inv.Add(mustAmount(t, "100", "EUR"))
	inv.Add(mustAmount(t, "30", "JPY"))
	inv.Add(mustAmount(t, "5", "USD"))

	amounts := idx.Convert(inv, "USD", time.Time{})
	require.Len(t, amounts, 2)
	assert.Equal(t, "30 JPY", amounts[0].String())
	assert.Equal(t, "115.00 USD", amounts[1].String())
}

func TestPriceIndex_ConvertWithoutTargetReturnsPositions(t *testing.T) {
	idx := BuildPriceIndex(nil)
	inv := NewInventory()
	inv.Add(mustAmount(t, "100", "EUR"))

	amounts := idx.Convert(inv, "", time.Time{})
	require.Len(t, amounts, 1)
	assert.Equal(t, "100 EUR", amounts[0].String())
}

func TestPostingWeight(t *testing.T) {
	units := mustAmount(t, "10", "VACHR")

	plain := Posting{Account: "Assets:Vacation", Units: units}
	assert.Equal(t, "10 VACHR", plain.Weight().String())

	cost := mustAmount(t, "2.50", "USD")
	withCost := Posting{Account: "Assets:Vacation", Units: units, Cost: &Cost{Number: cost.Number, Currency: cost.Currency}}
	assert.Equal(t, "25.00 USD", withCost.Weight().String())

	price := mustAmount(t, "3", "USD")
	withPrice := Posting{Account: "Assets:Vacation", Units: units, PriceAnno: &price}
	assert.Equal(t, "30 USD", withPrice.Weight().String())
}
