package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
)

func TestRateResolver_FreeShippingAtExactThreshold(t *testing.T) {
	h := newHarness(t)
	parcels := []domain.Parcel{h.cfg.DefaultParcel()}

	result, err := h.rates.GetRatesWithThreshold(context.Background(), testAddress(), parcels, 1000, 1000)
	require.NoError(t, err)

	assert.True(t, result.FreeShippingAvailable)
	assert.Zero(t, result.AmountToFreeShipping)
	assert.Empty(t, result.Rates)
	quotes, _, _ := h.carrier.counts()
	assert.Zero(t, quotes, "free orders are not quoted")
}

func TestRateResolver_OneBelowThreshold(t *testing.T) {
	h := newHarness(t)
	parcels := []domain.Parcel{h.cfg.DefaultParcel()}

	result, err := h.rates.GetRatesWithThreshold(context.Background(), testAddress(), parcels, 999, 1000)
	require.NoError(t, err)

	assert.False(t, result.FreeShippingAvailable)
	assert.Equal(t, 1.0, result.AmountToFreeShipping)
	assert.Len(t, result.Rates, 2)
	assert.Equal(t, 1000.0, result.FreeShippingThreshold)
}

func TestRateResolver_DisabledThresholdAlwaysQuotes(t *testing.T) {
	h := newHarness(t)

	result, err := h.rates.GetRatesWithThreshold(context.Background(), testAddress(), []domain.Parcel{h.cfg.DefaultParcel()}, 50000, 0)
	require.NoError(t, err)

	assert.False(t, result.FreeShippingAvailable)
	assert.Zero(t, result.AmountToFreeShipping)
	assert.Len(t, result.Rates, 2)
}

func TestRateResolver_CarrierFailureIsRateQuoteFailedWithoutRetry(t *testing.T) {
	h := newHarness(t)
	h.carrier.quoteErr = errors.New("address rejected by carrier")

	_, err := h.rates.GetRates(context.Background(), testAddress(), []domain.Parcel{h.cfg.DefaultParcel()}, 200)

	assert.ErrorIs(t, err, domain.ErrRateQuoteFailed)
	quotes, _, _ := h.carrier.counts()
	assert.Equal(t, 1, quotes)
}

func TestRateResolver_AdHocUsesDefaultParcel(t *testing.T) {
	h := newHarness(t)

	_, err := h.rates.GetAdHocRates(context.Background(), GetRatesQuery{Address: testAddress(), DeclaredValue: 100})
	require.NoError(t, err)

	require.Len(t, h.carrier.lastRateReq.Parcels, 1)
	p := h.carrier.lastRateReq.Parcels[0]
	assert.Equal(t, 35.0, p.LengthCm)
	assert.Equal(t, 25.0, p.WidthCm)
	assert.Equal(t, 5.0, p.HeightCm)
	assert.Equal(t, 0.5, p.WeightKg)
	assert.Equal(t, "Apparel", p.Description)
}

func TestRateResolver_ValidatesInputBeforeCallingCarrier(t *testing.T) {
	h := newHarness(t)
	address := testAddress()
	address.PostalCode = ""

	_, err := h.rates.GetRates(context.Background(), address, []domain.Parcel{h.cfg.DefaultParcel()}, 100)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.rates.GetRates(context.Background(), testAddress(), nil, 100)
	assert.ErrorIs(t, err, domain.ErrValidation)

	quotes, _, _ := h.carrier.counts()
	assert.Zero(t, quotes)
}

func TestRateResolver_GetRatesForOrderEstimatesParcels(t *testing.T) {
	h := newHarness(t)
	h.seed(t, newTestOrder("ord-23", 640, 10, 10, 3))

	result, err := h.rates.GetRatesForOrder(context.Background(), "ord-23")
	require.NoError(t, err)

	assert.Len(t, result.Rates, 2)
	assert.Len(t, h.carrier.lastRateReq.Parcels, 3)
	assert.Equal(t, 640.0, h.carrier.lastRateReq.DeclaredValue)
	assert.Equal(t, 360.0, result.AmountToFreeShipping)
}

func TestRateResolver_GetRatesForUnknownOrder(t *testing.T) {
	h := newHarness(t)

	_, err := h.rates.GetRatesForOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
