package domain

import (
	"math"
	"time"
)

// RateQuote is one service level offered by the carrier for a request.
type RateQuote struct {
	ServiceLevelCode string     `json:"serviceLevelCode"`
	ServiceLevelName string     `json:"serviceLevelName"`
	TotalPrice       float64    `json:"totalPrice"`
	DeliveryEstimate string     `json:"deliveryEstimate,omitempty"`
	DeliveryFrom     *time.Time `json:"deliveryFrom,omitempty"`
	DeliveryTo       *time.Time `json:"deliveryTo,omitempty"`
}

// ShippingRatesResult is the outcome of a single rate request.
// When FreeShippingAvailable is true none of Rates may be charged.
type ShippingRatesResult struct {
	Rates                 []RateQuote `json:"rates"`
	FreeShippingAvailable bool        `json:"freeShippingAvailable"`
	AmountToFreeShipping  float64     `json:"amountToFreeShipping"`
	FreeShippingThreshold float64     `json:"freeShippingThreshold"`
}

// FindRate returns the quote with the given service level code.
func (r *ShippingRatesResult) FindRate(code string) (RateQuote, bool) {
	for _, q := range r.Rates {
		if q.ServiceLevelCode == code {
			return q, true
		}
	}
	return RateQuote{}, false
}

// QualifiesForFreeShipping reports whether value meets a positive threshold.
func QualifiesForFreeShipping(declaredValue, threshold float64) bool {
	return threshold > 0 && declaredValue >= threshold
}

// AmountToFreeShipping is threshold minus value, floored at zero.
func AmountToFreeShipping(declaredValue, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return math.Max(0, math.Round((threshold-declaredValue)*100)/100)
}

// ShippingDecision is what the customer settled on at checkout.
// It is one of NoSelection, FreeShipping or PaidRate.
type ShippingDecision interface {
	// Charge is the amount the customer pays for shipping.
	Charge() float64
	// ServiceLevel returns the selected code and name, empty for NoSelection.
	ServiceLevel() (code, name string)
	isShippingDecision()
}

// NoSelection means the customer has not picked a rate (or its price is unknown).
type NoSelection struct{}

func (NoSelection) Charge() float64                { return 0 }
func (NoSelection) ServiceLevel() (string, string) { return "", "" }
func (NoSelection) isShippingDecision()            {}

// FreeShipping means the order qualified for free shipping on the given service level.
type FreeShipping struct {
	Code string
	Name string
}

func (FreeShipping) Charge() float64                  { return 0 }
func (f FreeShipping) ServiceLevel() (string, string) { return f.Code, f.Name }
func (FreeShipping) isShippingDecision()              {}

// PaidRate is an explicitly chosen rate with a known price.
type PaidRate struct {
	Code  string
	Name  string
	Price float64
}

func (p PaidRate) Charge() float64                { return p.Price }
func (p PaidRate) ServiceLevel() (string, string) { return p.Code, p.Name }
func (PaidRate) isShippingDecision()              {}

// DecisionFromQuote builds the decision for a freshly quoted rate.
func DecisionFromQuote(q RateQuote, free bool) ShippingDecision {
	if free {
		return FreeShipping{Code: q.ServiceLevelCode, Name: q.ServiceLevelName}
	}
	return PaidRate{Code: q.ServiceLevelCode, Name: q.ServiceLevelName, Price: q.TotalPrice}
}
