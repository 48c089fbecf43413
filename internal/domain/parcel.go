package domain

import "math"

// Parcel is one physical box handed to the carrier.
type Parcel struct {
	LengthCm    float64 `bson:"lengthCm" json:"lengthCm"`
	WidthCm     float64 `bson:"widthCm" json:"widthCm"`
	HeightCm    float64 `bson:"heightCm" json:"heightCm"`
	WeightKg    float64 `bson:"weightKg" json:"weightKg"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`

	// Units is set by the estimator only.
	Units int `bson:"-" json:"-"`
}

// Validate enforces strictly positive dimensions and weight.
func (p Parcel) Validate() error {
	if p.LengthCm <= 0 || p.WidthCm <= 0 || p.HeightCm <= 0 || p.WeightKg <= 0 {
		return NewError(KindValidation, "parcel dimensions and weight must be positive")
	}
	return nil
}

// ValidateParcels rejects an empty set or any invalid parcel.
func ValidateParcels(parcels []Parcel) error {
	if len(parcels) == 0 {
		return NewError(KindValidation, "at least one parcel is required")
	}
	for _, p := range parcels {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ParcelEstimator derives parcels from line items when the caller supplies none.
type ParcelEstimator struct {
	cfg ShippingConfig
}

// NewParcelEstimator creates an estimator using the packing constants in cfg.
func NewParcelEstimator(cfg ShippingConfig) *ParcelEstimator {
	return &ParcelEstimator{cfg: cfg}
}

// Estimate packs the order's units into parcels of at most MaxUnitsPerParcel.
func (e *ParcelEstimator) Estimate(order *Order) ([]Parcel, error) {
	if order == nil {
		return nil, NewError(KindInvalidOrder, "order is required")
	}
	units, err := order.TotalUnits()
	if err != nil {
		return nil, err
	}
	return e.EstimateUnits(units)
}

// EstimateUnits packs a raw unit count.
func (e *ParcelEstimator) EstimateUnits(units int) ([]Parcel, error) {
	if units <= 0 {
		return nil, NewError(KindInvalidOrder, "order has no units to ship")
	}

	perParcel := e.cfg.MaxUnitsPerParcel
	if perParcel <= 0 {
		perParcel = 1
	}

	parcels := make([]Parcel, 0, (units+perParcel-1)/perParcel)
	for remaining := units; remaining > 0; remaining -= perParcel {
		n := min(remaining, perParcel)
		parcels = append(parcels, Parcel{
			LengthCm:    e.cfg.ParcelLengthCm,
			WidthCm:     e.cfg.ParcelWidthCm,
			HeightCm:    math.Max(e.cfg.MinParcelHeightCm, e.cfg.HeightPerUnitCm*float64(n)),
			WeightKg:    round2(math.Max(e.cfg.MinParcelWeightKg, e.cfg.WeightPerUnitKg*float64(n))),
			Description: e.cfg.ParcelDescription,
			Units:       n,
		})
	}
	return parcels, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
