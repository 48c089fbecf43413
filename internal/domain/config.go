package domain

import "time"

// ShippingConfig gathers every tunable the shipping core depends on.
type ShippingConfig struct {
	// FreeShippingThreshold is the declared value at or above which shipping is free.
	// Zero or negative disables free shipping.
	FreeShippingThreshold float64

	ParcelLengthCm    float64
	ParcelWidthCm     float64
	HeightPerUnitCm   float64
	MinParcelHeightCm float64
	WeightPerUnitKg   float64
	MinParcelWeightKg float64
	MaxUnitsPerParcel int
	ParcelDescription string

	// CarrierTimeout bounds every carrier call.
	CarrierTimeout time.Duration
	// PersistTimeout bounds the order write that follows a carrier side effect.
	PersistTimeout time.Duration
	// LockWait is how long a caller waits for the per-order lock. Values
	// below CriticalSection are raised by OrderLockWait.
	LockWait time.Duration
	// LockTTL is how long a held lock survives a crashed holder. Values
	// below CriticalSection are raised by OrderLockTTL.
	LockTTL time.Duration
}

// lockSlack covers lock hand-over and scheduling around the critical section.
const lockSlack = time.Second

// CriticalSection is the longest an operation holds the order lock: a
// re-quote, the carrier create and the order write.
func (c ShippingConfig) CriticalSection() time.Duration {
	return 2*c.CarrierTimeout + c.PersistTimeout
}

// OrderLockWait outlasts any holder, so a queued caller sees the holder's
// result instead of timing out.
func (c ShippingConfig) OrderLockWait() time.Duration {
	return max(c.LockWait, c.CriticalSection()+lockSlack)
}

// OrderLockTTL keeps a distributed lock alive for the whole critical section.
func (c ShippingConfig) OrderLockTTL() time.Duration {
	return max(c.LockTTL, c.CriticalSection()+lockSlack)
}

// DefaultShippingConfig returns the production defaults.
func DefaultShippingConfig() ShippingConfig {
	return ShippingConfig{
		FreeShippingThreshold: 1000,
		ParcelLengthCm:        35,
		ParcelWidthCm:         25,
		HeightPerUnitCm:       3,
		MinParcelHeightCm:     5,
		WeightPerUnitKg:       0.3,
		MinParcelWeightKg:     0.5,
		MaxUnitsPerParcel:     10,
		ParcelDescription:     "Apparel",
		CarrierTimeout:        15 * time.Second,
		PersistTimeout:        10 * time.Second,
		LockWait:              45 * time.Second,
		LockTTL:               60 * time.Second,
	}
}

// DefaultParcel is the single parcel used for ad-hoc quotes with no parcels supplied.
func (c ShippingConfig) DefaultParcel() Parcel {
	return Parcel{
		LengthCm:    c.ParcelLengthCm,
		WidthCm:     c.ParcelWidthCm,
		HeightCm:    c.MinParcelHeightCm,
		WeightKg:    c.MinParcelWeightKg,
		Description: c.ParcelDescription,
	}
}
