package model

import "strings"

// Availability is the stock state of one size of one product color.
type Availability string

const (
	AvailabilityInStock    Availability = "IN_STOCK"
	AvailabilityLowOnStock Availability = "LOW_ON_STOCK"
	AvailabilityOutOfStock Availability = "OUT_OF_STOCK"
	AvailabilityComingSoon Availability = "COMING_SOON"
	AvailabilityUnknown    Availability = "UNKNOWN"
)

// ParseAvailability maps a raw source string onto the enum. Values the source
// introduces later degrade to UNKNOWN instead of failing the whole payload.
func ParseAvailability(raw string) Availability {
	switch Availability(strings.ToUpper(strings.TrimSpace(raw))) {
	case AvailabilityInStock:
		return AvailabilityInStock
	case AvailabilityLowOnStock:
		return AvailabilityLowOnStock
	case AvailabilityOutOfStock:
		return AvailabilityOutOfStock
	case AvailabilityComingSoon:
		return AvailabilityComingSoon
	default:
		return AvailabilityUnknown
	}
}

// Purchasable reports whether the size can be bought right now.
func (a Availability) Purchasable() bool {
	return a == AvailabilityInStock || a == AvailabilityLowOnStock
}
