package model

import "errors"

// Sentinel errors for price table operations.
var (
	// ErrMisconfiguredPriceTable indicates a price table entry is missing
	// required price or capability fields, or a tier has no models.
	// Fatal at initialization; never retried.
	ErrMisconfiguredPriceTable = errors.New("misconfigured price table")

	// ErrNoVisionCapableModel indicates vision was required but the price
	// table has no vision-capable model. A configuration error, not a
	// runtime retry condition.
	ErrNoVisionCapableModel = errors.New("no vision-capable model in price table")

	// ErrUnknownModel indicates a model id is not in the price table.
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnsupportedFormat indicates a price table file extension is not recognized.
	ErrUnsupportedFormat = errors.New("unsupported price table format")
)
