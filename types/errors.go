package types

import "errors"

// Error taxonomy shared by the pricing, snapshot and strategy packages.
// Callers should match with errors.Is; producers wrap with fmt.Errorf("...: %w").
var (
	// ErrInvalidArgument reports a negative, nil or otherwise out-of-domain numeric input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPoolState reports zero or negative reserves, or an empty venue set.
	ErrInvalidPoolState = errors.New("invalid pool state")

	// ErrUnavailableVenue reports a venue that could not be read or returned degenerate reserves.
	ErrUnavailableVenue = errors.New("unavailable venue")
)
