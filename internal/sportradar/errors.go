package sportradar

import "errors"

// Provider error conditions. Callers degrade to neutral current-form
// signals on any of these rather than failing the prediction.
var (
	ErrMissingCompetitorID  = errors.New("missing competitor id")
	ErrAuthenticationFailed = errors.New("provider authentication failed")
	ErrProviderUnavailable  = errors.New("provider unavailable")
	ErrNoData               = errors.New("provider has no data")
)
