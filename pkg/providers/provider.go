package providers

import "errors"

// Group tells which section of a comparison a provider belongs to.
type Group string

const (
	// GroupFX bureaus quote currencies (and local gold) in TRY.
	GroupFX Group = "fx"
	// GroupGoldOunce bureaus quote troy-ounce gold in USD.
	GroupGoldOunce Group = "gold-ounce"
)

// Valid reports whether g is one of the known groups.
func (g Group) Valid() bool {
	return g == GroupFX || g == GroupGoldOunce
}

// Provider is the base interface for all rate-quoting bureaus.
type Provider interface {
	// Key returns the unique identifier for the provider (e.g., "harem", "london").
	Key() string
	// Name returns the display name reported in snapshots.
	Name() string
	// Group returns the comparison section the provider feeds.
	Group() Group
	// LandingURL returns the bureau's public page.
	LandingURL() string
}

// Common errors shared across providers.
var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrParseFailed      = errors.New("failed to parse rates")
	ErrNotImplemented   = errors.New("not implemented")
	ErrNoData           = errors.New("no rates returned")
)
