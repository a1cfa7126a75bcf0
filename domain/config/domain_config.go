package config

import "time"

// DomainConfig holds the configurable business rules of the reading core
type DomainConfig struct {
	// Progress rules
	ClampOutOfRange bool // clamp page_index/percentage silently; when false, reject

	// Library rules
	DefaultLibraryPageSize int
	MaxLibraryPageSize     int
	EventLookback          time.Duration // 0 reads the full event history
	LookupConcurrency      int           // parallel favorite lookups per library request

	// Listing rules
	DefaultListPageSize int
	MaxListPageSize     int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		ClampOutOfRange: true,

		DefaultLibraryPageSize: 50,
		MaxLibraryPageSize:     200,
		EventLookback:          0,
		LookupConcurrency:      8,

		DefaultListPageSize: 25,
		MaxListPageSize:     100,
	}
}

// LibraryPageSize resolves a requested page size against the library limits
func (c *DomainConfig) LibraryPageSize(requested int) int {
	return boundedPageSize(requested, c.DefaultLibraryPageSize, c.MaxLibraryPageSize)
}

// ListPageSize resolves a requested page size against the listing limits
func (c *DomainConfig) ListPageSize(requested int) int {
	return boundedPageSize(requested, c.DefaultListPageSize, c.MaxListPageSize)
}

func boundedPageSize(requested, def, max int) int {
	if requested <= 0 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}
