// Package model defines the core types shared across the application.
package model

import "strings"

// Platform identifies a quick-commerce grocery platform.
type Platform string

// Supported platforms.
const (
	PlatformBigBasket Platform = "bigbasket"
	PlatformBlinkit   Platform = "blinkit"
	PlatformZepto     Platform = "zepto"
	PlatformInstamart Platform = "instamart"
)

// AllPlatforms returns the supported platforms in comparison order.
// The order matters: recommendation ties break on the first minimum.
func AllPlatforms() []Platform {
	return []Platform{PlatformBigBasket, PlatformBlinkit, PlatformZepto, PlatformInstamart}
}

// IsKnown reports whether p is one of the supported platforms.
func (p Platform) IsKnown() bool {
	switch p {
	case PlatformBigBasket, PlatformBlinkit, PlatformZepto, PlatformInstamart:
		return true
	}
	return false
}

// ParsePlatform normalizes a raw platform identifier to a Platform.
// Hostname forms like "www.blinkit.com" reduce to their first label.
// Unknown platforms are returned lowercased and trimmed so ingestion
// from new sources still lands under a stable key.
func ParsePlatform(raw string) Platform {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "www.")
	if idx := strings.IndexByte(s, '.'); idx > 0 {
		s = s[:idx]
	}
	return Platform(s)
}
