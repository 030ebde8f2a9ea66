package cleanup

import (
	"strconv"
	"strings"
)

// Helpers over the opaque structured-metadata object captured during
// extraction. Field casing varies between payload generations, so
// lookups probe both spellings where the storefront has emitted both.

// offerData returns the offer object from structured metadata, nil
// when absent or malformed.
func offerData(sd map[string]any) map[string]any {
	if sd == nil {
		return nil
	}
	for _, key := range []string{"Offers", "offers"} {
		if o, ok := sd[key].(map[string]any); ok {
			return o
		}
	}
	return nil
}

// offerPrice reads an explicit numeric offer price, which appears as
// either a JSON number or a numeric string. Non-positive values are
// malformed metadata and are rejected so the caller falls back to the
// display price; catalog prices must stay >= 0.
func offerPrice(offer map[string]any) (float64, bool) {
	if offer == nil {
		return 0, false
	}
	switch v := offer["price"].(type) {
	case float64:
		if v <= 0 {
			return 0, false
		}
		return v, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// offerAvailability reads the availability marker, either casing.
func offerAvailability(offer map[string]any) string {
	if offer == nil {
		return ""
	}
	for _, key := range []string{"Availability", "availability"} {
		if s, ok := offer[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func offerString(offer map[string]any, key string) string {
	if offer == nil {
		return ""
	}
	s, _ := offer[key].(string)
	return strings.TrimSpace(s)
}

func structuredString(sd map[string]any, key string) string {
	if sd == nil {
		return ""
	}
	s, _ := sd[key].(string)
	return s
}
