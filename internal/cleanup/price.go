package cleanup

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceLabelSuffix = regexp.MustCompile(`(?i)\n?price$`)
	priceNumber      = regexp.MustCompile(`\$?([\d.]+)`)
)

// CleanPrice strips the trailing "Price" label the storefront renders
// under the amount, with or without a preceding newline.
func CleanPrice(price string) string {
	if price == "" {
		return ""
	}
	return strings.TrimSpace(priceLabelSuffix.ReplaceAllString(price, ""))
}

// NumericPrice parses the first dollar-prefixed or bare decimal number
// out of a cleaned display price. Returns 0 when nothing parses.
func NumericPrice(price string) float64 {
	m := priceNumber.FindStringSubmatch(price)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return n
}
