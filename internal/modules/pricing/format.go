package pricing

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatCoins renders an amount the way players write it: 1.50M, 12.3k, 999.
func FormatCoins(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", n/1e3)
	default:
		return humanize.Comma(int64(math.Round(n)))
	}
}

// FormatPercent renders an ROI figure.
func FormatPercent(p float64) string {
	return humanize.FormatFloat("#,###.#", p) + "%"
}
