package crawl

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ComputeHash fingerprints converted Markdown so unchanged output can be
// detected without comparing whole files.
func ComputeHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// TruncateURL fits rawURL into width columns for progress lines. The tail
// of a docs URL names the page, so the head is the part replaced by "...".
func TruncateURL(rawURL string, width int) string {
	const ellipsis = "..."
	switch {
	case width <= 0:
		return ""
	case len(rawURL) <= width:
		return rawURL
	case width <= len(ellipsis):
		return rawURL[:width]
	}
	return ellipsis + rawURL[len(rawURL)-(width-len(ellipsis)):]
}

// FormatBytes renders n as B, KB or MB with one decimal above a kilobyte.
func FormatBytes(n int) string {
	const kb, mb = 1 << 10, 1 << 20
	if n >= mb {
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	}
	if n >= kb {
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	}
	return fmt.Sprintf("%d B", n)
}
