package common

import (
	"fmt"
	"strings"
)

// DefaultWidth is the separator width used by ledgerd's CLI summaries.
const DefaultWidth = 80

// PrintHeader prints a formatted header with title and separators.
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", width))
}

// PrintFooter prints a formatted footer with message and separators.
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix returns the box-drawing prefix for a list item, used by
// ledgerd's human-readable `collapse`/`holders`/`seed`/`services` listings.
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}
