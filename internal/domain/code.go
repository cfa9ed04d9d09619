package domain

import "fmt"

// FormatTicketCode renders the human readable code for the seq-th ticket
// of a year, e.g. 2025-0042. Sequences past 9999 simply grow wider.
func FormatTicketCode(year, seq int) string {
	return fmt.Sprintf("%d-%04d", year, seq)
}
