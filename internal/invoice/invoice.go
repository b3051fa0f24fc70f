// Package invoice formats sequential invoice numbers.
package invoice

import "fmt"

// Format renders an invoice number like FYR-2025-00042. The counter is
// zero-padded to five digits and keeps growing past 99999 without
// truncation.
func Format(year int, counter int64) string {
	return fmt.Sprintf("FYR-%d-%05d", year, counter)
}
