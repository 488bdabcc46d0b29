package components

import "fmt"

// FormatHours renders fractional hours as "3h 25m".
func FormatHours(hours float64) string {
	total := int(hours*60 + 0.5)
	h, m := total/60, total%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}
