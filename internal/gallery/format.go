package gallery

import (
	"math"
	"strconv"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatBytes renders a size with 1024-based units and at most two
// decimals: 0 -> "0 Bytes", 1536 -> "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}

	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}

	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + byteUnits[unit]
}

// FormatMB renders a megabyte figure the way the stats card shows it
func FormatMB(mb float64) string {
	return strconv.FormatFloat(math.Round(mb*100)/100, 'f', -1, 64) + " MB"
}
