package telemetry

import "fmt"

var units = [...]string{"B/s", "KB/s", "MB/s", "GB/s", "TB/s"}

// FormatRate renders a byte rate using the largest unit that keeps the
// value at or above 1.0, matching the teacher's trafficstats formatter.
func FormatRate(bytesPerSec uint64) string {
	v := float64(bytesPerSec)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", bytesPerSec, units[0])
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}
