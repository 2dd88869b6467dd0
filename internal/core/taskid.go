package core

import "fmt"

// FormatTaskID renders a task counter as {prefix}-{counter}, zero padded to
// padWidth digits. Use padWidth 0 for no padding (e.g. T-7).
func FormatTaskID(prefix string, padWidth, counter int) string {
	if padWidth > 0 {
		return fmt.Sprintf("%s-%0*d", prefix, padWidth, counter)
	}
	return fmt.Sprintf("%s-%d", prefix, counter)
}

// nextTaskID advances the counter until it yields an id not already in use.
// Hand-edited stores can contain ids ahead of the counter.
func nextTaskID(prefix string, padWidth int, counter *int, taken func(string) bool) string {
	for {
		*counter++
		id := FormatTaskID(prefix, padWidth, *counter)
		if !taken(id) {
			return id
		}
	}
}
