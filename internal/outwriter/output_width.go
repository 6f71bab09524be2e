package outwriter

import (
	"os"

	"github.com/huangsam/capguard/internal/contract"
	"golang.org/x/term"
)

// Table width bounds.
const (
	defaultTableWidth = 80 // CI and narrow terminals
	columnPadding     = 3  // Separator plus cell padding
)

// GetTableWidth returns the width available for table output: the width override when
// set, otherwise the detected terminal width, otherwise a conservative default.
func GetTableWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return defaultTableWidth
	}
	return detectedWidth
}

// fitColumns keeps the columns whose priority fits in width, in their declared order.
// Columns with priority 0 are always kept.
func fitColumns[T any](columns []T, width int, size func(T) int, priority func(T) int) []T {
	maxPriority := 0
	for _, c := range columns {
		maxPriority = max(maxPriority, priority(c))
	}

	keep := make([]bool, len(columns))
	used := 1 // Left border
	for p := 0; p <= maxPriority; p++ {
		for i, c := range columns {
			if priority(c) != p {
				continue
			}
			cost := size(c) + columnPadding
			if p > 0 && used+cost > width {
				continue
			}
			keep[i] = true
			used += cost
		}
	}

	out := make([]T, 0, len(columns))
	for i, c := range columns {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out
}
