package packages

import "strings"

// Interval constants (single source of truth)
const (
	IntervalOneTime = "one_time"
	IntervalMonth   = "month"
	IntervalYear    = "year"
)

// PackageInterval returns the effective billing interval for a package.
// Priority:
// 1. Explicit Interval stored in DB
// 2. Fallback to one_time (legacy safety net)
func PackageInterval(p *PackageTemplate) string {
	if p == nil {
		return IntervalOneTime
	}

	interval := strings.ToLower(strings.TrimSpace(p.Interval))
	switch interval {
	case IntervalMonth, IntervalYear, IntervalOneTime:
		return interval
	}

	return IntervalOneTime
}

// IsYearly reports whether the package bills on a yearly cycle. Only yearly
// packages carry a freeze allowance.
func IsYearly(p *PackageTemplate) bool {
	return PackageInterval(p) == IntervalYear
}

func IsRecurring(p *PackageTemplate) bool {
	switch PackageInterval(p) {
	case IntervalMonth, IntervalYear:
		return true
	}
	return false
}
