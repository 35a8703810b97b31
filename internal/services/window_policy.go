package services

import "fmt"

// WindowPolicy decides whether bids are gated on the auction's start/end times.
type WindowPolicy string

const (
	// WindowUnrestricted accepts bids at any time, start/end are informational.
	WindowUnrestricted WindowPolicy = "unrestricted"
	// WindowEnforce adds start_time <= now <= end_time to the conditional write.
	WindowEnforce WindowPolicy = "enforce"
)

func ParseWindowPolicy(s string) (WindowPolicy, error) {
	switch WindowPolicy(s) {
	case WindowUnrestricted, WindowEnforce:
		return WindowPolicy(s), nil
	case "":
		return WindowUnrestricted, nil
	default:
		return "", fmt.Errorf("unknown window policy %q", s)
	}
}
