package adaptive

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// MetricsPolicy decides what happens to out-of-range session metrics at ingestion.
type MetricsPolicy string

const (
	// PolicyReject refuses the session with ErrInvalidMetrics.
	PolicyReject MetricsPolicy = "reject"
	// PolicyClamp forces values into range and logs a warning.
	PolicyClamp MetricsPolicy = "clamp"
	// PolicyPassthrough stores values as given.
	PolicyPassthrough MetricsPolicy = "passthrough"
)

// ParseMetricsPolicy validates a policy name. Empty selects PolicyClamp.
func ParseMetricsPolicy(s string) (MetricsPolicy, error) {
	switch p := MetricsPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyClamp, nil
	case PolicyReject, PolicyClamp, PolicyPassthrough:
		return p, nil
	}
	return "", fmt.Errorf("%w: metrics policy %q", domain.ErrInvalidInput, s)
}
