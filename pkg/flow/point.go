package flow

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePercentPoint parses "x%, y%" into fractions of the reference
// rectangle, e.g. "20%, 50%" -> (0.2, 0.5).
func ParsePercentPoint(s string) (x, y float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid point %q: want \"x%%, y%%\"", s)
	}
	vals := make([]float64, 2)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if !strings.HasSuffix(p, "%") {
			return 0, 0, fmt.Errorf("invalid point %q: %q is not a percentage", s, p)
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid point %q: %w", s, err)
		}
		if v < 0 || v > 100 {
			return 0, 0, fmt.Errorf("invalid point %q: %g%% outside 0..100", s, v)
		}
		vals[i] = v / 100
	}
	return vals[0], vals[1], nil
}
