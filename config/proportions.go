package config

import (
	"strconv"
	"strings"
)

// ParseProportions reads a list of per-host proportions such as "0.5~0.5"
// or "0.5,0.5". A trailing separator is allowed.
func ParseProportions(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '~' || r == ',' || r == ' '
	})

	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &ConfigurationError{
				Problems: []string{"malformed proportion " + strconv.Quote(f)},
			}
		}

		out = append(out, v)
	}

	return out, nil
}

// ParseTerminatedProportions reads the first n characters of s as a list
// of '~'-terminated numbers. A number that is not terminated within those n
// characters is ignored.
func ParseTerminatedProportions(s string, n int) ([]float64, error) {
	if n < 0 {
		return nil, &ConfigurationError{
			Problems: []string{"negative proportion string length"},
		}
	}

	if n < len(s) {
		s = s[:n]
	}

	parts := strings.Split(s, "~")
	parts = parts[:len(parts)-1]

	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, &ConfigurationError{
				Problems: []string{"malformed proportion " + strconv.Quote(p)},
			}
		}

		out = append(out, v)
	}

	return out, nil
}
