// Package utils holds small parsing helpers shared by configuration and HTTP handlers.
package utils

import "strings"

// ParseCSV splits each comma-separated value and returns the trimmed,
// non-empty items in order. Several values are accepted so repeated query
// parameters ("agents=a&agents=b,c") flatten into one list.
// Returns nil when no item remains.
func ParseCSV(values ...string) []string {
	var result []string
	for _, s := range values {
		for _, v := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}
