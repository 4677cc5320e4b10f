package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSelection expands a selector like "1-3,7" against a playlist of n
// entries into a set of 1-based indices. An empty selector selects everything.
func ParseSelection(selector string, n int) (map[int]bool, error) {
	sel := make(map[int]bool, n)
	selector = strings.TrimSpace(selector)
	if selector == "" {
		for i := 1; i <= n; i++ {
			sel[i] = true
		}
		return sel, nil
	}
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parseRange(part)
		if err != nil {
			return nil, err
		}
		if lo < 1 || hi > n || lo > hi {
			return nil, fmt.Errorf("selector %q out of range 1..%d", part, n)
		}
		for i := lo; i <= hi; i++ {
			sel[i] = true
		}
	}
	if len(sel) == 0 {
		return nil, fmt.Errorf("selector %q matches no entries", selector)
	}
	return sel, nil
}

func parseRange(s string) (int, int, error) {
	if lo, hi, found := strings.Cut(s, "-"); found {
		a, err1 := strconv.Atoi(strings.TrimSpace(lo))
		b, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil {
			return 0, 0, fmt.Errorf("invalid range %q", s)
		}
		return a, b, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid index %q", s)
	}
	return v, v, nil
}
