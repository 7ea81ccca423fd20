package espn

import (
	"strconv"
	"strings"
)

// shootingHeader names the columns appended by shootingSplits, in order.
var shootingHeader = []string{
	"field_goal_made",
	"field_goal_attempted",
	"three_point_made",
	"three_point_attempted",
	"free_throw_made",
	"free_throw_attempted",
}

// SplitMadeAttempted splits a "made-attempted" cell like "7-12".
func SplitMadeAttempted(cell string) (made, attempted int, ok bool) {
	left, right, found := strings.Cut(cell, "-")
	if !found {
		return 0, 0, false
	}
	made, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, false
	}
	attempted, err = strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, false
	}
	return made, attempted, true
}

// shootingSplits derives the six shooting columns from the fg, 3pt and ft
// cells of a stats row (columns 1, 2 and 3). If any of them is missing or
// malformed all six are "0".
func shootingSplits(cells []string) []string {
	zeros := []string{"0", "0", "0", "0", "0", "0"}
	if len(cells) < 4 {
		return zeros
	}

	out := make([]string, 0, len(shootingHeader))
	for _, cell := range cells[1:4] {
		made, attempted, ok := SplitMadeAttempted(cell)
		if !ok {
			return zeros
		}
		out = append(out, strconv.Itoa(made), strconv.Itoa(attempted))
	}
	return out
}
