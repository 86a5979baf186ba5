// Package natsort compares alphanumeric identifiers the way people read
// them: "Bed 2" sorts before "Bed 10". It is used for ward names and bed
// labels throughout the dashboard.
package natsort

// Compare returns a negative number if a < b, zero if a == b, and a
// positive number if a > b under natural ordering. Each string is split
// into alternating runs of digits and non-digits; digit runs compare by
// numeric value, everything else by plain code-point comparison.
func Compare(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0

	for i < len(ra) && j < len(rb) {
		if isDigit(ra[i]) && isDigit(rb[j]) {
			na, ni := digitRun(ra, i)
			nb, nj := digitRun(rb, j)
			if c := compareNumeric(na, nb); c != 0 {
				return c
			}
			i, j = ni, nj
			continue
		}

		if ra[i] != rb[j] {
			if ra[i] < rb[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	switch {
	case i < len(ra):
		return 1
	case j < len(rb):
		return -1
	}
	return 0
}

// Less reports whether a sorts before b; convenience for sort.Slice.
func Less(a, b string) bool { return Compare(a, b) < 0 }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// digitRun returns the digit run starting at i and the index just past it.
func digitRun(rs []rune, i int) ([]rune, int) {
	start := i
	for i < len(rs) && isDigit(rs[i]) {
		i++
	}
	return rs[start:i], i
}

// compareNumeric compares two digit runs by integer value without parsing
// into a fixed-width type, so arbitrarily long runs are safe. Runs equal in
// value but written differently ("007" vs "7") fall back to length then
// code points so the order stays total.
func compareNumeric(a, b []rune) int {
	ta, tb := trimZeros(a), trimZeros(b)
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	for k := range ta {
		if ta[k] != tb[k] {
			if ta[k] < tb[k] {
				return -1
			}
			return 1
		}
	}
	// Same value; distinguish "007" from "7" to keep antisymmetry.
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return 0
}

func trimZeros(rs []rune) []rune {
	i := 0
	for i < len(rs)-1 && rs[i] == '0' {
		i++
	}
	return rs[i:]
}
