package encoder

// canonicalRungs is the resolution ladder, highest first.
var canonicalRungs = [...]int{1080, 720, 480, 360}

// Ladder returns the contiguous descending suffix of the canonical ladder
// starting at the requested height. A height that matches no canonical rung
// starts the ladder at the top, so the request still produces the full set
// rather than failing.
func Ladder(requested int) []int {
	start := 0
	for i, height := range canonicalRungs {
		if height == requested {
			start = i
			break
		}
	}

	rungs := make([]int, len(canonicalRungs)-start)
	copy(rungs, canonicalRungs[start:])
	return rungs
}


