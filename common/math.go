package common

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// MoveTowards steps current toward target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	return current + Clamp(target-current, -maxDelta, maxDelta)
}
