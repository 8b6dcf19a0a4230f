package lrc

// IndexAt returns the index of the line active at playback position t: the
// last line whose timestamp is <= t. It returns -1 when t precedes the first
// line, so a consumer never highlights the first line early. Pure and
// stateless; callers recompute it on every playback tick.
func IndexAt(lines []Line, t float64) int {
	if len(lines) == 0 || t < lines[0].Time {
		return -1
	}

	left, right := 0, len(lines)-1
	idx := -1
	for left <= right {
		mid := (left + right) / 2
		if lines[mid].Time <= t {
			idx = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}
	return idx
}
