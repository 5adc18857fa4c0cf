package timeslot

// Grid enumerates the slot start times inside a working window. A slot is
// included only when the whole slot fits: the last start satisfies
// start+duration <= end. A degenerate window or non-positive duration
// yields an empty grid.
func Grid(start, end TimeOfDay, durationMin int) []TimeOfDay {
	if durationMin <= 0 || start >= end {
		return []TimeOfDay{}
	}

	slots := make([]TimeOfDay, 0, int(end-start)/durationMin)
	for t := start; t.AddMinutes(durationMin) <= end; t = t.AddMinutes(durationMin) {
		slots = append(slots, t)
	}
	return slots
}

// GridStrings is Grid rendered in the 24-hour form, the shape responses use.
func GridStrings(start, end TimeOfDay, durationMin int) []string {
	grid := Grid(start, end, durationMin)
	out := make([]string, len(grid))
	for i, t := range grid {
		out[i] = t.Format24()
	}
	return out
}
