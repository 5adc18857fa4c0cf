package timeslot

import "testing"

func mustParse24(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := Parse24(s)
	if err != nil {
		t.Fatalf("Parse24(%q): %v", s, err)
	}
	return tod
}

func TestGrid(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		duration int
		want     []string
		wantLen  int
	}{
		{
			name:     "standard working day",
			start:    "09:00",
			end:      "17:00",
			duration: 30,
			wantLen:  16,
		},
		{
			name:     "last slot must fit entirely",
			start:    "09:00",
			end:      "10:15",
			duration: 30,
			want:     []string{"09:00", "09:30"},
		},
		{
			name:     "exact fit includes final slot",
			start:    "09:00",
			end:      "10:00",
			duration: 30,
			want:     []string{"09:00", "09:30"},
		},
		{
			name:     "window shorter than one slot",
			start:    "09:00",
			end:      "09:15",
			duration: 30,
			want:     []string{},
		},
		{
			name:     "start equals end",
			start:    "09:00",
			end:      "09:00",
			duration: 30,
			want:     []string{},
		},
		{
			name:     "start after end",
			start:    "17:00",
			end:      "09:00",
			duration: 30,
			want:     []string{},
		},
		{
			name:     "hour long slots",
			start:    "10:00",
			end:      "13:00",
			duration: 60,
			want:     []string{"10:00", "11:00", "12:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GridStrings(mustParse24(t, tt.start), mustParse24(t, tt.end), tt.duration)

			if tt.want != nil {
				if len(got) != len(tt.want) {
					t.Fatalf("grid = %v, want %v", got, tt.want)
				}
				for i := range got {
					if got[i] != tt.want[i] {
						t.Errorf("grid[%d] = %q, want %q", i, got[i], tt.want[i])
					}
				}
				return
			}

			if len(got) != tt.wantLen {
				t.Errorf("grid has %d slots, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestGridNonPositiveDuration(t *testing.T) {
	start := mustParse24(t, "09:00")
	end := mustParse24(t, "17:00")

	if got := Grid(start, end, 0); len(got) != 0 {
		t.Errorf("Grid with zero duration returned %v", got)
	}
	if got := Grid(start, end, -15); len(got) != 0 {
		t.Errorf("Grid with negative duration returned %v", got)
	}
}

func TestGridSlotsAligned(t *testing.T) {
	start := mustParse24(t, "09:00")
	end := mustParse24(t, "17:00")

	grid := Grid(start, end, 30)
	for i, slot := range grid {
		if int(slot-start)%30 != 0 {
			t.Errorf("slot %d (%s) is not aligned to the 30 minute grid", i, slot.Format24())
		}
		if slot.AddMinutes(30) > end {
			t.Errorf("slot %d (%s) overruns the window end", i, slot.Format24())
		}
	}
}
