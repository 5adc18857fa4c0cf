package timeslot

import "testing"

func TestParse24(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{
			name:  "morning",
			input: "09:00",
			want:  540,
		},
		{
			name:  "afternoon",
			input: "14:30",
			want:  870,
		},
		{
			name:  "midnight",
			input: "00:00",
			want:  0,
		},
		{
			name:  "last minute",
			input: "23:59",
			want:  1439,
		},
		{
			name:    "hour out of range",
			input:   "24:00",
			wantErr: true,
		},
		{
			name:    "minute out of range",
			input:   "10:60",
			wantErr: true,
		},
		{
			name:    "missing zero padding",
			input:   "9:00",
			wantErr: true,
		},
		{
			name:    "twelve hour form rejected",
			input:   "2:30 PM",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse24(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse24(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse24(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse24(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse12(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{
			name:  "morning",
			input: "9:00 AM",
			want:  540,
		},
		{
			name:  "afternoon",
			input: "2:30 PM",
			want:  870,
		},
		{
			name:  "noon",
			input: "12:00 PM",
			want:  720,
		},
		{
			name:  "midnight",
			input: "12:00 AM",
			want:  0,
		},
		{
			name:  "padded hour accepted",
			input: "09:00 AM",
			want:  540,
		},
		{
			name:    "lowercase meridiem rejected",
			input:   "9:00 am",
			wantErr: true,
		},
		{
			name:    "hour zero rejected",
			input:   "0:30 AM",
			wantErr: true,
		},
		{
			name:    "twenty four hour form rejected",
			input:   "14:30",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse12(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse12(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse12(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse12(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAcceptsBothForms(t *testing.T) {
	tests := []struct {
		input string
		want  TimeOfDay
	}{
		{input: "14:30", want: 870},
		{input: "2:30 PM", want: 870},
		{input: "09:00", want: 540},
		{input: "9:00 AM", want: 540},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}

	if _, err := Parse("half past two"); err == nil {
		t.Error("Parse accepted garbage input")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for minutes := 0; minutes < MinutesPerDay; minutes += 17 {
		tod := TimeOfDay(minutes)

		from24, err := Parse24(tod.Format24())
		if err != nil {
			t.Fatalf("Parse24(Format24(%d)) error: %v", minutes, err)
		}
		if from24 != tod {
			t.Errorf("24-hour round trip of %d gave %d", minutes, from24)
		}

		from12, err := Parse12(tod.Format12())
		if err != nil {
			t.Fatalf("Parse12(Format12(%d)) error: %v", minutes, err)
		}
		if from12 != tod {
			t.Errorf("12-hour round trip of %d gave %d", minutes, from12)
		}
	}
}

func TestFormat12NoLeadingZero(t *testing.T) {
	tests := []struct {
		tod  TimeOfDay
		want string
	}{
		{tod: 540, want: "9:00 AM"},
		{tod: 870, want: "2:30 PM"},
		{tod: 0, want: "12:00 AM"},
		{tod: 720, want: "12:00 PM"},
		{tod: 1439, want: "11:59 PM"},
	}

	for _, tt := range tests {
		if got := tt.tod.Format12(); got != tt.want {
			t.Errorf("TimeOfDay(%d).Format12() = %q, want %q", tt.tod, got, tt.want)
		}
	}
}

func TestRepresentations(t *testing.T) {
	reps := TimeOfDay(870).Representations()
	if len(reps) != 2 || reps[0] != "14:30" || reps[1] != "2:30 PM" {
		t.Errorf("Representations() = %v, want [14:30 2:30 PM]", reps)
	}
}
