package sleep

import (
	"testing"
	"time"
)

func TestSession_Open(t *testing.T) {
	base := time.UnixMilli(1700000000000)

	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{
			name: "fresh session is open",
			s:    Session{Start: base, End: base},
			want: true,
		},
		{
			name: "sub-millisecond drift still counts as open",
			s:    Session{Start: base, End: base.Add(300 * time.Microsecond)},
			want: true,
		},
		{
			name: "closed session",
			s:    Session{Start: base, End: base.Add(8 * time.Hour)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Open(); got != tt.want {
				t.Errorf("Open() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_Validate(t *testing.T) {
	base := time.UnixMilli(1700000000000)

	tests := []struct {
		name    string
		s       Session
		wantErr bool
	}{
		{
			name:    "valid open session",
			s:       Session{Start: base, End: base, Quality: Unrated},
			wantErr: false,
		},
		{
			name:    "valid rated session",
			s:       Session{Start: base, End: base.Add(7 * time.Hour), Quality: 4},
			wantErr: false,
		},
		{
			name:    "missing start",
			s:       Session{End: base, Quality: Unrated},
			wantErr: true,
		},
		{
			name:    "missing end",
			s:       Session{Start: base, Quality: Unrated},
			wantErr: true,
		},
		{
			name:    "end before start",
			s:       Session{Start: base, End: base.Add(-time.Hour), Quality: Unrated},
			wantErr: true,
		},
		{
			name:    "quality above scale",
			s:       Session{Start: base, End: base.Add(time.Hour), Quality: 6},
			wantErr: true,
		},
		{
			name:    "quality below scale but not unrated",
			s:       Session{Start: base, End: base.Add(time.Hour), Quality: -2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestSession_Duration verifies duration is computed at the millisecond
// precision the store persists, not the nanosecond precision of time.Time.
func TestSession_Duration(t *testing.T) {
	start := time.UnixMilli(100)
	end := time.UnixMilli(500).Add(700 * time.Microsecond)

	s := Session{Start: start, End: end}
	if got, want := s.Duration(), 400*time.Millisecond; got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}

	open := NewOpen(start)
	if got := open.Duration(); got != 0 {
		t.Errorf("Duration() of open session = %v, want 0", got)
	}
}

func TestQualityLabel(t *testing.T) {
	tests := []struct {
		q    int
		want string
	}{
		{0, "terrible"},
		{1, "poor"},
		{2, "fair"},
		{3, "okay"},
		{4, "good"},
		{5, "excellent"},
		{Unrated, "unrated"},
		{42, "unrated"},
	}

	for _, tt := range tests {
		if got := QualityLabel(tt.q); got != tt.want {
			t.Errorf("QualityLabel(%d) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

// TestClone verifies observers get an independent copy of published state.
func TestClone(t *testing.T) {
	base := time.UnixMilli(1700000000000)
	orig := &Session{ID: 7, Start: base, End: base.Add(6 * time.Hour), Quality: 3}

	c := orig.Clone()
	c.Quality = 5
	if orig.Quality != 3 {
		t.Errorf("mutating clone changed original quality to %d", orig.Quality)
	}

	if (*Session)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}

	all := CloneAll([]*Session{orig})
	all[0].ID = 99
	if orig.ID != 7 {
		t.Errorf("mutating CloneAll result changed original ID to %d", orig.ID)
	}
}
