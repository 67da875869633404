package version

import "testing"

func TestIsOlder(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"v0.1.0", "v0.2.0", true},
		{"v0.2.0", "v0.1.0", false},
		{"v0.2.0", "v0.2.0", false},
		{"0.1.0", "v0.2.0", true},
		{"v0.2.0-rc.1", "v0.2.0", true},
		{"garbage", "v0.1.0", true},
		{"", "", false},
		{"v0.1.0", "garbage", false},
	}

	for _, tt := range tests {
		if got := IsOlder(tt.a, tt.b); got != tt.want {
			t.Errorf("IsOlder(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSameMajor(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"v1.0.0", "v1.9.3", true},
		{"v1.0.0", "v2.0.0", false},
		{"1.2.3", "v1.4.0", true},
		{"v0.1.0", "v0.2.0", true},
		{"garbage", "v0.1.0", true},
		{"garbage", "v1.0.0", false},
	}

	for _, tt := range tests {
		if got := SameMajor(tt.a, tt.b); got != tt.want {
			t.Errorf("SameMajor(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
