package detect

import "testing"

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"git version 2.42.0", "2.30.0", 1},
		{"v1.2.3", "1.2.3", 0},
		{"go1.21", "1.22.0", -1},
	}
	for _, tt := range tests {
		got, err := CompareVersions(tt.a, tt.b)
		if err != nil {
			t.Fatalf("CompareVersions(%q, %q) error: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSatisfiesMin(t *testing.T) {
	tests := []struct {
		version    string
		constraint string
		want       bool
		wantErr    bool
	}{
		{"git version 2.42.0", ">= 2.30.0", true, false},
		{"git version 2.25.1", ">= 2.30.0", false, false},
		{"git version 2.42.0.windows.1", ">= 2.30.0", true, false},
		{"Python 3.12", ">= 3.9", true, false},
		{"v16.20.2", ">= 18.0.0", false, false},
		{VersionUnknown, ">= 1.0.0", false, true},
		{"1.0.0", "not a constraint", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.version+" "+tt.constraint, func(t *testing.T) {
			got, err := SatisfiesMin(tt.version, tt.constraint)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SatisfiesMin() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SatisfiesMin() = %v, want %v", got, tt.want)
			}
		})
	}
}
