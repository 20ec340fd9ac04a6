package progress

import "testing"

func TestBandFor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  Band
		color string
	}{
		{0, Under, "#4CAF50"},
		{0.79, Under, "#4CAF50"},
		{0.80, Near, "#FF9800"},
		{0.99, Near, "#FF9800"},
		{1.00, Over, "#F44336"},
		{1.20, Over, "#F44336"},
	}

	for _, tt := range tests {
		got := BandFor(tt.ratio)
		if got != tt.want {
			t.Errorf("BandFor(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
		if got.Color() != tt.color {
			t.Errorf("BandFor(%v).Color() = %s, want %s", tt.ratio, got.Color(), tt.color)
		}
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name           string
		consumed, goal int
		want           float64
		band           Band
	}{
		{"empty day", 0, 2150, 0, Under},
		{"exactly near", 1720, 2150, 0.8, Near},
		{"at goal", 2150, 2150, 1, Over},
		{"no goal", 500, 0, 0, Under},
		{"negative goal", 500, -1, 0, Under},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ratio(tt.consumed, tt.goal)
			if got != tt.want {
				t.Fatalf("Ratio(%d, %d) = %v, want %v", tt.consumed, tt.goal, got, tt.want)
			}
			if BandFor(got) != tt.band {
				t.Fatalf("band = %v, want %v", BandFor(got), tt.band)
			}
		})
	}
}
