package window

import "testing"

func TestMonitorAt(t *testing.T) {
	// Two 1920x1080 monitors side by side.
	monitors := []monitorRect{
		{x: 0, y: 0, width: 1920, height: 1080},
		{x: 1920, y: 0, width: 1920, height: 1080},
	}

	cases := []struct {
		name string
		x, y int
		want int
	}{
		{"center of first", 960, 540, 0},
		{"center of second", 2880, 540, 1},
		{"left edge of second", 1920, 0, 1},
		{"right edge of first", 1919, 1079, 0},
		{"off screen falls back to 0", -500, -500, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := monitorAt(monitors, tc.x, tc.y); got != tc.want {
				t.Fatalf("monitorAt(%d, %d) = %d, want %d", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestMonitorAtStackedLayout(t *testing.T) {
	monitors := []monitorRect{
		{x: 0, y: 0, width: 2560, height: 1440},
		{x: 320, y: 1440, width: 1920, height: 1080},
	}

	if got := monitorAt(monitors, 1280, 700); got != 0 {
		t.Fatalf("expected top monitor, got %d", got)
	}
	if got := monitorAt(monitors, 1280, 2000); got != 1 {
		t.Fatalf("expected bottom monitor, got %d", got)
	}
}
