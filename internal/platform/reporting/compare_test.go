package reporting

import "testing"

func TestPercentChange(t *testing.T) {
	tests := []struct {
		prev, cur int
		want      float64
	}{
		{0, 0, 0},
		{0, 7, 100},
		{10, 15, 50},
		{10, 5, -50},
		{3, 4, 33.33},
		{4, 4, 0},
	}
	for _, tt := range tests {
		if got := PercentChange(tt.prev, tt.cur); got != tt.want {
			t.Errorf("PercentChange(%d, %d) = %v, want %v", tt.prev, tt.cur, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	c := Compare(8, 10)
	if c.PreviousTotal != 8 || c.Difference != 2 || c.PercentChange != 25 {
		t.Errorf("unexpected comparison %+v", c)
	}
}
