package pose

import "testing"

func TestPerson_Region(t *testing.T) {
	p := Person{
		Head:  []Circle{{X: 100, Y: 50, R: 40}},
		Hands: []Circle{{X: 20, Y: 200, R: 28}, {X: 180, Y: 200, R: 28}},
		Feet:  []Circle{{X: 60, Y: 400, R: 30}, {X: 140, Y: 400, R: 30}},
	}

	cases := []struct {
		tag  string
		want int
	}{
		{RegionHead, 1},
		{RegionHands, 2},
		{RegionFeet, 2},
		{"torso", 0},
	}
	for _, tc := range cases {
		if got := len(p.Region(tc.tag)); got != tc.want {
			t.Errorf("Region(%q) returned %d circles, want %d", tc.tag, got, tc.want)
		}
	}
}

func TestRegions_CoversPerson(t *testing.T) {
	// Collision treats the head specially, so it must come first.
	if len(Regions) != 3 || Regions[0] != RegionHead {
		t.Fatalf("Regions = %v, want head first of three", Regions)
	}
	p := Person{
		Head:  []Circle{{}},
		Hands: []Circle{{}},
		Feet:  []Circle{{}},
	}
	total := 0
	for _, tag := range Regions {
		total += len(p.Region(tag))
	}
	if total != 3 {
		t.Fatalf("tag list reached %d of 3 circles", total)
	}
}
