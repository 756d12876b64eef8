package fonts

import "testing"

func TestFace(t *testing.T) {
	for _, w := range []Weight{Regular, Bold} {
		face, err := Face(12, w)
		if err != nil {
			t.Fatalf("Face(12, %d) error = %v", w, err)
		}
		if h := face.Metrics().Height; h <= 0 {
			t.Errorf("Face(12, %d) height = %v, want > 0", w, h)
		}
		face.Close()
	}
}

func TestMeasure(t *testing.T) {
	empty, err := Measure("", 12, Regular)
	if err != nil {
		t.Fatal(err)
	}
	if empty != 0 {
		t.Errorf("Measure(\"\") = %v, want 0", empty)
	}

	short, _ := Measure("eth0", 12, Regular)
	long, _ := Measure("GigabitEthernet0/1", 12, Regular)
	if short <= 0 || long <= short {
		t.Errorf("Measure() short = %v, long = %v, want 0 < short < long", short, long)
	}

	small, _ := Measure("switch", 10, Regular)
	large, _ := Measure("switch", 20, Regular)
	if large <= small {
		t.Errorf("Measure() at 20pt = %v, want more than %v at 10pt", large, small)
	}

	regular, _ := Measure("core-sw-01", 12, Regular)
	bold, _ := Measure("core-sw-01", 12, Bold)
	if bold < regular {
		t.Errorf("Measure() bold = %v, want >= regular %v", bold, regular)
	}
}
