package preset

import "testing"

func TestDegenerateTransitionIsNoop(t *testing.T) {
	for _, p := range Catalog {
		for _, d := range []float32{0, 0.1, 1, 30} {
			tr := Transition{From: p, To: p, Start: 4, Duration: d}
			for _, now := range []float32{4, 4.05, 5, 100} {
				if got := tr.Effective(now); got != p {
					t.Errorf("%s d=%v now=%v: effective changed: %+v", p.Name, d, now, got)
				}
			}
		}
	}
}

func TestTransitionEndpoints(t *testing.T) {
	s, d := New(1), New(6)
	tr := Transition{From: s, To: d, Start: 10, Duration: 2}

	if got := tr.Effective(10); got != s {
		t.Errorf("effective(start) = %+v, want source", got)
	}
	if got := tr.Effective(12); got != d {
		t.Errorf("effective(start+d) = %+v, want destination", got)
	}
	if got := tr.Effective(50); got != d {
		t.Errorf("effective after end should stay at destination")
	}
	if !tr.Done(12) || tr.Done(11.99) {
		t.Errorf("Done boundary wrong")
	}
}

func TestTransitionMonotone(t *testing.T) {
	s, d := New(2), New(7)
	tr := Transition{From: s, To: d, Start: 1, Duration: 0.75}
	fs, fd := s.Fields(), d.Fields()

	prev := tr.Effective(1).Fields()
	const steps = 64
	for i := 1; i <= steps; i++ {
		now := tr.Start + tr.Duration*float32(i)/steps
		cur := tr.Effective(now).Fields()
		for k := range cur {
			const eps = 1e-5
			up := fd[k] >= fs[k]
			if up && cur[k] < prev[k]-eps {
				t.Fatalf("%s decreased at t=%f: %f -> %f", FieldNames[k], now, prev[k], cur[k])
			}
			if !up && cur[k] > prev[k]+eps {
				t.Fatalf("%s increased at t=%f: %f -> %f", FieldNames[k], now, prev[k], cur[k])
			}
			lo, hi := fs[k], fd[k]
			if lo > hi {
				lo, hi = hi, lo
			}
			if cur[k] < lo-eps || cur[k] > hi+eps {
				t.Fatalf("%s left [%f, %f] at t=%f: %f", FieldNames[k], lo, hi, now, cur[k])
			}
		}
		prev = cur
	}
}

func TestZeroDurationCompletesImmediately(t *testing.T) {
	tr := Transition{From: New(0), To: New(1), Start: 3, Duration: 0}
	if got := tr.Effective(3); got != New(1) {
		t.Errorf("zero-duration transition should yield destination")
	}
	if tr.Progress(-10) != 1 {
		t.Errorf("zero-duration progress should be 1")
	}
}

func TestHold(t *testing.T) {
	p := New(5)
	if got := Hold(p).Effective(123); got != p {
		t.Errorf("Hold changed preset")
	}
}
