package trail

import "testing"

type buf struct{ id int }

func TestPairRolesNeverAlias(t *testing.T) {
	a, b := &buf{1}, &buf{2}
	p := NewPair(a, b)

	if p.Read() != a || p.Write() != b {
		t.Fatalf("initial roles wrong")
	}

	for i := 0; i < 17; i++ {
		if p.Read() == p.Write() {
			t.Fatalf("swap %d: read and write alias", i)
		}
		prevWrite := p.Write()
		p.Swap()
		if p.Read() != prevWrite {
			t.Fatalf("swap %d: written buffer did not become read source", i)
		}
	}
	if p.Swaps() != 17 {
		t.Errorf("Swaps() = %d, want 17", p.Swaps())
	}
	if both := p.Both(); both[0] != a || both[1] != b {
		t.Errorf("Both() changed allocation order")
	}
}

func TestPairRejectsSameBuffer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for identical buffers")
		}
	}()
	a := &buf{1}
	NewPair(a, a)
}
