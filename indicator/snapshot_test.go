package indicator

import "testing"

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry([]Def{
		{Name: "service", Min: 0, Max: 1, InitialState: 1},
		{Name: "call", Min: 0, Max: 1},
		{Name: "callsetup", Min: 0, Max: 3},
	}, []GenericStatusIndicatorDef{{UUID: 1}, {UUID: 2}})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestSnapshotIndexOf(t *testing.T) {
	s := NewSnapshot(testRegistry(t))

	i, err := s.IndexOf("callsetup")
	if err != nil {
		t.Fatal(err)
	}
	if i != 3 {
		t.Fatalf("got index %d, want 3", i)
	}

	if _, err := s.IndexOf("nope"); err != ErrUnknownName {
		t.Fatalf("got %v, want ErrUnknownName", err)
	}
}

func TestSnapshotStatusRoundTrip(t *testing.T) {
	s := NewSnapshot(testRegistry(t))

	if got := s.Status(1); got != 1 {
		t.Fatalf("initial service status = %d, want 1", got)
	}

	s.SetStatus(2, 1)
	if got := s.Status(2); got != 1 {
		t.Fatalf("call status = %d, want 1", got)
	}
}

func TestSnapshotSetStatusPanicsOutOfRange(t *testing.T) {
	s := NewSnapshot(testRegistry(t))
	defer func() {
		if recover() == nil {
			t.Fatal("want panic for out-of-range status")
		}
	}()
	s.SetStatus(1, 9)
}

func TestSnapshotBIAMask(t *testing.T) {
	s := NewSnapshot(testRegistry(t))
	s.EnableAll()
	s.SetBIAMask([]bool{true, false, true})

	if s.Enabled(2) {
		t.Fatal("indicator 2 should be disabled after BIA mask")
	}
	if !s.Enabled(1) || !s.Enabled(3) {
		t.Fatal("indicators 1 and 3 should remain enabled")
	}
}

func TestSnapshotGenericStatusIndicatorEnable(t *testing.T) {
	s := NewSnapshot(testRegistry(t))
	if s.GenericStatusIndicatorEnabled(0) {
		t.Fatal("generic status indicator should start disabled")
	}
	s.SetGenericStatusIndicatorEnabled(0, true)
	if !s.GenericStatusIndicatorEnabled(0) {
		t.Fatal("want generic status indicator enabled")
	}
}
