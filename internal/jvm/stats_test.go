package jvm

import "testing"

func TestStatsCounters(t *testing.T) {
	s := NewStats()

	for range 5 {
		s.count(opIadd)
	}
	s.count(opGoto)

	if got := s.Total(); got != 6 {
		t.Errorf("Total: got %d, want 6", got)
	}

	top := s.TopOpcodes(10)
	if len(top) != 2 {
		t.Fatalf("TopOpcodes: got %d rows, want 2", len(top))
	}
	if top[0].Name != "iadd" || top[0].Count != 5 {
		t.Errorf("top row: %+v", top[0])
	}
	if top[1].Name != "goto" || top[1].Count != 1 {
		t.Errorf("second row: %+v", top[1])
	}

	if len(s.TopOpcodes(1)) != 1 {
		t.Error("TopOpcodes(1) did not truncate")
	}
}

func TestStatsSamplerSentinel(t *testing.T) {
	vm := newTestVM(t)

	if vm.Stats.Stopped() {
		t.Fatal("sampler stopped before any execution")
	}

	// impdep1 is the stop sentinel
	th := runCode(t, vm, "Sentinel", voidDescriptor().Ret, 1, 1,
		[]byte{opImpdep1, opReturn}, nil, nil)
	if th.Status != StatusFinished {
		t.Fatalf("status %v: %s", th.Status, th.FailMsg)
	}
	if !vm.Stats.Stopped() {
		t.Error("impdep1 did not stop the sampler")
	}
}
