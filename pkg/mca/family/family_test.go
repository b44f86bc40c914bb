package family_test

import (
	"testing"

	"github.com/mscrnt/mcadecode/pkg/mca"
	"github.com/mscrnt/mcadecode/pkg/mca/family"
	"github.com/mscrnt/mcadecode/pkg/mcgcap"
)

type fakeHandler struct {
	sig   string
	banks []int
	ran   *bool
}

func (f *fakeHandler) Signature() string { return f.sig }
func (f *fakeHandler) Banks() []int      { return f.banks }
func (f *fakeHandler) Decode(ev *mca.DecodedMcaEvent, _ mca.Options) {
	*f.ran = true
}

func TestRegistryRegisterGetList(t *testing.T) {
	t.Parallel()

	r := family.NewRegistry()
	ran := false
	h := &fakeHandler{sig: "99_00H", banks: []int{1}, ran: &ran}

	if err := r.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(h); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}

	got, err := r.Get("99_00H")
	if err != nil || got != h {
		t.Fatalf("Get returned %v, %v", got, err)
	}

	if names := r.List(); len(names) != 1 || names[0] != "99_00H" {
		t.Fatalf("List = %v", names)
	}
}

func TestRegistryWildcardFallback(t *testing.T) {
	t.Parallel()

	r := family.NewRegistry()
	ran := false
	h := &fakeHandler{sig: "0F_xxH", banks: nil, ran: &ran}
	if err := r.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.Get("0F_02H")
	if err != nil || got != h {
		t.Fatalf("wildcard fallback failed: %v, %v", got, err)
	}
}

func TestRegistryDispatchRunsOnlyForMatchingBank(t *testing.T) {
	t.Parallel()

	r := family.NewRegistry()
	ran := false
	h := &fakeHandler{sig: "99_01H", banks: []int{3}, ran: &ran}
	_ = r.Register(h)

	ev := &mca.DecodedMcaEvent{Bank: 4}
	r.Dispatch("99_01H", ev, mca.DefaultOptions())
	if ran {
		t.Error("handler should not have run for a non-matching bank")
	}
	if ev.IncrementalDecoded {
		t.Error("IncrementalDecoded should stay false when nothing ran")
	}

	ev2 := &mca.DecodedMcaEvent{Bank: 3}
	r.Dispatch("99_01H", ev2, mca.DefaultOptions())
	if !ran || !ev2.IncrementalDecoded {
		t.Error("handler should have run and flagged IncrementalDecoded")
	}
}

func TestGlobalDispatchNehalemMemoryController(t *testing.T) {
	t.Parallel()

	cap := mcgcap.Decode(0x1c09)
	status := uint64(1)<<63 | uint64(1)<<45 // VAL, bit45 set
	ev := mca.Decode(cap, 8, status, 0, 0, mca.Identity{}, mca.DefaultOptions())

	family.Dispatch("06_1AH", &ev, mca.DefaultOptions())

	if !ev.IncrementalDecoded {
		t.Fatal("expected incremental decoding to run")
	}
	uecc, ok := ev.ModelSpecificErrors.Get("UECC")
	if !ok || uecc != "Yes" {
		t.Errorf("UECC = %q, %v", uecc, ok)
	}
	cecc, ok := ev.ModelSpecificErrors.Get("CECC")
	if !ok || cecc != "Yes" {
		t.Errorf("CECC = %q, %v", cecc, ok)
	}
}

func TestGlobalDispatchSkylakeInterconnectGate(t *testing.T) {
	t.Parallel()

	cap := mcgcap.Capability{}
	status := uint64(1)<<63 | 0x0C0F
	ev := mca.Decode(cap, 5, status, 0, 0, mca.Identity{}, mca.DefaultOptions())

	family.Dispatch("06_55H", &ev, mca.DefaultOptions())

	v, ok := ev.ModelSpecificErrors.Get("Skylake_Interconnect")
	if !ok {
		t.Fatal("expected Skylake_Interconnect field to be set for 0x0C0F")
	}
	if v == "" {
		t.Error("expected non-empty confirmation value")
	}
}

func TestGlobalDispatchUnregisteredSignatureIsNoOp(t *testing.T) {
	t.Parallel()

	ev := mca.Decode(mcgcap.Capability{}, 0, uint64(1)<<63, 0, 0, mca.Identity{}, mca.DefaultOptions())
	family.Dispatch("FF_FFH", &ev, mca.DefaultOptions())

	if ev.IncrementalDecoded {
		t.Error("dispatch to an unregistered signature should be a no-op")
	}
}
