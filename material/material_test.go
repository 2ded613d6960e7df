package material

import (
	"testing"

	"github.com/anthrosphere/lumen/jobsystem"
)

func TestGetProgramCompilesAndCaches(t *testing.T) {
	gpu := &fakeGPU{}
	parser := newLitParser()
	def, err := Create(gpu, parser, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m := NewMaterial(gpu, def, true)

	h1, err := m.GetProgram(0)
	if err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	if !h1.IsValid() {
		t.Fatal("expected a valid program handle")
	}
	if gpu.programsCreated != 1 {
		t.Fatalf("programsCreated = %d, want 1", gpu.programsCreated)
	}

	h2, err := m.GetProgram(0)
	if err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	if h1 != h2 {
		t.Fatal("expected the same handle for a repeated variant request")
	}
	if gpu.programsCreated != 1 {
		t.Fatalf("programsCreated after repeat request = %d, want 1 (should be cached)", gpu.programsCreated)
	}
}

func TestDepthVariantPrecachedOnFirstUse(t *testing.T) {
	gpu := &fakeGPU{}
	parser := newLitParser()
	def, _ := Create(gpu, parser, 1)
	m := NewMaterial(gpu, def, false)

	if m.depthPrecached {
		t.Fatal("depthPrecached should start false")
	}
	h, err := m.GetProgram(BitDepth)
	if err != nil {
		t.Fatalf("GetProgram(BitDepth): %v", err)
	}
	if !h.IsValid() {
		t.Fatal("expected valid depth program handle")
	}
	if !m.depthPrecached {
		t.Fatal("expected depthPrecached to be set after first depth variant request")
	}

	created := gpu.programsCreated
	if _, err := m.GetProgram(BitDepth); err != nil {
		t.Fatalf("GetProgram(BitDepth) second call: %v", err)
	}
	if gpu.programsCreated != created {
		t.Fatalf("expected no additional program compilation on repeated depth request, got %d new", gpu.programsCreated-created)
	}
}

func TestInvalidateClearsProgramTable(t *testing.T) {
	gpu := &fakeGPU{}
	parser := newLitParser()
	def, _ := Create(gpu, parser, 1)
	m := NewMaterial(gpu, def, true)

	if _, err := m.GetProgram(0); err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	m.Invalidate(0, 0)
	if m.compiled[0] {
		t.Fatal("expected program table entry to be cleared after Invalidate")
	}

	before := gpu.programsCreated
	if _, err := m.GetProgram(0); err != nil {
		t.Fatalf("GetProgram after Invalidate: %v", err)
	}
	if gpu.programsCreated != before+1 {
		t.Fatal("expected a fresh compile after Invalidate")
	}
}

// TestDerivedMaterialSharesDefaultsDepthProgram is scenario S3: a
// non-default Material's depth variant must resolve to the exact same
// handle as the Definition's default Material, and must never trigger
// its own independent compile.
func TestDerivedMaterialSharesDefaultsDepthProgram(t *testing.T) {
	gpu := &fakeGPU{}
	parser := newLitParser()
	def, _ := Create(gpu, parser, 1)

	defaultMat := NewMaterial(gpu, def, true)
	derived := NewMaterial(gpu, def, false)

	dHandle, err := defaultMat.GetProgram(BitDepth)
	if err != nil {
		t.Fatalf("default GetProgram(BitDepth): %v", err)
	}

	before := gpu.programsCreated
	mHandle, err := derived.GetProgram(BitDepth)
	if err != nil {
		t.Fatalf("derived GetProgram(BitDepth): %v", err)
	}
	if mHandle != dHandle {
		t.Fatalf("derived depth program = %v, want the default material's handle %v", mHandle, dHandle)
	}
	if gpu.programsCreated != before {
		t.Fatalf("derived material compiled its own depth program (programsCreated %d -> %d)", before, gpu.programsCreated)
	}

	// Destroying the derived material's program table must not take the
	// default material's depth program down with it.
	derived.Invalidate(0, 0)
	if defaultMat.programs[int(BitDepth)] != dHandle || !defaultMat.compiled[int(BitDepth)] {
		t.Fatal("invalidating the derived material destroyed the default material's shared depth program")
	}
}

// TestDerivedMaterialResolvesDepthBeforeDefaultCompiles covers the order
// where the derived material asks for a depth variant the default
// material hasn't compiled yet: resolveDepthVariant must trigger the
// compile on the default material itself, not on the derived one.
func TestDerivedMaterialResolvesDepthBeforeDefaultCompiles(t *testing.T) {
	gpu := &fakeGPU{}
	parser := newLitParser()
	def, _ := Create(gpu, parser, 1)

	defaultMat := NewMaterial(gpu, def, true)
	derived := NewMaterial(gpu, def, false)

	h, err := derived.GetProgram(BitDepth)
	if err != nil {
		t.Fatalf("GetProgram(BitDepth): %v", err)
	}
	if !defaultMat.compiled[int(BitDepth)] {
		t.Fatal("expected the default material to own the compiled depth program")
	}
	if defaultMat.programs[int(BitDepth)] != h {
		t.Fatal("default material's program does not match the handle returned to the derived material")
	}
}

func TestInvalidateWithMaskPreservesOtherVariants(t *testing.T) {
	gpu := &fakeGPU{}
	parser := newLitParser()
	def, _ := Create(gpu, parser, 1)
	m := NewMaterial(gpu, def, true)

	if _, err := m.GetProgram(0); err != nil {
		t.Fatalf("GetProgram(0): %v", err)
	}
	if _, err := m.GetProgram(BitDepth); err != nil {
		t.Fatalf("GetProgram(BitDepth): %v", err)
	}

	m.Invalidate(BitDepth, BitDepth)

	if !m.compiled[0] {
		t.Fatal("variant 0 should survive a mask that only targets BitDepth")
	}
	if m.compiled[int(BitDepth)] {
		t.Fatal("variant BitDepth should have been invalidated")
	}
}

func TestInvalidateForcePreservesSharedDepthVariant(t *testing.T) {
	gpu := &fakeGPU{}
	parser := newLitParser()
	def, _ := Create(gpu, parser, 1)

	defaultMat := NewMaterial(gpu, def, true)
	derived := NewMaterial(gpu, def, false)

	if _, err := derived.GetProgram(BitDepth); err != nil {
		t.Fatalf("GetProgram(BitDepth): %v", err)
	}

	// A mask that would otherwise clear every variant, including depth.
	derived.Invalidate(0, 0)

	if !derived.compiled[int(BitDepth)] {
		t.Fatal("derived material's depth slot should be force-preserved since it doesn't own the program")
	}
	if !defaultMat.compiled[int(BitDepth)] {
		t.Fatal("default material's depth program should be untouched")
	}
}

func TestPrecacheVariantsCompilesAllInParallel(t *testing.T) {
	gpu := &fakeGPU{}
	parser := newLitParser()
	def, _ := Create(gpu, parser, 1)
	m := NewMaterial(gpu, def, true)
	js := jobsystem.New(2)

	errs := m.PrecacheVariants(js, []Variant{0, BitDepth})
	for i, err := range errs {
		if err != nil {
			t.Errorf("PrecacheVariants[%d]: %v", i, err)
		}
	}
	if !m.compiled[0] {
		t.Error("expected variant 0 to be compiled after precache")
	}
	if !m.compiled[int(BitDepth)] {
		t.Error("expected the depth variant to be compiled after precache")
	}
}

func TestSetSpecConstantOverridesDefault(t *testing.T) {
	gpu := &fakeGPU{}
	parser := newLitParser()
	def, _ := Create(gpu, parser, 1)
	def.UserSpec = []SpecConstant{{ID: 10, Name: "exposure", DefaultValue: float32(1.0)}}
	m := NewMaterial(gpu, def, true)
	m.SetSpecConstant(10, float32(2.5))

	ids, vals := m.resolveSpecConstants()
	if len(ids) != 1 || ids[0] != 10 {
		t.Fatalf("resolveSpecConstants ids = %v, want [10]", ids)
	}
	if vals[0] != float32(2.5) {
		t.Fatalf("resolveSpecConstants vals = %v, want [2.5]", vals)
	}
}
