package material

import (
	"fmt"

	"github.com/anthrosphere/lumen/driverapi"
	"github.com/anthrosphere/lumen/jobsystem"
	"github.com/anthrosphere/lumen/materialpkg"
)

// variantCount is the size of a full variant-indexed program table: one
// slot per possible Variant byte value.
const variantCount = 256

// Material is one instantiation of a Definition: a live, GPU-backed
// object that lazily compiles and caches a program per requested
// Variant. Distinct Materials may share a Definition through
// MaterialCache, but each Material owns its own program table and
// specialization-constant overrides.
type Material struct {
	def *Definition
	gpu driverapi.GPU

	programs  [variantCount]driverapi.Handle
	compiled  [variantCount]bool

	// isDefaultMaterial and depthPrecached drive the depth-variant
	// sharing rule: a material that hasn't customized its depth pass
	// reuses the Definition's default depth programs (via
	// defaultMaterial below) instead of compiling its own.
	isDefaultMaterial bool
	depthPrecached    bool

	// defaultMaterial is the Definition's registered default Material
	// (nil for the default Material itself, and nil if none has been
	// constructed yet). resolveDepthVariant copies its program handles
	// directly rather than compiling independently, so a derived
	// Material's depth program is the exact same handle as the default
	// Material's.
	defaultMaterial *Material

	specOverrides map[uint32]any

	// uboBatched marks that this Material's per-instance uniforms are
	// packed into a shared UBO ring by the engine's UBO manager rather
	// than each Material owning a dedicated uniform buffer.
	uboBatched bool
}

// NewMaterial instantiates def against gpu. isDefault marks the
// Definition's fallback/error material, whose depth programs every
// other Material sharing the Definition may borrow. The default
// Material for a Definition must be constructed before any non-default
// Material that should share its depth programs; def registers isDefault
// instances as they're created.
func NewMaterial(gpu driverapi.GPU, def *Definition, isDefault bool) *Material {
	m := &Material{
		def:               def,
		gpu:               gpu,
		isDefaultMaterial: isDefault,
		specOverrides:     make(map[uint32]any),
	}
	if isDefault {
		def.defaultMaterial = m
	} else {
		m.defaultMaterial = def.defaultMaterial
	}
	return m
}

// Definition returns the Definition backing this Material.
func (m *Material) Definition() *Definition {
	return m.def
}

// SetSpecConstant overrides the default value of the specialization
// constant named in the Definition's UserSpec. Overrides taken after a
// variant has already been compiled do not retroactively apply; the
// program table must be invalidated first.
func (m *Material) SetSpecConstant(id uint32, value any) {
	m.specOverrides[id] = value
}

// EnableUBOBatching marks this Material as participating in the
// engine's shared per-instance UBO ring rather than owning a dedicated
// uniform buffer.
func (m *Material) EnableUBOBatching(enabled bool) {
	m.uboBatched = enabled
}

// UBOBatched reports whether this Material participates in UBO
// batching.
func (m *Material) UBOBatched() bool {
	return m.uboBatched
}

// GetProgram returns the compiled program handle for variant, compiling
// and caching it on first use. Depth variants delegate to
// resolveDepthVariant so that non-default Materials share the default
// Material's depth programs whenever they have not customized their
// depth state.
func (m *Material) GetProgram(variant Variant) (driverapi.Handle, error) {
	if variant.IsDepthVariant() && !m.isDefaultMaterial && !m.customizesDepth() {
		return m.resolveDepthVariant(variant)
	}
	return m.compile(variant)
}

// customizesDepth reports whether this Material's Definition supplies
// its own depth shaders (HasCustomDepthShader). Materials whose
// Definition doesn't can share the
// owning Definition's default depth programs instead of compiling
// their own, per the depth-variant sharing rule.
func (m *Material) customizesDepth() bool {
	return m.def.HasCustomDepthShader
}

// resolveDepthVariant returns this Material's depth-only variant,
// filtered to ValidDepthMask. When a default Material is registered for
// this Definition, the program handle is copied from it (compiling it
// there first if needed) so that this Material's depth program slot is
// the exact same handle as the default Material's, never one compiled
// independently — destroying this Material's own program table must
// never invalidate a handle the default Material still owns. Absent a
// registered default Material (e.g. tests that never construct one),
// this Material falls back to compiling and owning the variant itself.
func (m *Material) resolveDepthVariant(variant Variant) (driverapi.Handle, error) {
	depthVariant := FilterVariantDepth(variant) | BitDepth
	idx := int(depthVariant)
	if m.compiled[idx] {
		return m.programs[idx], nil
	}

	var handle driverapi.Handle
	var err error
	if m.defaultMaterial != nil {
		handle, err = m.defaultMaterial.compile(depthVariant)
	} else {
		handle, err = m.compile(depthVariant)
	}
	if err != nil {
		return driverapi.Invalid, err
	}

	m.programs[idx] = handle
	m.compiled[idx] = true
	m.depthPrecached = true
	return handle, nil
}

// compile returns the cached program for variant, building it through
// the GPU if this is the first request for that variant.
func (m *Material) compile(variant Variant) (driverapi.Handle, error) {
	idx := int(variant)
	if m.compiled[idx] {
		return m.programs[idx], nil
	}

	parser := m.def.Parser()
	stage := materialpkg.StageVertex
	vertexVariant := FilterVariantVertex(variant)
	fragmentVariant := FilterVariantFragment(variant)

	vertexBlob, err := parser.Shader(0, uint8(vertexVariant), stage)
	if err != nil {
		return driverapi.Invalid, fmt.Errorf("material: %s: vertex shader for variant %#x: %w", m.def.Name, variant, err)
	}
	fragBlob, err := parser.Shader(0, uint8(fragmentVariant), materialpkg.StageFragment)
	if err != nil {
		return driverapi.Invalid, fmt.Errorf("material: %s: fragment shader for variant %#x: %w", m.def.Name, variant, err)
	}

	lang, _ := parser.ShaderLanguage()
	specIDs, specVals := m.resolveSpecConstants()

	program := driverapi.Program{
		Name:             m.def.Name,
		Vertex:           driverapi.ProgramStage{Language: int(lang), Code: vertexBlob},
		Fragment:         driverapi.ProgramStage{Language: int(lang), Code: fragBlob},
		SpecConstantIDs:  specIDs,
		SpecConstantVals: specVals,
		Multiview:        variant&BitStereo != 0,
		CacheID:          m.def.CacheID ^ uint64(variant),
	}

	handle := driverapi.Invalid
	if m.gpu != nil {
		handle = m.gpu.CreateProgram(program)
	}
	m.programs[idx] = handle
	m.compiled[idx] = true
	return handle, nil
}

// PrecacheVariants compiles every variant in variants on js's worker
// pool, one task per variant, and returns the per-variant compile
// error (nil on success) in the same order. This is the job-system use
// named in the domain stack: a material known ahead of time to need a
// handful of variants (e.g. the lit/unlit pair across stereo and depth
// combinations) warms them all in parallel instead of paying each
// compile's latency serially on first use.
func (m *Material) PrecacheVariants(js *jobsystem.JobSystem, variants []Variant) []error {
	errs := make([]error, len(variants))
	jobsystem.Run(js, len(variants), func(i int) {
		_, err := m.GetProgram(variants[i])
		errs[i] = err
	})
	return errs
}

func (m *Material) resolveSpecConstants() ([]uint32, []any) {
	ids := make([]uint32, 0, len(m.def.UserSpec))
	vals := make([]any, 0, len(m.def.UserSpec))
	for _, sc := range m.def.UserSpec {
		ids = append(ids, sc.ID)
		if v, ok := m.specOverrides[sc.ID]; ok {
			vals = append(vals, v)
		} else {
			vals = append(vals, sc.DefaultValue)
		}
	}
	return ids, vals
}

// Invalidate forgets every compiled program whose variant key k
// satisfies (k & mask) == value, forcing recompilation of those variants
// on next use. The handles are only dropped from this Material's table;
// the programs are not destroyed, since driverapi.GPU has no call that
// destroys a program. This is a debug/hot-reload facility; it is never
// called from the steady-state per-frame path.
//
// A Material that shares its depth programs with the Definition's
// default Material (non-default, no custom depth shader) does not own
// those program slots, so they are force-preserved regardless of
// mask/value: the caller cannot accidentally invalidate a handle the
// default Material still depends on.
func (m *Material) Invalidate(mask, value Variant) {
	if !m.isDefaultMaterial && !m.customizesDepth() {
		mask |= BitDepth
		value &^= BitDepth
	}

	for k := range m.programs {
		if Variant(k)&mask != value {
			continue
		}
		if m.compiled[k] && m.gpu != nil && m.programs[k].IsValid() {
			// driverapi.GPU has no DestroyProgram, so nothing is
			// destroyed here; the backend keeps the program object and
			// live command buffers may still reference the handle.
		}
		m.compiled[k] = false
		m.programs[k] = driverapi.Invalid
		if Variant(k).IsDepthVariant() {
			m.depthPrecached = false
		}
	}
}
