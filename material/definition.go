package material

import (
	"fmt"

	"github.com/anthrosphere/lumen/driverapi"
	"github.com/anthrosphere/lumen/materialpkg"
)

// Domain identifies what kind of pipeline a material definition targets.
type Domain int

const (
	DomainSurface Domain = iota
	DomainPostProcess
	DomainCompute
)

// RasterState mirrors the subset of raster/blend/cull configuration a
// material package carries, independent of any particular backend.
type RasterState struct {
	CullMode    driverapi.CullMode
	BlendEnable bool
	DepthWrite  bool
	DepthTest   bool
}

// SpecConstant is one specialization constant slot: a compile-time
// variable bound at program-creation time.
type SpecConstant struct {
	ID           uint32
	Name         string
	DefaultValue any
}

// PushConstant describes one push-constant field exposed by the
// material's programs.
type PushConstant struct {
	Name   string
	Offset uint32
	Size   uint32
}

// DescriptorBinding describes one (set, binding) slot a material's
// programs expect the caller to fill in.
type DescriptorBinding struct {
	Set     uint32
	Binding uint32
	Kind    driverapi.DescriptorKind
	Name    string
}

// ConfigMaxReservedSpecConstants is the fixed prefix of
// specialization-constant ids reserved for engine-controlled switches
// (SH band count, shadow sampling method, debug toggles). IDs at or
// above this value are material-defined.
const ConfigMaxReservedSpecConstants = 8

// Definition is an immutable, parser-backed material package: raster
// state, blending, culling, domain, interface blocks, descriptor-set
// layouts, attribute/binding info, push constants, and specialization
// constants. A Definition never allocates GPU resources of its own
// beyond descriptor-set layouts created once at construction.
type Definition struct {
	parser *materialpkg.Parser

	Name         string
	CacheID      uint64
	Domain       Domain
	Raster       RasterState
	Bindings     []DescriptorBinding
	PushConst    []PushConstant
	ReservedSpec [ConfigMaxReservedSpecConstants]SpecConstant
	UserSpec     []SpecConstant

	// HasCustomDepthShader marks a package that supplies its own depth
	// variant shaders rather than relying on the default material's, so
	// Materials built from it must compile and own their depth programs
	// instead of sharing defaultMaterial's.
	HasCustomDepthShader bool

	descriptorSetLayout driverapi.Handle // descriptor-set layout handle, created at construction
	terminated          bool

	// defaultMaterial is the Material created with isDefault=true against
	// this Definition, if any. Every other Material sharing this
	// Definition borrows its depth-variant programs from this instance
	// (§4.7.2's depth-variant sharing rule) rather than compiling its own.
	defaultMaterial *Material
}

// Parser returns the parser this definition was built from.
func (d *Definition) Parser() *materialpkg.Parser {
	return d.parser
}

// Create parses data (through parser) into a Definition and, when gpu
// is non-nil, creates one descriptor-set layout for it labelled with
// the package name. Only the name is read from the package: Domain and
// Raster get fixed defaults (surface domain, back-face culling, depth
// test and depth write on), and Bindings, PushConst, ReservedSpec,
// UserSpec and HasCustomDepthShader stay at their zero values. It returns an
// error (rather than panicking) because invalid package content is a
// recoverable, logged condition per the error-handling design: "refuse
// to build the material".
func Create(gpu driverapi.GPU, parser *materialpkg.Parser, preCachedCacheID uint64) (*Definition, error) {
	if res := parser.Parse(); res != materialpkg.ParseSuccess {
		return nil, fmt.Errorf("material: package parse failed: %v", res)
	}

	name, _ := parser.Name()
	def := &Definition{
		parser:  parser,
		Name:    name,
		CacheID: preCachedCacheID,
		Domain:  DomainSurface,
		Raster: RasterState{
			CullMode:   driverapi.CullBack,
			DepthTest:  true,
			DepthWrite: true,
		},
	}

	if gpu != nil {
		layout := gpu.CreateDescriptorSetLayout(name)
		def.descriptorSetLayout = layout
	}

	return def, nil
}

// Terminate destroys GPU resources (descriptor-set layouts) owned by
// this definition, then marks it unusable. Called by MaterialCache.Release
// when the last reference drops, or by MaterialCache.Acquire on a
// duplicate it built while losing a race; a second call panics.
func (d *Definition) Terminate(gpu driverapi.GPU) {
	if d.terminated {
		panic("material: Definition.Terminate called twice")
	}
	if gpu != nil && d.descriptorSetLayout != 0 {
		gpu.DestroyDescriptorSetLayout(d.descriptorSetLayout)
	}
	d.terminated = true
}

// DescriptorSetLayout returns the GPU handle for this definition's
// descriptor-set layout.
func (d *Definition) DescriptorSetLayout() driverapi.Handle {
	return d.descriptorSetLayout
}
