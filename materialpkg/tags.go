package materialpkg

// ChunkTag identifies the kind of record a chunk carries. Names and
// numeric values are preserved from the binary package format so that
// packages produced by other tools in the ecosystem remain readable —
// this is an interoperability constraint, not an implementation detail.
type ChunkTag uint32

const (
	// MaterialUib is the uniform interface block chunk.
	MaterialUib ChunkTag = iota + 1
	// MaterialSib is the sampler interface block chunk.
	MaterialSib
	// MaterialSubpass is the subpass input info chunk.
	MaterialSubpass
	// MaterialBindingUniformInfo describes uniform binding slots.
	MaterialBindingUniformInfo
	// MaterialAttributeInfo describes vertex attribute bindings.
	MaterialAttributeInfo
	// MaterialDescriptorBindingsInfo describes descriptor bindings.
	MaterialDescriptorBindingsInfo
	// MaterialDescriptorSetLayoutInfo describes descriptor set layouts.
	MaterialDescriptorSetLayoutInfo
	// MaterialConstants carries user-defined specialization constants.
	MaterialConstants
	// MaterialPushConstants carries push-constant field descriptors.
	MaterialPushConstants
	// MaterialCrc32 is an optional precomputed CRC32 of the package.
	MaterialCrc32
	// MaterialVersion is the material package format version.
	MaterialVersion
	// MaterialName is the human-readable material name.
	MaterialName
	// MaterialShaderModels lists the shader model bitmask supported.
	MaterialShaderModels

	// materialShaderBase is the first tag in the per-language shader
	// range; shaders are addressed via (ShaderLanguage, model, variant,
	// stage), encoded as chunk tags starting here (see shaderTag).
	materialShaderBase ChunkTag = 0x1000
)

// ShaderLanguage enumerates the shader source languages a package may
// carry, in the platform's preference order as described in §4.5.
type ShaderLanguage int

const (
	LanguageESSL1 ShaderLanguage = iota
	LanguageESSL3
	LanguageGLSL
	LanguageSPIRV
	LanguageMSL
	LanguageWGSL
)

// ShaderModel is the feature-level-adjacent shader model selector used
// to key shader blobs within a package.
type ShaderModel uint8

// ShaderStage identifies which pipeline stage a shader blob is for.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
	StageCompute
)

// shaderTag derives the chunk tag used to store/retrieve the shader
// blob for a given (language, model, variant, stage) tuple. The exact
// bit packing is an implementation detail (unlike the named tags above,
// which are a wire-format contract); it only has to round-trip within
// one package. Stage sits in bits 8-11 and variant in bits 0-7, so
// neither overlaps the materialShaderBase bit (0x1000).
func shaderTag(lang ShaderLanguage, model ShaderModel, variant uint8, stage ShaderStage) ChunkTag {
	return materialShaderBase |
		(ChunkTag(lang) << 24) |
		(ChunkTag(model) << 16) |
		(ChunkTag(stage&0x0F) << 8) |
		ChunkTag(variant)
}
