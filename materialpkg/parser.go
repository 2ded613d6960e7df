// Package materialpkg implements a read-only view over a chunked binary
// material package: a magic header followed by a sequence of
// (tag, size, payload) records. Parsing never allocates GPU resources —
// it only validates structure and, given a preferred shader-language
// list, chooses the best matching language present in the package.
package materialpkg

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sync/atomic"
)

// magic is the package's 4-byte magic header, "LMAT" in little-endian
// ASCII — an interoperability constant, not a tunable.
const magic = uint32('L') | uint32('M')<<8 | uint32('A')<<16 | uint32('T')<<24

// chunk is one (tag, payload) record extracted from the package.
type chunk struct {
	tag     ChunkTag
	payload []byte
}

// Parser is a non-owning view over a material package buffer. It never
// copies the backing buffer; all returned payload slices alias it
// directly. Parser is safe to share for reads once Parse has returned
// successfully, but is not safe for concurrent Parse calls.
type Parser struct {
	data               []byte
	preferredLanguages []ShaderLanguage
	chosenLanguage     ShaderLanguage
	languageChosen     bool

	version    uint32
	chunks     []chunk
	chunkIndex map[ChunkTag]int // first occurrence of a unique tag

	crc32 atomic.Uint32 // 0 = not yet computed
}

// ParseResult reports the outcome of Parse.
type ParseResult int

const (
	ParseSuccess ParseResult = iota
	ParseErrorMissingBackend
	ParseErrorOther
)

// NewParser constructs a Parser over data, preferring languages in the
// order given. Parse must be called before any other accessor.
func NewParser(preferredLanguages []ShaderLanguage, data []byte) *Parser {
	p := &Parser{
		data:               data,
		preferredLanguages: append([]ShaderLanguage(nil), preferredLanguages...),
		chunkIndex:         make(map[ChunkTag]int),
	}
	return p
}

// Parse validates the chunk container structure and selects the best
// matching shader language. It performs no GPU work.
func (p *Parser) Parse() ParseResult {
	if len(p.data) < 12 {
		return ParseErrorOther
	}
	if binary.LittleEndian.Uint32(p.data[0:4]) != magic {
		return ParseErrorOther
	}
	p.version = binary.LittleEndian.Uint32(p.data[4:8])
	count := binary.LittleEndian.Uint32(p.data[8:12])

	offset := 12
	for i := uint32(0); i < count; i++ {
		if offset+8 > len(p.data) {
			return ParseErrorOther
		}
		tag := ChunkTag(binary.LittleEndian.Uint32(p.data[offset:]))
		size := binary.LittleEndian.Uint32(p.data[offset+4:])
		offset += 8
		if offset+int(size) > len(p.data) {
			return ParseErrorOther
		}
		payload := p.data[offset : offset+int(size)]
		offset += int(size)

		idx := len(p.chunks)
		p.chunks = append(p.chunks, chunk{tag: tag, payload: payload})
		if _, exists := p.chunkIndex[tag]; !exists {
			p.chunkIndex[tag] = idx
		}
	}

	if !p.selectLanguage() {
		return ParseErrorMissingBackend
	}
	return ParseSuccess
}

// selectLanguage picks the first preferred language for which the
// package carries at least one shader blob tagged with that language.
func (p *Parser) selectLanguage() bool {
	present := make(map[ShaderLanguage]bool)
	for _, c := range p.chunks {
		if c.tag >= materialShaderBase {
			lang := ShaderLanguage((c.tag >> 24) & 0xFF)
			present[lang] = true
		}
	}
	for _, want := range p.preferredLanguages {
		if present[want] {
			p.chosenLanguage = want
			p.languageChosen = true
			return true
		}
	}
	// No shader content at all (e.g. a compute-only or metadata-only
	// package being inspected before upload) is not itself a parse
	// failure; language simply stays unset until a shader is requested.
	if len(present) == 0 {
		return true
	}
	return false
}

// ShaderLanguage returns the language chosen during Parse. Valid only
// after a successful Parse when the package carries shader content.
func (p *Parser) ShaderLanguage() (ShaderLanguage, bool) {
	return p.chosenLanguage, p.languageChosen
}

// getChunk returns the first chunk's payload for tag, if present.
func (p *Parser) getChunk(tag ChunkTag) ([]byte, bool) {
	idx, ok := p.chunkIndex[tag]
	if !ok {
		return nil, false
	}
	return p.chunks[idx].payload, true
}

// MaterialVersion returns the package's declared version number.
func (p *Parser) MaterialVersion() uint32 {
	return p.version
}

// Name returns the package's declared material name, if present.
func (p *Parser) Name() (string, bool) {
	b, ok := p.getChunk(MaterialName)
	if !ok {
		return "", false
	}
	return string(b), true
}

// UIB returns the raw uniform interface block payload.
func (p *Parser) UIB() ([]byte, bool) { return p.getChunk(MaterialUib) }

// SIB returns the raw sampler interface block payload.
func (p *Parser) SIB() ([]byte, bool) { return p.getChunk(MaterialSib) }

// Subpass returns the raw subpass-info payload.
func (p *Parser) Subpass() ([]byte, bool) { return p.getChunk(MaterialSubpass) }

// BindingUniformInfo returns the raw uniform binding info payload.
func (p *Parser) BindingUniformInfo() ([]byte, bool) {
	return p.getChunk(MaterialBindingUniformInfo)
}

// AttributeInfo returns the raw vertex attribute info payload.
func (p *Parser) AttributeInfo() ([]byte, bool) {
	return p.getChunk(MaterialAttributeInfo)
}

// DescriptorBindings returns the raw descriptor bindings payload.
func (p *Parser) DescriptorBindings() ([]byte, bool) {
	return p.getChunk(MaterialDescriptorBindingsInfo)
}

// DescriptorSetLayout returns the raw descriptor set layout payload.
func (p *Parser) DescriptorSetLayout() ([]byte, bool) {
	return p.getChunk(MaterialDescriptorSetLayoutInfo)
}

// Constants returns the raw specialization constants payload.
func (p *Parser) Constants() ([]byte, bool) { return p.getChunk(MaterialConstants) }

// PushConstants returns the raw push-constant descriptor payload.
func (p *Parser) PushConstants() ([]byte, bool) { return p.getChunk(MaterialPushConstants) }

// Shader returns the shader blob for the given (model, variant, stage)
// tuple, using the language chosen by Parse.
func (p *Parser) Shader(model ShaderModel, variant uint8, stage ShaderStage) ([]byte, error) {
	if !p.languageChosen {
		return nil, fmt.Errorf("materialpkg: no shader language selected for this package")
	}
	tag := shaderTag(p.chosenLanguage, model, variant, stage)
	b, ok := p.getChunk(tag)
	if !ok {
		return nil, fmt.Errorf("materialpkg: no shader for model=%d variant=%#x stage=%d", model, variant, stage)
	}
	return b, nil
}

// ComputeCRC32 computes the package's CRC32, memoizing the result in an
// atomic so repeated calls (e.g. from MaterialCache hashing the same
// parser from multiple goroutines) only pay the cost once. A memoized
// value of 0 means "not yet computed", so a computed sum of 0 is stored
// and returned as 1: a package whose real CRC32 is 0 reports 1.
func (p *Parser) ComputeCRC32() uint32 {
	if v := p.crc32.Load(); v != 0 {
		return v
	}
	sum := crc32.ChecksumIEEE(p.data)
	if sum == 0 {
		sum = 1 // avoid colliding with the "not computed" sentinel
	}
	p.crc32.Store(sum)
	return sum
}

// PrecomputedCRC32 returns the package-embedded CRC32 if present,
// without falling back to computing one.
func (p *Parser) PrecomputedCRC32() (uint32, bool) {
	b, ok := p.getChunk(MaterialCrc32)
	if !ok || len(b) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// CRC32 returns the precomputed package CRC32 if embedded, otherwise
// computes and memoizes one. This is what MaterialCache keys on.
func (p *Parser) CRC32() uint32 {
	if v, ok := p.PrecomputedCRC32(); ok {
		return v
	}
	return p.ComputeCRC32()
}

// RawData returns the parser's backing buffer, for callers (such as a
// backend compiling a program) that need the original bytes. The
// returned slice must not be modified.
func (p *Parser) RawData() []byte {
	return p.data
}
