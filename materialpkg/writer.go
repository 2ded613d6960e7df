package materialpkg

import "encoding/binary"

// Writer builds a chunked binary material package in memory. It exists
// for tests and for tools (precompilers, hot-reload) that assemble a
// package from parsed material definitions; the runtime Parser only
// ever reads packages, it never writes them.
//
// Writer interns shader blobs into a dictionary keyed by content so
// that identical shader bytes shared across variants (e.g. two variants
// whose fragment stage is byte-identical) are held in memory once and
// chunk records for the duplicates point at the same payload slice.
// Build still writes every chunk's payload in full, so the serialized
// package carries one copy per chunk.
type Writer struct {
	version uint32
	chunks  []chunk
	dict    map[string][]byte
}

// NewWriter returns an empty Writer for the given package format version.
func NewWriter(version uint32) *Writer {
	return &Writer{
		version: version,
		dict:    make(map[string][]byte),
	}
}

// AddChunk appends a raw (tag, payload) record.
func (w *Writer) AddChunk(tag ChunkTag, payload []byte) {
	w.chunks = append(w.chunks, chunk{tag: tag, payload: payload})
}

// AddName sets the package's material name.
func (w *Writer) AddName(name string) {
	w.AddChunk(MaterialName, []byte(name))
}

// AddShader interns blob into the writer's blob dictionary (deduping
// identical bytes already seen under a different key) and records a
// shader chunk for the given (language, model, variant, stage) tuple.
func (w *Writer) AddShader(lang ShaderLanguage, model ShaderModel, variant uint8, stage ShaderStage, blob []byte) {
	interned := w.intern(blob)
	w.AddChunk(shaderTag(lang, model, variant, stage), interned)
}

func (w *Writer) intern(blob []byte) []byte {
	key := string(blob)
	if existing, ok := w.dict[key]; ok {
		return existing
	}
	w.dict[key] = blob
	return blob
}

// AddPrecomputedCRC32 embeds a precomputed package CRC32.
func (w *Writer) AddPrecomputedCRC32(crc uint32) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, crc)
	w.AddChunk(MaterialCrc32, buf)
}

// Build serializes the accumulated chunks into a package buffer.
func (w *Writer) Build() []byte {
	size := 12
	for _, c := range w.chunks {
		size += 8 + len(c.payload)
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:], magic)
	binary.LittleEndian.PutUint32(buf[4:], w.version)
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(w.chunks)))

	offset := 12
	for _, c := range w.chunks {
		binary.LittleEndian.PutUint32(buf[offset:], uint32(c.tag))
		binary.LittleEndian.PutUint32(buf[offset+4:], uint32(len(c.payload)))
		offset += 8
		copy(buf[offset:], c.payload)
		offset += len(c.payload)
	}
	return buf
}
