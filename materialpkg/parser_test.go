package materialpkg

import "testing"

func buildTestPackage() []byte {
	w := NewWriter(1)
	w.AddName("lit")
	w.AddShader(LanguageSPIRV, 0, 0x00, StageVertex, []byte("vertex-spirv-bytes"))
	w.AddShader(LanguageSPIRV, 0, 0x00, StageFragment, []byte("fragment-spirv-bytes"))
	w.AddShader(LanguageWGSL, 0, 0x00, StageVertex, []byte("vertex-wgsl-bytes"))
	return w.Build()
}

func TestParseSelectsFirstAvailablePreferredLanguage(t *testing.T) {
	data := buildTestPackage()
	p := NewParser([]ShaderLanguage{LanguageMSL, LanguageWGSL, LanguageSPIRV}, data)
	if res := p.Parse(); res != ParseSuccess {
		t.Fatalf("Parse() = %v, want ParseSuccess", res)
	}
	lang, ok := p.ShaderLanguage()
	if !ok || lang != LanguageWGSL {
		t.Fatalf("ShaderLanguage() = (%v, %v), want (WGSL, true)", lang, ok)
	}
}

func TestParseFailsWhenNoPreferredLanguagePresent(t *testing.T) {
	data := buildTestPackage()
	p := NewParser([]ShaderLanguage{LanguageESSL1}, data)
	if res := p.Parse(); res != ParseErrorMissingBackend {
		t.Fatalf("Parse() = %v, want ParseErrorMissingBackend", res)
	}
}

func TestShaderRoundTrip(t *testing.T) {
	data := buildTestPackage()
	p := NewParser([]ShaderLanguage{LanguageSPIRV}, data)
	if res := p.Parse(); res != ParseSuccess {
		t.Fatalf("Parse() = %v", res)
	}
	blob, err := p.Shader(0, 0x00, StageVertex)
	if err != nil {
		t.Fatalf("Shader: %v", err)
	}
	if string(blob) != "vertex-spirv-bytes" {
		t.Fatalf("Shader = %q, want %q", blob, "vertex-spirv-bytes")
	}
}

func TestNameRoundTrip(t *testing.T) {
	data := buildTestPackage()
	p := NewParser([]ShaderLanguage{LanguageSPIRV}, data)
	p.Parse()
	name, ok := p.Name()
	if !ok || name != "lit" {
		t.Fatalf("Name() = (%q, %v), want (\"lit\", true)", name, ok)
	}
}

func TestCRC32MemoizesAndRepeats(t *testing.T) {
	data := buildTestPackage()
	p := NewParser(nil, data)
	a := p.ComputeCRC32()
	b := p.ComputeCRC32()
	if a != b {
		t.Fatalf("ComputeCRC32 not memoized: %d != %d", a, b)
	}
}

func TestCRC32IdenticalPackagesMatch(t *testing.T) {
	data1 := buildTestPackage()
	data2 := append([]byte(nil), data1...) // separate byte array, identical contents
	p1 := NewParser(nil, data1)
	p2 := NewParser(nil, data2)
	if p1.ComputeCRC32() != p2.ComputeCRC32() {
		t.Fatalf("identical packages produced different CRC32s")
	}
}

func TestPrecomputedCRC32PreferredOverComputed(t *testing.T) {
	w := NewWriter(1)
	w.AddPrecomputedCRC32(0xDEADBEEF)
	data := w.Build()
	p := NewParser(nil, data)
	p.Parse()
	if got := p.CRC32(); got != 0xDEADBEEF {
		t.Fatalf("CRC32() = %#x, want 0xDEADBEEF", got)
	}
}

func TestParseRejectsTruncatedPackage(t *testing.T) {
	data := buildTestPackage()
	p := NewParser(nil, data[:len(data)-2])
	if res := p.Parse(); res != ParseErrorOther {
		t.Fatalf("Parse() on truncated package = %v, want ParseErrorOther", res)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildTestPackage()
	bad := append([]byte(nil), data...)
	bad[0] ^= 0xFF
	p := NewParser(nil, bad)
	if res := p.Parse(); res != ParseErrorOther {
		t.Fatalf("Parse() on bad magic = %v, want ParseErrorOther", res)
	}
}
