package material

import (
	"testing"

	"github.com/anthrosphere/lumen/materialpkg"
)

func buildLitPackage() []byte {
	w := materialpkg.NewWriter(1)
	w.AddName("lit")
	w.AddShader(materialpkg.LanguageSPIRV, 0, 0x00, materialpkg.StageVertex, []byte("vertex-default"))
	w.AddShader(materialpkg.LanguageSPIRV, 0, 0x00, materialpkg.StageFragment, []byte("fragment-default"))
	w.AddShader(materialpkg.LanguageSPIRV, 0, 0x80, materialpkg.StageVertex, []byte("vertex-depth"))
	w.AddShader(materialpkg.LanguageSPIRV, 0, 0x80, materialpkg.StageFragment, []byte("fragment-depth"))
	return w.Build()
}

func newLitParser() *materialpkg.Parser {
	p := materialpkg.NewParser([]materialpkg.ShaderLanguage{materialpkg.LanguageSPIRV}, buildLitPackage())
	if res := p.Parse(); res != materialpkg.ParseSuccess {
		panic("test package failed to parse")
	}
	return p
}

func TestCacheAcquireDedupesIdenticalParser(t *testing.T) {
	gpu := &fakeGPU{}
	cache := NewMaterialCache(gpu)
	parser := newLitParser()

	d1, err := cache.Acquire(parser)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	d2, err := cache.Acquire(parser)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if d1 != d2 {
		t.Fatal("expected the same Definition for repeated Acquire calls on the same parser")
	}
	if gpu.layoutsCreated != 1 {
		t.Errorf("layoutsCreated = %d, want 1", gpu.layoutsCreated)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}

	cache.Release(parser)
	cache.Release(parser)
	if cache.Len() != 0 {
		t.Errorf("Len() after both releases = %d, want 0", cache.Len())
	}
	if gpu.layoutsDestroyed != 1 {
		t.Errorf("layoutsDestroyed = %d, want 1", gpu.layoutsDestroyed)
	}
}

func TestCacheIdenticalPackagesFromDistinctParsersDeduped(t *testing.T) {
	gpu := &fakeGPU{}
	cache := NewMaterialCache(gpu)
	p1 := newLitParser()
	p2 := newLitParser() // identical bytes, distinct *Parser

	d1, _ := cache.Acquire(p1)
	d2, _ := cache.Acquire(p2)
	if d1 != d2 {
		t.Fatal("expected one shared Definition for identical packages loaded through distinct parsers")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestCacheReleaseWithoutAcquirePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic releasing an untracked parser")
		}
	}()
	cache := NewMaterialCache(&fakeGPU{})
	cache.Release(newLitParser())
}

func TestCacheShutdownLogsOutstandingReferences(t *testing.T) {
	cache := NewMaterialCache(&fakeGPU{})
	cache.Acquire(newLitParser())
	cache.Shutdown() // must not panic; leak is only logged
}
