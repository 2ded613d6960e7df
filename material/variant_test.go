package material

import "testing"

func TestFilterVariantVertexDropsFragmentOnlyBits(t *testing.T) {
	v := BitDirectionalLight | BitSkinning | BitFog
	got := FilterVariantVertex(v)
	want := BitSkinning
	if got != want {
		t.Fatalf("FilterVariantVertex(%#x) = %#x, want %#x", v, got, want)
	}
}

func TestFilterVariantFragmentDropsVertexOnlyBits(t *testing.T) {
	v := BitSkinning | BitStereo | BitFog
	got := FilterVariantFragment(v)
	want := BitFog
	if got != want {
		t.Fatalf("FilterVariantFragment(%#x) = %#x, want %#x", v, got, want)
	}
}

func TestIsValidDepthVariant(t *testing.T) {
	if !(BitDepth | BitSkinning).IsValidDepthVariant() {
		t.Error("BitDepth|BitSkinning should be a valid depth variant")
	}
	if (BitDepth | BitFog).IsValidDepthVariant() {
		t.Error("BitDepth|BitFog should not be a valid depth variant")
	}
	if Variant(0).IsValidDepthVariant() {
		t.Error("a variant without BitDepth set is never a depth variant")
	}
}

func TestFilterVariantDepthMasksToValidBits(t *testing.T) {
	v := BitDepth | BitSkinning | BitDirectionalLight
	got := FilterVariantDepth(v)
	want := BitDepth | BitSkinning
	if got != want {
		t.Fatalf("FilterVariantDepth(%#x) = %#x, want %#x", v, got, want)
	}
}
