package framegraph

import (
	"testing"

	"github.com/anthrosphere/lumen/driverapi"
)

// TestSubresourceWritePreservesParentReadSnapshot exercises three
// transitions of the subresource state machine: first-write of the
// parent, a first-read-after-write of the parent, then a write to a
// mip subresource of it which must record a pre-write snapshot on the
// parent slot while letting a handle obtained before the subresource
// write stay valid (read-of-subresource-parent).
func TestSubresourceWritePreservesParentReadSnapshot(t *testing.T) {
	fg := New(nil, nil, ModeUnprotected)
	var parent, parentBeforeMipWrite, mip FrameGraphHandle

	AddPass(fg, "CreateParent", func(b *Builder) {
		parent = b.Create("parent", texDesc(128, 128))
		parent = b.Write(parent, driverapi.UsageColorAttachment)
	}, nil)

	AddPass(fg, "ReadParentBeforeMipWrite", func(b *Builder) {
		parentBeforeMipWrite = b.Read(parent, driverapi.UsageSampleable)
	}, nil)

	AddPass(fg, "CreateAndWriteMip", func(b *Builder) {
		mip = b.CreateSubresource(parent, "mip0", texDesc(64, 64))
		mip = b.Write(mip, driverapi.UsageColorAttachment)
	}, nil)

	if !fg.IsValid(parentBeforeMipWrite) {
		t.Error("a parent handle obtained before the subresource write should remain valid")
	}
	if !fg.IsValid(mip) {
		t.Error("the subresource write handle should be valid")
	}

	slot := fg.slots[parentBeforeMipWrite.Index]
	if slot.subresourceNodeIndex == -1 {
		t.Fatal("expected the parent slot to record a pre-write snapshot after the subresource write")
	}
}

func TestUsageUnionIdempotence(t *testing.T) {
	// Unioning a usage bit that is already present changes nothing, the
	// property resolveUsage relies on when the same usage reaches a
	// resource more than once.
	a := driverapi.UsageColorAttachment | driverapi.UsageSampleable
	once := a | driverapi.UsageColorAttachment
	twice := once | driverapi.UsageColorAttachment
	if once != twice {
		t.Errorf("usage union not idempotent: %v != %v", once, twice)
	}
}
