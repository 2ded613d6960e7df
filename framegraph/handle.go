// Package framegraph implements a per-frame DAG of render passes and
// virtual resources: passes declare what they read and write, the
// graph culls anything that doesn't transitively feed a pass with
// side effects, and only the survivors are devirtualized into real
// driverapi handles before execution.
package framegraph

// FrameGraphHandle is a versioned reference to one virtual resource at
// a particular point in its read/write history. A handle is valid only
// while its Version matches the slot's current version; any write
// downstream bumps the slot and retires every handle issued before it.
//
// Index 0 is reserved as the invalid sentinel — every FrameGraph
// reserves slot 0 at construction so real resources never receive it
// — which makes the zero FrameGraphHandle{} the same as Invalid, the
// way a zero Handle is Invalid in driverapi.
type FrameGraphHandle struct {
	Index   uint16
	Version uint8
}

// Invalid is the zero handle; it is never returned by Create or Write.
var Invalid = FrameGraphHandle{}

// IsValid reports whether h carries a real slot index. It does not by
// itself confirm the handle is still current — use FrameGraph.IsValid
// for that.
func (h FrameGraphHandle) IsValid() bool {
	return h.Index != 0
}
