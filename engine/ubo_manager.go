package engine

import (
	"sync"

	"github.com/anthrosphere/lumen/driverapi"
)

// uboWrite is one staged per-instance uniform write: a target buffer,
// an offset into it, and the bytes to copy there. Materials commit into
// a UBOManager instead of writing their own dedicated buffer when
// UBO batching is enabled (Material.UBOBatched).
type uboWrite struct {
	buffer driverapi.Handle
	offset uint32
	data   []byte
}

// uboSlot is one ring slot: a backing UBO handle plus the fence that
// marks when the backend has finished consuming the frame that wrote
// it, so the slot can be reclaimed.
type uboSlot struct {
	buffer driverapi.Handle
	fence  driverapi.Handle
	inUse  bool
}

// UBOManager is the per-instance uniform-buffer ring the engine's
// per-frame sequence drives through BeginFrame/FinishBeginFrame/
// EndFrame: writes accumulate into a slice during prepare() and are
// drained in one batch rather than issued one UpdateBuffer call at a
// time.
type UBOManager struct {
	gpu       driverapi.GPU
	mu        sync.Mutex
	slots     []*uboSlot
	active    *uboSlot
	staged    []uboWrite
	slotBytes uint32
}

// NewUBOManager builds a ring of slotCount UBOs, each slotBytes long.
func NewUBOManager(gpu driverapi.GPU, slotCount int, slotBytes uint32) *UBOManager {
	if slotCount < 1 {
		slotCount = 1
	}
	m := &UBOManager{gpu: gpu, slotBytes: slotBytes}
	for i := 0; i < slotCount; i++ {
		buf := driverapi.Invalid
		if gpu != nil {
			buf = gpu.CreateBuffer(driverapi.BufferDesc{Size: slotBytes, Usage: driverapi.BufferUsageUniform})
		}
		m.slots = append(m.slots, &uboSlot{buffer: buf})
	}
	return m
}

// BeginFrame reclaims any slot whose retiring fence has signaled,
// allocates the next free slot for this frame, and clears the staged
// write list, per "reclaim finished slots, allocate new, remap".
func (m *UBOManager) BeginFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.slots {
		if s.inUse && s.fence.IsValid() && m.gpu != nil && m.gpu.Wait(s.fence, 0) {
			s.inUse = false
			s.fence = driverapi.Invalid
		}
	}
	for _, s := range m.slots {
		if !s.inUse {
			s.inUse = true
			m.active = s
			break
		}
	}
	m.staged = m.staged[:0]
}

// Stage records a write against the active slot's backing buffer. It
// does not touch the GPU; FinishBeginFrame drains the batch.
func (m *UBOManager) Stage(offset uint32, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged, uboWrite{buffer: m.activeBufferLocked(), offset: offset, data: data})
}

func (m *UBOManager) activeBufferLocked() driverapi.Handle {
	if m.active == nil {
		return driverapi.Invalid
	}
	return m.active.buffer
}

// FinishBeginFrame drains every write staged since BeginFrame through
// the backend in one batch, draining and clearing the staged list the
// same way StagedWriteData's "take and reset to empty" idiom does.
func (m *UBOManager) FinishBeginFrame() {
	m.mu.Lock()
	writes := m.staged
	m.staged = nil
	m.mu.Unlock()

	if m.gpu == nil {
		return
	}
	for _, w := range writes {
		if !w.buffer.IsValid() {
			continue
		}
		m.gpu.UpdateBuffer(w.buffer, w.offset, driverapi.BufferDescriptor{Data: w.data})
	}
}

// EndFrame places a fence marking this frame's UBO slot as retiring;
// the slot is reclaimed by a future BeginFrame once the fence signals.
func (m *UBOManager) EndFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.gpu == nil {
		return
	}
	m.active.fence = m.gpu.CreateFence()
	m.active = nil
}

// ActiveBuffer returns the UBO handle backing the current frame's
// slot, or driverapi.Invalid if no frame is in progress.
func (m *UBOManager) ActiveBuffer() driverapi.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeBufferLocked()
}

// Shutdown destroys every backing buffer.
func (m *UBOManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gpu == nil {
		return
	}
	for _, s := range m.slots {
		if s.buffer.IsValid() {
			m.gpu.DestroyBuffer(s.buffer)
		}
		if s.fence.IsValid() {
			m.gpu.DestroyFence(s.fence)
		}
	}
	m.slots = nil
}
