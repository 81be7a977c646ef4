package rdg

import (
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Resource is an opaque physical resource owned by a Backend. The graph
// never looks inside it; it only hands it back to the backend and to pass
// execute closures.
type Resource interface{}

// CommandList is an opaque recording target owned by a Backend.
type CommandList interface{}

// Heap is an opaque block of device memory transient resources are placed in.
type Heap interface{}

// Placement tells the backend where inside a transient heap a resource must
// be bound. A nil placement requests a dedicated allocation.
type Placement struct {
	Heap   Heap
	Offset uint64
	Size   uint64
}

// Transition is one resource state change the barrier batcher hands to the
// backend. Name carries the debug name for diagnostics.
type Transition struct {
	Resource Resource
	Name     string
	Before   metadata.ResourceState
	After    metadata.ResourceState
}

// Backend is the graphics API the compiled graph executes against. The graph
// never issues draw or dispatch calls itself; passes do that through whatever
// the backend exposes on its command lists.
type Backend interface {
	// AllocateHeap reserves size bytes of device memory for placed transient
	// resources. Failure aborts the current frame's Execute.
	AllocateHeap(size uint64) (Heap, error)
	// AllocateTexture materializes a physical texture, placed inside a
	// transient heap when placement is non-nil.
	AllocateTexture(desc *metadata.TextureDesc, placement *Placement) (Resource, error)
	// AllocateBuffer materializes a physical buffer, placed inside a
	// transient heap when placement is non-nil.
	AllocateBuffer(desc *metadata.BufferDesc, placement *Placement) (Resource, error)
	// RecordBarrier emits one batched state-transition call on the command list.
	RecordBarrier(cmd CommandList, transitions []Transition) error
	// BindAndExecute submits the recorded command list.
	BindAndExecute(cmd CommandList) error
}
