package headless

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

// Texture is a physical texture of the headless backend: pure bookkeeping,
// no device memory behind it.
type Texture struct {
	Desc      metadata.TextureDesc
	Placement rdg.Placement
	Dedicated bool
}

// Buffer is a physical buffer of the headless backend.
type Buffer struct {
	Desc      metadata.BufferDesc
	Placement rdg.Placement
	Dedicated bool
}

// Heap is a transient heap of the headless backend.
type Heap struct {
	Size uint64
}

// CommandList records what the graph asked for so tests and the testbed can
// inspect it after the frame.
type CommandList struct {
	BarrierBatches [][]rdg.Transition
	Submitted      bool
}

// Backend implements rdg.Backend without any graphics API behind it. It is
// the default backend of the testbed and the one the test suite runs on.
type Backend struct {
	TextureAllocs int
	BufferAllocs  int
	HeapAllocs    int
	HeapBytes     uint64
	Submits       int
	Releases      int

	// MaxHeapBytes caps AllocateHeap; zero means unlimited. Lets tests drive
	// the out-of-memory path.
	MaxHeapBytes uint64

	frame atomic.Uint64
}

func New() *Backend {
	return &Backend{}
}

// NewCommandList opens a fresh recording target for one frame.
func (b *Backend) NewCommandList() (rdg.CommandList, error) {
	b.frame.Add(1)
	return &CommandList{}, nil
}

// ReleaseResources counts the call; the headless backend holds no device memory.
func (b *Backend) ReleaseResources() {
	b.Releases++
}

func (b *Backend) Shutdown() {}

func (b *Backend) AllocateHeap(size uint64) (rdg.Heap, error) {
	if b.MaxHeapBytes != 0 && size > b.MaxHeapBytes {
		return nil, fmt.Errorf("transient heap of %d bytes exceeds budget of %d", size, b.MaxHeapBytes)
	}
	b.HeapAllocs++
	b.HeapBytes = size
	return &Heap{Size: size}, nil
}

func (b *Backend) AllocateTexture(desc *metadata.TextureDesc, placement *rdg.Placement) (rdg.Resource, error) {
	b.TextureAllocs++
	t := &Texture{Desc: *desc, Dedicated: placement == nil}
	if placement != nil {
		t.Placement = *placement
	}
	return t, nil
}

func (b *Backend) AllocateBuffer(desc *metadata.BufferDesc, placement *rdg.Placement) (rdg.Resource, error) {
	b.BufferAllocs++
	buf := &Buffer{Desc: *desc, Dedicated: placement == nil}
	if placement != nil {
		buf.Placement = *placement
	}
	return buf, nil
}

func (b *Backend) RecordBarrier(cmd rdg.CommandList, transitions []rdg.Transition) error {
	list, ok := cmd.(*CommandList)
	if !ok {
		return fmt.Errorf("command list does not belong to the headless backend")
	}
	batch := make([]rdg.Transition, len(transitions))
	copy(batch, transitions)
	list.BarrierBatches = append(list.BarrierBatches, batch)
	return nil
}

func (b *Backend) BindAndExecute(cmd rdg.CommandList) error {
	list, ok := cmd.(*CommandList)
	if !ok {
		return fmt.Errorf("command list does not belong to the headless backend")
	}
	list.Submitted = true
	b.Submits++
	return nil
}
