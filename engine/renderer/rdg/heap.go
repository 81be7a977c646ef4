package rdg

import (
	"sort"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// packTransients assigns every surviving transient resource a byte range in
// the shared heap so that no two resources with overlapping lifetimes share
// bytes. Greedy interval allocation: walk resources by lifetime start,
// reclaim ranges whose owner's lifetime ended, first-fit from the free list,
// grow the heap when nothing fits. Not optimal bin packing, but bounded and
// deterministic, which matters more inside a frame budget.
//
// Sizes are conservative estimates aligned up to the configured granularity;
// exact backend alignment is not known at compile time.
func packTransients(reg *registry, alive []bool, lifetimes []Lifetime, alignment uint64) ([]Assignment, uint64, uint64) {
	type interval struct {
		resource uint32
		size     uint64
		lifetime Lifetime
	}

	intervals := make([]interval, 0, len(reg.entries))
	transientBytes := uint64(0)
	for i := range reg.entries {
		entry := &reg.entries[i]
		if !alive[i] || entry.imported {
			continue
		}
		var size uint64
		if entry.kind == resourceKindTexture {
			size = entry.texture.Size()
		} else {
			size = entry.buffer.Size()
		}
		size = metadata.GetAligned(size, alignment)
		transientBytes += size
		intervals = append(intervals, interval{
			resource: uint32(i),
			size:     size,
			lifetime: lifetimes[i],
		})
	}

	byStart := make([]interval, len(intervals))
	copy(byStart, intervals)
	sort.SliceStable(byStart, func(a, b int) bool {
		if byStart[a].lifetime.First != byStart[b].lifetime.First {
			return byStart[a].lifetime.First < byStart[b].lifetime.First
		}
		return byStart[a].resource < byStart[b].resource
	})

	byEnd := make([]interval, len(intervals))
	copy(byEnd, intervals)
	sort.SliceStable(byEnd, func(a, b int) bool {
		if byEnd[a].lifetime.Last != byEnd[b].lifetime.Last {
			return byEnd[a].lifetime.Last < byEnd[b].lifetime.Last
		}
		return byEnd[a].resource < byEnd[b].resource
	})

	assignments := make([]Assignment, len(reg.entries))
	free := freeList{}
	heapSize := uint64(0)
	expired := 0

	for _, iv := range byStart {
		// reclaim everything whose lifetime ended strictly before this start
		for expired < len(byEnd) && byEnd[expired].lifetime.Last < iv.lifetime.First {
			done := assignments[byEnd[expired].resource]
			free.release(done.Offset, done.Size)
			expired++
		}

		offset, ok := free.take(iv.size)
		if !ok {
			offset = heapSize
			heapSize += iv.size
		}
		assignments[iv.resource] = Assignment{Offset: offset, Size: iv.size}
	}

	return assignments, heapSize, transientBytes
}

// freeList tracks reclaimed (offset, size) ranges, kept sorted by offset
// with adjacent ranges coalesced.
type freeList struct {
	ranges []metadata.MemoryRange
}

// take removes the first range large enough and returns its offset.
func (f *freeList) take(size uint64) (uint64, bool) {
	for i := range f.ranges {
		r := &f.ranges[i]
		if r.Size < size {
			continue
		}
		offset := r.Offset
		if r.Size == size {
			f.ranges = append(f.ranges[:i], f.ranges[i+1:]...)
		} else {
			r.Offset += size
			r.Size -= size
		}
		return offset, true
	}
	return 0, false
}

// release inserts the range back, merging with neighbours when contiguous.
func (f *freeList) release(offset, size uint64) {
	if size == 0 {
		return
	}
	insert := sort.Search(len(f.ranges), func(i int) bool {
		return f.ranges[i].Offset >= offset
	})
	f.ranges = append(f.ranges, metadata.MemoryRange{})
	copy(f.ranges[insert+1:], f.ranges[insert:])
	f.ranges[insert] = metadata.MemoryRange{Offset: offset, Size: size}

	// coalesce with the right neighbour, then the left
	if insert+1 < len(f.ranges) && f.ranges[insert].Offset+f.ranges[insert].Size == f.ranges[insert+1].Offset {
		f.ranges[insert].Size += f.ranges[insert+1].Size
		f.ranges = append(f.ranges[:insert+1], f.ranges[insert+2:]...)
	}
	if insert > 0 && f.ranges[insert-1].Offset+f.ranges[insert-1].Size == f.ranges[insert].Offset {
		f.ranges[insert-1].Size += f.ranges[insert].Size
		f.ranges = append(f.ranges[:insert], f.ranges[insert+1:]...)
	}
}
