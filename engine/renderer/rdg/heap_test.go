package rdg

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

func TestFreeListTakeAndRelease(t *testing.T) {
	f := freeList{}

	if _, ok := f.take(64); ok {
		t.Fatal("take from an empty free list succeeded")
	}

	f.release(0, 256)
	offset, ok := f.take(64)
	if !ok || offset != 0 {
		t.Fatalf("take(64) = (%d, %t), want (0, true)", offset, ok)
	}
	// remainder must still be usable
	offset, ok = f.take(192)
	if !ok || offset != 64 {
		t.Fatalf("take(192) = (%d, %t), want (64, true)", offset, ok)
	}
	if _, ok := f.take(1); ok {
		t.Fatal("take from a drained free list succeeded")
	}
}

func TestFreeListCoalescesNeighbours(t *testing.T) {
	f := freeList{}
	// release out of order; the list must merge into one contiguous range
	f.release(256, 256)
	f.release(0, 256)
	f.release(512, 256)

	if len(f.ranges) != 1 {
		t.Fatalf("free list has %d ranges, want 1 coalesced", len(f.ranges))
	}
	offset, ok := f.take(768)
	if !ok || offset != 0 {
		t.Fatalf("take(768) = (%d, %t), want the full coalesced range", offset, ok)
	}
}

func TestOverlappingLifetimesGetDisjointRanges(t *testing.T) {
	backend := &fakeBackend{}
	g, backBuffer := beginTestFrame(t, backend, 1)
	recordDeferredFrame(t, g, backBuffer)

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	compiled := g.Compiled()

	type placed struct {
		name     string
		lifetime Lifetime
		assign   Assignment
	}
	var placements []placed
	for i := range g.registry.entries {
		entry := &g.registry.entries[i]
		if !compiled.Alive[i] || entry.imported {
			continue
		}
		placements = append(placements, placed{
			name:     entry.name,
			lifetime: compiled.Lifetimes[i],
			assign:   compiled.Assignments[i],
		})
	}

	for i := 0; i < len(placements); i++ {
		for j := i + 1; j < len(placements); j++ {
			a, b := placements[i], placements[j]
			if !a.lifetime.overlaps(b.lifetime) {
				continue
			}
			aEnd := a.assign.Offset + a.assign.Size
			bEnd := b.assign.Offset + b.assign.Size
			if a.assign.Offset < bEnd && b.assign.Offset < aEnd {
				t.Errorf("%s [%d,%d) and %s [%d,%d) overlap in the heap while alive together",
					a.name, a.assign.Offset, aEnd, b.name, b.assign.Offset, bEnd)
			}
		}
	}
}

func TestDisjointLifetimesAliasMemory(t *testing.T) {
	backend := &fakeBackend{}
	g, backBuffer := beginTestFrame(t, backend, 1)

	type stage struct {
		in  TextureHandle
		out TextureHandle
	}

	// chain of equal-sized stages; stage N's input dies as stage N+1 starts
	var previous TextureHandle
	for _, name := range []string{"StageA", "StageB", "StageC", "StageD"} {
		name := name
		prev := previous
		data, err := AddPass(g, name,
			func(data *stage, b *Builder) error {
				if prev.IsValid() {
					data.in = b.ReadTexture(prev)
				}
				data.out = b.CreateTexture(name+"Out", colourDesc(512, 512))
				b.WriteRTV(data.out)
				return nil
			},
			func(data *stage, ctx *ExecuteContext) error { return nil })
		if err != nil {
			t.Fatalf("AddPass(%s): %v", name, err)
		}
		previous = data.out
	}
	_, err := AddPass(g, "Present",
		func(data *stage, b *Builder) error {
			data.in = b.ReadTexture(previous)
			data.out = b.WriteRTV(backBuffer)
			return nil
		},
		func(data *stage, ctx *ExecuteContext) error { return nil })
	if err != nil {
		t.Fatalf("AddPass(Present): %v", err)
	}

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	compiled := g.Compiled()

	// four 1 MiB targets but at most two alive at once
	if compiled.Stats.TransientBytes <= compiled.HeapSize {
		t.Errorf("heap %d bytes did not alias below the %d transient bytes",
			compiled.HeapSize, compiled.Stats.TransientBytes)
	}
	stageDesc := colourDesc(512, 512)
	stageSize := metadata.GetAligned(stageDesc.Size(), 256)
	if want := 2 * stageSize; compiled.HeapSize != want {
		t.Errorf("heap peak %d, want %d (two stages alive at once)", compiled.HeapSize, want)
	}
}

func TestAssignmentsHonourAlignment(t *testing.T) {
	alignment := uint64(64 * 1024)
	g := New(&fakeBackend{}, &Config{Validation: true, HeapAlignment: alignment})
	if err := g.BeginFrame(1); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	backBuffer := g.ImportTexture("BackBuffer", &fakeTexture{}, colourDesc(100, 100))

	_, err := AddPass(g, "Odd",
		func(data *struct {
			small TextureHandle
			out   TextureHandle
		}, b *Builder) error {
			// 100x100 RGBA8 is 40000 bytes, far from a 64K multiple
			data.small = b.CreateTexture("Small", colourDesc(100, 100))
			b.WriteRTV(data.small)
			data.out = b.WriteRTV(backBuffer)
			return nil
		},
		func(data *struct {
			small TextureHandle
			out   TextureHandle
		}, ctx *ExecuteContext) error {
			return nil
		})
	if err != nil {
		t.Fatalf("AddPass: %v", err)
	}

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	compiled := g.Compiled()
	for i := range g.registry.entries {
		if !compiled.Alive[i] || g.registry.entries[i].imported {
			continue
		}
		assign := compiled.Assignments[i]
		if assign.Offset%alignment != 0 {
			t.Errorf("offset %d of %s not aligned to %d", assign.Offset, g.registry.entries[i].name, alignment)
		}
		if assign.Size%alignment != 0 {
			t.Errorf("size %d of %s not aligned to %d", assign.Size, g.registry.entries[i].name, alignment)
		}
	}
}
