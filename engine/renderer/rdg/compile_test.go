package rdg

import (
	"errors"
	"strings"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
)

// passPosition maps compiled order back to indices for dependency checks.
func passPosition(compiled *CompiledGraph) map[string]int {
	position := make(map[string]int, len(compiled.Passes))
	for i, pass := range compiled.Passes {
		position[pass.Name] = i
	}
	return position
}

func TestCompiledOrderRespectsDependencies(t *testing.T) {
	backend := &fakeBackend{}
	g, backBuffer := beginTestFrame(t, backend, 1)

	// record consumers before producers; the compiler must reorder
	type stage struct{ out TextureHandle }
	blur, err := AddPass(g, "Blur",
		func(data *stage, b *Builder) error {
			data.out = b.CreateTexture("Blurred", colourDesc(640, 360))
			b.WriteRTV(data.out)
			return nil
		},
		func(data *stage, ctx *ExecuteContext) error { return nil })
	if err != nil {
		t.Fatalf("AddPass(Blur): %v", err)
	}

	_, err = AddPass(g, "Composite",
		func(data *stage, b *Builder) error {
			b.ReadTexture(blur.out)
			data.out = b.WriteRTV(backBuffer)
			return nil
		},
		func(data *stage, ctx *ExecuteContext) error { return nil })
	if err != nil {
		t.Fatalf("AddPass(Composite): %v", err)
	}

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	position := passPosition(g.Compiled())
	if position["Blur"] > position["Composite"] {
		t.Errorf("Blur at %d compiled after its consumer Composite at %d",
			position["Blur"], position["Composite"])
	}

	// every read must see the writer earlier in the order
	compiled := g.Compiled()
	lastWriter := make(map[uint32]int)
	for index, pass := range compiled.Passes {
		for _, access := range pass.Accesses {
			if !access.Write {
				if w, ok := lastWriter[access.Resource]; ok && w > index {
					t.Errorf("pass %s reads resource %d before its writer", pass.Name, access.Resource)
				}
			}
		}
		for _, access := range pass.Accesses {
			if access.Write {
				lastWriter[access.Resource] = index
			}
		}
	}
}

func TestCullingIsTransitive(t *testing.T) {
	backend := &fakeBackend{}
	g, backBuffer := beginTestFrame(t, backend, 1)

	type stage struct{ out TextureHandle }

	// dead chain: A feeds B, B feeds nothing external
	deadA, err := AddPass(g, "DeadProducer",
		func(data *stage, b *Builder) error {
			data.out = b.CreateTexture("DeadA", colourDesc(64, 64))
			b.WriteRTV(data.out)
			return nil
		},
		func(data *stage, ctx *ExecuteContext) error { return nil })
	if err != nil {
		t.Fatalf("AddPass: %v", err)
	}
	_, err = AddPass(g, "DeadConsumer",
		func(data *stage, b *Builder) error {
			b.ReadTexture(deadA.out)
			data.out = b.CreateTexture("DeadB", colourDesc(64, 64))
			b.WriteRTV(data.out)
			return nil
		},
		func(data *stage, ctx *ExecuteContext) error { return nil })
	if err != nil {
		t.Fatalf("AddPass: %v", err)
	}

	// live chain feeding the imported back buffer
	live, err := AddPass(g, "LiveProducer",
		func(data *stage, b *Builder) error {
			data.out = b.CreateTexture("Live", colourDesc(64, 64))
			b.WriteRTV(data.out)
			return nil
		},
		func(data *stage, ctx *ExecuteContext) error { return nil })
	if err != nil {
		t.Fatalf("AddPass: %v", err)
	}
	_, err = AddPass(g, "Present",
		func(data *stage, b *Builder) error {
			b.ReadTexture(live.out)
			data.out = b.WriteRTV(backBuffer)
			return nil
		},
		func(data *stage, ctx *ExecuteContext) error { return nil })
	if err != nil {
		t.Fatalf("AddPass: %v", err)
	}

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	compiled := g.Compiled()
	if compiled.Stats.PassesCulled != 2 {
		t.Fatalf("culled %d passes, want the whole dead chain of 2", compiled.Stats.PassesCulled)
	}
	position := passPosition(compiled)
	for _, name := range []string{"DeadProducer", "DeadConsumer"} {
		if _, ok := position[name]; ok {
			t.Errorf("%s survived culling", name)
		}
	}
	// culled resources keep no lifetime
	for i := range g.registry.entries {
		entry := &g.registry.entries[i]
		if (entry.name == "DeadA" || entry.name == "DeadB") && compiled.Alive[i] {
			t.Errorf("resource %s of a culled chain is alive", entry.name)
		}
	}
}

func TestWriteAfterWriteIsOrderedByRecording(t *testing.T) {
	backend := &fakeBackend{}
	g, backBuffer := beginTestFrame(t, backend, 1)

	type stage struct{ out TextureHandle }
	for _, name := range []string{"Sky", "Geometry", "Overlay"} {
		name := name
		_, err := AddPass(g, name,
			func(data *stage, b *Builder) error {
				data.out = b.WriteRTV(backBuffer)
				return nil
			},
			func(data *stage, ctx *ExecuteContext) error { return nil })
		if err != nil {
			t.Fatalf("AddPass(%s): %v", name, err)
		}
	}

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	compiled := g.Compiled()
	if len(compiled.Passes) != 3 {
		t.Fatalf("compiled %d passes, want 3", len(compiled.Passes))
	}
	for i, want := range []string{"Sky", "Geometry", "Overlay"} {
		if compiled.Passes[i].Name != want {
			t.Errorf("pass[%d] = %s, want %s (recording order)", i, compiled.Passes[i].Name, want)
		}
	}
}

func TestCompilationIsDeterministic(t *testing.T) {
	record := func() *CompiledGraph {
		g, backBuffer := beginTestFrame(t, &fakeBackend{}, 1)
		recordDeferredFrame(t, g, backBuffer)
		if err := g.Compile(); err != nil {
			t.Fatalf("Compile: %v", err)
		}
		return g.Compiled()
	}

	first := record()
	for run := 0; run < 5; run++ {
		next := record()
		if len(next.Passes) != len(first.Passes) {
			t.Fatalf("run %d compiled %d passes, first run %d", run, len(next.Passes), len(first.Passes))
		}
		for i := range first.Passes {
			if next.Passes[i].Name != first.Passes[i].Name {
				t.Errorf("run %d pass[%d] = %s, first run %s", run, i, next.Passes[i].Name, first.Passes[i].Name)
			}
		}
		for i := range first.Assignments {
			if next.Assignments[i] != first.Assignments[i] {
				t.Errorf("run %d assignment[%d] = %+v, first run %+v", run, i, next.Assignments[i], first.Assignments[i])
			}
		}
		if next.HeapSize != first.HeapSize {
			t.Errorf("run %d heap size %d, first run %d", run, next.HeapSize, first.HeapSize)
		}
	}
}

func TestCycleIsRejectedWithPassNames(t *testing.T) {
	backend := &fakeBackend{}
	g, backBuffer := beginTestFrame(t, backend, 1)

	type stage struct {
		in  TextureHandle
		out TextureHandle
	}

	ping := g.CreateTexture("Ping", colourDesc(64, 64))
	pong := g.CreateTexture("Pong", colourDesc(64, 64))

	_, err := AddPass(g, "Forward",
		func(data *stage, b *Builder) error {
			b.ReadTexture(pong)
			b.WriteRTV(ping)
			b.WriteRTV(backBuffer)
			return nil
		},
		func(data *stage, ctx *ExecuteContext) error { return nil })
	if err != nil {
		t.Fatalf("AddPass(Forward): %v", err)
	}
	_, err = AddPass(g, "Backward",
		func(data *stage, b *Builder) error {
			b.ReadTexture(ping)
			b.WriteRTV(pong)
			b.WriteRTV(backBuffer)
			return nil
		},
		func(data *stage, ctx *ExecuteContext) error { return nil })
	if err != nil {
		t.Fatalf("AddPass(Backward): %v", err)
	}

	err = g.Compile()
	if !errors.Is(err, core.ErrGraphCycle) {
		t.Fatalf("Compile = %v, want ErrGraphCycle", err)
	}
	for _, name := range []string{"Forward", "Backward"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("cycle error %q does not name pass %s", err, name)
		}
	}
}

func TestLifetimesSpanFirstToLastUse(t *testing.T) {
	backend := &fakeBackend{}
	g, backBuffer := beginTestFrame(t, backend, 1)
	gbuffer, lighting, _ := recordDeferredFrame(t, g, backBuffer)

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	compiled := g.Compiled()

	// albedo: written by GBuffer (0), read by Lighting (1)
	albedo := compiled.Lifetimes[gbuffer.albedo.Index()]
	if albedo.First != 0 || albedo.Last != 1 {
		t.Errorf("albedo lifetime [%d,%d], want [0,1]", albedo.First, albedo.Last)
	}
	// hdr: written by Lighting (1), read by ToneMap (2)
	hdr := compiled.Lifetimes[lighting.hdr.Index()]
	if hdr.First != 1 || hdr.Last != 2 {
		t.Errorf("hdr lifetime [%d,%d], want [1,2]", hdr.First, hdr.Last)
	}
	// imported back buffer spans the whole frame
	imported := compiled.Lifetimes[backBuffer.Index()]
	if imported.First != 0 || imported.Last != len(compiled.Passes)-1 {
		t.Errorf("imported lifetime [%d,%d], want whole frame", imported.First, imported.Last)
	}
}
