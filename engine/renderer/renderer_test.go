package renderer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spaghettifunk/prism/engine/renderer/headless"
	"github.com/spaghettifunk/prism/engine/renderer/passes"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

func recordTestFrame(graph *rdg.Graph, backBuffer rdg.TextureHandle, width, height uint32) error {
	shadow, err := passes.AddShadowPass(graph)
	if err != nil {
		return err
	}
	gbuffer, err := passes.AddGBufferPass(graph, width, height)
	if err != nil {
		return err
	}
	lighting, err := passes.AddLightingPass(graph, gbuffer, shadow, width, height)
	if err != nil {
		return err
	}
	_, err = passes.AddToneMapPass(graph, lighting, backBuffer)
	return err
}

func TestRendererDrawsFrames(t *testing.T) {
	backend := headless.New()
	r, err := NewRendererSystem(backend, 1280, 720, 3, &rdg.Config{Validation: true})
	if err != nil {
		t.Fatalf("NewRendererSystem: %v", err)
	}

	for frame := 0; frame < 6; frame++ {
		if err := r.DrawFrame(recordTestFrame); err != nil {
			t.Fatalf("DrawFrame %d: %v", frame, err)
		}
	}
	if r.FrameNumber() != 6 {
		t.Errorf("FrameNumber = %d, want 6", r.FrameNumber())
	}
	if backend.Submits != 6 {
		t.Errorf("backend saw %d submits, want 6", backend.Submits)
	}
	// shadow, gbuffer x3, hdr are transient; the back buffer is allocated once
	// dedicated and imported every frame
	if r.LastStats.PassesRecorded != 4 || r.LastStats.PassesCulled != 0 {
		t.Errorf("stats %+v, want 4 recorded, 0 culled", r.LastStats)
	}
	if backend.HeapAllocs == 0 {
		t.Error("no transient heap was ever allocated")
	}
	// each submitted frame must release its transients
	if backend.Releases != 6 {
		t.Errorf("ReleaseResources ran %d times, want once per frame", backend.Releases)
	}
}

func TestRendererResizeRecreatesBackBuffer(t *testing.T) {
	backend := headless.New()
	r, err := NewRendererSystem(backend, 800, 600, 2, nil)
	if err != nil {
		t.Fatalf("NewRendererSystem: %v", err)
	}
	allocsBefore := backend.TextureAllocs

	if err := r.OnResize(1920, 1080); err != nil {
		t.Fatalf("OnResize: %v", err)
	}
	if backend.TextureAllocs != allocsBefore+1 {
		t.Errorf("resize allocated %d textures, want 1 new back buffer", backend.TextureAllocs-allocsBefore)
	}
	w, h := r.Size()
	if w != 1920 || h != 1080 {
		t.Errorf("Size = %dx%d, want 1920x1080", w, h)
	}

	// same size again must be a no-op
	if err := r.OnResize(1920, 1080); err != nil {
		t.Fatalf("OnResize same size: %v", err)
	}
	if backend.TextureAllocs != allocsBefore+1 {
		t.Error("no-op resize reallocated the back buffer")
	}

	if err := r.DrawFrame(recordTestFrame); err != nil {
		t.Fatalf("DrawFrame after resize: %v", err)
	}
}

func TestRendererDumpLastFrame(t *testing.T) {
	backend := headless.New()
	r, err := NewRendererSystem(backend, 640, 360, 1, nil)
	if err != nil {
		t.Fatalf("NewRendererSystem: %v", err)
	}

	if err := r.DumpLastFrame(&bytes.Buffer{}); err == nil {
		t.Error("DumpLastFrame before any frame succeeded")
	}

	if err := r.DrawFrame(recordTestFrame); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	var buf bytes.Buffer
	if err := r.DumpLastFrame(&buf); err != nil {
		t.Fatalf("DumpLastFrame: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"GBuffer", "Lighting", "ToneMap", "BackBuffer"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q", want)
		}
	}
}

func TestRendererOutOfMemoryFrame(t *testing.T) {
	backend := headless.New()
	backend.MaxHeapBytes = 1024 // nothing realistic fits
	r, err := NewRendererSystem(backend, 1280, 720, 1, nil)
	if err != nil {
		t.Fatalf("NewRendererSystem: %v", err)
	}
	if err := r.DrawFrame(recordTestFrame); err == nil {
		t.Fatal("DrawFrame with a tiny heap budget succeeded")
	}
	if backend.Submits != 0 {
		t.Error("frame was submitted despite heap failure")
	}
}
