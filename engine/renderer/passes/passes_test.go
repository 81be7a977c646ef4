package passes

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/renderer/headless"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

func backBufferDesc(w, h uint32) metadata.TextureDesc {
	return metadata.TextureDesc{
		Width:       w,
		Height:      h,
		Format:      metadata.TextureFormatBGRA8,
		Usage:       metadata.TextureUsageRenderTarget,
		SampleCount: 1,
		Name:        "BackBuffer",
	}
}

func TestDeferredChainDeclaresExpectedResources(t *testing.T) {
	backend := headless.New()
	g := rdg.New(backend, &rdg.Config{Validation: true})
	if err := g.BeginFrame(1); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	external, _ := backend.AllocateTexture(&metadata.TextureDesc{Width: 1280, Height: 720}, nil)
	backBuffer := g.ImportTexture("BackBuffer", external, backBufferDesc(1280, 720))

	shadow, err := AddShadowPass(g)
	if err != nil {
		t.Fatalf("AddShadowPass: %v", err)
	}
	gbuffer, err := AddGBufferPass(g, 1280, 720)
	if err != nil {
		t.Fatalf("AddGBufferPass: %v", err)
	}
	lighting, err := AddLightingPass(g, gbuffer, shadow, 1280, 720)
	if err != nil {
		t.Fatalf("AddLightingPass: %v", err)
	}
	if _, err := AddToneMapPass(g, lighting, backBuffer); err != nil {
		t.Fatalf("AddToneMapPass: %v", err)
	}

	for name, h := range map[string]rdg.TextureHandle{
		"shadow map": shadow.Map,
		"albedo":     gbuffer.Albedo,
		"normal":     gbuffer.Normal,
		"depth":      gbuffer.Depth,
		"hdr":        lighting.HDR,
	} {
		if !h.IsValid() {
			t.Errorf("%s handle is invalid", name)
		}
	}
	// shadow map, three gbuffer targets, hdr, imported back buffer
	if g.TextureCount() != 6 {
		t.Errorf("TextureCount = %d, want 6", g.TextureCount())
	}

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	compiled := g.Compiled()
	if len(compiled.Passes) != 4 || compiled.Stats.PassesCulled != 0 {
		t.Fatalf("compiled %d passes with %d culled, want all 4 alive",
			len(compiled.Passes), compiled.Stats.PassesCulled)
	}

	cmd, err := backend.NewCommandList()
	if err != nil {
		t.Fatalf("NewCommandList: %v", err)
	}
	if err := g.Execute(cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if backend.Submits != 1 {
		t.Errorf("Submits = %d, want 1", backend.Submits)
	}
}

func TestLightingWithoutShadowStillCompiles(t *testing.T) {
	backend := headless.New()
	g := rdg.New(backend, &rdg.Config{Validation: true})
	if err := g.BeginFrame(1); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	external, _ := backend.AllocateTexture(&metadata.TextureDesc{Width: 640, Height: 360}, nil)
	backBuffer := g.ImportTexture("BackBuffer", external, backBufferDesc(640, 360))

	gbuffer, err := AddGBufferPass(g, 640, 360)
	if err != nil {
		t.Fatalf("AddGBufferPass: %v", err)
	}
	lighting, err := AddLightingPass(g, gbuffer, nil, 640, 360)
	if err != nil {
		t.Fatalf("AddLightingPass without shadow: %v", err)
	}
	if _, err := AddToneMapPass(g, lighting, backBuffer); err != nil {
		t.Fatalf("AddToneMapPass: %v", err)
	}

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := len(g.Compiled().Passes); got != 3 {
		t.Errorf("compiled %d passes, want 3", got)
	}
}

func TestShadowPassAloneIsCulled(t *testing.T) {
	backend := headless.New()
	g := rdg.New(backend, &rdg.Config{Validation: true})
	if err := g.BeginFrame(1); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	// imported target exists but nothing writes it; the shadow pass feeds nobody
	external, _ := backend.AllocateTexture(&metadata.TextureDesc{Width: 64, Height: 64}, nil)
	g.ImportTexture("BackBuffer", external, backBufferDesc(64, 64))

	if _, err := AddShadowPass(g); err != nil {
		t.Fatalf("AddShadowPass: %v", err)
	}
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	compiled := g.Compiled()
	if len(compiled.Passes) != 0 || compiled.Stats.PassesCulled != 1 {
		t.Errorf("compiled %d passes with %d culled, want the shadow pass gone",
			len(compiled.Passes), compiled.Stats.PassesCulled)
	}
	if compiled.HeapSize != 0 {
		t.Errorf("heap size %d for a fully culled frame, want 0", compiled.HeapSize)
	}
}
