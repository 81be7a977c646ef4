package passes

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

/** @brief HDR resolve target produced by the deferred lighting pass. */
type LightingData struct {
	HDR rdg.TextureHandle

	SunDirection math.Vec3

	albedo rdg.TextureHandle
	normal rdg.TextureHandle
	depth  rdg.TextureHandle
	shadow rdg.TextureHandle
}

// AddLightingPass records the full-screen deferred shading resolve. It reads
// every geometry buffer target plus the shadow map and produces the HDR
// scene colour.
func AddLightingPass(g *rdg.Graph, gbuffer *GBufferData, shadow *ShadowData, width, height uint32) (*LightingData, error) {
	return rdg.AddPass(g, "Lighting",
		func(data *LightingData, builder *rdg.Builder) error {
			data.SunDirection = math.NewVec3(-0.57, -0.57, -0.57)
			data.albedo = builder.ReadTexture(gbuffer.Albedo)
			data.normal = builder.ReadTexture(gbuffer.Normal)
			data.depth = builder.ReadTexture(gbuffer.Depth)
			if shadow != nil {
				data.shadow = builder.ReadTexture(shadow.Map)
			}
			data.HDR = builder.CreateTexture("SceneHDR", metadata.TextureDesc{
				Width:       width,
				Height:      height,
				Format:      metadata.TextureFormatRGBA16F,
				Usage:       metadata.TextureUsageRenderTarget | metadata.TextureUsageShaderRead,
				SampleCount: 1,
				Name:        "SceneHDR",
			})
			builder.WriteRTV(data.HDR)
			return nil
		},
		func(data *LightingData, ctx *rdg.ExecuteContext) error {
			// Full-screen triangle sampling the geometry buffers.
			_ = ctx.Texture(data.albedo)
			_ = ctx.Texture(data.normal)
			_ = ctx.Texture(data.HDR)
			return nil
		})
}
