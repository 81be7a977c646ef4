package passes

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

/** @brief Geometry buffer targets produced by the opaque geometry pass. */
type GBufferData struct {
	Albedo rdg.TextureHandle
	Normal rdg.TextureHandle
	Depth  rdg.TextureHandle

	ClearColour math.Vec4
}

// AddGBufferPass records the opaque geometry pass that lays down the
// screen-sized albedo, normal and depth targets the deferred shading
// resolve consumes.
func AddGBufferPass(g *rdg.Graph, width, height uint32) (*GBufferData, error) {
	return rdg.AddPass(g, "GBuffer",
		func(data *GBufferData, builder *rdg.Builder) error {
			data.ClearColour = math.NewVec4(0.0, 0.0, 0.2, 1.0)
			data.Albedo = builder.CreateTexture("GBufferAlbedo", metadata.TextureDesc{
				Width:       width,
				Height:      height,
				Format:      metadata.TextureFormatRGBA8,
				Usage:       metadata.TextureUsageRenderTarget | metadata.TextureUsageShaderRead,
				SampleCount: 1,
				Name:        "GBufferAlbedo",
			})
			data.Normal = builder.CreateTexture("GBufferNormal", metadata.TextureDesc{
				Width:       width,
				Height:      height,
				Format:      metadata.TextureFormatRG16F,
				Usage:       metadata.TextureUsageRenderTarget | metadata.TextureUsageShaderRead,
				SampleCount: 1,
				Name:        "GBufferNormal",
			})
			data.Depth = builder.CreateTexture("GBufferDepth", metadata.TextureDesc{
				Width:       width,
				Height:      height,
				Format:      metadata.TextureFormatD24S8,
				Usage:       metadata.TextureUsageDepthStencil | metadata.TextureUsageShaderRead,
				SampleCount: 1,
				Name:        "GBufferDepth",
			})
			builder.WriteRTV(data.Albedo)
			builder.WriteRTV(data.Normal)
			builder.WriteDSV(data.Depth)
			return nil
		},
		func(data *GBufferData, ctx *rdg.ExecuteContext) error {
			// Opaque scene geometry is drawn into the three targets here.
			_ = ctx.Texture(data.Albedo)
			_ = ctx.Texture(data.Normal)
			_ = ctx.Texture(data.Depth)
			return nil
		})
}
