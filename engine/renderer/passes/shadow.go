package passes

import (
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

/** @brief Output of the directional shadow pass. */
type ShadowData struct {
	Map rdg.TextureHandle
}

const ShadowMapSize uint32 = 2048

// AddShadowPass records the shadow map render. The map is transient; it only
// lives until the lighting pass has sampled it.
func AddShadowPass(g *rdg.Graph) (*ShadowData, error) {
	return rdg.AddPass(g, "Shadow",
		func(data *ShadowData, builder *rdg.Builder) error {
			data.Map = builder.CreateTexture("ShadowMap", metadata.TextureDesc{
				Width:       ShadowMapSize,
				Height:      ShadowMapSize,
				Format:      metadata.TextureFormatD32F,
				Usage:       metadata.TextureUsageDepthStencil | metadata.TextureUsageShaderRead,
				SampleCount: 1,
				Name:        "ShadowMap",
			})
			builder.WriteDSV(data.Map)
			return nil
		},
		func(data *ShadowData, ctx *rdg.ExecuteContext) error {
			// Depth-only draw of the shadow casters goes here.
			_ = ctx.Texture(data.Map)
			return nil
		})
}
