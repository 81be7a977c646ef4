package passes

import (
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

/** @brief Final tone mapping pass writing the presentable back buffer. */
type ToneMapData struct {
	Target rdg.TextureHandle

	hdr rdg.TextureHandle
}

// AddToneMapPass records the HDR to LDR resolve into target, normally the
// imported back buffer. Writing an imported resource is what keeps the whole
// chain alive through dead-pass culling.
func AddToneMapPass(g *rdg.Graph, lighting *LightingData, target rdg.TextureHandle) (*ToneMapData, error) {
	return rdg.AddPass(g, "ToneMap",
		func(data *ToneMapData, builder *rdg.Builder) error {
			data.hdr = builder.ReadTexture(lighting.HDR)
			data.Target = builder.WriteRTV(target)
			return nil
		},
		func(data *ToneMapData, ctx *rdg.ExecuteContext) error {
			_ = ctx.Texture(data.hdr)
			_ = ctx.Texture(data.Target)
			return nil
		})
}
