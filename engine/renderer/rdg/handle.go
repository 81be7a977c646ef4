package rdg

import (
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/**
 * @brief Identifies a virtual texture within exactly one frame's recording.
 * The zero value is invalid. A handle from a previous frame is rejected by
 * every builder call, so the registry reset at BeginFrame can never be
 * observed through a stale handle.
 */
type TextureHandle struct {
	index   uint32
	frameID uint32
}

/** @brief Identifies a virtual buffer within exactly one frame's recording. */
type BufferHandle struct {
	index   uint32
	frameID uint32
}

var (
	InvalidTextureHandle = TextureHandle{index: metadata.InvalidID}
	InvalidBufferHandle  = BufferHandle{index: metadata.InvalidID}
)

func (h TextureHandle) IsValid() bool {
	return h.index != metadata.InvalidID
}

func (h BufferHandle) IsValid() bool {
	return h.index != metadata.InvalidID
}

// Index returns the registry slot of the handle. Diagnostic only.
func (h TextureHandle) Index() uint32 { return h.index }

// Index returns the registry slot of the handle. Diagnostic only.
func (h BufferHandle) Index() uint32 { return h.index }
