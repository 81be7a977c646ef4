package metadata

/**
 * @brief The GPU state a resource must be in before a pass can use it in a
 * given role. The set is closed: barrier generation tracks exactly these.
 */
type ResourceState int

const (
	/** @brief Initial state of a freshly aliased or imported resource. */
	ResourceStateUndefined ResourceState = iota
	/** @brief Bound as a colour render target. */
	ResourceStateRenderTarget
	/** @brief Bound as a depth/stencil target with writes enabled. */
	ResourceStateDepthWrite
	/** @brief Readable from shaders (sampled image or SRV). */
	ResourceStateShaderRead
	/** @brief Read/write from shaders (storage image or UAV). */
	ResourceStateUnorderedAccess
	/** @brief Source of a copy operation. */
	ResourceStateCopySource
	/** @brief Destination of a copy operation. */
	ResourceStateCopyDest
)

func (s ResourceState) String() string {
	switch s {
	case ResourceStateUndefined:
		return "Undefined"
	case ResourceStateRenderTarget:
		return "RenderTarget"
	case ResourceStateDepthWrite:
		return "DepthWrite"
	case ResourceStateShaderRead:
		return "ShaderRead"
	case ResourceStateUnorderedAccess:
		return "UnorderedAccess"
	case ResourceStateCopySource:
		return "CopySource"
	case ResourceStateCopyDest:
		return "CopyDest"
	}
	return "Unknown"
}
