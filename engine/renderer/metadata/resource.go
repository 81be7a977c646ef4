package metadata

/** @brief An invalid id in any of the id spaces used by the renderer. */
const InvalidID uint32 = ^uint32(0)

/** @brief An invalid id for 64-bit id spaces. */
const InvalidIDUint64 uint64 = ^uint64(0)

/**
 * @brief Known texel formats for virtual textures. Only the formats the
 * deferred pipeline actually uses; extend as passes need more.
 */
type TextureFormat int

const (
	TextureFormatUnknown TextureFormat = iota
	TextureFormatRGBA8
	TextureFormatBGRA8
	TextureFormatRGBA16F
	TextureFormatRG16F
	TextureFormatR32F
	TextureFormatD24S8
	TextureFormatD32F
)

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8:
		return "RGBA8"
	case TextureFormatBGRA8:
		return "BGRA8"
	case TextureFormatRGBA16F:
		return "RGBA16F"
	case TextureFormatRG16F:
		return "RG16F"
	case TextureFormatR32F:
		return "R32F"
	case TextureFormatD24S8:
		return "D24S8"
	case TextureFormatD32F:
		return "D32F"
	}
	return "Unknown"
}

// TexelSize returns the byte size of one texel in the format. Used for
// conservative transient-memory estimates before backend allocation.
func (f TextureFormat) TexelSize() uint64 {
	switch f {
	case TextureFormatRGBA8, TextureFormatBGRA8, TextureFormatD24S8, TextureFormatR32F, TextureFormatD32F, TextureFormatRG16F:
		return 4
	case TextureFormatRGBA16F:
		return 8
	}
	return 4
}

/** @brief Usage bit flags for virtual textures. */
type TextureUsage uint32

const (
	TextureUsageRenderTarget TextureUsage = 0x1
	TextureUsageDepthStencil TextureUsage = 0x2
	TextureUsageShaderRead   TextureUsage = 0x4
	TextureUsageWriteable    TextureUsage = 0x8
)

/**
 * @brief Describes a virtual texture to the frame graph. No physical memory
 * is attached to a descriptor; the transient heap does that after Compile.
 */
type TextureDesc struct {
	/** @brief The texture width in texels. */
	Width uint32
	/** @brief The texture height in texels. */
	Height uint32
	/** @brief Depth for 3D textures or array size for array textures. Minimum 1. */
	DepthOrArraySize uint32
	/** @brief The texel format. */
	Format TextureFormat
	/** @brief Usage bit flags. */
	Usage TextureUsage
	/** @brief MSAA sample count. Minimum 1. */
	SampleCount uint32
	/** @brief The debug name, shown in graph dumps. */
	Name string
}

/** @brief Usage bit flags for virtual buffers. */
type BufferUsage uint32

const (
	BufferUsageShaderRead BufferUsage = 0x1
	BufferUsageWriteable  BufferUsage = 0x2
	BufferUsageCopySrc    BufferUsage = 0x4
	BufferUsageCopyDst    BufferUsage = 0x8
)

/** @brief Describes a virtual buffer to the frame graph. */
type BufferDesc struct {
	/** @brief Number of elements in the buffer. */
	ElementCount uint32
	/** @brief Byte stride of one element. For raw buffers this is 1. */
	ElementStride uint32
	/** @brief True for structured buffers, false for raw byte-address buffers. */
	Structured bool
	/** @brief Usage bit flags. */
	Usage BufferUsage
	/** @brief The debug name, shown in graph dumps. */
	Name string
}

// Size returns the unaligned byte size of the buffer.
func (d *BufferDesc) Size() uint64 {
	return uint64(d.ElementCount) * uint64(d.ElementStride)
}

// Size returns the unaligned byte size estimate of the texture. Backends may
// need more due to row pitch or tiling; callers align up before packing.
func (d *TextureDesc) Size() uint64 {
	depth := uint64(d.DepthOrArraySize)
	if depth == 0 {
		depth = 1
	}
	samples := uint64(d.SampleCount)
	if samples == 0 {
		samples = 1
	}
	return uint64(d.Width) * uint64(d.Height) * depth * samples * d.Format.TexelSize()
}
