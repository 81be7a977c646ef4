package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type VulkanImage struct {
	Handle vk.Image
	// Memory is only set for dedicated allocations; placed images live
	// inside a transient heap's memory.
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
}

func vulkanFormat(format metadata.TextureFormat) vk.Format {
	switch format {
	case metadata.TextureFormatRGBA8:
		return vk.FormatR8g8b8a8Unorm
	case metadata.TextureFormatBGRA8:
		return vk.FormatB8g8r8a8Unorm
	case metadata.TextureFormatRGBA16F:
		return vk.FormatR16g16b16a16Sfloat
	case metadata.TextureFormatRG16F:
		return vk.FormatR16g16Sfloat
	case metadata.TextureFormatR32F:
		return vk.FormatR32Sfloat
	case metadata.TextureFormatD24S8:
		return vk.FormatD24UnormS8Uint
	case metadata.TextureFormatD32F:
		return vk.FormatD32Sfloat
	}
	return vk.FormatUndefined
}

func vulkanImageUsage(usage metadata.TextureUsage) vk.ImageUsageFlags {
	flags := vk.ImageUsageFlags(0)
	if usage&metadata.TextureUsageRenderTarget != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	if usage&metadata.TextureUsageDepthStencil != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	}
	if usage&metadata.TextureUsageShaderRead != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if usage&metadata.TextureUsageWriteable != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	}
	return flags
}

func imageAspect(format metadata.TextureFormat) vk.ImageAspectFlags {
	switch format {
	case metadata.TextureFormatD24S8:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	case metadata.TextureFormatD32F:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}

// ImageCreate creates a 2D image and binds it either at an offset inside a
// transient heap or to its own dedicated allocation.
func ImageCreate(context *VulkanContext, desc *metadata.TextureDesc, heap *VulkanHeap, offset uint64) (*VulkanImage, error) {
	arrayLayers := desc.DepthOrArraySize
	if arrayLayers == 0 {
		arrayLayers = 1
	}
	samples := vk.SampleCount1Bit
	if desc.SampleCount == 4 {
		samples = vk.SampleCount4Bit
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vulkanFormat(desc.Format),
		Extent: vk.Extent3D{
			Width:  desc.Width,
			Height: desc.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   arrayLayers,
		Samples:       samples,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vulkanImageUsage(desc.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	image := &VulkanImage{Width: desc.Width, Height: desc.Height}
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &image.Handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create image `%s`: %s", desc.Name, VulkanResultString(res))
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	if heap != nil {
		if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, heap.Memory, vk.DeviceSize(offset)); res != vk.Success {
			return nil, fmt.Errorf("failed to bind image `%s` into transient heap: %s", desc.Name, VulkanResultString(res))
		}
	} else {
		memoryIndex := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
		if memoryIndex < 0 {
			return nil, fmt.Errorf("no device-local memory type for image `%s`", desc.Name)
		}
		allocateInfo := vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  memoryRequirements.Size,
			MemoryTypeIndex: uint32(memoryIndex),
		}
		if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &image.Memory); res != vk.Success {
			return nil, fmt.Errorf("failed to allocate memory for image `%s`: %s", desc.Name, VulkanResultString(res))
		}
		if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
			return nil, fmt.Errorf("failed to bind memory for image `%s`: %s", desc.Name, VulkanResultString(res))
		}
	}

	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   imageCreateInfo.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     imageAspect(desc.Format),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     arrayLayers,
		},
	}
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &image.View); res != vk.Success {
		return nil, fmt.Errorf("failed to create image view for `%s`: %s", desc.Name, VulkanResultString(res))
	}

	return image, nil
}

func (vi *VulkanImage) Destroy(context *VulkanContext) {
	if vi.View != vk.NullImageView {
		vk.DestroyImageView(context.Device.LogicalDevice, vi.View, context.Allocator)
		vi.View = vk.NullImageView
	}
	if vi.Handle != vk.NullImage {
		vk.DestroyImage(context.Device.LogicalDevice, vi.Handle, context.Allocator)
		vi.Handle = vk.NullImage
	}
	if vi.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vi.Memory, context.Allocator)
		vi.Memory = vk.NullDeviceMemory
	}
}
