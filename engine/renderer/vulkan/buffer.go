package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type VulkanBuffer struct {
	Handle vk.Buffer
	// Memory is only set for dedicated allocations.
	Memory vk.DeviceMemory
	Size   uint64
}

func vulkanBufferUsage(usage metadata.BufferUsage) vk.BufferUsageFlags {
	flags := vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	if usage&metadata.BufferUsageCopySrc != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	if usage&metadata.BufferUsageCopyDst != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	return flags
}

// BufferCreate creates a buffer and binds it either at an offset inside a
// transient heap or to its own dedicated allocation.
func BufferCreate(context *VulkanContext, desc *metadata.BufferDesc, heap *VulkanHeap, offset uint64) (*VulkanBuffer, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.Size()),
		Usage:       vulkanBufferUsage(desc.Usage),
		SharingMode: vk.SharingModeExclusive,
	}

	buffer := &VulkanBuffer{Size: desc.Size()}
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &buffer.Handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create buffer `%s`: %s", desc.Name, VulkanResultString(res))
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	if heap != nil {
		if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, heap.Memory, vk.DeviceSize(offset)); res != vk.Success {
			return nil, fmt.Errorf("failed to bind buffer `%s` into transient heap: %s", desc.Name, VulkanResultString(res))
		}
		return buffer, nil
	}

	memoryIndex := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
	if memoryIndex < 0 {
		return nil, fmt.Errorf("no device-local memory type for buffer `%s`", desc.Name)
	}
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &buffer.Memory); res != vk.Success {
		return nil, fmt.Errorf("failed to allocate memory for buffer `%s`: %s", desc.Name, VulkanResultString(res))
	}
	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		return nil, fmt.Errorf("failed to bind memory for buffer `%s`: %s", desc.Name, VulkanResultString(res))
	}
	return buffer, nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = vk.NullBuffer
	}
	if vb.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = vk.NullDeviceMemory
	}
}
