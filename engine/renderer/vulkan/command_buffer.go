package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

func CommandBufferAllocate(context *VulkanContext, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	commandBuffer := &VulkanCommandBuffer{
		State: COMMAND_BUFFER_STATE_NOT_ALLOCATED,
	}
	handles := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
		return nil, fmt.Errorf("failed to allocate command buffer: %s", VulkanResultString(res))
	}
	commandBuffer.Handle = handles[0]
	commandBuffer.State = COMMAND_BUFFER_STATE_READY
	return commandBuffer, nil
}

func (cb *VulkanCommandBuffer) Free(context *VulkanContext, pool vk.CommandPool) {
	vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{cb.Handle})
	cb.Handle = nil
	cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (cb *VulkanCommandBuffer) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(cb.Handle, &beginInfo); res != vk.Success {
		return fmt.Errorf("failed to begin command buffer: %s", VulkanResultString(res))
	}
	cb.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (cb *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(cb.Handle); res != vk.Success {
		return fmt.Errorf("failed to end command buffer: %s", VulkanResultString(res))
	}
	cb.State = COMMAND_BUFFER_STATE_READY
	return nil
}

// SubmitAndWait submits the buffer to the graphics queue and blocks until the
// GPU has finished. The frame graph keeps one command buffer per in-flight
// frame, so a queue wait here is the simple correct thing.
func (cb *VulkanCommandBuffer) SubmitAndWait(context *VulkanContext) error {
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	if res := vk.QueueSubmit(context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		return fmt.Errorf("failed to submit command buffer: %s", VulkanResultString(res))
	}
	cb.State = COMMAND_BUFFER_STATE_SUBMITTED
	if res := vk.QueueWaitIdle(context.Device.GraphicsQueue); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("queue wait failed: %s", VulkanResultString(res))
	}
	cb.State = COMMAND_BUFFER_STATE_READY
	return nil
}

func (cb *VulkanCommandBuffer) Reset() error {
	if res := vk.ResetCommandBuffer(cb.Handle, 0); res != vk.Success {
		return fmt.Errorf("failed to reset command buffer: %s", VulkanResultString(res))
	}
	cb.State = COMMAND_BUFFER_STATE_READY
	return nil
}
