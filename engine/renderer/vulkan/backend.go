package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

// VulkanHeap is one vk.DeviceMemory block transient resources are placed in.
type VulkanHeap struct {
	Memory vk.DeviceMemory
	Size   uint64
}

// VulkanBackend executes compiled frame graphs on a Vulkan device. It owns
// the instance, device, transient heaps and every resource it materializes.
type VulkanBackend struct {
	context *VulkanContext

	heaps []*VulkanHeap

	// dedicated allocations, alive until Shutdown
	images  []*VulkanImage
	buffers []*VulkanBuffer

	// heap-placed transients of the frame in flight, destroyed by
	// ReleaseResources after every submit
	frameImages  []*VulkanImage
	frameBuffers []*VulkanBuffer
}

func New() *VulkanBackend {
	return &VulkanBackend{
		context: &VulkanContext{},
	}
}

// Initialize creates the Vulkan instance and device. The proc address loader
// must already be installed (the platform layer does that through GLFW) and
// requiredExtensions carries whatever the platform needs on top of the base
// set.
func (vb *VulkanBackend) Initialize(appName string, requiredExtensions []string) error {
	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize Vulkan loader: %w", err)
	}

	applicationInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 2, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Prism Engine"),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
	}

	instanceCreateInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        applicationInfo,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(requiredExtensions),
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&instanceCreateInfo, vb.context.Allocator, &instance); res != vk.Success {
		return fmt.Errorf("failed to create Vulkan instance: %s", VulkanResultString(res))
	}
	vb.context.Instance = instance

	if err := vk.InitInstance(instance); err != nil {
		return fmt.Errorf("failed to load instance procs: %w", err)
	}
	core.LogInfo("Vulkan instance created.")

	if err := DeviceCreate(vb.context); err != nil {
		return err
	}
	return nil
}

func (vb *VulkanBackend) Shutdown() {
	if vb.context.Device != nil && vb.context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(vb.context.Device.LogicalDevice)
	}
	vb.ReleaseResources()
	for _, image := range vb.images {
		image.Destroy(vb.context)
	}
	vb.images = nil
	for _, buffer := range vb.buffers {
		buffer.Destroy(vb.context)
	}
	vb.buffers = nil
	for _, heap := range vb.heaps {
		vk.FreeMemory(vb.context.Device.LogicalDevice, heap.Memory, vb.context.Allocator)
	}
	vb.heaps = nil
	DeviceDestroy(vb.context)
	if vb.context.Instance != nil {
		vk.DestroyInstance(vb.context.Instance, vb.context.Allocator)
		vb.context.Instance = nil
	}
}

// ReleaseResources destroys the transient images and buffers of the last
// submitted frame; BindAndExecute waits for the queue, so the renderer calls
// this right after every submit and the next Execute re-materializes against
// fresh heap placements. Dedicated resources such as the back buffer stay
// alive until Shutdown.
func (vb *VulkanBackend) ReleaseResources() {
	for _, image := range vb.frameImages {
		image.Destroy(vb.context)
	}
	vb.frameImages = nil
	for _, buffer := range vb.frameBuffers {
		buffer.Destroy(vb.context)
	}
	vb.frameBuffers = nil
}

// NewCommandList allocates a primary command buffer and begins recording.
func (vb *VulkanBackend) NewCommandList() (rdg.CommandList, error) {
	commandBuffer, err := CommandBufferAllocate(vb.context, vb.context.GraphicsCommandPool)
	if err != nil {
		return nil, err
	}
	if err := commandBuffer.Begin(); err != nil {
		return nil, err
	}
	return commandBuffer, nil
}

func (vb *VulkanBackend) AllocateHeap(size uint64) (rdg.Heap, error) {
	// Heaps hold optimal-tiling images, so find a device-local type that
	// accepts them. Type bits for images vary per format; device-local covers
	// the common case on desktop drivers.
	memoryIndex := vb.context.FindMemoryIndex(^uint32(0), uint32(vk.MemoryPropertyDeviceLocalBit))
	if memoryIndex < 0 {
		return nil, fmt.Errorf("no device-local memory type for transient heap")
	}
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: uint32(memoryIndex),
	}
	heap := &VulkanHeap{Size: size}
	if res := vk.AllocateMemory(vb.context.Device.LogicalDevice, &allocateInfo, vb.context.Allocator, &heap.Memory); res != vk.Success {
		return nil, fmt.Errorf("failed to allocate %d byte transient heap: %s", size, VulkanResultString(res))
	}
	vb.heaps = append(vb.heaps, heap)
	core.LogDebug("Allocated transient heap of %d bytes", size)
	return heap, nil
}

func (vb *VulkanBackend) AllocateTexture(desc *metadata.TextureDesc, placement *rdg.Placement) (rdg.Resource, error) {
	var heap *VulkanHeap
	var offset uint64
	if placement != nil {
		h, ok := placement.Heap.(*VulkanHeap)
		if !ok {
			return nil, fmt.Errorf("placement heap for `%s` is not a Vulkan heap", desc.Name)
		}
		heap = h
		offset = placement.Offset
	}
	image, err := ImageCreate(vb.context, desc, heap, offset)
	if err != nil {
		return nil, err
	}
	if placement != nil {
		vb.frameImages = append(vb.frameImages, image)
	} else {
		vb.images = append(vb.images, image)
	}
	return image, nil
}

func (vb *VulkanBackend) AllocateBuffer(desc *metadata.BufferDesc, placement *rdg.Placement) (rdg.Resource, error) {
	var heap *VulkanHeap
	var offset uint64
	if placement != nil {
		h, ok := placement.Heap.(*VulkanHeap)
		if !ok {
			return nil, fmt.Errorf("placement heap for `%s` is not a Vulkan heap", desc.Name)
		}
		heap = h
		offset = placement.Offset
	}
	buffer, err := BufferCreate(vb.context, desc, heap, offset)
	if err != nil {
		return nil, err
	}
	if placement != nil {
		vb.frameBuffers = append(vb.frameBuffers, buffer)
	} else {
		vb.buffers = append(vb.buffers, buffer)
	}
	return buffer, nil
}

// RecordBarrier turns one batch of state transitions into a single
// vkCmdPipelineBarrier call.
func (vb *VulkanBackend) RecordBarrier(cmd rdg.CommandList, transitions []rdg.Transition) error {
	commandBuffer, ok := cmd.(*VulkanCommandBuffer)
	if !ok {
		return fmt.Errorf("command list is not a Vulkan command buffer")
	}
	if len(transitions) == 0 {
		return nil
	}

	srcStages := vk.PipelineStageFlags(0)
	dstStages := vk.PipelineStageFlags(0)
	imageBarriers := make([]vk.ImageMemoryBarrier, 0, len(transitions))
	bufferBarriers := make([]vk.BufferMemoryBarrier, 0)

	for _, t := range transitions {
		srcStages |= stateStageFlags(t.Before)
		dstStages |= stateStageFlags(t.After)

		switch resource := t.Resource.(type) {
		case *VulkanImage:
			imageBarriers = append(imageBarriers, vk.ImageMemoryBarrier{
				SType:               vk.StructureTypeImageMemoryBarrier,
				SrcAccessMask:       stateAccessFlags(t.Before),
				DstAccessMask:       stateAccessFlags(t.After),
				OldLayout:           stateImageLayout(t.Before),
				NewLayout:           stateImageLayout(t.After),
				SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
				DstQueueFamilyIndex: vk.QueueFamilyIgnored,
				Image:               resource.Handle,
				SubresourceRange: vk.ImageSubresourceRange{
					AspectMask: imageAspectFromState(t.After),
					LevelCount: 1,
					LayerCount: vk.RemainingArrayLayers,
				},
			})
		case *VulkanBuffer:
			bufferBarriers = append(bufferBarriers, vk.BufferMemoryBarrier{
				SType:               vk.StructureTypeBufferMemoryBarrier,
				SrcAccessMask:       stateAccessFlags(t.Before),
				DstAccessMask:       stateAccessFlags(t.After),
				SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
				DstQueueFamilyIndex: vk.QueueFamilyIgnored,
				Buffer:              resource.Handle,
				Offset:              0,
				Size:                vk.DeviceSize(vk.WholeSize),
			})
		default:
			return fmt.Errorf("transition for `%s` carries an unknown resource type", t.Name)
		}
	}

	if srcStages == 0 {
		srcStages = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}

	vk.CmdPipelineBarrier(commandBuffer.Handle,
		srcStages, dstStages, 0,
		0, nil,
		uint32(len(bufferBarriers)), bufferBarriers,
		uint32(len(imageBarriers)), imageBarriers)
	return nil
}

func (vb *VulkanBackend) BindAndExecute(cmd rdg.CommandList) error {
	commandBuffer, ok := cmd.(*VulkanCommandBuffer)
	if !ok {
		return fmt.Errorf("command list is not a Vulkan command buffer")
	}
	if err := commandBuffer.End(); err != nil {
		return err
	}
	if err := commandBuffer.SubmitAndWait(vb.context); err != nil {
		return err
	}
	// the queue is idle after SubmitAndWait, so the one-shot buffer can go
	commandBuffer.Free(vb.context, vb.context.GraphicsCommandPool)
	return nil
}

func stateImageLayout(state metadata.ResourceState) vk.ImageLayout {
	switch state {
	case metadata.ResourceStateRenderTarget:
		return vk.ImageLayoutColorAttachmentOptimal
	case metadata.ResourceStateDepthWrite:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case metadata.ResourceStateShaderRead:
		return vk.ImageLayoutShaderReadOnlyOptimal
	case metadata.ResourceStateUnorderedAccess:
		return vk.ImageLayoutGeneral
	case metadata.ResourceStateCopySource:
		return vk.ImageLayoutTransferSrcOptimal
	case metadata.ResourceStateCopyDest:
		return vk.ImageLayoutTransferDstOptimal
	}
	return vk.ImageLayoutUndefined
}

func stateAccessFlags(state metadata.ResourceState) vk.AccessFlags {
	switch state {
	case metadata.ResourceStateRenderTarget:
		return vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	case metadata.ResourceStateDepthWrite:
		return vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	case metadata.ResourceStateShaderRead:
		return vk.AccessFlags(vk.AccessShaderReadBit)
	case metadata.ResourceStateUnorderedAccess:
		return vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit)
	case metadata.ResourceStateCopySource:
		return vk.AccessFlags(vk.AccessTransferReadBit)
	case metadata.ResourceStateCopyDest:
		return vk.AccessFlags(vk.AccessTransferWriteBit)
	}
	return 0
}

func stateStageFlags(state metadata.ResourceState) vk.PipelineStageFlags {
	switch state {
	case metadata.ResourceStateRenderTarget:
		return vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	case metadata.ResourceStateDepthWrite:
		return vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	case metadata.ResourceStateShaderRead:
		return vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit | vk.PipelineStageComputeShaderBit)
	case metadata.ResourceStateUnorderedAccess:
		return vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
	case metadata.ResourceStateCopySource, metadata.ResourceStateCopyDest:
		return vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	}
	return vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
}

func imageAspectFromState(state metadata.ResourceState) vk.ImageAspectFlags {
	if state == metadata.ResourceStateDepthWrite {
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}
