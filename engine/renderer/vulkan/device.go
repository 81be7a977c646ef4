package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prism/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties

	GraphicsQueueIndex int32
	GraphicsQueue      vk.Queue
}

// DeviceCreate picks a physical device with a graphics queue (preferring a
// discrete GPU) and creates the logical device. No surface or swapchain is
// involved; the frame graph renders offscreen.
func DeviceCreate(context *VulkanContext) error {
	var deviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &deviceCount, nil); res != vk.Success {
		return fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res))
	}
	if deviceCount == 0 {
		return fmt.Errorf("no Vulkan capable devices found")
	}
	physicalDevices := make([]vk.PhysicalDevice, deviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &deviceCount, physicalDevices); res != vk.Success {
		return fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res))
	}

	device := &VulkanDevice{GraphicsQueueIndex: -1}
	for i := uint32(0); i < deviceCount; i++ {
		properties := vk.PhysicalDeviceProperties{}
		vk.GetPhysicalDeviceProperties(physicalDevices[i], &properties)
		properties.Deref()

		graphicsIndex := findGraphicsQueueIndex(physicalDevices[i])
		if graphicsIndex < 0 {
			continue
		}

		if device.PhysicalDevice == nil || properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			device.PhysicalDevice = physicalDevices[i]
			device.Properties = properties
			device.GraphicsQueueIndex = graphicsIndex
			if properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
				break
			}
		}
	}
	if device.PhysicalDevice == nil {
		return fmt.Errorf("no physical device with a graphics queue found")
	}

	end := FindFirstZeroInByteArray(device.Properties.DeviceName[:])
	core.LogInfo("Selected device: %s", vk.ToString(device.Properties.DeviceName[:end+1]))

	vk.GetPhysicalDeviceMemoryProperties(device.PhysicalDevice, &device.Memory)
	device.Memory.Deref()

	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: uint32(device.GraphicsQueueIndex),
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueCreateInfo},
		PEnabledFeatures:     []vk.PhysicalDeviceFeatures{deviceFeatures},
		// Deprecated and ignored, so pass nothing.
		EnabledLayerCount:   0,
		PpEnabledLayerNames: nil,
	}

	if res := vk.CreateDevice(
		device.PhysicalDevice,
		&deviceCreateInfo,
		context.Allocator,
		&device.LogicalDevice); res != vk.Success {
		return fmt.Errorf("failed to create logical device: %s", VulkanResultString(res))
	}
	core.LogInfo("Logical device created.")

	vk.GetDeviceQueue(
		device.LogicalDevice,
		uint32(device.GraphicsQueueIndex),
		0,
		&device.GraphicsQueue)

	// Create command pool for graphics queue.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, context.Allocator, &context.GraphicsCommandPool); res != vk.Success {
		return fmt.Errorf("failed to create graphics command pool: %s", VulkanResultString(res))
	}

	context.Device = device
	return nil
}

func findGraphicsQueueIndex(physicalDevice vk.PhysicalDevice) int32 {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, queueFamilies)

	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		if queueFamilies[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			return int32(i)
		}
	}
	return -1
}

func DeviceDestroy(context *VulkanContext) {
	if context.GraphicsCommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(context.Device.LogicalDevice, context.GraphicsCommandPool, context.Allocator)
	}
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}
}
