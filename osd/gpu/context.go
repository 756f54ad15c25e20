// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Vulkan registers itself as a hal backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Context holds the hal device and queue shared by evaluators and vertex
// buffers. A Context created by NewContext owns its device; one created
// from an existing device or provider does not destroy it.
type Context struct {
	mu       sync.RWMutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
	owned    bool
	released bool
}

// NewContext opens the first discrete or integrated GPU of the Vulkan
// backend, falling back to the first adapter found. Failures wrap
// ErrNoDevice.
func NewContext() (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoDevice)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoDevice, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no GPU adapters found", ErrNoDevice)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrNoDevice, err)
	}
	slogger().Info("gpu: device opened", "adapter", selected.Info.Name)
	return &Context{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Info.Name,
		owned:    true,
	}, nil
}

// NewContextFromDevice wraps an existing device and queue. Release does
// not destroy them.
func NewContextFromDevice(device hal.Device, queue hal.Queue) (*Context, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", ErrNoDevice)
	}
	return &Context{device: device, queue: queue}, nil
}

// NewContextFromProvider shares the device of a host application. The
// provider must also implement HalDevice() any and HalQueue() any
// returning a hal.Device and hal.Queue.
func NewContextFromProvider(provider gpucontext.DeviceProvider) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrNoDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNoDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNoDevice)
	}
	return &Context{device: device, queue: queue}, nil
}

// Adapter returns the adapter name, or "" for a borrowed device.
func (c *Context) Adapter() string { return c.adapter }

// Released reports whether Release has been called.
func (c *Context) Released() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.released
}

// Release invalidates the context and every buffer and evaluator using
// it. An owned device is destroyed. Release is idempotent.
func (c *Context) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	if c.owned {
		c.device.Destroy()
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	c.device = nil
	c.queue = nil
	c.instance = nil
}

// acquire read-locks the context for the duration of a device operation.
// The caller must call the returned unlock when done.
func (c *Context) acquire() (hal.Device, hal.Queue, func(), error) {
	c.mu.RLock()
	if c.released {
		c.mu.RUnlock()
		return nil, nil, nil, ErrContextReleased
	}
	return c.device, c.queue, c.mu.RUnlock, nil
}
