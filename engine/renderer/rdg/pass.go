package rdg

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/** @brief The role a pass declared for a resource access. */
type AccessKind int

const (
	AccessRenderTarget AccessKind = iota
	AccessDepthStencil
	AccessShaderRead
	AccessUnorderedAccess
)

func (k AccessKind) String() string {
	switch k {
	case AccessRenderTarget:
		return "RTV"
	case AccessDepthStencil:
		return "DSV"
	case AccessShaderRead:
		return "SRV"
	case AccessUnorderedAccess:
		return "UAV"
	}
	return "???"
}

// state maps the declared role onto the GPU state the resource must be in
// before the pass runs.
func (k AccessKind) state() metadata.ResourceState {
	switch k {
	case AccessRenderTarget:
		return metadata.ResourceStateRenderTarget
	case AccessDepthStencil:
		return metadata.ResourceStateDepthWrite
	case AccessShaderRead:
		return metadata.ResourceStateShaderRead
	case AccessUnorderedAccess:
		return metadata.ResourceStateUnorderedAccess
	}
	return metadata.ResourceStateUndefined
}

// AccessRecord is the graph's only knowledge of what a pass touches.
// Correctness depends entirely on passes declaring every resource they use.
type AccessRecord struct {
	Resource uint32
	Kind     AccessKind
	Write    bool
}

// PassRecord is one recorded pass: its declared accesses, its opaque typed
// data produced by setup, and the execute closure consuming that data.
type PassRecord struct {
	Name     string
	Accesses []AccessRecord

	recordingIndex int
	data           interface{}
	execute        func(data interface{}, ctx *ExecuteContext) error
}

// Builder is the declaration surface handed to one pass's setup closure.
// Every method appends an access record to the enclosing pass and returns
// the handle unchanged so the pass data can keep it for execution.
type Builder struct {
	graph *Graph
	pass  *PassRecord
	err   error
}

// fail applies the graph's validation policy: with validation enabled the
// first failure is kept and surfaced as the AddPass error, otherwise the
// call degrades to a logged no-op.
func (b *Builder) fail(format string, args ...interface{}) {
	err := fmt.Errorf(format, args...)
	if b.graph.config.Validation {
		if b.err == nil {
			b.err = err
		}
		return
	}
	core.LogWarn("pass %s: %s", b.pass.Name, err.Error())
}

// CreateTexture registers a transient texture owned by this pass.
func (b *Builder) CreateTexture(name string, desc metadata.TextureDesc) TextureHandle {
	h := b.graph.registry.createTexture(name, desc, b.pass.recordingIndex)
	if !h.IsValid() {
		b.fail("CreateTexture(%s) outside an active recording session", name)
	}
	return h
}

// CreateBuffer registers a transient buffer owned by this pass.
func (b *Builder) CreateBuffer(name string, desc metadata.BufferDesc) BufferHandle {
	h := b.graph.registry.createBuffer(name, desc, b.pass.recordingIndex)
	if !h.IsValid() {
		b.fail("CreateBuffer(%s) outside an active recording session", name)
	}
	return h
}

// ReadTexture declares a shader read of the texture.
func (b *Builder) ReadTexture(h TextureHandle) TextureHandle {
	if !b.graph.registry.validTexture(h) {
		b.fail("ReadTexture in frame %d: %w", b.graph.frameID, core.ErrInvalidHandle)
		return InvalidTextureHandle
	}
	entry := &b.graph.registry.entries[h.index]
	if !entry.imported && entry.texture.Usage&metadata.TextureUsageShaderRead == 0 {
		b.fail("ReadTexture(%s): texture was not declared shader-readable", entry.name)
		return InvalidTextureHandle
	}
	b.pass.Accesses = append(b.pass.Accesses, AccessRecord{Resource: h.index, Kind: AccessShaderRead})
	return h
}

// WriteRTV declares a colour render-target write of the texture.
func (b *Builder) WriteRTV(h TextureHandle) TextureHandle {
	if !b.graph.registry.validTexture(h) {
		b.fail("WriteRTV in frame %d: %w", b.graph.frameID, core.ErrInvalidHandle)
		return InvalidTextureHandle
	}
	entry := &b.graph.registry.entries[h.index]
	if !entry.imported && entry.texture.Usage&metadata.TextureUsageRenderTarget == 0 {
		b.fail("WriteRTV(%s): texture was not declared as a render target", entry.name)
		return InvalidTextureHandle
	}
	b.pass.Accesses = append(b.pass.Accesses, AccessRecord{Resource: h.index, Kind: AccessRenderTarget, Write: true})
	return h
}

// WriteDSV declares a depth/stencil write of the texture.
func (b *Builder) WriteDSV(h TextureHandle) TextureHandle {
	if !b.graph.registry.validTexture(h) {
		b.fail("WriteDSV in frame %d: %w", b.graph.frameID, core.ErrInvalidHandle)
		return InvalidTextureHandle
	}
	entry := &b.graph.registry.entries[h.index]
	if !entry.imported && entry.texture.Usage&metadata.TextureUsageDepthStencil == 0 {
		b.fail("WriteDSV(%s): texture was not declared as a depth-stencil target", entry.name)
		return InvalidTextureHandle
	}
	b.pass.Accesses = append(b.pass.Accesses, AccessRecord{Resource: h.index, Kind: AccessDepthStencil, Write: true})
	return h
}

// ReadBuffer declares a shader read of the buffer.
func (b *Builder) ReadBuffer(h BufferHandle) BufferHandle {
	if !b.graph.registry.validBuffer(h) {
		b.fail("ReadBuffer in frame %d: %w", b.graph.frameID, core.ErrInvalidHandle)
		return InvalidBufferHandle
	}
	b.pass.Accesses = append(b.pass.Accesses, AccessRecord{Resource: h.index, Kind: AccessShaderRead})
	return h
}

// WriteUAV declares an unordered-access write of the buffer.
func (b *Builder) WriteUAV(h BufferHandle) BufferHandle {
	if !b.graph.registry.validBuffer(h) {
		b.fail("WriteUAV in frame %d: %w", b.graph.frameID, core.ErrInvalidHandle)
		return InvalidBufferHandle
	}
	entry := &b.graph.registry.entries[h.index]
	if entry.buffer.Usage&metadata.BufferUsageWriteable == 0 {
		b.fail("WriteUAV(%s): buffer was not declared writeable", entry.name)
		return InvalidBufferHandle
	}
	b.pass.Accesses = append(b.pass.Accesses, AccessRecord{Resource: h.index, Kind: AccessUnorderedAccess, Write: true})
	return h
}
