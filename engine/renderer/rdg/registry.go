package rdg

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type resourceKind int

const (
	resourceKindTexture resourceKind = iota
	resourceKindBuffer
)

func (k resourceKind) String() string {
	if k == resourceKindBuffer {
		return "buffer"
	}
	return "texture"
}

// resourceEntry is one virtual resource slot. Identity is the slot index,
// never a pointer, so a stale reference shows up as an index mismatch
// instead of dangling memory.
type resourceEntry struct {
	kind    resourceKind
	name    string
	texture metadata.TextureDesc
	buffer  metadata.BufferDesc

	// imported resources carry the physical object from the outside and are
	// never aliased or culled.
	imported bool
	external Resource
	importID uuid.UUID

	// recording index of the pass whose builder created the resource, or
	// ownerNone for imports and resources created on the graph directly.
	owner int
}

const ownerNone = -1

// registry owns the per-frame list of virtual resource descriptors. It is
// reset by BeginFrame; handles it returned before that reset carry the old
// frame id and are rejected everywhere.
type registry struct {
	frameID   uint32
	session   uint32
	recording bool
	entries   []resourceEntry
}

func (r *registry) reset(frameID uint32) {
	r.frameID = frameID
	// handles are stamped with frameID+1 so the zero-value handle can never
	// match a live session, frame 0 included
	r.session = frameID + 1
	r.recording = true
	r.entries = r.entries[:0]
}

func (r *registry) close() {
	r.recording = false
}

func (r *registry) createTexture(name string, desc metadata.TextureDesc, owner int) TextureHandle {
	if !r.recording {
		return InvalidTextureHandle
	}
	desc.Name = name
	r.entries = append(r.entries, resourceEntry{
		kind:    resourceKindTexture,
		name:    name,
		texture: desc,
		owner:   owner,
	})
	return TextureHandle{index: uint32(len(r.entries) - 1), frameID: r.session}
}

func (r *registry) createBuffer(name string, desc metadata.BufferDesc, owner int) BufferHandle {
	if !r.recording {
		return InvalidBufferHandle
	}
	desc.Name = name
	r.entries = append(r.entries, resourceEntry{
		kind:   resourceKindBuffer,
		name:   name,
		buffer: desc,
		owner:  owner,
	})
	return BufferHandle{index: uint32(len(r.entries) - 1), frameID: r.session}
}

func (r *registry) importTexture(name string, external Resource, desc metadata.TextureDesc) TextureHandle {
	if !r.recording {
		return InvalidTextureHandle
	}
	desc.Name = name
	r.entries = append(r.entries, resourceEntry{
		kind:     resourceKindTexture,
		name:     name,
		texture:  desc,
		imported: true,
		external: external,
		importID: uuid.New(),
		owner:    ownerNone,
	})
	return TextureHandle{index: uint32(len(r.entries) - 1), frameID: r.session}
}

// validTexture reports whether the handle belongs to the current frame and
// points at a texture slot.
func (r *registry) validTexture(h TextureHandle) bool {
	return h.IsValid() && h.frameID == r.session && int(h.index) < len(r.entries) &&
		r.entries[h.index].kind == resourceKindTexture
}

func (r *registry) validBuffer(h BufferHandle) bool {
	return h.IsValid() && h.frameID == r.session && int(h.index) < len(r.entries) &&
		r.entries[h.index].kind == resourceKindBuffer
}

// textureCount and bufferCount report how many resources of each kind were
// registered this frame. Diagnostic only.
func (r *registry) textureCount() int {
	n := 0
	for i := range r.entries {
		if r.entries[i].kind == resourceKindTexture {
			n++
		}
	}
	return n
}

func (r *registry) bufferCount() int {
	n := 0
	for i := range r.entries {
		if r.entries[i].kind == resourceKindBuffer {
			n++
		}
	}
	return n
}
