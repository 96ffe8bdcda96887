package renderer

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy3d/common"
)

// ErrUnresolvedHandle is returned when a command references a GPU resource the graphics
// context does not know.
var ErrUnresolvedHandle = errors.New("renderer: unresolved handle")

// ResourceResolver maps backend node identities to GPU handles owned by the resource layer.
// A zero Handle means the resource has not been uploaded yet.
type ResourceResolver interface {
	// Program returns the compiled program for a shader program node.
	Program(shader common.NodeID) Handle

	// VertexArray returns the vertex layout binding geometry to the inputs of shader.
	VertexArray(geometry, shader common.NodeID) Handle

	// Buffer returns the GPU buffer backing a buffer node.
	Buffer(buffer common.NodeID) Handle
}

type vertexArrayKey struct {
	geometry common.NodeID
	shader   common.NodeID
}

// ResourceTable is a ResourceResolver populated by whoever uploads resources.
// It is safe for concurrent use.
type ResourceTable struct {
	mu           *sync.RWMutex
	programs     map[common.NodeID]Handle
	vertexArrays map[vertexArrayKey]Handle
	buffers      map[common.NodeID]Handle
}

var _ ResourceResolver = &ResourceTable{}

// NewResourceTable returns an empty table.
func NewResourceTable() *ResourceTable {
	return &ResourceTable{
		mu:           &sync.RWMutex{},
		programs:     make(map[common.NodeID]Handle),
		vertexArrays: make(map[vertexArrayKey]Handle),
		buffers:      make(map[common.NodeID]Handle),
	}
}

func (t *ResourceTable) Program(shader common.NodeID) Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.programs[shader]
}

func (t *ResourceTable) VertexArray(geometry, shader common.NodeID) Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.vertexArrays[vertexArrayKey{geometry, shader}]
}

func (t *ResourceTable) Buffer(buffer common.NodeID) Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buffers[buffer]
}

// SetProgram records h as the program of shader. A zero h forgets it.
func (t *ResourceTable) SetProgram(shader common.NodeID, h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	setOrDelete(t.programs, shader, h)
}

// SetVertexArray records h as the layout for (geometry, shader). A zero h forgets it.
func (t *ResourceTable) SetVertexArray(geometry, shader common.NodeID, h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	setOrDelete(t.vertexArrays, vertexArrayKey{geometry, shader}, h)
}

// SetBuffer records h as the GPU buffer of buffer. A zero h forgets it.
func (t *ResourceTable) SetBuffer(buffer common.NodeID, h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	setOrDelete(t.buffers, buffer, h)
}

// Forget drops every handle keyed by id.
func (t *ResourceTable) Forget(id common.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.programs, id)
	delete(t.buffers, id)
	for k := range t.vertexArrays {
		if k.geometry == id || k.shader == id {
			delete(t.vertexArrays, k)
		}
	}
}

func setOrDelete[K comparable](m map[K]Handle, k K, h Handle) {
	if h == 0 {
		delete(m, k)
		return
	}
	m[k] = h
}
