// Package shader reflects WGSL sources: entry points, vertex input layouts, uniform block
// sizes and compute workgroup sizes.
package shader

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Stage identifies the pipeline stage of an entry point.
type Stage int

const (
	// StageVertex is a @vertex entry point.
	StageVertex Stage = iota

	// StageFragment is a @fragment entry point.
	StageFragment

	// StageCompute is a @compute entry point.
	StageCompute
)

// Binding is one resource declared with @group and @binding.
type Binding struct {
	Group   int
	Binding int
	Name    string
	// AddressSpace is "uniform", "storage" or empty for textures and samplers.
	AddressSpace string
	Type         string
	// Size is the byte size of the bound type, or 0 when it cannot be computed.
	Size uint64
}

// Reflection is what Reflect found in a WGSL source.
type Reflection struct {
	VertexEntry   string
	FragmentEntry string
	ComputeEntry  string

	// VertexLayouts holds one layout per vertex input struct, in declaration order.
	VertexLayouts []wgpu.VertexBufferLayout
	Bindings      []Binding
	WorkgroupSize [3]uint32
}

// Reflect parses source. Unknown constructs are skipped, so a source that does not compile
// still yields whatever could be recognized.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - Reflection: the entry points, layouts and bindings found
func Reflect(source string) Reflection {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	return Reflection{
		VertexEntry:   parseEntryPoint(cleaned, StageVertex),
		FragmentEntry: parseEntryPoint(cleaned, StageFragment),
		ComputeEntry:  parseEntryPoint(cleaned, StageCompute),
		VertexLayouts: vertexLayouts(structs),
		Bindings:      parseBindings(cleaned, structs),
		WorkgroupSize: parseWorkgroupSize(cleaned),
	}
}

// Binding returns the resource at group and binding.
func (r Reflection) Binding(group, binding int) (Binding, bool) {
	for _, b := range r.Bindings {
		if b.Group == group && b.Binding == binding {
			return b, true
		}
	}
	return Binding{}, false
}

// UniformSize returns the byte size of the uniform buffer at group and binding, or 0 if
// there is none or its size is unknown.
func (r Reflection) UniformSize(group, binding int) uint64 {
	b, ok := r.Binding(group, binding)
	if !ok || !strings.HasPrefix(b.AddressSpace, "uniform") {
		return 0
	}
	return b.Size
}
