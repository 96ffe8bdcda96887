package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/renderer/shader"
)

// withReflection fills what desc leaves empty from the WGSL sources: entry point names,
// vertex layouts and the size of the parameter block at group 0, binding 0.
func withReflection(desc ProgramDescriptor) ProgramDescriptor {
	if desc.ComputeSource != "" {
		r := shader.Reflect(desc.ComputeSource)
		desc.ComputeEntryPoint = common.Coalesce(desc.ComputeEntryPoint, r.ComputeEntry, "cs_main")
		if desc.UniformSize == 0 {
			desc.UniformSize = r.UniformSize(0, 0)
		}
		return desc
	}

	vs := shader.Reflect(desc.VertexSource)
	fs := vs
	if desc.FragmentSource != desc.VertexSource {
		fs = shader.Reflect(desc.FragmentSource)
	}
	desc.VertexEntryPoint = common.Coalesce(desc.VertexEntryPoint, vs.VertexEntry, "vs_main")
	desc.FragmentEntryPoint = common.Coalesce(desc.FragmentEntryPoint, fs.FragmentEntry, "fs_main")
	if desc.VertexLayouts == nil {
		desc.VertexLayouts = vs.VertexLayouts
	}
	if desc.UniformSize == 0 {
		desc.UniformSize = max(vs.UniformSize(0, 0), fs.UniformSize(0, 0))
	}
	return desc
}
