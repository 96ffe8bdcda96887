package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/render"
	"github.com/Carmen-Shannon/oxy3d/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUniformsExhausted is returned when a frame's parameter blocks no longer fit the uniform ring.
var ErrUniformsExhausted = errors.New("wgpu_backend: uniform ring exhausted for this frame")

// ProgramDescriptor describes a WGSL program. A program is either a render program
// (vertex + fragment) or a compute program.
type ProgramDescriptor struct {
	Label string

	VertexSource   string
	FragmentSource string
	ComputeSource  string

	// Empty entry points are taken from the source's @vertex, @fragment and @compute
	// functions, falling back to vs_main, fs_main and cs_main.
	VertexEntryPoint   string
	FragmentEntryPoint string
	ComputeEntryPoint  string

	// VertexLayouts defaults to one layout per vertex input struct of the vertex source.
	VertexLayouts []wgpu.VertexBufferLayout

	// UniformSize is the byte size of the parameter block bound at group 0, binding 0.
	// Zero takes the size of the uniform declared there; without one the program takes
	// no parameters.
	UniformSize uint64
}

// Context is a renderer.GraphicsContext issuing WebGPU render and compute passes on a surface.
// It owns every GPU object behind the handles it hands out.
type Context interface {
	renderer.GraphicsContext

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// BeginFrame acquires the surface texture and opens the frame's command encoder.
	//
	// Returns:
	//   - error: if the previous frame was not presented or the surface is unavailable
	BeginFrame() error

	// EndFrame closes open passes, uploads the frame's parameter blocks and submits the encoder.
	EndFrame()

	// Present presents the acquired surface image.
	Present()

	// RegisterProgram compiles desc and returns its handle.
	//
	// Parameters:
	//   - desc: the program sources and layout
	//
	// Returns:
	//   - renderer.Handle: the program handle
	//   - error: if a shader module or pipeline could not be created
	RegisterProgram(desc ProgramDescriptor) (renderer.Handle, error)

	// CreateVertexArray uploads vertex and optional index data and returns the layout handle.
	CreateVertexArray(label string, vertexData, indexData []byte) (renderer.Handle, error)

	// CreateBuffer uploads data into a new buffer with the given usage, for example indirect
	// draw arguments.
	CreateBuffer(label string, data []byte, usage wgpu.BufferUsage) (renderer.Handle, error)

	// WriteBuffer updates part of a buffer created by CreateBuffer.
	WriteBuffer(h renderer.Handle, offset uint64, data []byte) error

	// Release frees the GPU objects behind h. Unknown handles are ignored.
	Release(h renderer.Handle)

	Device() *wgpu.Device
	Queue() *wgpu.Queue
}

type program struct {
	label       string
	vs, fs      *wgpu.ShaderModule
	vsEntry     string
	fsEntry     string
	vertex      []wgpu.VertexBufferLayout
	layout      *wgpu.PipelineLayout
	uniformBGL  *wgpu.BindGroupLayout
	bindGroup   *wgpu.BindGroup
	uniformSize uint64
	compute     *wgpu.ComputePipeline
	variants    map[variantKey]*wgpu.RenderPipeline
}

type variantKey struct {
	state    pipelineState
	topology wgpu.PrimitiveTopology
	strip    wgpu.IndexFormat
}

type vertexArray struct {
	vertex *wgpu.Buffer
	index  *wgpu.Buffer
}

type wgpuContext struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat        wgpu.TextureFormat
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
	sampleCount          MSAASampleCount
	clearColor           wgpu.Color
	uniformCapacity      int

	// Frame state. Render and compute passes alternate on one encoder.
	frameEncoder *wgpu.CommandEncoder
	renderPass   *wgpu.RenderPassEncoder
	computePass  *wgpu.ComputePassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	passStarted  bool

	uniformRing  *wgpu.Buffer
	uniformBytes []byte
	scratch      []byte

	nextHandle   renderer.Handle
	programs     map[renderer.Handle]*program
	vertexArrays map[renderer.Handle]*vertexArray
	buffers      map[renderer.Handle]*wgpu.Buffer

	// Bound state between submission calls.
	current     *program
	currentVA   *vertexArray
	states      renderer.StateSet
	restart     bool
	paramOffset uint32
}

var _ Context = &wgpuContext{}

// NewContext creates the WebGPU instance, adapter and device for the given surface. It locks
// the calling goroutine to its OS thread; all later calls must come from that goroutine.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually window.SurfaceDescriptor()
//   - options: functional options to configure the context
//
// Returns:
//   - Context: the newly created context
func NewContext(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...ContextBuilderOption) Context {
	if surfaceDescriptor == nil {
		panic("wgpu_backend: NewContext requires a surface descriptor")
	}
	runtime.LockOSThread()
	c := &wgpuContext{
		mu:              &sync.Mutex{},
		presentMode:     wgpu.PresentModeFifo,
		sampleCount:     MSAA4x,
		clearColor:      wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		uniformCapacity: 1 << 20,
		nextHandle:      1,
		programs:        make(map[renderer.Handle]*program),
		vertexArrays:    make(map[renderer.Handle]*vertexArray),
		buffers:         make(map[renderer.Handle]*wgpu.Buffer),
		states:          renderer.DefaultStates(),
	}
	for _, option := range options {
		option(c)
	}
	if !c.sampleCount.Valid() {
		c.sampleCount = MSAAOff
	}

	c.instance = wgpu.CreateInstance(nil)
	c.surface = c.instance.CreateSurface(surfaceDescriptor)

	a, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: c.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		panic(err)
	}
	c.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	c.device = d
	c.queue = d.GetQueue()

	c.uniformRing, err = d.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Uniform Ring",
		Size:  uint64(c.uniformCapacity),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	common.Logger().Info("wgpu_backend: device ready", "msaa", uint32(c.sampleCount), "fallback", c.forceFallbackAdapter)
	return c
}

func (c *wgpuContext) Device() *wgpu.Device { return c.device }
func (c *wgpuContext) Queue() *wgpu.Queue   { return c.queue }

func (c *wgpuContext) SetPresentMode(mode PresentMode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		c.presentMode = wgpu.PresentModeFifo
	default:
		c.presentMode = wgpu.PresentModeImmediate
	}
}

func (c *wgpuContext) ConfigureSurface(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	capabilities := c.surface.GetCapabilities(c.adapter)
	c.surfaceFormat = capabilities.Formats[0]

	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: c.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(c.sampleCount)
	c.msaaTextureView = nil
	if count > 1 {
		c.msaaTextureView = c.createAttachment("MSAA Texture", width, height, count, c.surfaceFormat)
	}
	c.depthTextureView = c.createAttachment("Depth Texture", width, height, count, wgpu.TextureFormatDepth24Plus)

	// With MSAA the pass renders into the MSAA texture and resolves into the swapchain view,
	// set per frame. Without it the swapchain view is the attachment itself.
	storeOp := wgpu.StoreOpStore
	if count > 1 {
		storeOp = wgpu.StoreOpDiscard
	}
	c.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       c.msaaTextureView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: c.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            c.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	}

	// Pipelines depend on the surface format and sample count.
	for _, p := range c.programs {
		p.releaseVariants()
	}
}

func (c *wgpuContext) createAttachment(label string, width, height int, samples uint32, format wgpu.TextureFormat) *wgpu.TextureView {
	tex, err := c.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		panic(err)
	}
	return view
}

func (c *wgpuContext) BeginFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameSurface != nil {
		return fmt.Errorf("wgpu_backend: previous frame surface not yet presented")
	}
	if c.renderPassDescriptor == nil {
		return fmt.Errorf("wgpu_backend: surface not configured")
	}

	surfaceTexture, err := c.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if c.sampleCount > 1 {
		c.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		c.renderPassDescriptor.ColorAttachments[0].View = view
	}
	c.frameEncoder = encoder
	c.frameSurface = surfaceTexture
	c.frameView = view
	c.passStarted = false
	c.uniformBytes = c.uniformBytes[:0]
	c.current, c.currentVA = nil, nil
	c.states = renderer.DefaultStates()
	return nil
}

// beginRenderPass returns the open render pass, ending a compute pass first. A pass reopened
// within the frame loads the previous contents instead of clearing them.
func (c *wgpuContext) beginRenderPass() *wgpu.RenderPassEncoder {
	if c.renderPass != nil {
		return c.renderPass
	}
	c.endComputePass()
	desc := *c.renderPassDescriptor
	if c.passStarted {
		color := desc.ColorAttachments[0]
		color.LoadOp = wgpu.LoadOpLoad
		depth := *desc.DepthStencilAttachment
		depth.DepthLoadOp = wgpu.LoadOpLoad
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{color}
		desc.DepthStencilAttachment = &depth
	}
	c.renderPass = c.frameEncoder.BeginRenderPass(&desc)
	c.passStarted = true
	return c.renderPass
}

func (c *wgpuContext) endRenderPass() {
	if c.renderPass == nil {
		return
	}
	c.renderPass.End()
	c.renderPass = nil
}

func (c *wgpuContext) beginComputePass() *wgpu.ComputePassEncoder {
	if c.computePass != nil {
		return c.computePass
	}
	c.endRenderPass()
	c.computePass = c.frameEncoder.BeginComputePass(nil)
	return c.computePass
}

func (c *wgpuContext) endComputePass() {
	if c.computePass == nil {
		return
	}
	c.computePass.End()
	c.computePass = nil
}

func (c *wgpuContext) EndFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameEncoder == nil {
		return
	}
	c.endComputePass()
	if !c.passStarted {
		// Nothing drawn; still clear the target.
		c.beginRenderPass()
	}
	c.endRenderPass()

	if len(c.uniformBytes) > 0 {
		c.queue.WriteBuffer(c.uniformRing, 0, c.uniformBytes)
	}

	commandBuffer, err := c.frameEncoder.Finish(nil)
	if err != nil {
		common.Logger().Error("wgpu_backend: finish encoder failed", "error", err)
		c.frameEncoder.Release()
		c.frameEncoder = nil
		c.frameView.Release()
		c.frameSurface.Release()
		c.frameView = nil
		c.frameSurface = nil
		return
	}
	c.queue.Submit(commandBuffer)
	commandBuffer.Release()
	c.frameEncoder.Release()
	c.frameEncoder = nil
}

func (c *wgpuContext) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameSurface == nil {
		return
	}
	c.surface.Present()
	c.frameView.Release()
	c.frameView = nil
	c.frameSurface.Release()
	c.frameSurface = nil
}

func (c *wgpuContext) allocHandle() renderer.Handle {
	h := c.nextHandle
	c.nextHandle++
	return h
}

func (c *wgpuContext) RegisterProgram(desc ProgramDescriptor) (renderer.Handle, error) {
	desc = withReflection(desc)

	c.mu.Lock()
	defer c.mu.Unlock()

	p := &program{
		label:       desc.Label,
		vsEntry:     desc.VertexEntryPoint,
		fsEntry:     desc.FragmentEntryPoint,
		vertex:      desc.VertexLayouts,
		uniformSize: desc.UniformSize,
		variants:    make(map[variantKey]*wgpu.RenderPipeline),
	}

	var groups []*wgpu.BindGroupLayout
	if p.uniformSize > 0 {
		bgl, err := c.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: desc.Label + " Parameters",
			Entries: []wgpu.BindGroupLayoutEntry{{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment | wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   p.uniformSize,
				},
			}},
		})
		if err != nil {
			return 0, fmt.Errorf("failed to create parameter layout for %q: %w", desc.Label, err)
		}
		bg, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  desc.Label + " Parameters",
			Layout: bgl,
			Entries: []wgpu.BindGroupEntry{{
				Binding: 0,
				Buffer:  c.uniformRing,
				Offset:  0,
				Size:    p.uniformSize,
			}},
		})
		if err != nil {
			return 0, fmt.Errorf("failed to create parameter bind group for %q: %w", desc.Label, err)
		}
		p.uniformBGL, p.bindGroup = bgl, bg
		groups = append(groups, bgl)
	}

	layout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: groups,
	})
	if err != nil {
		return 0, err
	}
	p.layout = layout

	if desc.ComputeSource != "" {
		cs, err := c.shaderModule(desc.Label+" Compute", desc.ComputeSource)
		if err != nil {
			return 0, err
		}
		p.compute, err = c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
			Label:  desc.Label + " Compute Pipeline",
			Layout: layout,
			Compute: wgpu.ProgrammableStageDescriptor{
				Module:     cs,
				EntryPoint: desc.ComputeEntryPoint,
			},
		})
		if err != nil {
			return 0, err
		}
	} else {
		if desc.VertexSource == "" || desc.FragmentSource == "" {
			return 0, errors.New("both vertex and fragment shaders must be set to create a render program")
		}
		if p.vs, err = c.shaderModule(desc.Label+" Vertex", desc.VertexSource); err != nil {
			return 0, err
		}
		if p.fs, err = c.shaderModule(desc.Label+" Fragment", desc.FragmentSource); err != nil {
			return 0, err
		}
	}

	h := c.allocHandle()
	c.programs[h] = p
	return h, nil
}

func (c *wgpuContext) shaderModule(label, source string) (*wgpu.ShaderModule, error) {
	return c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
}

// variant returns the render pipeline of p for the given fixed-function state, creating it
// on first use. Caller must hold the mutex.
func (c *wgpuContext) variant(p *program, key variantKey) (*wgpu.RenderPipeline, error) {
	if rp, ok := p.variants[key]; ok {
		return rp, nil
	}
	ps := key.state
	target := wgpu.ColorTargetState{
		Format:    c.surfaceFormat,
		WriteMask: ps.writeMask,
	}
	if ps.blend {
		blend := alphaBlend
		target.Blend = &blend
	}
	rp, err := c.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.label + " Render Pipeline",
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.vs,
			EntryPoint: p.vsEntry,
			Buffers:    p.vertex,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.fs,
			EntryPoint: p.fsEntry,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:         key.topology,
			StripIndexFormat: key.strip,
			FrontFace:        ps.frontFace,
			CullMode:         ps.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count:                  uint32(c.sampleCount),
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: ps.alphaToCoverage,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled:   ps.depthWrite,
			DepthCompare:        ps.depthCompare,
			DepthBias:           ps.depthBias,
			DepthBiasSlopeScale: ps.depthBiasSlope,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	p.variants[key] = rp
	return rp, nil
}

func (p *program) releaseVariants() {
	for k, rp := range p.variants {
		rp.Release()
		delete(p.variants, k)
	}
}

func (c *wgpuContext) CreateVertexArray(label string, vertexData, indexData []byte) (renderer.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	va := &vertexArray{}
	var err error
	if len(vertexData) > 0 {
		if va.vertex, err = c.upload(label+" Vertex Buffer", vertexData, wgpu.BufferUsageVertex); err != nil {
			return 0, err
		}
	}
	if len(indexData) > 0 {
		if va.index, err = c.upload(label+" Index Buffer", indexData, wgpu.BufferUsageIndex); err != nil {
			return 0, err
		}
	}
	h := c.allocHandle()
	c.vertexArrays[h] = va
	return h, nil
}

func (c *wgpuContext) CreateBuffer(label string, data []byte, usage wgpu.BufferUsage) (renderer.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, err := c.upload(label, data, usage)
	if err != nil {
		return 0, err
	}
	h := c.allocHandle()
	c.buffers[h] = buf
	return h, nil
}

// upload creates a buffer sized for data and writes it. Caller must hold the mutex.
func (c *wgpuContext) upload(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	c.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (c *wgpuContext) WriteBuffer(h renderer.Handle, offset uint64, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, ok := c.buffers[h]
	if !ok {
		return fmt.Errorf("buffer %d: %w", h, renderer.ErrUnresolvedHandle)
	}
	c.queue.WriteBuffer(buf, offset, data)
	return nil
}

func (c *wgpuContext) Release(h renderer.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.programs[h]; ok {
		p.releaseVariants()
		if p.compute != nil {
			p.compute.Release()
		}
		if p.vs != nil {
			p.vs.Release()
		}
		if p.fs != nil {
			p.fs.Release()
		}
		if p.bindGroup != nil {
			p.bindGroup.Release()
		}
		if c.current == p {
			c.current = nil
		}
		delete(c.programs, h)
	}
	if va, ok := c.vertexArrays[h]; ok {
		if va.vertex != nil {
			va.vertex.Release()
		}
		if va.index != nil {
			va.index.Release()
		}
		if c.currentVA == va {
			c.currentVA = nil
		}
		delete(c.vertexArrays, h)
	}
	if buf, ok := c.buffers[h]; ok {
		buf.Release()
		delete(c.buffers, h)
	}
}

// --- renderer.GraphicsContext ---

func (c *wgpuContext) BindProgram(h renderer.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.programs[h]
	if !ok {
		return fmt.Errorf("program %d: %w", h, renderer.ErrUnresolvedHandle)
	}
	c.current = p
	return nil
}

func (c *wgpuContext) BindVertexArray(h renderer.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	va, ok := c.vertexArrays[h]
	if !ok {
		return fmt.Errorf("vertex array %d: %w", h, renderer.ErrUnresolvedHandle)
	}
	c.currentVA = va
	return nil
}

func (c *wgpuContext) ApplyState(st render.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = c.states.With(st)
}

func (c *wgpuContext) ResetState(kind render.StateKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = c.states.Without(kind)
}

func (c *wgpuContext) SetParameters(p renderer.ParameterPack) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return fmt.Errorf("no program bound: %w", renderer.ErrUnresolvedHandle)
	}
	size := int(c.current.uniformSize)
	if size == 0 {
		return nil
	}
	var err error
	c.scratch, err = encodeParameters(c.scratch[:0], p)
	if err != nil {
		return err
	}
	if len(c.scratch) > size {
		return fmt.Errorf("wgpu_backend: %d parameter bytes exceed the %d byte block of %q", len(c.scratch), size, c.current.label)
	}
	offset := alignUp(len(c.uniformBytes))
	if offset+size > c.uniformCapacity {
		return ErrUniformsExhausted
	}
	c.uniformBytes = append(c.uniformBytes, make([]byte, offset+size-len(c.uniformBytes))...)
	copy(c.uniformBytes[offset:], c.scratch)
	c.paramOffset = uint32(offset)
	return nil
}

func (c *wgpuContext) SetPrimitiveRestart(enabled bool, restartIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// WebGPU restarts strips at the maximum index value only.
	c.restart = enabled
}

// SetVerticesPerPatch is accepted for interface compatibility; WebGPU has no tessellation.
func (c *wgpuContext) SetVerticesPerPatch(n uint32) {}

// prepareDraw binds the pipeline variant, parameters and vertex buffer of the next draw.
// Caller must hold the mutex.
func (c *wgpuContext) prepareDraw(args renderer.DrawArgs) (*wgpu.RenderPassEncoder, error) {
	if c.frameEncoder == nil {
		return nil, errors.New("wgpu_backend: draw outside BeginFrame/EndFrame")
	}
	if c.current == nil || c.current.vs == nil {
		return nil, fmt.Errorf("no render program bound: %w", renderer.ErrUnresolvedHandle)
	}
	top, err := topology(args.Primitive)
	if err != nil {
		return nil, err
	}
	rp, err := c.variant(c.current, variantKey{
		state:    toPipelineState(c.states),
		topology: top,
		strip:    stripIndexFormat(top, c.restart, args.IndexType),
	})
	if err != nil {
		return nil, err
	}
	pass := c.beginRenderPass()
	pass.SetPipeline(rp)
	if c.current.bindGroup != nil {
		pass.SetBindGroup(0, c.current.bindGroup, []uint32{c.paramOffset})
	}
	if c.currentVA != nil && c.currentVA.vertex != nil {
		pass.SetVertexBuffer(0, c.currentVA.vertex, 0, wgpu.WholeSize)
	}
	return pass, nil
}

func (c *wgpuContext) DrawArrays(args renderer.DrawArgs) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pass, err := c.prepareDraw(args)
	if err != nil {
		common.Logger().Warn("wgpu_backend: draw skipped", "error", err)
		return
	}
	pass.Draw(args.Count, args.InstanceCount, args.FirstVertex, args.FirstInstance)
}

func (c *wgpuContext) DrawElements(args renderer.DrawArgs) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.bindIndexBuffer(args); err != nil {
		common.Logger().Warn("wgpu_backend: indexed draw skipped", "error", err)
		return
	}
	c.renderPass.DrawIndexed(args.Count, args.InstanceCount, 0, int32(args.FirstVertex), args.FirstInstance)
}

// bindIndexBuffer prepares an indexed draw. The byte offset already accounts for the first
// index. Caller must hold the mutex.
func (c *wgpuContext) bindIndexBuffer(args renderer.DrawArgs) error {
	if c.currentVA == nil || c.currentVA.index == nil {
		return fmt.Errorf("no index buffer bound: %w", renderer.ErrUnresolvedHandle)
	}
	format, err := indexFormat(args.IndexType)
	if err != nil {
		return err
	}
	pass, err := c.prepareDraw(args)
	if err != nil {
		return err
	}
	pass.SetIndexBuffer(c.currentVA.index, format, uint64(args.IndexByteOffset), wgpu.WholeSize)
	return nil
}

func (c *wgpuContext) DrawIndirect(args renderer.DrawArgs, buffer renderer.Handle, byteOffset uint32, indexed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, ok := c.buffers[buffer]
	if !ok {
		return fmt.Errorf("indirect buffer %d: %w", buffer, renderer.ErrUnresolvedHandle)
	}
	if indexed {
		if err := c.bindIndexBuffer(args); err != nil {
			return err
		}
		c.renderPass.DrawIndexedIndirect(buf, uint64(byteOffset))
		return nil
	}
	pass, err := c.prepareDraw(args)
	if err != nil {
		return err
	}
	pass.DrawIndirect(buf, uint64(byteOffset))
	return nil
}

func (c *wgpuContext) DispatchCompute(x, y, z int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameEncoder == nil || c.current == nil || c.current.compute == nil {
		common.Logger().Warn("wgpu_backend: dispatch skipped, no compute program bound")
		return
	}
	pass := c.beginComputePass()
	pass.SetPipeline(c.current.compute)
	if c.current.bindGroup != nil {
		pass.SetBindGroup(0, c.current.bindGroup, []uint32{c.paramOffset})
	}
	pass.DispatchWorkgroups(uint32(x), uint32(y), uint32(z))
}
