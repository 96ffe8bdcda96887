package renderer

import (
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/camera"
	"github.com/Carmen-Shannon/oxy3d/engine/render"
)

// FilterMatch is one required filter key: a technique or render pass passes a filter only
// when it carries a key of the same name with an equal value for every FilterMatch.
type FilterMatch struct {
	Name  string
	Value any
}

// LayerFilterMode selects how a LayerFilter treats the entities it matches.
type LayerFilterMode uint8

const (
	// AcceptAnyMatchingLayers keeps entities carrying at least one of the layers.
	AcceptAnyMatchingLayers LayerFilterMode = iota
	// DiscardAnyMatchingLayers drops entities carrying any of the layers.
	DiscardAnyMatchingLayers
)

// LayerFilter restricts the entities considered by the builder. An empty filter accepts
// every entity.
type LayerFilter struct {
	Layers []common.NodeID
	Mode   LayerFilterMode
}

// BuildStats counts what the last Build did.
type BuildStats struct {
	Entities int
	Filtered int
	Culled   int
	Commands int
	Invalid  int
	Compute  int
}

// CommandBuilder turns the render aspect's backend state into the sorted command list of
// one frame.
type CommandBuilder interface {
	// Build walks the renderable entities and returns their commands in submission order.
	// The per-entity phase runs on the worker pool; the result does not depend on how the
	// work was scheduled. Build must only be called from the frame thread, after SyncChanges.
	//
	// Parameters:
	//   - cam: the view used for depth and culling, or nil for neither
	//
	// Returns:
	//   - []RenderCommand: the commands, sorted by key and then traversal order
	Build(cam camera.Camera) []RenderCommand

	// Stats returns the counters of the last Build.
	Stats() BuildStats

	// SetTechniqueFilter replaces the technique filter. A technique is used only when it
	// matches every key; with no keys the first enabled technique of each effect is used.
	//
	// Parameters:
	//   - keys: the required filter keys
	SetTechniqueFilter(keys ...FilterMatch)

	// SetRenderPassFilter replaces the render pass filter. Passes of the chosen technique that
	// do not match every key produce no command.
	//
	// Parameters:
	//   - keys: the required filter keys
	SetRenderPassFilter(keys ...FilterMatch)

	// SetLayerFilter replaces the layer filter applied before any per-entity work.
	//
	// Parameters:
	//   - f: the layers and how matching entities are treated
	SetLayerFilter(f LayerFilter)

	// SetFrustumCulling toggles culling of entities whose bounding sphere is outside the
	// camera frustum.
	//
	// Parameters:
	//   - enabled: true to cull
	SetFrustumCulling(enabled bool)

	// SetSortPolicy selects how draw commands are ordered from the next Build on.
	//
	// Parameters:
	//   - p: the sort policy
	SetSortPolicy(p SortPolicy)

	// SortPolicy returns the current sort policy.
	//
	// Returns:
	//   - SortPolicy: the policy used by Build
	SortPolicy() SortPolicy

	// DefaultStateSet returns the states every command is completed with and against which
	// change cost is computed.
	DefaultStateSet() StateSet

	// Close stops the worker pool. Later Builds resolve entities on the calling goroutine.
	Close()
}

type commandBuilder struct {
	mu *sync.Mutex

	aspect   render.Aspect
	resolver ResourceResolver

	techniqueFilter []FilterMatch
	passFilter      []FilterMatch
	layerFilter     LayerFilter
	frustumCulling  bool
	policy          SortPolicy
	defaults        StateSet

	workers   int
	batchSize int
	pool      worker.DynamicWorkerPool
	closed    bool

	results []entityResult
	sortBuf []RenderCommand
	stats   BuildStats
}

var _ CommandBuilder = &commandBuilder{}

type entityResult struct {
	cmds    []RenderCommand
	culled  bool
	compute *render.ComputeCommand
}

// NewCommandBuilder creates a builder reading backend nodes from aspect and GPU handles from
// resolver.
//
// Parameters:
//   - aspect: the render aspect holding the backend nodes
//   - resolver: the GPU resource lookup
//   - options: functional options to configure the builder
//
// Returns:
//   - CommandBuilder: the newly created builder
func NewCommandBuilder(aspect render.Aspect, resolver ResourceResolver, options ...CommandBuilderOption) CommandBuilder {
	if aspect == nil {
		panic("renderer: NewCommandBuilder requires a render Aspect")
	}
	if resolver == nil {
		panic("renderer: NewCommandBuilder requires a ResourceResolver")
	}
	b := &commandBuilder{
		mu:        &sync.Mutex{},
		aspect:    aspect,
		resolver:  resolver,
		workers:   max(runtime.NumCPU()-1, 1),
		batchSize: 64,
		defaults:  DefaultStates(),
	}
	for _, option := range options {
		option(b)
	}
	b.pool = worker.NewDynamicWorkerPool(b.workers, 256, 1*time.Second)
	return b
}

func (b *commandBuilder) Stats() BuildStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *commandBuilder) SetTechniqueFilter(keys ...FilterMatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.techniqueFilter = keys
}

func (b *commandBuilder) SetRenderPassFilter(keys ...FilterMatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.passFilter = keys
}

func (b *commandBuilder) SetLayerFilter(f LayerFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.layerFilter = f
}

func (b *commandBuilder) SetFrustumCulling(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frustumCulling = enabled
}

func (b *commandBuilder) SetSortPolicy(p SortPolicy) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.policy = p
}

func (b *commandBuilder) SortPolicy() SortPolicy {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.policy
}

func (b *commandBuilder) DefaultStateSet() StateSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.defaults
}

func (b *commandBuilder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.pool.Stop()
}

// frameView is the per-frame snapshot shared read-only by the entity jobs.
type frameView struct {
	cam       camera.Camera
	frustum   common.Frustum
	cull      bool
	near, far float32
}

func (b *commandBuilder) Build(cam camera.Camera) []RenderCommand {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats = BuildStats{}
	view := frameView{cam: cam}
	if cam != nil {
		view.frustum = cam.Frustum()
		view.cull = b.frustumCulling
		view.near, view.far = cam.Near(), cam.Far()
	}

	renderables := b.aspect.Renderables()
	entities := make([]*render.Entity, 0, len(renderables))
	for _, e := range renderables {
		if !e.IsEnabled() || !b.acceptLayers(e) {
			b.stats.Filtered++
			continue
		}
		entities = append(entities, e)
	}
	b.stats.Entities = len(entities)

	if cap(b.results) < len(entities) {
		b.results = make([]entityResult, len(entities))
	}
	b.results = b.results[:len(entities)]

	// Phase 1: per-entity resolution on the worker pool. Each batch writes only its own
	// result slots, so the output order is fixed by the entity order.
	var wg sync.WaitGroup
	taskID := 0
	for lo := 0; lo < len(entities); lo += b.batchSize {
		hi := min(lo+b.batchSize, len(entities))
		if b.closed {
			for i := lo; i < hi; i++ {
				b.results[i] = b.buildEntity(entities[i], &view)
			}
			continue
		}
		wg.Add(1)
		id := taskID
		taskID++
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					b.results[i] = b.buildEntity(entities[i], &view)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 2: flatten in traversal order, intern program and state identities, sort.
	programs := make(map[common.NodeID]uint16)
	states := make(map[string]uint16)
	var out []RenderCommand
	for i := range b.results {
		res := &b.results[i]
		if res.culled {
			b.stats.Culled++
		}
		if res.compute != nil && len(res.cmds) > 0 {
			res.compute.ConsumeFrame()
		}
		for j := range res.cmds {
			cmd := res.cmds[j]
			cmd.TraversalOrder = len(out)
			in := sortInputs{
				draw:        cmd.Type == CommandDraw,
				translucent: cmd.StateSet.Translucent(),
				program:     intern(programs, cmd.ShaderID),
				state:       intern(states, cmd.StateSet.Key()),
				cost:        cmd.ChangeCost,
				depth:       common.QuantizeDepth(cmd.Depth, view.near, view.far, depthBits),
			}
			cmd.SortKey = in.key(b.policy)
			if !cmd.IsValid {
				b.stats.Invalid++
			}
			if cmd.Type == CommandCompute {
				b.stats.Compute++
			}
			out = append(out, cmd)
		}
		*res = entityResult{}
	}
	b.sortBuf = sortCommands(out, b.sortBuf)
	b.stats.Commands = len(out)
	recordBuild(b.stats)
	return out
}

// intern returns a 1-based id for key in first-seen order, saturating at the 16-bit range.
func intern[K comparable](ids map[K]uint16, key K) uint16 {
	if id, ok := ids[key]; ok {
		return id
	}
	id := uint16(min(len(ids)+1, 0xFFFF))
	ids[key] = id
	return id
}

func (b *commandBuilder) acceptLayers(e *render.Entity) bool {
	if len(b.layerFilter.Layers) == 0 {
		return true
	}
	matched := false
	for _, l := range e.Layers() {
		layer, ok := b.aspect.Layers().Lookup(l)
		if !ok || !layer.IsEnabled() {
			continue
		}
		for _, want := range b.layerFilter.Layers {
			if l == want {
				matched = true
			}
		}
	}
	if b.layerFilter.Mode == DiscardAnyMatchingLayers {
		return !matched
	}
	return matched
}

// buildEntity resolves the commands of one entity. It only reads backend state.
func (b *commandBuilder) buildEntity(e *render.Entity, view *frameView) entityResult {
	material, ok := b.aspect.Materials().Lookup(e.Material())
	if !ok || !material.IsEnabled() {
		return entityResult{}
	}
	effect, ok := b.aspect.Effects().Lookup(material.Effect())
	if !ok || !effect.IsEnabled() {
		return entityResult{}
	}
	technique := b.selectTechnique(effect)
	if technique == nil {
		return entityResult{}
	}

	if !e.ComputeCommand().IsNil() {
		return b.buildCompute(e, material, effect, technique)
	}

	gr, ok := b.aspect.GeometryRenderers().Lookup(e.GeometryRenderer())
	if !ok || !gr.IsEnabled() {
		return entityResult{}
	}
	geometry, ok := b.aspect.Geometries().Lookup(gr.Geometry())
	if !ok || !geometry.IsEnabled() {
		common.Logger().Debug("renderer: geometry renderer without geometry", "entity", e.PeerID(), "geometryRenderer", gr.PeerID())
		return entityResult{}
	}

	center, radius := e.WorldBoundingSphere()
	if view.cull && radius > 0 && !view.frustum.ContainsSphere(center, radius) {
		return entityResult{culled: true}
	}
	var depth float32
	if view.cam != nil {
		depth = view.cam.Depth(center)
	}

	var cmds []RenderCommand
	for _, pass := range b.selectPasses(technique) {
		cmd := RenderCommand{
			Type:             CommandDraw,
			Entity:           e.PeerID(),
			Material:         material.PeerID(),
			ShaderID:         pass.ShaderProgram(),
			Geometry:         geometry.PeerID(),
			GeometryRenderer: gr.PeerID(),
			Program:          b.resolver.Program(pass.ShaderProgram()),
			VertexArray:      b.resolver.VertexArray(geometry.PeerID(), pass.ShaderProgram()),
			Parameters:       b.parameterPack(pass, technique, effect, material),
			Depth:            depth,
		}
		b.applyStates(&cmd, pass)
		b.applyDrawParameters(&cmd, gr, geometry)
		cmds = append(cmds, cmd)
	}
	return entityResult{cmds: cmds}
}

func (b *commandBuilder) buildCompute(e *render.Entity, material *render.Material, effect *render.Effect, technique *render.Technique) entityResult {
	cc, ok := b.aspect.ComputeCommands().Lookup(e.ComputeCommand())
	if !ok || !cc.IsEnabled() || !cc.ShouldRun() {
		return entityResult{}
	}
	wg := cc.WorkGroups()
	var cmds []RenderCommand
	for _, pass := range b.selectPasses(technique) {
		cmd := RenderCommand{
			Type:           CommandCompute,
			Entity:         e.PeerID(),
			Material:       material.PeerID(),
			ShaderID:       pass.ShaderProgram(),
			ComputeCommand: cc.PeerID(),
			Program:        b.resolver.Program(pass.ShaderProgram()),
			Parameters:     b.parameterPack(pass, technique, effect, material),
			WorkGroups:     wg,
			IsValid:        wg[0] > 0 && wg[1] > 0 && wg[2] > 0,
		}
		b.applyStates(&cmd, pass)
		cmds = append(cmds, cmd)
	}
	return entityResult{cmds: cmds, compute: cc}
}

// selectTechnique returns the first enabled technique of effect passing the technique filter.
func (b *commandBuilder) selectTechnique(effect *render.Effect) *render.Technique {
	for _, id := range effect.Techniques() {
		t, ok := b.aspect.Techniques().Lookup(id)
		if !ok || !t.IsEnabled() {
			continue
		}
		if b.matchesFilter(t.FilterKeys(), b.techniqueFilter) {
			return t
		}
	}
	return nil
}

func (b *commandBuilder) selectPasses(t *render.Technique) []*render.RenderPass {
	var passes []*render.RenderPass
	for _, id := range t.RenderPasses() {
		p, ok := b.aspect.RenderPasses().Lookup(id)
		if !ok || !p.IsEnabled() {
			continue
		}
		if b.matchesFilter(p.FilterKeys(), b.passFilter) {
			passes = append(passes, p)
		}
	}
	return passes
}

// matchesFilter reports whether the filter keys behind ids satisfy every entry of required.
func (b *commandBuilder) matchesFilter(ids []common.NodeID, required []FilterMatch) bool {
	for _, want := range required {
		found := false
		for _, id := range ids {
			k, ok := b.aspect.FilterKeys().Lookup(id)
			if ok && k.IsEnabled() && k.Name() == want.Name && reflect.DeepEqual(k.Value(), want.Value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// parameterPack gathers uniforms from the pass up to the material; later sources override
// earlier ones, so the material wins over effect, technique and pass.
func (b *commandBuilder) parameterPack(pass *render.RenderPass, t *render.Technique, effect *render.Effect, material *render.Material) ParameterPack {
	var pack ParameterPack
	for _, ids := range [][]common.NodeID{pass.Parameters(), t.Parameters(), effect.Parameters(), material.Parameters()} {
		for _, id := range ids {
			p, ok := b.aspect.Parameters().Lookup(id)
			if !ok || !p.IsEnabled() || p.Name() == "" {
				continue
			}
			pack.Set(p.Name(), p.Value())
		}
	}
	return pack
}

func (b *commandBuilder) applyStates(cmd *RenderCommand, pass *render.RenderPass) {
	var states []render.State
	for _, id := range pass.RenderStates() {
		if rs, ok := b.aspect.RenderStates().Lookup(id); ok && rs.IsEnabled() {
			states = append(states, rs.State())
		}
	}
	cmd.StateSet = NewStateSet(states...).Merge(b.defaults)
	cmd.ChangeCost = cmd.StateSet.ChangeCost(b.defaults)
}

// applyDrawParameters fills the draw call counts from the geometry renderer and the
// geometry's index, indirect and vertex attributes.
func (b *commandBuilder) applyDrawParameters(cmd *RenderCommand, gr *render.GeometryRenderer, geometry *render.Geometry) {
	var indexAttr, indirectAttr, positionAttr *render.Attribute
	for _, id := range geometry.Attributes() {
		a, ok := b.aspect.Attributes().Lookup(id)
		if !ok || !a.IsEnabled() {
			continue
		}
		switch a.AttributeType() {
		case render.IndexAttribute:
			indexAttr = a
		case render.DrawIndirectAttribute:
			indirectAttr = a
		default:
			cmd.ActiveAttributes = append(cmd.ActiveAttributes, a.Name())
			if positionAttr == nil || a.Name() == "vertexPosition" {
				positionAttr = a
			}
		}
	}

	cmd.PrimitiveType = gr.PrimitiveType()
	cmd.InstanceCount = gr.InstanceCount()
	cmd.FirstInstance = gr.FirstInstance()
	cmd.FirstVertex = gr.FirstVertex()
	cmd.IndexOffset = gr.IndexOffset()
	cmd.RestartIndexValue = gr.RestartIndexValue()
	cmd.PrimitiveRestart = gr.PrimitiveRestart()
	cmd.VerticesPerPatch = gr.VerticesPerPatch()

	switch {
	case gr.VertexCount() > 0:
		cmd.PrimitiveCount = gr.VertexCount()
	case indexAttr != nil:
		cmd.PrimitiveCount = indexAttr.Count()
	case positionAttr != nil:
		cmd.PrimitiveCount = positionAttr.Count()
	}

	if indexAttr != nil {
		cmd.DrawIndexed = true
		cmd.IndexAttributeDataType = indexAttr.VertexBaseType()
		cmd.IndexAttributeByteOffset = indexAttr.ByteOffset() + cmd.IndexOffset*indexAttr.VertexBaseType().ByteSize()
	}
	if indirectAttr != nil {
		cmd.DrawIndirect = true
		cmd.IndirectDrawBuffer = b.resolver.Buffer(indirectAttr.Buffer())
		cmd.IndirectAttributeByteOffset = indirectAttr.ByteOffset()
	}

	// Indirect draws take their counts from the GPU buffer.
	cmd.IsValid = cmd.DrawIndirect || (cmd.PrimitiveCount > 0 && cmd.InstanceCount > 0)
}
