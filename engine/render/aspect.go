// Package render holds the render backend: node kinds mirroring the frontend render
// components, and the aspect that creates and releases them as the scene changes.
package render

import (
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/arbiter"
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// Registrar is the part of the arbiter the aspect uses to subscribe its backend nodes.
type Registrar interface {
	RegisterObserver(observer arbiter.Observer, nodeID common.NodeID, changeFlags change.Flag)
	UnregisterObserver(observer arbiter.Observer, nodeID common.NodeID)
}

// Aspect owns one registry per render node kind. As a scene observer it creates a backend
// node for every NodeCreated record of a known type and subscribes it to its frontend peer;
// on NodeDeleted it releases the node.
// Not safe for concurrent use; structural changes happen during change distribution only.
type Aspect interface {
	arbiter.SceneObserver

	Entities() *backend.Manager[*Entity]
	GeometryRenderers() *backend.Manager[*GeometryRenderer]
	Geometries() *backend.Manager[*Geometry]
	Attributes() *backend.Manager[*Attribute]
	Buffers() *backend.Manager[*Buffer]
	Materials() *backend.Manager[*Material]
	Effects() *backend.Manager[*Effect]
	Techniques() *backend.Manager[*Technique]
	RenderPasses() *backend.Manager[*RenderPass]
	ShaderPrograms() *backend.Manager[*ShaderProgram]
	Parameters() *backend.Manager[*Parameter]
	FilterKeys() *backend.Manager[*FilterKey]
	RenderStates() *backend.Manager[*RenderState]
	Layers() *backend.Manager[*Layer]
	ComputeCommands() *backend.Manager[*ComputeCommand]

	// Renderables returns the live entities in creation order. The slice is cached and only
	// rebuilt after entities were created or are about to be deleted.
	//
	// Returns:
	//   - []*Entity: the entities, enabled or not
	Renderables() []*Entity

	// NodeCount returns the number of backend nodes across all kinds.
	NodeCount() int
}

// functor creates and releases the backend nodes of one kind.
type functor interface {
	create(id common.NodeID) (backend.Node, bool)
	lookup(id common.NodeID) (backend.Node, bool)
	release(id common.NodeID)
	count() int
}

type managerFunctor[T backend.Node] struct {
	m *backend.Manager[T]
}

func (f managerFunctor[T]) create(id common.NodeID) (backend.Node, bool) {
	return f.m.GetOrCreate(id)
}

func (f managerFunctor[T]) lookup(id common.NodeID) (backend.Node, bool) {
	return f.m.Lookup(id)
}

func (f managerFunctor[T]) release(id common.NodeID) { f.m.Release(id) }
func (f managerFunctor[T]) count() int               { return f.m.Count() }

type aspect struct {
	registrar Registrar
	notifier  change.Notifier

	entities          *backend.Manager[*Entity]
	geometryRenderers *backend.Manager[*GeometryRenderer]
	geometries        *backend.Manager[*Geometry]
	attributes        *backend.Manager[*Attribute]
	buffers           *backend.Manager[*Buffer]
	materials         *backend.Manager[*Material]
	effects           *backend.Manager[*Effect]
	techniques        *backend.Manager[*Technique]
	renderPasses      *backend.Manager[*RenderPass]
	shaderPrograms    *backend.Manager[*ShaderProgram]
	parameters        *backend.Manager[*Parameter]
	filterKeys        *backend.Manager[*FilterKey]
	renderStates      *backend.Manager[*RenderState]
	layers            *backend.Manager[*Layer]
	computeCommands   *backend.Manager[*ComputeCommand]

	functors map[string]functor
	types    map[common.NodeID]string

	renderables      []*Entity
	renderablesDirty bool
	dying            map[common.NodeID]struct{}
}

var _ Aspect = &aspect{}

// NewAspect creates the render aspect. Register it with the arbiter as a scene observer.
// Panics if registrar is nil.
//
// Parameters:
//   - registrar: where backend nodes subscribe to their peers, usually the arbiter
//   - options: functional options
//
// Returns:
//   - Aspect: the new aspect
func NewAspect(registrar Registrar, options ...AspectBuilderOption) Aspect {
	if registrar == nil {
		panic("render: NewAspect requires a non-nil Registrar")
	}
	a := &aspect{
		registrar:         registrar,
		entities:          backend.NewManager(NewEntity),
		geometryRenderers: backend.NewManager(NewGeometryRenderer),
		geometries:        backend.NewManager(NewGeometry),
		attributes:        backend.NewManager(NewAttribute),
		buffers:           backend.NewManager(NewBuffer),
		materials:         backend.NewManager(NewMaterial),
		effects:           backend.NewManager(NewEffect),
		techniques:        backend.NewManager(NewTechnique),
		renderPasses:      backend.NewManager(NewRenderPass),
		shaderPrograms:    backend.NewManager(NewShaderProgram),
		parameters:        backend.NewManager(NewParameter),
		filterKeys:        backend.NewManager(NewFilterKey),
		renderStates:      backend.NewManager(NewRenderState),
		layers:            backend.NewManager(NewLayer),
		computeCommands:   backend.NewManager(NewComputeCommand),
		types:             make(map[common.NodeID]string),
		dying:             make(map[common.NodeID]struct{}),
	}
	a.functors = map[string]functor{
		TypeEntity:           managerFunctor[*Entity]{a.entities},
		TypeGeometryRenderer: managerFunctor[*GeometryRenderer]{a.geometryRenderers},
		TypeGeometry:         managerFunctor[*Geometry]{a.geometries},
		TypeAttribute:        managerFunctor[*Attribute]{a.attributes},
		TypeBuffer:           managerFunctor[*Buffer]{a.buffers},
		TypeMaterial:         managerFunctor[*Material]{a.materials},
		TypeEffect:           managerFunctor[*Effect]{a.effects},
		TypeTechnique:        managerFunctor[*Technique]{a.techniques},
		TypeRenderPass:       managerFunctor[*RenderPass]{a.renderPasses},
		TypeShaderProgram:    managerFunctor[*ShaderProgram]{a.shaderPrograms},
		TypeParameter:        managerFunctor[*Parameter]{a.parameters},
		TypeFilterKey:        managerFunctor[*FilterKey]{a.filterKeys},
		TypeRenderState:      managerFunctor[*RenderState]{a.renderStates},
		TypeLayer:            managerFunctor[*Layer]{a.layers},
		TypeComputeCommand:   managerFunctor[*ComputeCommand]{a.computeCommands},
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *aspect) SceneNodeAdded(r *change.Record) {
	f, ok := a.functors[r.NodeType()]
	if !ok {
		return
	}
	node, created := f.create(r.Subject())
	if !created {
		common.Logger().Debug("render: duplicate creation ignored", "node", r.Subject(), "type", r.NodeType())
		return
	}
	if a.notifier != nil {
		if bn, ok := node.(interface{ SetNotifier(change.Notifier) }); ok {
			bn.SetNotifier(a.notifier)
		}
	}
	a.types[r.Subject()] = r.NodeType()
	// The node receives this same NodeCreated record right after the scene observers.
	a.registrar.RegisterObserver(node, r.Subject(), change.AllChanges)

	if r.NodeType() == TypeEntity {
		a.renderablesDirty = true
	}
}

func (a *aspect) SceneNodeRemoved(r *change.Record) {
	nodeType, ok := a.types[r.Subject()]
	if !ok {
		return
	}
	f := a.functors[nodeType]

	switch r.Kind() {
	case change.NodeAboutToBeDeleted:
		if nodeType == TypeEntity {
			a.dying[r.Subject()] = struct{}{}
			a.renderablesDirty = true
		}
	case change.NodeDeleted:
		if node, ok := f.lookup(r.Subject()); ok {
			a.registrar.UnregisterObserver(node, r.Subject())
		}
		f.release(r.Subject())
		delete(a.types, r.Subject())
		delete(a.dying, r.Subject())
		if nodeType == TypeEntity {
			a.renderablesDirty = true
		}
	}
}

func (a *aspect) Renderables() []*Entity {
	if a.renderablesDirty || a.renderables == nil {
		a.renderables = a.renderables[:0]
		a.entities.ForEach(func(id common.NodeID, e *Entity) {
			if _, dying := a.dying[id]; dying {
				return
			}
			a.renderables = append(a.renderables, e)
		})
		a.renderablesDirty = false
	}
	return a.renderables
}

func (a *aspect) NodeCount() int {
	total := 0
	for _, f := range a.functors {
		total += f.count()
	}
	return total
}

func (a *aspect) Entities() *backend.Manager[*Entity]                    { return a.entities }
func (a *aspect) GeometryRenderers() *backend.Manager[*GeometryRenderer] { return a.geometryRenderers }
func (a *aspect) Geometries() *backend.Manager[*Geometry]                { return a.geometries }
func (a *aspect) Attributes() *backend.Manager[*Attribute]               { return a.attributes }
func (a *aspect) Buffers() *backend.Manager[*Buffer]                     { return a.buffers }
func (a *aspect) Materials() *backend.Manager[*Material]                 { return a.materials }
func (a *aspect) Effects() *backend.Manager[*Effect]                     { return a.effects }
func (a *aspect) Techniques() *backend.Manager[*Technique]               { return a.techniques }
func (a *aspect) RenderPasses() *backend.Manager[*RenderPass]            { return a.renderPasses }
func (a *aspect) ShaderPrograms() *backend.Manager[*ShaderProgram]       { return a.shaderPrograms }
func (a *aspect) Parameters() *backend.Manager[*Parameter]               { return a.parameters }
func (a *aspect) FilterKeys() *backend.Manager[*FilterKey]               { return a.filterKeys }
func (a *aspect) RenderStates() *backend.Manager[*RenderState]           { return a.renderStates }
func (a *aspect) Layers() *backend.Manager[*Layer]                       { return a.layers }
func (a *aspect) ComputeCommands() *backend.Manager[*ComputeCommand]     { return a.computeCommands }
