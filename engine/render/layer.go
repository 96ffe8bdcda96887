package render

import (
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// Layer tags entities for layer filtering.
type Layer struct {
	backend.BaseNode
	recursive bool
}

var _ backend.Node = &Layer{}

func NewLayer() *Layer {
	return &Layer{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (l *Layer) SceneChangeEvent(r *change.Record) { applyChange(&l.BaseNode, l, r) }

func (l *Layer) setProperty(name string, v any) {
	if name == "recursive" {
		l.recursive, _ = backend.AsBool(v)
	}
}

func (l *Layer) Cleanup() {
	l.BaseNode.Cleanup()
	l.recursive = false
}

func (l *Layer) Recursive() bool { return l.recursive }

// ComputeCommand dispatches a compute shader with a fixed work-group count.
type ComputeCommand struct {
	backend.BaseNode
	workGroups [3]int
	runType    string
	frameCount int
}

var _ backend.Node = &ComputeCommand{}

// NewComputeCommand returns a continuously running command of one work group.
func NewComputeCommand() *ComputeCommand {
	return &ComputeCommand{
		BaseNode:   backend.NewBaseNode(backend.ReadOnly),
		workGroups: [3]int{1, 1, 1},
		runType:    "Continuous",
	}
}

func (c *ComputeCommand) SceneChangeEvent(r *change.Record) { applyChange(&c.BaseNode, c, r) }

func (c *ComputeCommand) setProperty(name string, v any) {
	switch name {
	case "workGroups":
		if wg, ok := asWorkGroups(v); ok {
			c.workGroups = wg
		}
	case "workGroupX":
		c.workGroups[0], _ = backend.AsInt(v)
	case "workGroupY":
		c.workGroups[1], _ = backend.AsInt(v)
	case "workGroupZ":
		c.workGroups[2], _ = backend.AsInt(v)
	case "runType":
		if s, ok := backend.AsString(v); ok {
			c.runType = s
		}
	case "frameCount":
		c.frameCount, _ = backend.AsInt(v)
	}
}

func (c *ComputeCommand) Cleanup() {
	c.BaseNode.Cleanup()
	c.workGroups = [3]int{1, 1, 1}
	c.runType = "Continuous"
	c.frameCount = 0
}

func (c *ComputeCommand) WorkGroups() [3]int { return c.workGroups }

// ShouldRun reports whether the command dispatches this frame. Manual commands run for
// frameCount frames and then stop until frameCount is set again.
func (c *ComputeCommand) ShouldRun() bool {
	if c.runType != "Manual" {
		return true
	}
	return c.frameCount > 0
}

// ConsumeFrame counts one dispatched frame against a Manual command's budget.
func (c *ComputeCommand) ConsumeFrame() {
	if c.runType == "Manual" && c.frameCount > 0 {
		c.frameCount--
	}
}
