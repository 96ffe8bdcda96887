package renderer

import (
	"fmt"
	"strings"
)

// SortPolicy selects how the builder orders draw commands.
type SortPolicy uint8

const (
	// SortStateChanges groups opaque draws by program and state set, then front-to-back,
	// and draws translucent commands afterwards back-to-front.
	SortStateChanges SortPolicy = iota
	SortFrontToBack
	SortBackToFront
	// SortTraversal keeps scene traversal order.
	SortTraversal
)

var sortPolicyNames = map[string]SortPolicy{
	"statechanges": SortStateChanges,
	"fronttoback":  SortFrontToBack,
	"backtofront":  SortBackToFront,
	"traversal":    SortTraversal,
}

// ParseSortPolicy parses a policy name, ignoring case and dashes ("front-to-back").
func ParseSortPolicy(name string) (SortPolicy, error) {
	key := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	if key == "" {
		return SortStateChanges, nil
	}
	p, ok := sortPolicyNames[key]
	if !ok {
		return 0, fmt.Errorf("renderer: unknown sort policy %q", name)
	}
	return p, nil
}

func (p SortPolicy) String() string {
	switch p {
	case SortFrontToBack:
		return "front-to-back"
	case SortBackToFront:
		return "back-to-front"
	case SortTraversal:
		return "traversal"
	default:
		return "state-changes"
	}
}

// Sort key layout, most significant bit first:
//
//	63       draw (compute commands sort ahead of draws)
//	62       translucent
//	opaque:      program[61:46] state[45:30] cost[29:24] depth[23:0]
//	translucent: far-depth[61:38] program[37:22] state[21:6] cost[5:0]
const (
	depthBits = 24
	maxDepth  = 1<<depthBits - 1
	maxCost   = 1<<6 - 1

	drawBit        = uint64(1) << 63
	translucentBit = uint64(1) << 62
)

type sortInputs struct {
	draw        bool
	translucent bool
	program     uint16
	state       uint16
	cost        int
	depth       uint64
}

func (in sortInputs) key(policy SortPolicy) uint64 {
	if !in.draw {
		return uint64(in.program) << 46
	}
	cost := uint64(min(max(in.cost, 0), maxCost))
	program, state := uint64(in.program), uint64(in.state)
	farFirst := maxDepth - in.depth

	switch policy {
	case SortTraversal:
		return drawBit
	case SortFrontToBack:
		return drawBit | in.depth<<38 | program<<22 | state<<6 | cost
	case SortBackToFront:
		return drawBit | farFirst<<38 | program<<22 | state<<6 | cost
	}
	if in.translucent {
		return drawBit | translucentBit | farFirst<<38 | program<<22 | state<<6 | cost
	}
	return drawBit | program<<46 | state<<30 | cost<<24 | in.depth
}

// commandLessOrEqual returns true if a should sort before or at the same position as b.
// Using <= for traversal order keeps the sort stable.
func commandLessOrEqual(a, b *RenderCommand) bool {
	if a.SortKey != b.SortKey {
		return a.SortKey < b.SortKey
	}
	return a.TraversalOrder <= b.TraversalOrder
}

// sortCommands sorts cmds in place with a bottom-up merge sort, using buf as scratch space.
// The grown scratch buffer is returned for reuse on the next frame.
func sortCommands(cmds, buf []RenderCommand) []RenderCommand {
	n := len(cmds)
	if n <= 1 {
		return buf
	}
	if cap(buf) < n {
		buf = make([]RenderCommand, n)
	}
	buf = buf[:n]

	a, b := cmds, buf
	swapped := false
	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}
	if swapped {
		copy(cmds, buf)
	}
	clear(buf)
	return buf
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []RenderCommand, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(&src[i], &src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], src[i:mid])
	copy(dst[k:], src[j:hi])
}
