package rdg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/**
 * @brief The span of compiled pass indices during which a transient resource
 * must hold a physical allocation. Two resources whose spans do not overlap
 * may alias the same memory.
 */
type Lifetime struct {
	First int
	Last  int
}

func (l Lifetime) overlaps(other Lifetime) bool {
	return l.First <= other.Last && other.First <= l.Last
}

/** @brief Physical memory assignment of one surviving transient resource. */
type Assignment struct {
	Offset uint64
	Size   uint64
}

type CompileStats struct {
	PassesRecorded int
	PassesCulled   int
	TransientBytes uint64
	HeapPeak       uint64
	Barriers       int
}

// transitionReq is one state change a pass needs before it runs, resolved to
// a physical resource only at execute time.
type transitionReq struct {
	resource uint32
	before   metadata.ResourceState
	after    metadata.ResourceState
}

// CompiledGraph is the frozen output of Compile. Execute only reads it.
type CompiledGraph struct {
	// Surviving passes in dependency-respecting order.
	Passes []*PassRecord
	// Per registry slot; meaningless where Alive is false.
	Lifetimes []Lifetime
	// Whether the registry slot survived culling.
	Alive []bool
	// Transient heap placement per registry slot; imported slots get none.
	Assignments []Assignment
	// Total transient heap bytes required.
	HeapSize uint64
	Stats    CompileStats

	// Per compiled pass, the transitions that must precede it.
	transitions [][]transitionReq
}

// compile runs the three compiler phases over one frame's recording and then
// packs the surviving transient resources into the aliasing heap.
func compile(reg *registry, passes []*PassRecord, alignment uint64) (*CompiledGraph, error) {
	required := cullPasses(reg, passes)

	ordered, err := orderPasses(reg, passes, required)
	if err != nil {
		return nil, err
	}

	alive, lifetimes := computeLifetimes(reg, ordered)

	assignments, heapSize, transientBytes := packTransients(reg, alive, lifetimes, alignment)

	transitions, barrierCount := computeTransitions(reg, ordered)

	culled := 0
	for _, r := range required {
		if !r {
			culled++
		}
	}

	return &CompiledGraph{
		Passes:      ordered,
		Lifetimes:   lifetimes,
		Alive:       alive,
		Assignments: assignments,
		HeapSize:    heapSize,
		transitions: transitions,
		Stats: CompileStats{
			PassesRecorded: len(passes),
			PassesCulled:   culled,
			TransientBytes: transientBytes,
			HeapPeak:       heapSize,
			Barriers:       barrierCount,
		},
	}, nil
}

// cullPasses marks every pass whose writes are (transitively) consumed, by a
// backward reachability walk seeded from writes to imported resources. A
// debug-only pass left registered by accident drops out here at zero cost.
func cullPasses(reg *registry, passes []*PassRecord) []bool {
	required := make([]bool, len(passes))
	requiredRead := make([]bool, len(reg.entries))

	for i := len(passes) - 1; i >= 0; i-- {
		pass := passes[i]
		for _, access := range pass.Accesses {
			if access.Write && (reg.entries[access.Resource].imported || requiredRead[access.Resource]) {
				required[i] = true
				break
			}
		}
		if required[i] {
			for _, access := range pass.Accesses {
				if !access.Write {
					requiredRead[access.Resource] = true
				}
			}
		}
	}
	return required
}

// orderPasses topologically sorts the surviving passes over read-after-write
// and write-after-write edges. Ties break by recording order so compilation
// is deterministic frame to frame. A cycle is a fatal compile error: a
// single-frame graph cannot legitimately contain feedback.
func orderPasses(reg *registry, passes []*PassRecord, required []bool) ([]*PassRecord, error) {
	survivors := make([]*PassRecord, 0, len(passes))
	for i, pass := range passes {
		if required[i] {
			survivors = append(survivors, pass)
		}
	}

	// writers and readers per resource, in recording order
	writers := make(map[uint32][]int)
	readers := make(map[uint32][]int)
	for s, pass := range survivors {
		for _, access := range pass.Accesses {
			if access.Write {
				writers[access.Resource] = append(writers[access.Resource], s)
			} else {
				readers[access.Resource] = append(readers[access.Resource], s)
			}
		}
	}

	edges := make(map[[2]int]struct{})
	addEdge := func(from, to int) {
		if from == to {
			return
		}
		edges[[2]int{from, to}] = struct{}{}
	}
	for res, ws := range writers {
		for _, w := range ws {
			for _, r := range readers[res] {
				addEdge(w, r)
			}
		}
		// successive writers of one resource chain in recording order
		for i := 1; i < len(ws); i++ {
			addEdge(ws[i-1], ws[i])
		}
	}

	indegree := make([]int, len(survivors))
	adjacency := make([][]int, len(survivors))
	for edge := range edges {
		adjacency[edge[0]] = append(adjacency[edge[0]], edge[1])
		indegree[edge[1]]++
	}

	ordered := make([]*PassRecord, 0, len(survivors))
	done := make([]bool, len(survivors))
	for len(ordered) < len(survivors) {
		// pick the ready pass with the lowest recording index; stability is
		// required so behaviour is deterministic frame to frame
		next := -1
		for s := range survivors {
			if !done[s] && indegree[s] == 0 && (next == -1 || s < next) {
				next = s
			}
		}
		if next == -1 {
			var stuck []string
			for s := range survivors {
				if !done[s] {
					stuck = append(stuck, survivors[s].Name)
				}
			}
			sort.Strings(stuck)
			return nil, fmt.Errorf("%w: [%s]", core.ErrGraphCycle, strings.Join(stuck, " "))
		}
		done[next] = true
		ordered = append(ordered, survivors[next])
		for _, to := range adjacency[next] {
			indegree[to]--
		}
	}
	return ordered, nil
}

// computeLifetimes scans the ordered pass list once and records, for every
// surviving resource, the first and last compiled index touching it.
// Imported resources are alive for the whole frame and never alias.
func computeLifetimes(reg *registry, ordered []*PassRecord) ([]bool, []Lifetime) {
	alive := make([]bool, len(reg.entries))
	lifetimes := make([]Lifetime, len(reg.entries))
	for i := range lifetimes {
		lifetimes[i] = Lifetime{First: -1, Last: -1}
	}

	for index, pass := range ordered {
		for _, access := range pass.Accesses {
			if !alive[access.Resource] {
				alive[access.Resource] = true
				lifetimes[access.Resource] = Lifetime{First: index, Last: index}
				continue
			}
			if index < lifetimes[access.Resource].First {
				lifetimes[access.Resource].First = index
			}
			if index > lifetimes[access.Resource].Last {
				lifetimes[access.Resource].Last = index
			}
		}
	}

	lastIndex := len(ordered) - 1
	for i := range reg.entries {
		if reg.entries[i].imported && alive[i] {
			lifetimes[i] = Lifetime{First: 0, Last: lastIndex}
		}
	}
	return alive, lifetimes
}

// computeTransitions threads one mutable current-state per resource through
// the compiled order and records, per pass, the transitions it needs. This
// is the one inherently sequential part of compilation.
func computeTransitions(reg *registry, ordered []*PassRecord) ([][]transitionReq, int) {
	current := make([]metadata.ResourceState, len(reg.entries))
	transitions := make([][]transitionReq, len(ordered))
	count := 0
	for index, pass := range ordered {
		for _, access := range pass.Accesses {
			want := access.Kind.state()
			if current[access.Resource] == want {
				continue
			}
			transitions[index] = append(transitions[index], transitionReq{
				resource: access.Resource,
				before:   current[access.Resource],
				after:    want,
			})
			current[access.Resource] = want
			count++
		}
	}
	return transitions, count
}
