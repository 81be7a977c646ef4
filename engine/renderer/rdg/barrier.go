package rdg

import (
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// BarrierBatcher collapses individual state transitions into the fewest
// grouped backend calls: one RecordBarrier per distinct target command list
// per flush, instead of one call per resource.
type BarrierBatcher struct {
	pending map[CommandList][]Transition
	order   []CommandList
}

func NewBarrierBatcher() *BarrierBatcher {
	return &BarrierBatcher{
		pending: make(map[CommandList][]Transition),
	}
}

// RecordTransition queues one state change for the next Flush.
func (bb *BarrierBatcher) RecordTransition(cmd CommandList, resource Resource, name string, before, after metadata.ResourceState) {
	if _, ok := bb.pending[cmd]; !ok {
		bb.order = append(bb.order, cmd)
	}
	bb.pending[cmd] = append(bb.pending[cmd], Transition{
		Resource: resource,
		Name:     name,
		Before:   before,
		After:    after,
	})
}

// Pending reports how many transitions are queued across all command lists.
func (bb *BarrierBatcher) Pending() int {
	n := 0
	for _, batch := range bb.pending {
		n += len(batch)
	}
	return n
}

// Flush emits one batched RecordBarrier call per command list, in the order
// the lists first appeared, then clears the queue.
func (bb *BarrierBatcher) Flush(backend Backend) error {
	for _, cmd := range bb.order {
		batch := bb.pending[cmd]
		if len(batch) == 0 {
			continue
		}
		if err := backend.RecordBarrier(cmd, batch); err != nil {
			return err
		}
	}
	bb.pending = make(map[CommandList][]Transition)
	bb.order = bb.order[:0]
	return nil
}
