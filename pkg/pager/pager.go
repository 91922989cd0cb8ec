package pager

import "github.com/ysakurai/bojstat-go/pkg/boj"

// Advance reports the outcome of feeding a page's next_position into a
// pager state.
type Advance int

const (
	// AdvanceContinue means the cursor moved forward; request another
	// page with the updated state.
	AdvanceContinue Advance = iota
	// AdvanceDone means the chunk (or, for Layer, the whole call) is
	// complete; stop requesting pages.
	AdvanceDone
)

// CodePagerState tracks the cursor for one chunk of a getDataCode call.
// start_position indexes into the submitted code array's positions.
type CodePagerState struct {
	ChunkIndex    int
	StartPosition int
}

// NewCodePagerState builds the initial state for chunk chunkIndex,
// optionally resuming from a prior start position.
func NewCodePagerState(chunkIndex, startPosition int) CodePagerState {
	if startPosition <= 0 {
		startPosition = 1
	}
	return CodePagerState{ChunkIndex: chunkIndex, StartPosition: startPosition}
}

// AdvanceCode applies the monotonic-cursor rule from §4.5: a nil or
// zero next_position means the chunk is complete; a next_position that
// does not strictly exceed the current start is a stall; otherwise the
// cursor advances.
func AdvanceCode(state *CodePagerState, nextPosition *int) (Advance, error) {
	if nextPosition == nil || *nextPosition == 0 {
		return AdvanceDone, nil
	}
	if *nextPosition <= state.StartPosition {
		return AdvanceDone, &boj.PaginationStalledError{
			ChunkIndex:   state.ChunkIndex,
			Start:        state.StartPosition,
			NextPosition: *nextPosition,
		}
	}
	state.StartPosition = *nextPosition
	return AdvanceContinue, nil
}

// LayerPagerState tracks the single global cursor for a getDataLayer
// call. start_position indexes into the DB's global series ordering.
type LayerPagerState struct {
	StartPosition int
}

// NewLayerPagerState builds the initial state, optionally resuming.
func NewLayerPagerState(startPosition int) LayerPagerState {
	if startPosition <= 0 {
		startPosition = 1
	}
	return LayerPagerState{StartPosition: startPosition}
}

// AdvanceLayer applies the same monotonic rule as AdvanceCode; the
// stall error always reports chunk_index=0 since Layer has no chunks.
func AdvanceLayer(state *LayerPagerState, nextPosition *int) (Advance, error) {
	if nextPosition == nil || *nextPosition == 0 {
		return AdvanceDone, nil
	}
	if *nextPosition <= state.StartPosition {
		return AdvanceDone, &boj.PaginationStalledError{
			ChunkIndex:   0,
			Start:        state.StartPosition,
			NextPosition: *nextPosition,
		}
	}
	state.StartPosition = *nextPosition
	return AdvanceContinue, nil
}

// LayerOverflowCeiling is the documented series-count ceiling the
// server enforces before frequency filtering is applied (§4.6).
const LayerOverflowCeiling = 1250

// CheckLayerOverflow reports the domain error proposing layer
// subdivision when the accumulated row count reaches the ceiling
// without the pager having otherwise terminated.
func CheckLayerOverflow(observedCount int) error {
	if observedCount >= LayerOverflowCeiling {
		return &boj.LayerOverflowError{ObservedCount: observedCount}
	}
	return nil
}
