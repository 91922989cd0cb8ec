package pager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

func intPtr(i int) *int { return &i }

func TestAdvanceCode_CompletesOnNilNextPosition(t *testing.T) {
	state := NewCodePagerState(0, 1)
	advance, err := AdvanceCode(&state, nil)
	require.NoError(t, err)
	assert.Equal(t, AdvanceDone, advance)
}

func TestAdvanceCode_CompletesOnZeroNextPosition(t *testing.T) {
	state := NewCodePagerState(0, 5)
	advance, err := AdvanceCode(&state, intPtr(0))
	require.NoError(t, err)
	assert.Equal(t, AdvanceDone, advance)
}

func TestAdvanceCode_AdvancesOnStrictIncrease(t *testing.T) {
	state := NewCodePagerState(0, 1)
	advance, err := AdvanceCode(&state, intPtr(2))
	require.NoError(t, err)
	assert.Equal(t, AdvanceContinue, advance)
	assert.Equal(t, 2, state.StartPosition)
}

func TestAdvanceCode_StallsOnNonIncreasingPosition(t *testing.T) {
	state := NewCodePagerState(3, 2)
	_, err := AdvanceCode(&state, intPtr(2))
	require.Error(t, err)
	var stalled *boj.PaginationStalledError
	require.ErrorAs(t, err, &stalled)
	assert.Equal(t, 3, stalled.ChunkIndex)
	assert.Equal(t, 2, stalled.Start)
	assert.Equal(t, 2, stalled.NextPosition)
}

func TestAdvanceLayer_StallReportsChunkIndexZero(t *testing.T) {
	state := NewLayerPagerState(10)
	_, err := AdvanceLayer(&state, intPtr(5))
	require.Error(t, err)
	var stalled *boj.PaginationStalledError
	require.ErrorAs(t, err, &stalled)
	assert.Equal(t, 0, stalled.ChunkIndex)
}

func TestPlanCodeChunks_StrictAPIIsSingleton(t *testing.T) {
	req := boj.Request{StrictAPI: true, Codes: make([]string, 1251)}
	for i := range req.Codes {
		req.Codes[i] = "X"
	}
	plan, err := PlanCodeChunks(req)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Len(t, plan[0], 1251)
}

func TestPlanCodeChunks_DefaultSplitsBySizeOnly(t *testing.T) {
	codes := make([]string, 251)
	for i := range codes {
		codes[i] = "C"
	}
	req := boj.Request{Codes: codes}
	plan, err := PlanCodeChunks(req)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Len(t, plan[0], 250)
	assert.Len(t, plan[1], 1)
}

func TestPlanCodeChunks_AutoSplitBySizeAtBoundary(t *testing.T) {
	codes := make([]string, 251)
	for i := range codes {
		codes[i] = "FXERD01M01" // all same guessed frequency (M)
	}
	req := boj.Request{AutoSplitCodes: true, Codes: codes}
	plan, err := PlanCodeChunks(req)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Len(t, plan[0], 250)
	assert.Len(t, plan[1], 1)
}

func TestPlanCodeChunks_AutoSplitGroupsUnknownFrequenciesTogether(t *testing.T) {
	codes := []string{"ZZZ1", "ZZZ2", "FXERD01M01", "ZZZ3"}
	req := boj.Request{AutoSplitCodes: true, Codes: codes}
	plan, err := PlanCodeChunks(req)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, []string{"ZZZ1", "ZZZ2", "ZZZ3"}, plan[0])
	assert.Equal(t, []string{"FXERD01M01"}, plan[1])
}

func TestPlanCodeChunks_StrictAndAutoSplitIsConfigError(t *testing.T) {
	req := boj.Request{StrictAPI: true, AutoSplitCodes: true, Codes: []string{"A"}}
	_, err := PlanCodeChunks(req)
	require.Error(t, err)
	var verr *boj.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestGuessFrequencyFromCode(t *testing.T) {
	assert.Equal(t, boj.FrequencyMonth, GuessFrequencyFromCode("FXERD01M01"))
	assert.Equal(t, boj.FrequencyQuarter, GuessFrequencyFromCode("FXERD01Q01"))
	assert.Equal(t, boj.FrequencyUnknown, GuessFrequencyFromCode("ZZZ"))
}

func TestCheckLayerOverflow(t *testing.T) {
	assert.NoError(t, CheckLayerOverflow(LayerOverflowCeiling-1))
	err := CheckLayerOverflow(LayerOverflowCeiling)
	require.Error(t, err)
	var overflow *boj.LayerOverflowError
	require.ErrorAs(t, err, &overflow)
}
