package reports

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedicseva/console/internal/backend"
)

type fakeSlotClient struct {
	available    *backend.SlotsResponse
	blocked      []backend.BlockedSlot
	blockFail    map[string]bool
	unblockFail  map[string]bool
	blockCalls   []backend.BlockSlotRequest
	unblockCalls []string

	lastBlockedAstrologer string
}

func (f *fakeSlotClient) AvailableSlots(ctx context.Context, date, prefix, astrologerID string) (*backend.SlotsResponse, error) {
	if f.available == nil {
		return &backend.SlotsResponse{}, nil
	}
	return f.available, nil
}

func (f *fakeSlotClient) BlockedSlots(ctx context.Context, date, prefix, astrologerID string) ([]backend.BlockedSlot, error) {
	f.lastBlockedAstrologer = astrologerID
	return f.blocked, nil
}

func (f *fakeSlotClient) BlockSlot(ctx context.Context, req backend.BlockSlotRequest) (*backend.BlockedSlot, error) {
	f.blockCalls = append(f.blockCalls, req)
	if f.blockFail[req.TimeRange] {
		return nil, assert.AnError
	}
	return &backend.BlockedSlot{ID: "blk-" + req.TimeRange, IsActive: true, BlockedBy: req.BlockedBy}, nil
}

func (f *fakeSlotClient) UnblockSlot(ctx context.Context, blockedSlotID string) error {
	f.unblockCalls = append(f.unblockCalls, blockedSlotID)
	if f.unblockFail[blockedSlotID] {
		return assert.AnError
	}
	return nil
}

func TestDefaultSlotDate_DayAfterTomorrow(t *testing.T) {
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-09", DefaultSlotDate(now))
}

func TestQuickPickDates_TenFromDefault(t *testing.T) {
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)
	dates := QuickPickDates(now)
	require.Len(t, dates, 10)
	assert.Equal(t, "2025-03-09", dates[0])
	assert.Equal(t, "2025-03-18", dates[9])
}

func TestTimeGrid(t *testing.T) {
	grid := TimeGrid()
	require.NotEmpty(t, grid)

	assert.Equal(t, "10:00AM-10:20AM", grid[0])
	assert.Equal(t, "10:25AM-10:45AM", grid[1])
	// Nothing may end after 7 PM; the last full slot is 6:20-6:40 PM.
	assert.Equal(t, "6:20PM-6:40PM", grid[len(grid)-1])
	assert.Len(t, grid, 21)
}

func TestRefresh_MergesAvailableAndBlocked(t *testing.T) {
	client := &fakeSlotClient{
		available: &backend.SlotsResponse{
			Slots: []backend.AvailableSlot{
				{Time: "10:00AM-10:20AM", Capacity: 3, Astrologers: []backend.SlotAstrologer{{ID: "a1", Name: "Sharma"}}},
			},
			Astrologers: []backend.Astrologer{{ID: "a1", Name: "Sharma"}},
		},
		blocked: []backend.BlockedSlot{
			{ID: "b1", TimeRange: "10:25AM-10:45AM", IsActive: true, BlockedBy: "Admin"},
		},
	}
	b := NewSlotBoard(client, slog.Default())

	require.NoError(t, b.Refresh(context.Background()))
	slots := b.Slots()
	require.Len(t, slots, 2)

	assert.True(t, slots[0].IsAvailable)
	assert.Equal(t, 3, slots[0].Capacity)
	assert.False(t, slots[0].IsBlocked)

	assert.True(t, slots[1].IsBlocked)
	assert.Equal(t, "b1", slots[1].BlockedSlotID)
	assert.False(t, slots[1].IsAvailable)

	require.Len(t, b.Astrologers(), 1)
}

func TestRefresh_AllAstrologerQueriesGlobalBlocks(t *testing.T) {
	client := &fakeSlotClient{}
	b := NewSlotBoard(client, slog.Default())

	require.NoError(t, b.Refresh(context.Background()))
	assert.Equal(t, "global", client.lastBlockedAstrologer)

	b.SetFilters("", "", "a1")
	require.NoError(t, b.Refresh(context.Background()))
	assert.Equal(t, "a1", client.lastBlockedAstrologer)
}

func TestRefresh_EmptyBackendGeneratesFullGrid(t *testing.T) {
	b := NewSlotBoard(&fakeSlotClient{}, slog.Default())

	require.NoError(t, b.Refresh(context.Background()))
	slots := b.Slots()
	require.Len(t, slots, len(TimeGrid()))
	for _, s := range slots {
		assert.False(t, s.IsAvailable)
		assert.False(t, s.IsBlocked)
	}
}

func TestBlock_OptimisticWithRollback(t *testing.T) {
	client := &fakeSlotClient{blockFail: map[string]bool{"10:25AM-10:45AM": true}}
	b := NewSlotBoard(client, slog.Default())
	require.NoError(t, b.Refresh(context.Background()))

	require.NoError(t, b.Block(context.Background(), "10:00AM-10:20AM"))
	assert.True(t, b.Slots()[0].IsBlocked)
	assert.Equal(t, "blk-10:00AM-10:20AM", b.Slots()[0].BlockedSlotID)

	require.Error(t, b.Block(context.Background(), "10:25AM-10:45AM"))
	assert.False(t, b.Slots()[1].IsBlocked)
	assert.Empty(t, b.Slots()[1].BlockedSlotID)

	// Requests carry the blocking actor.
	require.NotEmpty(t, client.blockCalls)
	assert.Equal(t, "Admin", client.blockCalls[0].BlockedBy)
}

func TestUnblock_RejectsUnconfirmedBlock(t *testing.T) {
	b := NewSlotBoard(&fakeSlotClient{}, slog.Default())
	require.NoError(t, b.Refresh(context.Background()))

	err := b.Unblock(context.Background(), "10:00AM-10:20AM")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no confirmed block")
}

func TestUnblock_RollbackOnFailure(t *testing.T) {
	client := &fakeSlotClient{
		blocked:     []backend.BlockedSlot{{ID: "b1", TimeRange: "10:00AM-10:20AM", IsActive: true}},
		unblockFail: map[string]bool{"b1": true},
	}
	b := NewSlotBoard(client, slog.Default())
	require.NoError(t, b.Refresh(context.Background()))

	require.Error(t, b.Unblock(context.Background(), "10:00AM-10:20AM"))
	slot := b.Slots()[0]
	assert.True(t, slot.IsBlocked)
	assert.Equal(t, "b1", slot.BlockedSlotID)
}

func TestBulkBlock_TallyAndRollback(t *testing.T) {
	client := &fakeSlotClient{blockFail: map[string]bool{
		"10:50AM-11:10AM": true,
		"11:15AM-11:35AM": true,
	}}
	b := NewSlotBoard(client, slog.Default())
	require.NoError(t, b.Refresh(context.Background()))

	require.True(t, b.ToggleSelectionMode())
	// Narrow the selection to five slots.
	grid := TimeGrid()
	for _, timeRange := range grid[5:] {
		b.ToggleSlot(timeRange)
	}
	require.Len(t, b.Selected(), 5)

	result, err := b.BulkBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Succeeded: 3, Failed: 2}, result)

	// Failed slots keep their pre-operation state.
	for _, s := range b.Slots() {
		switch s.Time {
		case "10:50AM-11:10AM", "11:15AM-11:35AM":
			assert.False(t, s.IsBlocked, s.Time)
			assert.Empty(t, s.BlockedSlotID, s.Time)
		case grid[0], grid[1], grid[4]:
			assert.True(t, s.IsBlocked, s.Time)
			assert.True(t, strings.HasPrefix(s.BlockedSlotID, "blk-"), s.Time)
		}
	}

	// Selection drops after a bulk run.
	assert.False(t, b.SelectionMode())
	assert.Empty(t, b.Selected())
}

func TestBulkBlock_SkipsAlreadyBlocked(t *testing.T) {
	client := &fakeSlotClient{
		blocked: []backend.BlockedSlot{{ID: "b1", TimeRange: "10:00AM-10:20AM", IsActive: true}},
	}
	b := NewSlotBoard(client, slog.Default())
	require.NoError(t, b.Refresh(context.Background()))

	b.ToggleSelectionMode()
	result, err := b.BulkBlock(context.Background())
	require.NoError(t, err)

	// The already-blocked slot is neither a success nor a failure.
	assert.Equal(t, 0, result.Failed)
	for _, req := range client.blockCalls {
		assert.NotEqual(t, "10:00AM-10:20AM", req.TimeRange)
	}
}

func TestBulk_EmptySelectionRejected(t *testing.T) {
	b := NewSlotBoard(&fakeSlotClient{}, slog.Default())
	require.NoError(t, b.Refresh(context.Background()))

	_, err := b.BulkBlock(context.Background())
	require.Error(t, err)
}

func TestToggleSelectionMode_SelectsAllThenClears(t *testing.T) {
	b := NewSlotBoard(&fakeSlotClient{}, slog.Default())
	require.NoError(t, b.Refresh(context.Background()))

	require.True(t, b.ToggleSelectionMode())
	assert.Len(t, b.Selected(), len(TimeGrid()))

	b.ToggleSlot("10:00AM-10:20AM")
	assert.Len(t, b.Selected(), len(TimeGrid())-1)

	require.False(t, b.ToggleSelectionMode())
	assert.Empty(t, b.Selected())
}
