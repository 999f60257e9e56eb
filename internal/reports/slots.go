package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vedicseva/console/internal/backend"
	apperrors "github.com/vedicseva/console/pkg/errors"
)

// SlotClient is the platform API surface the slot board needs.
type SlotClient interface {
	AvailableSlots(ctx context.Context, date, prefix, astrologerID string) (*backend.SlotsResponse, error)
	BlockedSlots(ctx context.Context, date, prefix, astrologerID string) ([]backend.BlockedSlot, error)
	BlockSlot(ctx context.Context, req backend.BlockSlotRequest) (*backend.BlockedSlot, error)
	UnblockSlot(ctx context.Context, blockedSlotID string) error
}

// ReportPrefix identifies one report product on the slot board.
type ReportPrefix struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Code  string `json:"code"`
}

// ReportPrefixes are the selectable report products.
var ReportPrefixes = []ReportPrefix{
	{Value: "#LJR-", Label: "Life Journey Report", Code: "LJR"},
	{Value: "#LCR-", Label: "Life Changing Report", Code: "LCR"},
	{Value: "#KM-", Label: "Kundli Matching Report", Code: "KM"},
	{Value: "#LR-", Label: "Love Report", Code: "LR"},
}

// tempBlockID marks an optimistic block that has not been confirmed yet.
const tempBlockID = "temp-id"

// Slot is one time range on the board, merged from the available and blocked
// slot sets.
type Slot struct {
	Time           string                   `json:"time"`
	Capacity       int                      `json:"capacity"`
	Astrologers    []backend.SlotAstrologer `json:"availableAstrologers"`
	IsAvailable    bool                     `json:"isAvailable"`
	IsBlocked      bool                     `json:"isBlocked"`
	BlockedSlotID  string                   `json:"blockedSlotId,omitempty"`
	IsActive       bool                     `json:"isActive"`
	Reason         string                   `json:"reason,omitempty"`
	BlockedBy      string                   `json:"blockedBy,omitempty"`
	AstrologerName string                   `json:"astrologerName,omitempty"`
}

// BulkResult tallies a bulk block/unblock run. Failures are counted
// separately; each failed slot's optimistic state change is rolled back
// individually.
type BulkResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SlotBoard drives the consultation slot-blocking screen for one admin
// session: merged slot view per date/prefix/astrologer, optimistic
// block/unblock, and bulk actions over a selection set.
type SlotBoard struct {
	client SlotClient
	logger *slog.Logger
	seq    sequence
	now    func() time.Time

	date          string
	prefix        string
	astrologer    string
	slots         []Slot
	astrologers   []backend.Astrologer
	selectionMode bool
	selected      map[string]bool
}

func NewSlotBoard(client SlotClient, logger *slog.Logger) *SlotBoard {
	b := &SlotBoard{
		client:     client,
		logger:     logger,
		now:        time.Now,
		prefix:     ReportPrefixes[0].Value,
		astrologer: "all",
		selected:   map[string]bool{},
	}
	b.date = DefaultSlotDate(b.now())
	return b
}

// DefaultSlotDate is the initial board date: the day after tomorrow, leaving
// a booking lead time.
func DefaultSlotDate(now time.Time) string {
	return now.AddDate(0, 0, 2).Format("2006-01-02")
}

// QuickPickDates lists the ten selectable dates starting at the default.
func QuickPickDates(now time.Time) []string {
	dates := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		dates = append(dates, now.AddDate(0, 0, i+2).Format("2006-01-02"))
	}
	return dates
}

func (b *SlotBoard) Date() string { return b.date }

func (b *SlotBoard) Prefix() string { return b.prefix }

func (b *SlotBoard) Astrologer() string { return b.astrologer }

func (b *SlotBoard) Slots() []Slot { return b.slots }

func (b *SlotBoard) Astrologers() []backend.Astrologer { return b.astrologers }

// SetFilters updates date, prefix and astrologer together. Changing filters
// drops the selection.
func (b *SlotBoard) SetFilters(date, prefix, astrologer string) {
	if date != "" {
		b.date = date
	}
	if prefix != "" {
		b.prefix = prefix
	}
	if astrologer != "" {
		b.astrologer = astrologer
	}
	b.clearSelection()
}

// Refresh merges the available and blocked slot sets for the current
// filters. When neither source returns a slot the full bookable grid is
// generated so every time range stays blockable. A superseded response is
// discarded.
func (b *SlotBoard) Refresh(ctx context.Context) error {
	token := b.seq.next()

	available, err := b.client.AvailableSlots(ctx, b.date, b.prefix, b.astrologerParam())
	if !b.seq.latest(token) {
		return nil
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "available slots fetch failed", slog.String("error", err.Error()))
		available = &backend.SlotsResponse{}
	}

	blockedAstrologer := b.astrologer
	if blockedAstrologer == "all" {
		blockedAstrologer = "global"
	}
	blocked, err := b.client.BlockedSlots(ctx, b.date, b.prefix, blockedAstrologer)
	if !b.seq.latest(token) {
		return nil
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "blocked slots fetch failed", slog.String("error", err.Error()))
		blocked = nil
	}

	blockedByRange := make(map[string]backend.BlockedSlot, len(blocked))
	ranges := map[string]bool{}
	for _, s := range available.Slots {
		ranges[s.Time] = true
	}
	for _, s := range blocked {
		ranges[s.TimeRange] = true
		blockedByRange[s.TimeRange] = s
	}
	if len(ranges) == 0 {
		for _, r := range TimeGrid() {
			ranges[r] = true
		}
	}

	ordered := make([]string, 0, len(ranges))
	for r := range ranges {
		ordered = append(ordered, r)
	}
	sort.Strings(ordered)

	availableByRange := make(map[string]backend.AvailableSlot, len(available.Slots))
	for _, s := range available.Slots {
		availableByRange[s.Time] = s
	}

	slots := make([]Slot, 0, len(ordered))
	for _, r := range ordered {
		slot := Slot{Time: r, IsActive: true}
		if av, ok := availableByRange[r]; ok {
			slot.IsAvailable = true
			slot.Capacity = av.Capacity
			slot.Astrologers = av.Astrologers
		}
		if bl, ok := blockedByRange[r]; ok {
			slot.IsBlocked = true
			slot.BlockedSlotID = bl.ID
			slot.IsActive = bl.IsActive
			slot.Reason = bl.Reason
			slot.BlockedBy = bl.BlockedBy
			slot.AstrologerName = bl.AstrologerName
		}
		slots = append(slots, slot)
	}

	b.slots = slots
	b.astrologers = available.Astrologers
	b.clearSelection()
	return nil
}

// TimeGrid generates the full bookable day: 20-minute slots with 5-minute
// breaks from 10 AM, none ending after 7 PM.
func TimeGrid() []string {
	var grid []string
	const endMinute = 19 * 60
	for current := 10 * 60; current+20 <= endMinute; current += 25 {
		grid = append(grid, fmt.Sprintf("%s-%s", clockLabel(current), clockLabel(current+20)))
	}
	return grid
}

func clockLabel(minutes int) string {
	h, m := minutes/60, minutes%60
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	hour12 := h
	if h > 12 {
		hour12 = h - 12
	} else if h == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d%s", hour12, m, period)
}

// Block blocks one time range. The board state is updated optimistically and
// rolled back if the platform rejects the block.
func (b *SlotBoard) Block(ctx context.Context, timeRange string) error {
	idx := b.slotIndex(timeRange)
	if idx < 0 {
		return apperrors.NotFound("slot", timeRange)
	}

	prev := b.slots[idx]
	b.slots[idx].IsBlocked = true
	b.slots[idx].BlockedSlotID = tempBlockID

	created, err := b.client.BlockSlot(ctx, backend.BlockSlotRequest{
		Date:         b.date,
		TimeRange:    timeRange,
		Prefix:       b.prefix,
		AstrologerID: b.astrologerParam(),
		BlockedBy:    "Admin",
	})
	if err != nil {
		b.slots[idx] = prev
		return err
	}

	b.slots[idx].BlockedSlotID = created.ID
	b.slots[idx].IsActive = created.IsActive
	b.slots[idx].Reason = created.Reason
	b.slots[idx].BlockedBy = created.BlockedBy
	b.slots[idx].AstrologerName = created.AstrologerName
	return nil
}

// Unblock removes the block on one time range, optimistically with rollback.
// An unconfirmed optimistic block cannot be unblocked.
func (b *SlotBoard) Unblock(ctx context.Context, timeRange string) error {
	idx := b.slotIndex(timeRange)
	if idx < 0 {
		return apperrors.NotFound("slot", timeRange)
	}
	blockedID := b.slots[idx].BlockedSlotID
	if blockedID == "" || blockedID == tempBlockID {
		return apperrors.InvalidInput("slot has no confirmed block to remove")
	}

	prev := b.slots[idx]
	b.slots[idx].IsBlocked = false
	b.slots[idx].BlockedSlotID = ""

	if err := b.client.UnblockSlot(ctx, blockedID); err != nil {
		b.slots[idx] = prev
		return err
	}
	return nil
}

// ToggleSelectionMode enters selection mode with every slot selected, or
// leaves it and drops the selection.
func (b *SlotBoard) ToggleSelectionMode() bool {
	if b.selectionMode {
		b.clearSelection()
		return false
	}
	b.selectionMode = true
	for _, s := range b.slots {
		b.selected[s.Time] = true
	}
	return true
}

// ToggleSlot flips one slot in or out of the selection.
func (b *SlotBoard) ToggleSlot(timeRange string) {
	if b.selected[timeRange] {
		delete(b.selected, timeRange)
	} else {
		b.selected[timeRange] = true
	}
}

// SelectionMode reports whether the board is in bulk-selection mode.
func (b *SlotBoard) SelectionMode() bool { return b.selectionMode }

// Selected returns the selected time ranges in board order.
func (b *SlotBoard) Selected() []string {
	out := make([]string, 0, len(b.selected))
	for _, s := range b.slots {
		if b.selected[s.Time] {
			out = append(out, s.Time)
		}
	}
	return out
}

// BulkBlock blocks every selected unblocked slot. Each slot is attempted
// independently; failures roll back individually and are tallied separately.
// The selection is dropped afterwards.
func (b *SlotBoard) BulkBlock(ctx context.Context) (BulkResult, error) {
	return b.bulk(ctx, func(ctx context.Context, slot Slot) (bool, error) {
		if slot.IsBlocked {
			return false, nil
		}
		return true, b.Block(ctx, slot.Time)
	})
}

// BulkUnblock unblocks every selected blocked slot, mirroring BulkBlock.
func (b *SlotBoard) BulkUnblock(ctx context.Context) (BulkResult, error) {
	return b.bulk(ctx, func(ctx context.Context, slot Slot) (bool, error) {
		if !slot.IsBlocked || slot.BlockedSlotID == "" {
			return false, nil
		}
		return true, b.Unblock(ctx, slot.Time)
	})
}

func (b *SlotBoard) bulk(ctx context.Context, attempt func(context.Context, Slot) (bool, error)) (BulkResult, error) {
	selected := b.Selected()
	if len(selected) == 0 {
		return BulkResult{}, apperrors.InvalidInput("select at least one slot")
	}

	var result BulkResult
	for _, timeRange := range selected {
		idx := b.slotIndex(timeRange)
		if idx < 0 {
			continue
		}
		attempted, err := attempt(ctx, b.slots[idx])
		if !attempted {
			continue
		}
		if err != nil {
			b.logger.WarnContext(ctx, "bulk slot action failed",
				slog.String("time_range", timeRange),
				slog.String("error", err.Error()),
			)
			result.Failed++
		} else {
			result.Succeeded++
		}
	}

	b.clearSelection()
	return result, nil
}

func (b *SlotBoard) astrologerParam() string {
	if b.astrologer == "all" {
		return ""
	}
	return b.astrologer
}

func (b *SlotBoard) slotIndex(timeRange string) int {
	for i, s := range b.slots {
		if s.Time == timeRange {
			return i
		}
	}
	return -1
}

func (b *SlotBoard) clearSelection() {
	b.selectionMode = false
	b.selected = map[string]bool{}
}
