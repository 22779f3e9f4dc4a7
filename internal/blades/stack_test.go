package blades

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOpen(t *testing.T, s *Stack, kind Kind) Panel {
	t.Helper()
	p, err := s.Open(kind, nil, OpenOptions{})
	require.NoError(t, err)
	return p
}

func TestOpenAssignsUniqueIDs(t *testing.T) {
	var s Stack
	seen := map[string]bool{}
	for i := 0; i < MaxPanels; i++ {
		p := mustOpen(t, &s, KindQuote)
		assert.False(t, seen[p.ID], "duplicate panel id %s", p.ID)
		seen[p.ID] = true
	}
	assert.Equal(t, MaxPanels, s.Len())
}

func TestOpenRejectsUnknownKind(t *testing.T) {
	var s Stack
	_, err := s.Open(Kind("dashboard_widget"), nil, OpenOptions{})
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, 0, s.Len())
}

func TestOpenBound(t *testing.T) {
	var s Stack
	for i := 0; i < MaxPanels; i++ {
		mustOpen(t, &s, KindInvoice)
	}
	before := s.Panels()

	_, err := s.Open(KindTask, nil, OpenOptions{})
	assert.ErrorIs(t, err, ErrStackFull)
	assert.Equal(t, MaxPanels, s.Len())
	assert.Equal(t, before, s.Panels(), "rejected open must leave the stack unchanged")
}

func TestCloseTop(t *testing.T) {
	var s Stack
	a := mustOpen(t, &s, KindCompany)
	mustOpen(t, &s, KindContact)

	assert.True(t, s.CloseTop())
	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, a.ID, top.ID)

	assert.True(t, s.CloseTop())
	assert.False(t, s.CloseTop(), "close on empty stack is a no-op")
	assert.Equal(t, 0, s.Len())
}

func TestCloseAtCascades(t *testing.T) {
	var s Stack
	a := mustOpen(t, &s, KindCompany)
	b := mustOpen(t, &s, KindQuote)
	mustOpen(t, &s, KindInvoice)
	mustOpen(t, &s, KindTask)

	assert.True(t, s.CloseAt(b.ID))
	require.Equal(t, 1, s.Len())
	top, _ := s.Top()
	assert.Equal(t, a.ID, top.ID)
}

func TestCloseAtUnknownIDIsNoOp(t *testing.T) {
	var s Stack
	mustOpen(t, &s, KindCompany)
	before := s.Panels()

	assert.False(t, s.CloseAt("not-a-panel"))
	assert.Equal(t, before, s.Panels())
}

func TestCloseAllIsIdempotent(t *testing.T) {
	var s Stack
	mustOpen(t, &s, KindCompany)
	mustOpen(t, &s, KindQuote)

	s.CloseAll()
	assert.Equal(t, 0, s.Len())
	s.CloseAll()
	assert.Equal(t, 0, s.Len())
}

func TestFramesOffsetsAndDismissal(t *testing.T) {
	var s Stack
	for i := 0; i < MaxPanels; i++ {
		mustOpen(t, &s, KindWorkOrder)
	}
	frames := s.Frames()
	require.Len(t, frames, MaxPanels)

	// Later panels stack on top.
	for i := 1; i < len(frames); i++ {
		assert.Greater(t, frames[i].ZIndex, frames[i-1].ZIndex)
	}

	// Offset grows from the top down but stops at the cap.
	assert.Equal(t, 0, frames[4].OffsetSteps)
	assert.Equal(t, 1, frames[3].OffsetSteps)
	assert.Equal(t, 2, frames[2].OffsetSteps)
	assert.Equal(t, 3, frames[1].OffsetSteps)
	assert.Equal(t, 3, frames[0].OffsetSteps, "offset must not grow past the cap")

	// Only the top overlay is click-to-dismiss.
	for i, f := range frames {
		assert.Equal(t, i == len(frames)-1, f.Dismissible)
	}
}

func TestWidthResolution(t *testing.T) {
	full := WidthFull.Responsive()
	assert.Equal(t, WidthSpec{SM: "100%", MD: "100%", LG: "100%", XL: "100%"}, full)

	// Unknown classes fall back to the default.
	assert.Equal(t, WidthMD.Responsive(), Width("enormous").Responsive())
}

func TestStackJSONRoundTrip(t *testing.T) {
	var s Stack
	mustOpen(t, &s, KindCompany)
	p, err := s.Open(KindQuote, json.RawMessage(`{"quote_id":12}`), OpenOptions{Label: "Quote #12", Width: WidthLG})
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var restored Stack
	require.NoError(t, json.Unmarshal(data, &restored))
	require.Equal(t, 2, restored.Len())

	top, _ := restored.Top()
	assert.Equal(t, p.ID, top.ID)
	assert.Equal(t, KindQuote, top.Kind)
	assert.Equal(t, WidthLG, top.Width)
	assert.JSONEq(t, `{"quote_id":12}`, string(top.Props))
}
