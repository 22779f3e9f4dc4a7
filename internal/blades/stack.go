// Package blades manages the stacked-panel UI state: an ordered, bounded
// stack of overlay panels opened on top of one another. The stack itself is
// a pure value type so it can be persisted in the session store and tested
// without any UI runtime; panels are tagged variants (a closed kind enum
// plus a typed JSON props bag), never renderable references.
package blades

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// MaxPanels bounds how many panels may be open concurrently. An open request
// against a full stack is rejected as a no-op.
const MaxPanels = 5

// maxOffsetDepth caps the visual offset: panels deeper than this render at
// the same offset instead of drifting further.
const maxOffsetDepth = 3

var (
	// ErrStackFull rejects an open request when MaxPanels are already open.
	ErrStackFull = errors.New("blades: panel stack is full")
	// ErrUnknownKind rejects an open request for a kind outside the enum.
	ErrUnknownKind = errors.New("blades: unknown panel kind")
)

// Kind identifies what a panel displays.
type Kind string

// Known panel kinds.
const (
	KindCompany   Kind = "company"
	KindContact   Kind = "contact"
	KindQuote     Kind = "quote"
	KindInvoice   Kind = "invoice"
	KindWorkOrder Kind = "work_order"
	KindTask      Kind = "task"
	KindUser      Kind = "user"
	KindRole      Kind = "role"
)

// Valid reports whether k belongs to the closed kind enum.
func (k Kind) Valid() bool {
	switch k {
	case KindCompany, KindContact, KindQuote, KindInvoice, KindWorkOrder, KindTask, KindUser, KindRole:
		return true
	}
	return false
}

// Width is a requested panel width class.
type Width string

// Width classes. Anything else normalizes to WidthMD.
const (
	WidthSM   Width = "sm"
	WidthMD   Width = "md"
	WidthLG   Width = "lg"
	WidthXL   Width = "xl"
	WidthFull Width = "full"
)

// Normalize maps unknown width strings to the default class.
func (w Width) Normalize() Width {
	switch w {
	case WidthSM, WidthMD, WidthLG, WidthXL, WidthFull:
		return w
	}
	return WidthMD
}

// WidthSpec resolves a width class into concrete values per viewport
// breakpoint. Full always spans the whole viewport.
type WidthSpec struct {
	SM string `json:"sm"`
	MD string `json:"md"`
	LG string `json:"lg"`
	XL string `json:"xl"`
}

// Responsive returns the per-breakpoint widths for the class. Below the md
// breakpoint every panel takes the full viewport.
func (w Width) Responsive() WidthSpec {
	switch w.Normalize() {
	case WidthSM:
		return WidthSpec{SM: "100%", MD: "24rem", LG: "24rem", XL: "24rem"}
	case WidthLG:
		return WidthSpec{SM: "100%", MD: "40rem", LG: "48rem", XL: "48rem"}
	case WidthXL:
		return WidthSpec{SM: "100%", MD: "48rem", LG: "64rem", XL: "72rem"}
	case WidthFull:
		return WidthSpec{SM: "100%", MD: "100%", LG: "100%", XL: "100%"}
	default:
		return WidthSpec{SM: "100%", MD: "32rem", LG: "36rem", XL: "36rem"}
	}
}

// Panel describes one open overlay. Props carry the kind-specific payload
// (entity ids, prefill values) as opaque JSON.
type Panel struct {
	ID    string          `json:"id"`
	Kind  Kind            `json:"kind"`
	Props json.RawMessage `json:"props,omitempty"`
	Label string          `json:"label,omitempty"`
	Width Width           `json:"width"`
}

// OpenOptions carries presentation options for Open.
type OpenOptions struct {
	Label string
	Width Width
}

// Stack is an ordered sequence of panels; the last element is visually on
// top. The zero value is an empty stack ready to use.
type Stack struct {
	panels []Panel
}

// Open appends a new panel with a fresh unique id and returns it.
// A full stack rejects the request and leaves the stack unchanged.
func (s *Stack) Open(kind Kind, props json.RawMessage, opts OpenOptions) (Panel, error) {
	if !kind.Valid() {
		return Panel{}, ErrUnknownKind
	}
	if len(s.panels) >= MaxPanels {
		return Panel{}, ErrStackFull
	}
	panel := Panel{
		ID:    uuid.NewString(),
		Kind:  kind,
		Props: props,
		Label: opts.Label,
		Width: opts.Width.Normalize(),
	}
	s.panels = append(s.panels, panel)
	return panel, nil
}

// CloseTop removes the top panel. Returns false on an empty stack.
func (s *Stack) CloseTop() bool {
	if len(s.panels) == 0 {
		return false
	}
	s.panels = s.panels[:len(s.panels)-1]
	return true
}

// CloseAt removes the panel with the given id together with every panel
// opened after it. Returns false when the id is not present; the stack is
// left unchanged in that case.
func (s *Stack) CloseAt(id string) bool {
	for i, p := range s.panels {
		if p.ID == id {
			s.panels = s.panels[:i]
			return true
		}
	}
	return false
}

// CloseAll empties the stack unconditionally.
func (s *Stack) CloseAll() {
	s.panels = nil
}

// Len returns the number of open panels.
func (s *Stack) Len() int {
	return len(s.panels)
}

// Top returns the topmost panel.
func (s *Stack) Top() (Panel, bool) {
	if len(s.panels) == 0 {
		return Panel{}, false
	}
	return s.panels[len(s.panels)-1], true
}

// Panels returns a copy of the stack in open order.
func (s *Stack) Panels() []Panel {
	out := make([]Panel, len(s.panels))
	copy(out, s.panels)
	return out
}

// Frame is the render metadata for one panel.
type Frame struct {
	Panel Panel `json:"panel"`
	// ZIndex grows with open order so later panels stack on top.
	ZIndex int `json:"z_index"`
	// OffsetSteps is how far the panel shifts to suggest depth, counted from
	// the top of the stack and capped at maxOffsetDepth.
	OffsetSteps int `json:"offset_steps"`
	// Dismissible marks the only overlay that closes on backdrop click:
	// the topmost one. Lower overlays are inert.
	Dismissible bool `json:"dismissible"`
	// Widths are the resolved per-breakpoint widths.
	Widths WidthSpec `json:"widths"`
}

// Frames returns render metadata for every open panel, in open order.
func (s *Stack) Frames() []Frame {
	frames := make([]Frame, len(s.panels))
	top := len(s.panels) - 1
	for i, p := range s.panels {
		depth := top - i
		if depth > maxOffsetDepth {
			depth = maxOffsetDepth
		}
		frames[i] = Frame{
			Panel:       p,
			ZIndex:      10 + i,
			OffsetSteps: depth,
			Dismissible: i == top,
			Widths:      p.Width.Responsive(),
		}
	}
	return frames
}

// MarshalJSON serializes the stack as its panel list.
func (s Stack) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.panels)
}

// UnmarshalJSON restores a stack from a serialized panel list, enforcing the
// bound in case the stored payload predates it.
func (s *Stack) UnmarshalJSON(data []byte) error {
	var panels []Panel
	if err := json.Unmarshal(data, &panels); err != nil {
		return err
	}
	if len(panels) > MaxPanels {
		panels = panels[:MaxPanels]
	}
	s.panels = panels
	return nil
}
