package types

// AnchorSide is the screen edge the panel is attached to
type AnchorSide string

const (
	AnchorLeft  AnchorSide = "left"
	AnchorRight AnchorSide = "right"
)

// Valid reports whether s names a supported edge
func (s AnchorSide) Valid() bool {
	return s == AnchorLeft || s == AnchorRight
}

// ContextAction is the item chosen from an app's native context menu
type ContextAction string

const (
	ActionTogglePin  ContextAction = "toggle-pin"
	ActionOpenFolder ContextAction = "open-folder"
	ActionNone       ContextAction = "none"
)

// LauncherState is pushed to the frontend whenever the panel changes shape
type LauncherState struct {
	Expanded    bool       `json:"expanded"`
	PanelWidth  int        `json:"panelWidth"`
	Anchor      AnchorSide `json:"anchor"`
	ClearSearch bool       `json:"clearSearch"`
	PassThrough bool       `json:"passThrough"`
}
