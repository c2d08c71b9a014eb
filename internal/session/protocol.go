package session

import (
	"encoding/json"

	"github.com/codepanda/gestureimage/internal/area"
	"github.com/codepanda/gestureimage/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client to server
	TypeSurfaceInit  = "surface.init"
	TypeSurfaceReset = "surface.reset"
	TypeMapLoad      = "map.load"
	TypePointer      = "pointer"

	// Server to client
	TypeWelcome    = "welcome"
	TypeMatrix     = "matrix"
	TypeTap        = "tap"
	TypeRegionHit  = "region.hit"
	TypeMapLoaded  = "map.loaded"
	TypeMapUpdated = "map.updated"
	TypeError      = "error"
)

// InitPayload configures the surface. The content size comes from Content
// when set, otherwise from the stored asset, otherwise from the size
// recorded on Map. When Map is set its regions are loaded as well; an empty
// Map falls back to the server's default map.
type InitPayload struct {
	Viewport engine.Viewport `json:"viewport"`
	Content  *engine.Content `json:"content,omitempty"`
	AssetID  string          `json:"assetId,omitempty"`
	Map      string          `json:"map,omitempty"`
}

type MapLoadPayload struct {
	Name string `json:"name"`
}

type WelcomePayload struct {
	SessionID      string  `json:"sessionId"`
	ClickThreshold int     `json:"clickThreshold"`
	MinScale       float64 `json:"minScale"`
	MaxScale       float64 `json:"maxScale"`
}

// MatrixPayload carries the composed matrix both as the six affine values
// and in row-major 3x3 order, plus the state it was built from.
type MatrixPayload struct {
	Affine [6]float64   `json:"affine"`
	Values [9]float64   `json:"values"`
	State  engine.State `json:"state"`
}

type TapPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type RegionHitPayload struct {
	ID     int               `json:"id"`
	Symbol string            `json:"symbol,omitempty"`
	Name   string            `json:"name,omitempty"`
	Kind   area.Kind         `json:"kind"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

type MapLoadedPayload struct {
	Name    string      `json:"name"`
	Loaded  int         `json:"loaded"`
	Skipped []area.Skip `json:"skipped,omitempty"`
}

type MapUpdatedPayload struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Ref     string `json:"ref,omitempty"` // type of the message that failed
}
