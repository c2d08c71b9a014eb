package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codepanda/gestureimage/internal/area"
	"github.com/codepanda/gestureimage/internal/engine"
	"github.com/codepanda/gestureimage/internal/mapfile"
	"github.com/codepanda/gestureimage/internal/store"
)

var ErrNoContentSize = errors.New("content size unknown: send content, assetId or a map with a size")

// ContentResolver looks up the intrinsic size of an uploaded image.
type ContentResolver func(assetID string) (engine.Content, error)

// Deps are the shared services a session reads from.
type Deps struct {
	Options engine.Options
	Repo    store.Repository
	IDs     *mapfile.IDRegistry
	Content ContentResolver

	// DefaultMap is loaded on surface.init when the client names no map.
	DefaultMap string
}

// Session drives one gesture surface for one connected client. It is not
// safe for concurrent use; the client's read loop owns it.
type Session struct {
	ID      string
	deps    Deps
	surface *engine.Surface
	send    func(*Message)
	seq     int64
	mapName string
}

func New(id string, deps Deps, send func(*Message)) *Session {
	s := &Session{
		ID:      id,
		deps:    deps,
		surface: engine.NewSurface(deps.Options),
		send:    send,
	}

	s.surface.OnMatrixChange(func(m engine.Matrix2D, st engine.State) {
		s.emit(TypeMatrix, MatrixPayload{Affine: [6]float64(m), Values: m.Values(), State: st})
	})
	s.surface.OnTap(func(x, y float64) {
		s.emit(TypeTap, TapPayload{X: x, Y: y})
	})
	s.surface.OnRegionHit(func(r area.Region) {
		p := RegionHitPayload{ID: r.ID, Name: r.Name, Kind: r.Shape.Kind(), Attrs: r.Attrs()}
		if deps.IDs != nil {
			p.Symbol, _ = deps.IDs.Name(r.ID)
		}
		slog.Debug("region hit", "session", s.ID, "region", r.ID, "map", s.mapName)
		s.emit(TypeRegionHit, p)
	})
	return s
}

// Surface exposes the underlying surface.
func (s *Session) Surface() *engine.Surface {
	return s.surface
}

// MapName returns the name of the loaded map, if any.
func (s *Session) MapName() string {
	return s.mapName
}

// Welcome greets the client with its session id and gesture limits.
func (s *Session) Welcome() {
	s.emit(TypeWelcome, WelcomePayload{
		SessionID:      s.ID,
		ClickThreshold: s.deps.Options.ClickThreshold,
		MinScale:       s.deps.Options.MinScale,
		MaxScale:       s.deps.Options.MaxScale,
	})
}

// Handle processes one client message. Failures are reported to the client
// as error messages.
func (s *Session) Handle(ctx context.Context, msg *Message) {
	var err error
	switch msg.Type {
	case TypePointer:
		var sample engine.Sample
		if err = json.Unmarshal(msg.Payload, &sample); err == nil {
			s.surface.Handle(sample)
		}

	case TypeSurfaceInit:
		var p InitPayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = s.init(ctx, p)
		}

	case TypeSurfaceReset:
		s.surface.Reset()

	case TypeMapLoad:
		var p MapLoadPayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			_, err = s.loadMap(ctx, p.Name)
		}

	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		slog.Warn("session message failed", "session", s.ID, "type", msg.Type, "error", err)
		s.emit(TypeError, ErrorPayload{Message: err.Error(), Ref: msg.Type})
	}
}

func (s *Session) init(ctx context.Context, p InitPayload) error {
	var m *store.Map
	switch {
	case p.Map != "":
		var err error
		if m, err = s.loadMap(ctx, p.Map); err != nil {
			return err
		}
	case s.deps.DefaultMap != "":
		var err error
		if m, err = s.loadMap(ctx, s.deps.DefaultMap); err != nil {
			slog.Warn("default map not loaded", "session", s.ID, "map", s.deps.DefaultMap, "error", err)
		}
	}

	var content engine.Content
	switch {
	case p.Content != nil:
		content = *p.Content
	case p.AssetID != "":
		if s.deps.Content == nil {
			return fmt.Errorf("asset lookup unavailable")
		}
		c, err := s.deps.Content(p.AssetID)
		if err != nil {
			return err
		}
		content = c
	case m != nil && m.Width > 0 && m.Height > 0:
		content = engine.Content{Width: m.Width, Height: m.Height}
	default:
		return ErrNoContentSize
	}

	if p.Viewport.Width <= 0 || p.Viewport.Height <= 0 || content.Width <= 0 || content.Height <= 0 {
		return fmt.Errorf("viewport %vx%v and content %vx%v must be positive",
			p.Viewport.Width, p.Viewport.Height, content.Width, content.Height)
	}
	s.surface.Initialize(p.Viewport, content)
	return nil
}

func (s *Session) loadMap(ctx context.Context, name string) (*store.Map, error) {
	if s.deps.Repo == nil {
		return nil, fmt.Errorf("no map store")
	}
	m, err := s.deps.Repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	report := s.surface.LoadRegions(m.Areas)
	s.mapName = m.Name
	slog.Info("map loaded", "session", s.ID, "map", m.Name, "regions", report.Loaded, "skipped", len(report.Skipped))
	s.emit(TypeMapLoaded, MapLoadedPayload{Name: m.Name, Loaded: report.Loaded, Skipped: report.Skipped})
	return m, nil
}

func (s *Session) emit(typ string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
		return
	}
	s.seq++
	s.send(&Message{Type: typ, SessionID: s.ID, Seq: s.seq, Payload: data})
}
