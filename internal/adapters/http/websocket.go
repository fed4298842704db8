package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/nmacchitella/topoi/internal/core/domain"
	"github.com/nmacchitella/topoi/internal/core/usecases"
	"github.com/nmacchitella/topoi/internal/pkg/metrics"
)

// wsSurface implements ports.MapSurface over a WebSocket connection. Every
// marker operation becomes one JSON frame; a shared mutex serializes writes
// with the keep-alive pinger.
type wsSurface struct {
	mu   *sync.Mutex
	conn *websocket.Conn
}

func (s *wsSurface) send(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSurface) AddMarker(m domain.Marker, style domain.MarkerStyle) {
	metrics.MarkerOps.WithLabelValues("add").Inc()
	s.send(map[string]interface{}{
		"type": "add", "id": m.ID, "position": m.Position, "style": style,
	})
}

func (s *wsSurface) RemoveMarker(id string) {
	metrics.MarkerOps.WithLabelValues("remove").Inc()
	s.send(map[string]interface{}{"type": "remove", "id": id})
}

func (s *wsSurface) RestyleMarker(id string, selected bool, style domain.MarkerStyle) {
	metrics.MarkerOps.WithLabelValues("restyle").Inc()
	s.send(map[string]interface{}{
		"type": "restyle", "id": id, "selected": selected, "style": style,
	})
}

func (s *wsSurface) FitBounds(b domain.Bounds, paddingPx int) {
	metrics.MarkerOps.WithLabelValues("fit").Inc()
	s.send(map[string]interface{}{"type": "fit", "bounds": b, "padding": paddingPx})
}

// wsAction is a client-to-server message on the map session socket.
type wsAction struct {
	Action string `json:"action"`

	Bounds *domain.Bounds `json:"bounds,omitempty"` // ready, viewport
	Mode   string         `json:"mode,omitempty"`   // scope: "self" | "layers"; filter tag mode: "any" | "all"
	IDs    []string       `json:"ids,omitempty"`    // sources

	CollectionID string   `json:"collection_id,omitempty"` // filter
	TagIDs       []string `json:"tag_ids,omitempty"`       // filter
	Query        string   `json:"query,omitempty"`         // search
	PlaceID      string   `json:"place_id,omitempty"`      // click
}

// MapSessionHandler runs one map session per WebSocket connection. The
// client drives it with JSON actions (ready, viewport, scope, sources,
// filter, click, search, tags); marker diffs stream back as frames.
func MapSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		base := deps.Log
		if base == nil {
			base = slog.Default()
		}
		log := base.With("remote", c.RemoteAddr().String())
		log.Info("map session connected")
		metrics.ActiveSessions.Inc()
		defer metrics.ActiveSessions.Dec()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var writeMu sync.Mutex
		surface := &wsSurface{mu: &writeMu, conn: c}

		// Each connection gets its own layer caches; only the catalog and
		// the change feed are shared.
		layers := usecases.NewLayerService(deps.Directory, deps.SelfID)
		session := usecases.NewMapSession(ctx, layers, deps.Catalog, surface, deps.SelfID, 0, log)
		defer session.Close()

		if err := deps.Hub.Register(ctx, session, deps.SelfID); err != nil {
			log.Warn("change feed unavailable for session", "error", err)
		}
		defer deps.Hub.Unregister(session)

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					writeMu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					writeMu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		sendErr := func(msg string) {
			surface.send(map[string]string{"type": "error", "message": msg})
		}

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var a wsAction
			if err := json.Unmarshal(msg, &a); err != nil {
				sendErr("invalid JSON")
				continue
			}

			switch a.Action {
			case "ready":
				if a.Bounds == nil {
					sendErr("ready requires bounds")
					continue
				}
				session.MapReady(ctx, *a.Bounds)

			case "viewport":
				if a.Bounds == nil {
					sendErr("viewport requires bounds")
					continue
				}
				session.ObserveViewport(*a.Bounds)

			case "scope":
				mode := usecases.ScopeSelf
				if a.Mode == "layers" {
					mode = usecases.ScopeLayers
				}
				if err := session.SetScope(ctx, mode); err != nil {
					log.Warn("scope switch load failed", "error", err)
					sendErr("some layers failed to load")
				}

			case "sources":
				if err := deps.Hub.Watch(ctx, a.IDs...); err != nil {
					log.Warn("change feed watch failed", "error", err)
				}
				if err := session.SetSources(ctx, a.IDs); err != nil {
					log.Warn("source load failed", "error", err)
					sendErr("some layers failed to load")
				}

			case "filter":
				session.SetCollection(a.CollectionID)
				mode := usecases.TagMatchAny
				if a.Mode == "all" {
					mode = usecases.TagMatchAll
				}
				session.SetTagMode(mode)
				session.SetTags(a.TagIDs)

			case "click":
				session.Click(a.PlaceID)

			case "search":
				session.SetSearch(a.Query)

			case "tags":
				surface.send(map[string]interface{}{
					"type": "tags", "tags": session.UnifiedTags(),
				})

			default:
				sendErr("unknown action: " + a.Action)
			}
		}

		log.Info("map session disconnected")
	}
}
