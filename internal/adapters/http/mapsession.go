package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/websocket/v2"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/core/usecases"
)

// The session protocol. The browser is a thin surface: it forwards
// normalized input events and mirrors of its marker list and query
// parameters, and executes the imperative commands it receives back.
// Mirroring keeps Markers() and NavState.Get synchronous on this side.

// sessionInbound is every message a map client can send.
type sessionInbound struct {
	Type string `json:"type"` // "hello" | "input" | "markers" | "nav" | "planRoute" | "clearRoute" | "search"

	// hello
	Narrow bool `json:"narrow,omitempty"`

	// input
	Event *domain.InputEvent `json:"event,omitempty"`

	// markers mirror
	Markers []markerMirror `json:"markers,omitempty"`

	// nav mirror (full replacement)
	Params map[string]string `json:"params,omitempty"`

	// planRoute
	From      *domain.GeoPoint `json:"from,omitempty"`
	To        *domain.GeoPoint `json:"to,omitempty"`
	FromLabel string           `json:"from_label,omitempty"`
	ToLabel   string           `json:"to_label,omitempty"`

	// search
	Query string `json:"query,omitempty"`
}

type markerMirror struct {
	ID      string  `json:"id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Visible bool    `json:"visible"`
}

// sessionCommand is every message the server pushes to a map client.
type sessionCommand struct {
	Cmd     string                   `json:"cmd"`
	Lat     float64                  `json:"lat,omitempty"`
	Lng     float64                  `json:"lng,omitempty"`
	Zoom    int                      `json:"zoom,omitempty"`
	Animate bool                     `json:"animate,omitempty"`
	Bounds  *domain.Bounds           `json:"bounds,omitempty"`
	Menu    *domain.ContextMenuState `json:"menu,omitempty"`
	ID      string                   `json:"id,omitempty"`
	Set     map[string]string        `json:"set,omitempty"`
	Delete  []string                 `json:"delete,omitempty"`
	Route   *domain.WalkingRoute     `json:"route,omitempty"`
	Match   *domain.GeocodeMatch     `json:"match,omitempty"`
	Notice  string                   `json:"notice,omitempty"`
}

// sessionConn serializes writes to one WebSocket.
type sessionConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *sessionConn) send(cmd sessionCommand) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.TextMessage, data)
}

// wsMarker is one mirrored client marker.
type wsMarker struct {
	conn    *sessionConn
	id      string
	at      domain.GeoPoint
	visible bool
}

func (m *wsMarker) ID() string              { return m.id }
func (m *wsMarker) LatLng() domain.GeoPoint { return m.at }
func (m *wsMarker) Visible() bool           { return m.visible }
func (m *wsMarker) OpenPopup()              { m.conn.send(sessionCommand{Cmd: "openPopup", ID: m.id}) }

// wsSurface implements ports.MapSurface over the session connection.
type wsSurface struct {
	conn *sessionConn

	mu      sync.Mutex
	markers []ports.Marker
	narrow  bool
}

func (s *wsSurface) SetView(center domain.GeoPoint, zoom int, animate bool) {
	s.conn.send(sessionCommand{Cmd: "setView", Lat: center.Lat, Lng: center.Lng, Zoom: zoom, Animate: animate})
}

func (s *wsSurface) FitBounds(b domain.Bounds) {
	s.conn.send(sessionCommand{Cmd: "fitBounds", Bounds: &b})
}

func (s *wsSurface) InvalidateSize() {
	s.conn.send(sessionCommand{Cmd: "invalidateSize"})
}

func (s *wsSurface) Markers() []ports.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Marker(nil), s.markers...)
}

func (s *wsSurface) ShowContextMenu(menu domain.ContextMenuState) {
	s.conn.send(sessionCommand{Cmd: "showMenu", Menu: &menu})
}

func (s *wsSurface) HideContextMenu() {
	s.conn.send(sessionCommand{Cmd: "hideMenu"})
}

func (s *wsSurface) IsNarrow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.narrow
}

func (s *wsSurface) HideListPanel() {
	s.conn.send(sessionCommand{Cmd: "hidePanel"})
}

func (s *wsSurface) setMarkers(mirror []markerMirror) {
	markers := make([]ports.Marker, 0, len(mirror))
	for _, m := range mirror {
		markers = append(markers, &wsMarker{
			conn:    s.conn,
			id:      m.ID,
			at:      domain.GeoPoint{Lat: m.Lat, Lng: m.Lng},
			visible: m.Visible,
		})
	}
	s.mu.Lock()
	s.markers = markers
	s.mu.Unlock()
}

// wsNav implements ports.NavState. Reads come from the client mirror;
// writes go back as setQuery commands and update the mirror eagerly so a
// Set followed by a Get observes the new value.
type wsNav struct {
	conn *sessionConn

	mu     sync.Mutex
	params map[string]string
}

func newWSNav(conn *sessionConn) *wsNav {
	return &wsNav{conn: conn, params: make(map[string]string)}
}

func (n *wsNav) Get(key string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.params[key]
}

func (n *wsNav) Set(pairs map[string]string) {
	n.mu.Lock()
	for k, v := range pairs {
		n.params[k] = v
	}
	n.mu.Unlock()
	n.conn.send(sessionCommand{Cmd: "setQuery", Set: pairs})
}

func (n *wsNav) Delete(keys ...string) {
	n.mu.Lock()
	for _, k := range keys {
		delete(n.params, k)
	}
	n.mu.Unlock()
	n.conn.send(sessionCommand{Cmd: "setQuery", Delete: keys})
}

func (n *wsNav) replace(params map[string]string) {
	if params == nil {
		params = make(map[string]string)
	}
	n.mu.Lock()
	n.params = params
	n.mu.Unlock()
}

// MapSessionHandler upgrades to WebSocket and runs one interaction core
// per connection. The first message must be "hello" carrying the initial
// marker and query-parameter mirrors.
func MapSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		conn := &sessionConn{conn: c}
		surface := &wsSurface{conn: conn}
		nav := newWSNav(conn)

		userKey := c.Query("uid")
		if userKey == "" {
			userKey = c.RemoteAddr().String()
		}
		snaps := deps.Snapshots(userKey)

		log := slog.Default().With("map_session", userKey)
		session := usecases.NewMapSession(deps.Clock, surface, nav, snaps,
			deps.Planner, deps.Geocoder, deps.Session, log)
		defer session.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		started := false
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var msg sessionInbound
			if err := json.Unmarshal(raw, &msg); err != nil {
				conn.send(sessionCommand{Cmd: "notice", Notice: "invalid message"})
				continue
			}

			switch msg.Type {
			case "hello":
				surface.mu.Lock()
				surface.narrow = msg.Narrow
				surface.mu.Unlock()
				surface.setMarkers(msg.Markers)
				nav.replace(msg.Params)
				if !started {
					started = true
					session.Start(ctx)
				}

			case "input":
				if !started || msg.Event == nil {
					continue
				}
				session.Handle(ctx, *msg.Event)

			case "markers":
				surface.setMarkers(msg.Markers)

			case "nav":
				nav.replace(msg.Params)

			case "planRoute":
				if msg.From == nil || msg.To == nil {
					conn.send(sessionCommand{Cmd: "notice", Notice: "planRoute needs from and to"})
					continue
				}
				route, err := session.Routes.Plan(ctx, *msg.From, *msg.To, msg.FromLabel, msg.ToLabel)
				if err != nil {
					conn.send(sessionCommand{Cmd: "notice", Notice: session.Routes.Message()})
					continue
				}
				conn.send(sessionCommand{Cmd: "route", Route: route})

			case "clearRoute":
				session.Routes.Clear()
				conn.send(sessionCommand{Cmd: "route"})

			case "search":
				match := session.Locate(ctx, msg.Query)
				if match == nil {
					conn.send(sessionCommand{Cmd: "notice", Notice: session.Search.Message()})
					continue
				}
				conn.send(sessionCommand{Cmd: "searchResult", Match: match})

			default:
				conn.send(sessionCommand{Cmd: "notice", Notice: "unknown message type: " + msg.Type})
			}
		}

		log.Debug("map session closed")
	}
}
