package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
)

// ---- Fake map surface ----

type viewCall struct {
	center  domain.GeoPoint
	zoom    int
	animate bool
}

type fakeSurface struct {
	mu          sync.Mutex
	views       []viewCall
	fitBounds   []domain.Bounds
	invalidates int
	panelHides  int
	narrow      bool
	markers     []ports.Marker
	markerScans int
	menu        *domain.ContextMenuState
	menuHides   int
}

func (s *fakeSurface) SetView(center domain.GeoPoint, zoom int, animate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, viewCall{center: center, zoom: zoom, animate: animate})
}

func (s *fakeSurface) FitBounds(b domain.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitBounds = append(s.fitBounds, b)
}

func (s *fakeSurface) InvalidateSize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidates++
}

func (s *fakeSurface) Markers() []ports.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markerScans++
	return append([]ports.Marker(nil), s.markers...)
}

func (s *fakeSurface) ShowContextMenu(menu domain.ContextMenuState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu = &menu
}

func (s *fakeSurface) HideContextMenu() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu = nil
	s.menuHides++
}

func (s *fakeSurface) IsNarrow() bool { return s.narrow }

func (s *fakeSurface) HideListPanel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelHides++
}

func (s *fakeSurface) lastView() (viewCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.views) == 0 {
		return viewCall{}, false
	}
	return s.views[len(s.views)-1], true
}

// ---- Fake marker ----

type fakeMarker struct {
	id         string
	at         domain.GeoPoint
	visible    bool
	popupOpens int
}

func (m *fakeMarker) ID() string              { return m.id }
func (m *fakeMarker) LatLng() domain.GeoPoint { return m.at }
func (m *fakeMarker) Visible() bool           { return m.visible }
func (m *fakeMarker) OpenPopup()              { m.popupOpens++ }

// ---- Fake navigation state ----

type fakeNav struct {
	mu     sync.Mutex
	params map[string]string
}

func newFakeNav(params map[string]string) *fakeNav {
	if params == nil {
		params = make(map[string]string)
	}
	return &fakeNav{params: params}
}

func (n *fakeNav) Get(key string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.params[key]
}

func (n *fakeNav) Set(pairs map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for k, v := range pairs {
		n.params[k] = v
	}
}

func (n *fakeNav) Delete(keys ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, k := range keys {
		delete(n.params, k)
	}
}

// ---- Fake snapshot store ----

type fakeSnapshots struct {
	mu      sync.Mutex
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (s *fakeSnapshots) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.data, nil
}

func (s *fakeSnapshots) Save(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = append([]byte(nil), data...)
	return nil
}

var errNotFound = errors.New("not found")

// ---- Fake route planner ----

type fakePlanner struct {
	mu    sync.Mutex
	route *domain.WalkingRoute
	err   error
	calls int
}

func (p *fakePlanner) WalkingRoute(ctx context.Context, from, to domain.GeoPoint) (*domain.WalkingRoute, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	r := *p.route
	r.From = from
	r.To = to
	return &r, nil
}

// ---- Fake geocoder ----

type fakeGeocoder struct {
	match *domain.GeocodeMatch
	err   error
	calls int
}

func (g *fakeGeocoder) Geocode(ctx context.Context, query string) (*domain.GeocodeMatch, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.match, nil
}

// ---- Fake record repository ----

type fakeRecordRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.Record
	inBounds []domain.Record
	err      error
	deleted  []string
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{byID: make(map[string]*domain.Record)}
}

func (r *fakeRecordRepo) Create(ctx context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *rec
	r.byID[rec.ID] = &cp
	return nil
}

func (r *fakeRecordRepo) Update(ctx context.Context, rec *domain.Record) error {
	return r.Create(ctx, rec)
}

func (r *fakeRecordRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRecordRepo) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	rec, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRecordRepo) List(ctx context.Context, category string, limit, offset int) ([]domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Record
	for _, rec := range r.byID {
		if category == "" || rec.Category == category {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) ListInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return append([]domain.Record(nil), r.inBounds...), nil
}

// ---- Fake cache ----

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes []string
	sets    int
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errNotFound
	}
	c.hits++
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, key)
	delete(c.data, key)
	return nil
}

// ---- Fake event publisher ----

type fakePublisher struct {
	mu         sync.Mutex
	events     []*domain.RecordEvent
	broadcasts [][]byte
}

func (p *fakePublisher) PublishRecordEvent(ctx context.Context, ev *domain.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) PublishBroadcast(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcasts = append(p.broadcasts, data)
	return nil
}
