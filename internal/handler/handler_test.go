package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zonemap/zonemap/internal/auth"
	"github.com/zonemap/zonemap/internal/handler/dto"
	"github.com/zonemap/zonemap/internal/model"
	"github.com/zonemap/zonemap/internal/reconcile"
	"github.com/zonemap/zonemap/internal/repository"
	"github.com/zonemap/zonemap/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMapStore backs MapService with in-memory state.
type fakeMapStore struct {
	mu       sync.Mutex
	nextID   int64
	maps     map[int64]*model.Map
	pkg      *model.Package
	quotaErr *repository.QuotaExceededError
}

func newFakeMapStore() *fakeMapStore {
	return &fakeMapStore{
		nextID: 1,
		maps:   make(map[int64]*model.Map),
		pkg:    model.DefaultPackage(),
	}
}

func (f *fakeMapStore) MapCodeExists(context.Context, string) (bool, error) { return false, nil }

func (f *fakeMapStore) CreateMap(_ context.Context, m *model.Map, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quotaErr != nil {
		return f.quotaErr
	}
	m.ID = f.nextID
	f.nextID++
	f.maps[m.ID] = m
	return nil
}

func (f *fakeMapStore) GetMapByID(_ context.Context, id int64) (*model.Map, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.maps[id]
	if !ok {
		return nil, repository.ErrMapNotFound
	}
	return m, nil
}

func (f *fakeMapStore) GetMapByCode(context.Context, string) (*model.Map, error) {
	return nil, repository.ErrMapNotFound
}

func (f *fakeMapStore) ListMapsForCustomer(_ context.Context, customerID int64) ([]*model.Map, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var maps []*model.Map
	for _, m := range f.maps {
		if m.OwnerID == customerID {
			maps = append(maps, m)
		}
	}
	return maps, nil
}

func (f *fakeMapStore) UpdateMap(context.Context, *model.Map, int64) error { return nil }

func (f *fakeMapStore) DeleteMap(context.Context, int64, int64) error { return nil }

func (f *fakeMapStore) GetPackageForCustomer(context.Context, int64) (*model.Package, error) {
	return f.pkg, nil
}

// nullMapCache is a MapCache that never hits.
type nullMapCache struct{}

func (nullMapCache) GetMap(context.Context, string) (*model.CachedMap, error) {
	return nil, repository.ErrMapNotFound
}
func (nullMapCache) SetMap(context.Context, string, *model.Map) error { return nil }

func (nullMapCache) DeleteMap(context.Context, string) error { return nil }
func (nullMapCache) IsNegativelyCached(context.Context, string) (bool, error) {
	return false, nil
}
func (nullMapCache) SetNegativeCache(context.Context, string) error { return nil }

// fakeZoneStore rejects zones whose name is in rejectNames.
type fakeZoneStore struct {
	mu          sync.Mutex
	zones       map[string]*model.Zone
	rejectNames map[string]bool
}

func newFakeZoneStore() *fakeZoneStore {
	return &fakeZoneStore{zones: make(map[string]*model.Zone)}
}

func (f *fakeZoneStore) CreateZone(_ context.Context, zone *model.Zone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectNames[zone.Name] {
		return repository.ErrMapNotFound
	}
	f.zones[zone.ID] = zone
	return nil
}

func (f *fakeZoneStore) ListZonesForMap(_ context.Context, mapID int64) ([]*model.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zones []*model.Zone
	for _, z := range f.zones {
		if z.MapID == mapID {
			zones = append(zones, z)
		}
	}
	return zones, nil
}

func (f *fakeZoneStore) DeleteZone(_ context.Context, _ int64, zoneID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.zones[zoneID]; !ok {
		return repository.ErrZoneNotFound
	}
	delete(f.zones, zoneID)
	return nil
}

func withPrincipal(r *http.Request, p *model.Principal) *http.Request {
	return r.WithContext(auth.ContextWithPrincipal(r.Context(), p))
}

func customerPrincipal(id int64) *model.Principal {
	return &model.Principal{Realm: model.RealmCustomer, ID: id, Email: "c@example.com"}
}

func TestHandler_NotFound(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	New().NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if resp.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", resp.Code)
	}
}

// acceptAllCustomerStore accepts every registration.
type acceptAllCustomerStore struct{}

func (acceptAllCustomerStore) CreateCustomer(_ context.Context, c *model.Customer) error {
	c.ID = 1
	return nil
}

func TestAuthHandler_RegisterShortPassword(t *testing.T) {
	t.Parallel()

	registry := service.NewRegistrationService(acceptAllCustomerStore{}, testLogger())
	h := NewAuthHandler(nil, nil, registry, testLogger())

	body := strings.NewReader(`{"email":"new@example.com","password":"seven77"}`)
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if resp.Code != "PASSWORD_TOO_SHORT" {
		t.Errorf("code = %q, want PASSWORD_TOO_SHORT", resp.Code)
	}
}

func TestMapHandler_CreateQuotaDenied(t *testing.T) {
	t.Parallel()

	store := newFakeMapStore()
	store.quotaErr = &repository.QuotaExceededError{Current: 1, Limit: 1}
	svc := service.NewMapService(store, nullMapCache{}, "https://zonemap.test", nil)
	h := NewMapHandler(svc, testLogger())

	body := strings.NewReader(`{"title":"Berlin districts","lat":52.5,"lng":13.4,"zoom":11}`)
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/map", body), customerPrincipal(1))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	var resp dto.QuotaExceededResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if resp.Code != "QUOTA_EXCEEDED" {
		t.Errorf("code = %q, want QUOTA_EXCEEDED", resp.Code)
	}
	if resp.Current != 1 || resp.Limit != 1 {
		t.Errorf("current/limit = %d/%d, want 1/1", resp.Current, resp.Limit)
	}
}

func TestMapHandler_CreateMissingTitle(t *testing.T) {
	t.Parallel()

	svc := service.NewMapService(newFakeMapStore(), nullMapCache{}, "https://zonemap.test", nil)
	h := NewMapHandler(svc, testLogger())

	body := strings.NewReader(`{"title":"  ","lat":52.5,"lng":13.4}`)
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/map", body), customerPrincipal(1))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMapHandler_CreateSuccess(t *testing.T) {
	t.Parallel()

	svc := service.NewMapService(newFakeMapStore(), nullMapCache{}, "https://zonemap.test", nil)
	h := NewMapHandler(svc, testLogger())

	body := strings.NewReader(`{"title":"Berlin districts","lat":52.5,"lng":13.4,"zoom":11}`)
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/map", body), customerPrincipal(1))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp dto.MapResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if !service.MapCodeRegex.MatchString(resp.MapCode) {
		t.Errorf("map code %q has wrong shape", resp.MapCode)
	}
	if resp.ShareURL != "https://zonemap.test/m/"+resp.MapCode {
		t.Errorf("share url = %q", resp.ShareURL)
	}
}

func TestZoneHandler_BatchFlushPartial(t *testing.T) {
	t.Parallel()

	mapStore := newFakeMapStore()
	mapSvc := service.NewMapService(mapStore, nullMapCache{}, "https://zonemap.test", nil)

	owner := customerPrincipal(1)
	created, err := mapSvc.CreateMap(context.Background(), service.CreateMapInput{
		OwnerID: owner.ID, Title: "t", Zoom: 5,
	})
	if err != nil {
		t.Fatalf("CreateMap() error = %v", err)
	}

	zoneStore := newFakeZoneStore()
	zoneStore.rejectNames = map[string]bool{"bad": true}
	zoneSvc := service.NewZoneService(zoneStore, nil)
	reconciler := reconcile.New(zoneSvc, testLogger())
	h := NewZoneHandler(zoneSvc, mapSvc, reconciler, testLogger())

	payload := `[
		{"id":"z1","map_id":` + itoa(created.ID) + `,"name":"good","points":[{"lat":1,"lng":1},{"lat":2,"lng":2},{"lat":3,"lng":3}]},
		{"id":"z2","map_id":` + itoa(created.ID) + `,"name":"bad","points":[{"lat":1,"lng":1},{"lat":2,"lng":2},{"lat":3,"lng":3}]}
	]`
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/db/tables/zones", strings.NewReader(payload)), owner)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207", rec.Code)
	}

	var resp dto.FlushResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if resp.CommittedCount != 1 {
		t.Errorf("committed_count = %d, want 1", resp.CommittedCount)
	}
	if len(resp.FailedZones) != 1 || resp.FailedZones[0].Zone.ID != "z2" {
		t.Errorf("failed_zones = %+v, want z2 only", resp.FailedZones)
	}
}

func TestZoneHandler_ForbiddenForOtherCustomer(t *testing.T) {
	t.Parallel()

	mapStore := newFakeMapStore()
	mapSvc := service.NewMapService(mapStore, nullMapCache{}, "https://zonemap.test", nil)
	created, err := mapSvc.CreateMap(context.Background(), service.CreateMapInput{
		OwnerID: 1, Title: "t", Zoom: 5,
	})
	if err != nil {
		t.Fatalf("CreateMap() error = %v", err)
	}

	zoneSvc := service.NewZoneService(newFakeZoneStore(), nil)
	h := NewZoneHandler(zoneSvc, mapSvc, reconcile.New(zoneSvc, testLogger()), testLogger())

	router := chi.NewRouter()
	router.Get("/api/map/{id}/zones", h.List)

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/api/map/"+itoa(created.ID)+"/zones", nil), customerPrincipal(99))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func itoa(n int64) string {
	var buf [20]byte
	i := len(buf)
	if n == 0 {
		return "0"
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
