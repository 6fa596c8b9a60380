package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bher20/fxratemanager/internal/compare"
	"github.com/bher20/fxratemanager/internal/cron"
	"github.com/bher20/fxratemanager/internal/rates"
	"github.com/bher20/fxratemanager/internal/storage"
	"github.com/bher20/fxratemanager/pkg/providers"
	"github.com/bher20/fxratemanager/pkg/providers/bureaus"
)

func testDescriptors() []bureaus.Descriptor {
	q := func(buy, sell float64) bureaus.Quote { return bureaus.Quote{Buy: buy, Sell: sell} }
	return []bureaus.Descriptor{
		{Key: "ahlatci", Name: "Ahlatcı Döviz", Kind: bureaus.KindStatic, Group: providers.GroupFX,
			Quotes: map[string]bureaus.Quote{"USD": q(42.01, 42.20), "EUR": q(48.90, 49.20)}},
		{Key: "harem", Name: "Harem Altın", Kind: bureaus.KindStatic, Group: providers.GroupFX,
			Quotes: map[string]bureaus.Quote{"USD": q(42.00, 42.25)}},
		{Key: "hakan", Name: "Hakan Döviz", Kind: bureaus.KindStatic, Group: providers.GroupFX},
		{Key: "istanbul", Name: "İstanbul", Kind: bureaus.KindStatic, Group: providers.GroupGoldOunce,
			Quotes: map[string]bureaus.Quote{"XAU": q(2648.00, 2650.00)}},
		{Key: "london", Name: "London", Kind: bureaus.KindStatic, Group: providers.GroupGoldOunce,
			Quotes: map[string]bureaus.Quote{"XAU": q(2647.00, 2648.50)}},
	}
}

type fixture struct {
	svc    *rates.Service
	store  *storage.MemoryStorage
	hub    *Hub
	server *httptest.Server
}

func newFixture(t *testing.T, origins []string) *fixture {
	t.Helper()
	descs := testDescriptors()
	list, err := bureaus.Build(descs, bureaus.Env{})
	if err != nil {
		t.Fatalf("build bureaus: %v", err)
	}
	st := storage.NewMemoryWithBureaus(rates.StorageBureaus(descs))
	svc := rates.NewServiceWithStorage(rates.Config{CacheTTL: time.Minute}, list, st)
	hub := NewHub(svc.Current, origins)
	svc.OnSnapshot(hub.Broadcast)

	srv := httptest.NewServer(NewHandler(Deps{
		Service:     svc,
		Store:       st,
		Comparator:  compare.New(),
		Hub:         hub,
		CORSOrigins: origins,
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &fixture{svc: svc, store: st, hub: hub, server: srv}
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestAPI_Root(t *testing.T) {
	f := newFixture(t, nil)
	var msg MessageResponse
	resp := getJSON(t, f.server.URL+"/api/", &msg)
	if resp.StatusCode != http.StatusOK || msg.Message != "Currency Exchange Rate Comparison API" {
		t.Fatalf("unexpected banner %d %+v", resp.StatusCode, msg)
	}
	if resp := getJSON(t, f.server.URL+"/api/nope", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown api path status = %d", resp.StatusCode)
	}
}

func TestAPI_Rates(t *testing.T) {
	f := newFixture(t, nil)
	var snap rates.Snapshot
	resp := getJSON(t, f.server.URL+"/api/rates", &snap)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(snap.Sources) != 5 {
		t.Fatalf("expected 5 sources, got %d", len(snap.Sources))
	}
	wantOrder := []string{"Ahlatcı Döviz", "Harem Altın", "Hakan Döviz", "İstanbul", "London"}
	for i, s := range snap.Sources {
		if s.Source != wantOrder[i] {
			t.Errorf("source %d = %q, want %q", i, s.Source, wantOrder[i])
		}
	}
	if snap.Sources[2].Status != rates.StatusError {
		t.Errorf("bureau without quotes should be errored: %+v", snap.Sources[2])
	}
	if snap.Timestamp.IsZero() || snap.ID == "" {
		t.Errorf("snapshot missing id or timestamp")
	}

	// Served from cache the second time.
	var again rates.Snapshot
	getJSON(t, f.server.URL+"/api/rates", &again)
	if again.ID != snap.ID {
		t.Errorf("expected cached snapshot %s, got %s", snap.ID, again.ID)
	}

	var refreshed rates.Snapshot
	getJSON(t, f.server.URL+"/api/rates/refresh", &refreshed)
	if refreshed.ID == snap.ID {
		t.Errorf("refresh should collect a new snapshot")
	}
}

func TestAPI_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := http.Post(f.server.URL+"/api/rates", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
	if resp.Header.Get("Allow") == "" {
		t.Errorf("missing Allow header")
	}
}

func TestAPI_Compare(t *testing.T) {
	f := newFixture(t, nil)
	var v compare.View
	resp := getJSON(t, f.server.URL+"/api/compare", &v)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(v.Rows) != 3 {
		t.Fatalf("expected 3 fx rows, got %d", len(v.Rows))
	}
	if !v.Rows[1].Cells[rates.USD].BestBuy {
		t.Errorf("Harem USD buy should be best")
	}
	if v.GoldStatus != "ok" || v.Gold == nil || v.Gold.SellDiffText != "+1.50" {
		t.Errorf("unexpected gold section %q %+v", v.GoldStatus, v.Gold)
	}
}

func TestAPI_BureausAndStatus(t *testing.T) {
	f := newFixture(t, nil)
	var list []BureauDTO
	getJSON(t, f.server.URL+"/api/bureaus", &list)
	if len(list) != 5 || list[0].Key != "ahlatci" || list[4].Group != "gold-ounce" {
		t.Fatalf("unexpected bureaus %+v", list)
	}

	ctx := context.Background()
	f.store.SetSetting(ctx, cron.IntervalSetting, "30")
	f.store.UpdateScheduledJob(ctx, cron.JobName, time.Now(), time.Second, true, "")
	if _, err := f.svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	var st StatusResponse
	getJSON(t, f.server.URL+"/api/status", &st)
	if st.Bureaus != 5 || st.SnapshotID == "" || st.RefreshInterval != "30" {
		t.Errorf("unexpected status %+v", st)
	}
	if st.Job == nil || st.Job.Name != cron.JobName {
		t.Errorf("expected job state, got %+v", st.Job)
	}
}

func TestAPI_HealthAndRedirect(t *testing.T) {
	f := newFixture(t, nil)
	for _, p := range []string{"/healthz", "/livez", "/readyz"} {
		if resp := getJSON(t, f.server.URL+p, nil); resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", p, resp.StatusCode)
		}
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(f.server.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/ui/" {
		t.Errorf("expected redirect to /ui/, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestAPI_CORS(t *testing.T) {
	f := newFixture(t, []string{"https://rates.example"})

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/api/", nil)
	req.Header.Set("Origin", "https://rates.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://rates.example" {
		t.Errorf("allow-origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, f.server.URL+"/api/rates", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got allow-origin %q", got)
	}
}

func TestAPI_Stream(t *testing.T) {
	f := newFixture(t, []string{"*"})
	ctx := context.Background()
	first, err := f.svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/rates/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var got rates.Snapshot
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("initial snapshot = %s, want %s", got.ID, first.ID)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	second, err := f.svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read pushed snapshot: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("pushed snapshot = %s, want %s", got.ID, second.ID)
	}
}

func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPI_RefreshIntervalSetting(t *testing.T) {
	f := newFixture(t, nil)
	url := f.server.URL + "/api/settings/refresh_interval"

	resp := doRequest(t, http.MethodPut, url, `{"value":"*/5 * * * *"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}
	if val, _ := f.store.GetSetting(context.Background(), cron.IntervalSetting); val != "*/5 * * * *" {
		t.Errorf("stored setting = %q", val)
	}

	var got SettingDTO
	getJSON(t, url, &got)
	if got.Key != cron.IntervalSetting || got.Value != "*/5 * * * *" {
		t.Errorf("GET = %+v", got)
	}

	if resp := doRequest(t, http.MethodPut, url, `{"value":"soon"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid interval: status = %d", resp.StatusCode)
	}
	if resp := doRequest(t, http.MethodPut, url, `not json`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body: status = %d", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodDelete, url, "")
	if resp.StatusCode != http.StatusMethodNotAllowed || resp.Header.Get("Allow") != "GET, PUT" {
		t.Errorf("DELETE: status = %d allow = %q", resp.StatusCode, resp.Header.Get("Allow"))
	}
}
