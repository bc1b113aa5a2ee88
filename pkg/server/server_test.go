package server

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/rrr.go/pkg/api"
	"github.com/robotalks/rrr.go/pkg/command"
	"github.com/robotalks/rrr.go/pkg/credentials"
	"github.com/robotalks/rrr.go/pkg/hal"
	"github.com/robotalks/rrr.go/pkg/hal/sim"
	"github.com/robotalks/rrr.go/pkg/nvs"
	"github.com/robotalks/rrr.go/pkg/state"
)

type brokenMedium struct {
	*nvs.MemStore
}

func (m *brokenMedium) Remove(key string) error {
	return &nvs.StorageError{Op: "remove", Key: key, Err: nvs.ErrCorrupt}
}

type fixture struct {
	indicator *sim.Indicator
	store     *state.Store
	creds     *credentials.Store
	server    *Server
	http      *httptest.Server
}

func newFixture(t *testing.T, medium nvs.Store) *fixture {
	if medium == nil {
		medium = nvs.NewMemStore()
	}
	f := &fixture{
		indicator: &sim.Indicator{},
		store:     state.New(),
		creds:     credentials.NewStore(medium),
	}
	indicator := hal.GuardIndicator(f.indicator)
	f.server = &Server{
		Store:     f.store,
		Indicator: indicator,
		Dispatcher: &command.Dispatcher{
			Indicator:   indicator,
			Actuator:    hal.GuardActuator(&sim.Actuator{}),
			Credentials: f.creds,
			Store:       f.store,
		},
		StreamInterval: time.Hour,
	}
	f.http = httptest.NewServer(f.server.Handler())
	t.Cleanup(f.http.Close)
	return f
}

func (f *fixture) post(t *testing.T, body string) (int, api.CommandResult) {
	resp, err := http.Post(f.http.URL+"/command", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	var res api.CommandResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp.StatusCode, res
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	data, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestGetDefaultState(t *testing.T) {
	f := newFixture(t, nil)
	status, body := f.get(t, "/state")
	require.Equal(t, http.StatusOK, status)
	var st api.State
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.Equal(t, api.BatteryState{}, st.Battery)
	assert.Equal(t, api.AccessPointActive, st.WifiState.ConnectionType)
	assert.Contains(t, body, `"connection_type":"AccessPointActive"`)
}

func TestPostSetLedColor(t *testing.T) {
	f := newFixture(t, nil)
	status, res := f.post(t, `{"SetLedColor":{"r":0,"g":20,"b":0}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, sim.Color{G: 20}, f.indicator.Color())
}

func TestPostSetWifiThenResetNvs(t *testing.T) {
	f := newFixture(t, nil)
	status, _ := f.post(t, `{"SetWifi":{"ssid":"net2","password":"abcdefgh"}}`)
	require.Equal(t, http.StatusOK, status)
	status, _ = f.post(t, `"ResetNvs"`)
	require.Equal(t, http.StatusOK, status)
	_, ok, err := f.creds.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostClientErrors(t *testing.T) {
	f := newFixture(t, nil)
	for _, body := range []string{`{"Launch":null}`, `not json`, `{"SetPwmDutyCycle":{"duty_cycle":2}}`} {
		status, res := f.post(t, body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.NotEmpty(t, res.Error, body)
		assert.NotEmpty(t, res.ID, body)
	}
	assert.Empty(t, f.indicator.History())

	status, _ := f.get(t, "/state")
	assert.Equal(t, http.StatusOK, status)
}

func TestPostStorageFailure(t *testing.T) {
	medium := &brokenMedium{MemStore: nvs.NewMemStore()}
	require.NoError(t, medium.MemStore.Set("wifi.ssid", "net1"))
	f := newFixture(t, medium)
	status, res := f.post(t, `"ResetNvs"`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "ResetNvs", res.Command)
	assert.Contains(t, res.Error, "storage")
}

func TestWrongMethod(t *testing.T) {
	f := newFixture(t, nil)
	status, _ := f.get(t, "/command")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestPreflight(t *testing.T) {
	f := newFixture(t, nil)
	req, err := http.NewRequest(http.MethodOptions, f.http.URL+"/command", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestPanicRecovered(t *testing.T) {
	srv := &Server{Store: state.New()}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	resp, err := http.Post(ts.URL+"/command", "application/json", strings.NewReader(`"Reset"`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLegacyRoutes(t *testing.T) {
	f := newFixture(t, nil)
	cases := []struct {
		path  string
		text  string
		color sim.Color
	}{
		{"/red", "RED", sim.Color{R: 20}},
		{"/green", "GREEN", sim.Color{G: 20}},
		{"/blue", "BLUE", sim.Color{B: 20}},
		{"/off", "OFF", sim.Color{}},
	}
	for _, c := range cases {
		status, body := f.get(t, c.path)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, c.text, body)
		assert.Equal(t, c.color, f.indicator.Color())
	}

	f.store.UpdateBattery(func(b *api.BatteryState) {
		b.SOC, b.Voltage, b.ChargeRate = 0.5, 3.7, -1.25
	})
	_, body := f.get(t, "/batt")
	assert.Equal(t, "Battery charge: 0.50%, voltage: 3.70, discharge rate: -1.25", body)
}

func TestStateStream(t *testing.T) {
	f := newFixture(t, nil)
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/state/stream"
	conn, err := websocket.Dial(url, "", "http://example.com")
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	var st api.State
	require.NoError(t, websocket.JSON.Receive(conn, &st))
	assert.Equal(t, api.State{}, st)

	f.store.UpdateBattery(func(b *api.BatteryState) { b.SOC = 0.75 })
	require.NoError(t, websocket.JSON.Receive(conn, &st))
	assert.Equal(t, float32(0.75), st.Battery.SOC)
}

func TestRun(t *testing.T) {
	f := newFixture(t, nil)
	f.server.Addr = "127.0.0.1:0"
	addr, err := f.server.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Run(ctx) }()

	resp, err := http.Get("http://" + addr.String() + "/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.Equal(t, context.Canceled, <-done)
}
