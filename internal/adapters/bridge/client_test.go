package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/lumux/internal/domain"
)

const zoneID = "11111111-1111-1111-1111-111111111111"

type request struct {
	method string
	path   string
	key    string
	body   map[string]any
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]request) {
	t.Helper()
	var got []request
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := request{method: r.Method, path: r.URL.Path, key: r.Header.Get("hue-application-key")}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			if err := json.Unmarshal(data, &req.body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		got = append(got, req)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("unused", "app-key", nil, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	return c, &got
}

func TestApplicationID(t *testing.T) {
	c, got := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("hue-application-id", "3a2b-app")
	})

	id, err := c.ApplicationID(context.Background())
	if err != nil {
		t.Fatalf("ApplicationID: %v", err)
	}
	if id != "3a2b-app" {
		t.Errorf("id = %q", id)
	}
	want := []request{{method: http.MethodGet, path: "/auth/v1", key: "app-key"}}
	if diff := cmp.Diff(want, *got, cmp.AllowUnexported(request{})); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestApplicationIDMissingHeader(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := c.ApplicationID(context.Background()); err == nil {
		t.Error("expected error without header")
	}
}

func TestEntertainmentConfiguration(t *testing.T) {
	const body = `{
		"errors": [],
		"data": [{
			"id": "11111111-1111-1111-1111-111111111111",
			"metadata": {"name": "TV"},
			"channels": [
				{"channel_id": 0, "position": {"x": -0.8, "y": 0.1, "z": 0.2},
				 "members": [{"service": {"rid": "light-a", "rtype": "light"}}]},
				{"channel_id": 1,
				 "members": [{"service": {"rid": "ent-b", "rtype": "entertainment"}}]}
			]
		}]
	}`
	c, got := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})

	topo, err := c.EntertainmentConfiguration(context.Background(), zoneID)
	if err != nil {
		t.Fatalf("EntertainmentConfiguration: %v", err)
	}
	want := domain.Topology{
		ZoneID: zoneID,
		Name:   "TV",
		Channels: []domain.ChannelInfo{
			{ID: 0, Position: &domain.Position{X: -0.8, Y: 0.1, Z: 0.2}, MemberLightIDs: []string{"light-a"}},
			{ID: 1},
		},
	}
	if diff := cmp.Diff(want, topo); diff != "" {
		t.Errorf("topology mismatch (-want +got):\n%s", diff)
	}
	if p := (*got)[0].path; p != "/clip/v2/resource/entertainment_configuration/"+zoneID {
		t.Errorf("path = %q", p)
	}
}

func TestEntertainmentConfigurationRejectsBadID(t *testing.T) {
	c, got := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := c.EntertainmentConfiguration(context.Background(), "abc"); !errors.Is(err, domain.ErrInvalidZoneID) {
		t.Errorf("error = %v, want ErrInvalidZoneID", err)
	}
	if len(*got) != 0 {
		t.Errorf("request sent for invalid id")
	}
}

func TestEntertainmentConfigurationEmptyData(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"errors":[],"data":[]}`)
	})
	if _, err := c.EntertainmentConfiguration(context.Background(), zoneID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestStreamingActions(t *testing.T) {
	c, got := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"errors":[],"data":[{"rid":"x","rtype":"entertainment_configuration"}]}`)
	})

	if err := c.StartStreaming(context.Background(), zoneID); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	if err := c.StopStreaming(context.Background(), zoneID); err != nil {
		t.Fatalf("StopStreaming: %v", err)
	}

	path := "/clip/v2/resource/entertainment_configuration/" + zoneID
	want := []request{
		{method: http.MethodPut, path: path, key: "app-key", body: map[string]any{"action": "start"}},
		{method: http.MethodPut, path: path, key: "app-key", body: map[string]any{"action": "stop"}},
	}
	if diff := cmp.Diff(want, *got, cmp.AllowUnexported(request{})); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrAuth},
		{http.StatusForbidden, domain.ErrAuth},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusServiceUnavailable, domain.ErrBridgeUnavailable},
		{http.StatusInternalServerError, domain.ErrBridgeUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			err := c.StartStreaming(context.Background(), zoneID)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	err := c.StartStreaming(context.Background(), zoneID)
	if err == nil || errors.Is(err, domain.ErrAuth) || errors.Is(err, domain.ErrBridgeUnavailable) {
		t.Errorf("400 error = %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	c := NewClient("127.0.0.1:1", "k", nil, WithHTTPClient(&http.Client{Timeout: time.Second}))
	if err := c.StopStreaming(context.Background(), zoneID); !errors.Is(err, domain.ErrBridgeUnavailable) {
		t.Errorf("error = %v, want ErrBridgeUnavailable", err)
	}
}

func TestSetLightColor(t *testing.T) {
	c, got := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	color := domain.DeviceColor{XY: domain.XY{X: 0.5, Y: 0.4}, Brightness: 127}
	if err := c.SetLightColor(context.Background(), "light-a", color, 400*time.Millisecond); err != nil {
		t.Fatalf("SetLightColor: %v", err)
	}

	want := []request{{
		method: http.MethodPut,
		path:   "/clip/v2/resource/light/light-a",
		key:    "app-key",
		body: map[string]any{
			"on":       map[string]any{"on": true},
			"dimming":  map[string]any{"brightness": 50.0},
			"color":    map[string]any{"xy": map[string]any{"x": 0.5, "y": 0.4}},
			"dynamics": map[string]any{"duration": 400.0},
		},
	}}
	if diff := cmp.Diff(want, *got, cmp.AllowUnexported(request{})); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}
