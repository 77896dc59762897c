// Package bridge is a client for the bridge's CLIP v2 REST API covering the
// calls needed around a streaming session: application id lookup,
// entertainment configuration fetch, streaming activation and light state.
package bridge

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/bft-labs/lumux/internal/adapters/log"
	"github.com/bft-labs/lumux/internal/domain"
	"github.com/bft-labs/lumux/internal/ports"
)

const (
	authEndpoint          = "/auth/v1"
	entertainmentEndpoint = "/clip/v2/resource/entertainment_configuration/"
	lightEndpoint         = "/clip/v2/resource/light/"

	appKeyHeader = "hue-application-key"
	appIDHeader  = "hue-application-id"
)

// Client implements ports.BridgeAPI and ports.LightController.
type Client struct {
	baseURL string
	appKey  string
	client  ports.HTTPClient
	logger  ports.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default insecure HTTPS client.
func WithHTTPClient(c ports.HTTPClient) Option {
	return func(cl *Client) {
		if c != nil {
			cl.client = c
		}
	}
}

// WithBaseURL overrides the URL derived from the bridge address.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(u, "/")
	}
}

// NewClient creates a client for the bridge at address using appKey.
func NewClient(address, appKey string, logger ports.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: "https://" + address,
		appKey:  appKey,
		client:  DefaultHTTPClient(),
		logger:  log.OrNoop(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultHTTPClient returns a client that accepts the bridge's self-signed
// certificate.
func DefaultHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // bridge certificates are self-signed
	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Second,
	}
}

// ApplicationID returns the id the bridge assigned to the application key.
// It is the PSK identity of the streaming handshake.
func (c *Client) ApplicationID(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, authEndpoint, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	id := resp.Header.Get(appIDHeader)
	if id == "" {
		return "", fmt.Errorf("response has no %s header", appIDHeader)
	}
	return id, nil
}

type clipResponse[T any] struct {
	Errors []clipError `json:"errors"`
	Data   []T         `json:"data"`
}

type clipError struct {
	Description string `json:"description"`
}

type entertainmentConfiguration struct {
	ID       string `json:"id"`
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Channels []struct {
		ChannelID int `json:"channel_id"`
		Position  *struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"position"`
		Members []struct {
			Service struct {
				RID   string `json:"rid"`
				RType string `json:"rtype"`
			} `json:"service"`
		} `json:"members"`
	} `json:"channels"`
}

// EntertainmentConfiguration fetches the channels of a zone.
func (c *Client) EntertainmentConfiguration(ctx context.Context, zoneID string) (domain.Topology, error) {
	if err := domain.ValidateZoneID(zoneID); err != nil {
		return domain.Topology{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, entertainmentEndpoint+zoneID, nil)
	if err != nil {
		return domain.Topology{}, err
	}
	defer resp.Body.Close()

	var body clipResponse[entertainmentConfiguration]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Topology{}, fmt.Errorf("decode entertainment configuration: %w", err)
	}
	if len(body.Errors) > 0 {
		return domain.Topology{}, fmt.Errorf("bridge error: %s", body.Errors[0].Description)
	}
	if len(body.Data) == 0 {
		return domain.Topology{}, fmt.Errorf("entertainment configuration %s: %w", zoneID, domain.ErrNotFound)
	}

	cfg := body.Data[0]
	topo := domain.Topology{ZoneID: zoneID, Name: cfg.Metadata.Name}
	for _, ch := range cfg.Channels {
		if ch.ChannelID < 0 || ch.ChannelID > math.MaxUint8 {
			c.logger.Warn("ignoring channel with out of range id", ports.Int("channel_id", ch.ChannelID))
			continue
		}
		info := domain.ChannelInfo{ID: uint8(ch.ChannelID)}
		if ch.Position != nil {
			info.Position = &domain.Position{X: ch.Position.X, Y: ch.Position.Y, Z: ch.Position.Z}
		}
		for _, m := range ch.Members {
			if m.Service.RType == "light" && m.Service.RID != "" {
				info.MemberLightIDs = append(info.MemberLightIDs, m.Service.RID)
			}
		}
		topo.Channels = append(topo.Channels, info)
	}
	return topo, nil
}

// StartStreaming claims the zone for streaming.
func (c *Client) StartStreaming(ctx context.Context, zoneID string) error {
	return c.setAction(ctx, zoneID, "start")
}

// StopStreaming releases the zone.
func (c *Client) StopStreaming(ctx context.Context, zoneID string) error {
	return c.setAction(ctx, zoneID, "stop")
}

func (c *Client) setAction(ctx context.Context, zoneID, action string) error {
	resp, err := c.do(ctx, http.MethodPut, entertainmentEndpoint+zoneID, map[string]string{"action": action})
	if err != nil {
		return fmt.Errorf("%s streaming: %w", action, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("entertainment configuration action",
		ports.String("zone", zoneID),
		ports.String("action", action),
	)
	return nil
}

type lightState struct {
	On       lightOn        `json:"on"`
	Dimming  lightDimming   `json:"dimming"`
	Color    lightColor     `json:"color"`
	Dynamics *lightDynamics `json:"dynamics,omitempty"`
}

type lightOn struct {
	On bool `json:"on"`
}

type lightDimming struct {
	Brightness float64 `json:"brightness"`
}

type lightColor struct {
	XY struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"xy"`
}

type lightDynamics struct {
	Duration int64 `json:"duration"`
}

// SetLightColor turns a light on with the given color. Brightness is sent
// as a percentage of domain.MaxBrightness.
func (c *Client) SetLightColor(ctx context.Context, lightID string, color domain.DeviceColor, transition time.Duration) error {
	state := lightState{
		On:      lightOn{On: true},
		Dimming: lightDimming{Brightness: math.Round(color.Brightness/domain.MaxBrightness*1000) / 10},
	}
	state.Color.XY.X = color.X
	state.Color.XY.Y = color.Y
	if transition > 0 {
		state.Dynamics = &lightDynamics{Duration: transition.Milliseconds()}
	}

	resp, err := c.do(ctx, http.MethodPut, lightEndpoint+lightID, state)
	if err != nil {
		return fmt.Errorf("set light %s: %w", lightID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do sends a request and maps transport failures and error statuses to
// domain errors. The caller closes the body of a successful response.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(appKeyHeader, c.appKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBridgeUnavailable, err)
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}

	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, statusError(resp.StatusCode, strings.TrimSpace(string(respBody)))
}

func statusError(code int, body string) error {
	var kind error
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = domain.ErrAuth
	case code == http.StatusNotFound:
		kind = domain.ErrNotFound
	case code >= 500:
		kind = domain.ErrBridgeUnavailable
	default:
		return fmt.Errorf("bridge returned %d: %s", code, body)
	}
	return fmt.Errorf("%w: bridge returned %d: %s", kind, code, body)
}

var (
	_ ports.BridgeAPI       = (*Client)(nil)
	_ ports.LightController = (*Client)(nil)
)
