package emulatorv1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BearBump/TrackSim/internal/integrations/carrier"
	"github.com/pkg/errors"
)

// Client talks to the carrier emulator JSON API (GET /v1/tracking/{carrier}/{track}).
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9000"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

type respEvent struct {
	Status    string    `json:"status"`
	StatusRaw string    `json:"status_raw"`
	EventTime time.Time `json:"event_time"`
	Location  *string   `json:"location,omitempty"`
	Message   *string   `json:"message,omitempty"`
}

type respBody struct {
	Carrier     string      `json:"carrier"`
	TrackNumber string      `json:"track_number"`
	Status      string      `json:"status"`
	StatusRaw   string      `json:"status_raw"`
	StatusAt    *time.Time  `json:"status_at"`
	Events      []respEvent `json:"events"`
}

func (c *Client) GetTracking(ctx context.Context, carrierCode, trackNumber string) (carrier.TrackingResult, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return carrier.TrackingResult{}, errors.Wrap(err, "parse base url")
	}
	if carrierCode == "" {
		carrierCode = "default"
	}
	u.Path = fmt.Sprintf("/v1/tracking/%s/%s", url.PathEscape(carrierCode), url.PathEscape(trackNumber))
	q := u.Query()
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return carrier.TrackingResult{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return carrier.TrackingResult{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return carrier.TrackingResult{}, errors.New("carrier emulator rate limit (429)")
	}
	if resp.StatusCode/100 != 2 {
		return carrier.TrackingResult{}, errors.Errorf("carrier emulator http %d", resp.StatusCode)
	}

	var rb respBody
	if err := json.NewDecoder(resp.Body).Decode(&rb); err != nil {
		return carrier.TrackingResult{}, errors.Wrap(err, "decode")
	}

	raw := rb.StatusRaw
	if raw == "" {
		raw = rb.Status
	}
	out := carrier.TrackingResult{
		Status:    carrier.NormalizeStatus(rb.Status),
		StatusRaw: raw,
		StatusAt:  rb.StatusAt,
	}
	for _, e := range rb.Events {
		cp := carrier.Checkpoint{
			Status:    carrier.NormalizeStatus(e.Status),
			StatusRaw: e.StatusRaw,
			EventTime: e.EventTime,
		}
		if e.Location != nil {
			cp.Location = *e.Location
		}
		if e.Message != nil {
			cp.Message = *e.Message
		}
		out.Checkpoints = append(out.Checkpoints, cp)
	}
	return out, nil
}
