package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBrightDataBaseURL = "https://api.brightdata.com/datasets/v3"

	// pitchbookDatasetID selects the Bright Data dataset that crawls
	// PitchBook company profiles.
	pitchbookDatasetID = "gd_m4ijiqfp2n9oe3oluj"
)

// SnapshotStatus is the lifecycle state of a Bright Data snapshot.
type SnapshotStatus string

const (
	SnapshotRunning   SnapshotStatus = "running"
	SnapshotPending   SnapshotStatus = "pending"
	SnapshotAccepted  SnapshotStatus = "pending_acceptance"
	SnapshotCompleted SnapshotStatus = "completed"
	SnapshotSuccess   SnapshotStatus = "success"
	SnapshotFailed    SnapshotStatus = "failed"
	SnapshotError     SnapshotStatus = "error"
	SnapshotPrivate   SnapshotStatus = "private"
)

// Terminal reports whether the snapshot has stopped progressing. Private
// profiles are terminal too; their payload just carries less data.
func (s SnapshotStatus) Terminal() bool {
	switch s {
	case SnapshotCompleted, SnapshotSuccess, SnapshotFailed, SnapshotError, SnapshotPrivate:
		return true
	}
	return false
}

// Snapshot is the raw result of a PitchBook collection run.
type Snapshot struct {
	Status SnapshotStatus  `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// PitchBookClient collects PitchBook company profiles through the Bright
// Data snapshot API: a trigger call starts a crawl and returns a snapshot
// id, then the snapshot endpoint is polled until the crawl reaches a
// terminal state.
type PitchBookClient struct {
	apiKey  string
	baseURL string
	http    *http.Client

	pollDelay    time.Duration
	maxPollDelay time.Duration
	maxPolls     int
}

// NewPitchBookClient creates a PitchBook client. baseURL is overridable for
// tests; empty selects the production endpoint.
func NewPitchBookClient(apiKey, baseURL string) *PitchBookClient {
	if baseURL == "" {
		baseURL = defaultBrightDataBaseURL
	}
	return &PitchBookClient{
		apiKey:       apiKey,
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		pollDelay:    time.Second,
		maxPollDelay: 5 * time.Second,
		maxPolls:     4,
	}
}

// CompanyData triggers a collection for the given PitchBook profile URLs
// and polls until the snapshot is terminal.
func (c *PitchBookClient) CompanyData(ctx context.Context, profileURLs []string) (*Snapshot, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("pitchbook api key is not configured")
	}
	if len(profileURLs) == 0 {
		return nil, fmt.Errorf("at least one pitchbook profile url is required")
	}

	snapshotID, err := c.trigger(ctx, profileURLs)
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, snapshotID)
}

func (c *PitchBookClient) trigger(ctx context.Context, profileURLs []string) (string, error) {
	payload := make([]map[string]string, 0, len(profileURLs))
	for _, u := range profileURLs {
		payload = append(payload, map[string]string{"url": u})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	params := url.Values{
		"dataset_id":     {pitchbookDatasetID},
		"include_errors": {"true"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/trigger?"+params.Encode(), bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("pitchbook trigger failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("pitchbook trigger returned status %d", resp.StatusCode)
	}

	var body struct {
		SnapshotID string `json:"snapshot_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode pitchbook trigger response: %w", err)
	}
	if body.SnapshotID == "" {
		return "", fmt.Errorf("pitchbook trigger returned no snapshot id")
	}
	return body.SnapshotID, nil
}

func (c *PitchBookClient) poll(ctx context.Context, snapshotID string) (*Snapshot, error) {
	delay := c.pollDelay
	var last *Snapshot

	for attempt := 0; attempt <= c.maxPolls; attempt++ {
		snap, err := c.fetchSnapshot(ctx, snapshotID)
		if err != nil {
			return nil, err
		}
		last = snap
		if snap.Status.Terminal() {
			if snap.Status == SnapshotFailed || snap.Status == SnapshotError {
				return snap, fmt.Errorf("pitchbook snapshot %s ended with status %q", snapshotID, snap.Status)
			}
			return snap, nil
		}
		if attempt == c.maxPolls {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*3/2, c.maxPollDelay)
	}
	return nil, fmt.Errorf("pitchbook snapshot %s still %q after %d polls", snapshotID, last.Status, c.maxPolls+1)
}

func (c *PitchBookClient) fetchSnapshot(ctx context.Context, snapshotID string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/snapshot/"+url.PathEscape(snapshotID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pitchbook snapshot poll failed: %w", err)
	}
	defer resp.Body.Close()

	// 202 means the crawl has been accepted but produced nothing yet.
	if resp.StatusCode == http.StatusAccepted {
		return &Snapshot{Status: SnapshotAccepted}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pitchbook snapshot poll returned status %d", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode pitchbook snapshot: %w", err)
	}
	return &snap, nil
}
