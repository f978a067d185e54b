package signedlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// logClient is the file-system-backed signed-log protocol client's
// network half: a package's log lives at a predictable path under the
// registry's signed-log base URL, and publishing goes through a
// content-then-record-then-poll sequence (spec.md §4.4.2).
type logClient struct {
	baseURL    string
	httpClient *http.Client
}

func newLogClient(baseURL string) *logClient {
	return &logClient{baseURL: baseURL, httpClient: http.DefaultClient}
}

type releaseEntryWire struct {
	Version string `json:"version"`
	Digest  string `json:"digest"`
	Yanked  bool   `json:"yanked"`
}

type packageLogWire struct {
	Releases []releaseEntryWire `json:"releases"`
}

type publishRecordWire struct {
	ID        string `json:"id"`
	Version   string `json:"version"`
	Digest    string `json:"digest"`
	Signature string `json:"signature,omitempty"`
	PublicKey string `json:"publicKey,omitempty"`
}

type publishStatusWire struct {
	Status string `json:"status"` // "pending", "accepted", or "rejected"
	Reason string `json:"reason,omitempty"`
}

func logPath(namespace, name string) string {
	return fmt.Sprintf("/v1/log/%s/%s", namespace, name)
}

// update synchronizes the local view of namespace/name's log with the
// remote before every read (spec.md §4.4.2's "unconditional on every
// call" freshness rule, trading request volume for freshness).
func (c *logClient) update(ctx context.Context, namespace, name string) error {
	return c.doJSON(ctx, http.MethodPost, logPath(namespace, name)+"/sync", nil, nil)
}

func (c *logClient) fetchPackageLog(ctx context.Context, namespace, name string) (packageLogWire, error) {
	var log packageLogWire
	if err := c.doJSON(ctx, http.MethodGet, logPath(namespace, name), nil, &log); err != nil {
		return packageLogWire{}, err
	}
	return log, nil
}

func (c *logClient) fetchContent(ctx context.Context, namespace, name, digest string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+logPath(namespace, name)+"/content/"+digest, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp.Body, nil
}

// publishContent streams content into the registry's content store and
// returns the digest it was stored under.
func (c *logClient) publishContent(ctx context.Context, namespace, name string, content io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logPath(namespace, name)+"/content", content)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", statusError(resp)
	}

	var out struct {
		Digest string `json:"digest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding content publish response: %w", err)
	}
	return out.Digest, nil
}

func (c *logClient) submitPublishRecord(ctx context.Context, namespace, name string, rec publishRecordWire) error {
	return c.doJSON(ctx, http.MethodPost, logPath(namespace, name)+"/publish", rec, nil)
}

func (c *logClient) pollPublishStatus(ctx context.Context, namespace, name, recordID string) (publishStatusWire, error) {
	var status publishStatusWire
	if err := c.doJSON(ctx, http.MethodGet, logPath(namespace, name)+"/publish/"+recordID, nil, &status); err != nil {
		return publishStatusWire{}, err
	}
	return status, nil
}

func (c *logClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(body))
}
