package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// maxDocumentBytes bounds how much of a response body is read.
const maxDocumentBytes = 8 << 20

// HTTPSource talks to the graph API over HTTP.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPClient builds the pooled client used for graph API calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewHTTPSource creates a source for the API rooted at baseURL. A nil client
// selects NewHTTPClient with no timeout.
func NewHTTPSource(baseURL string, client *http.Client, logger *slog.Logger) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid graph API base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid graph API base URL %q: scheme must be http or https", baseURL)
	}
	if client == nil {
		client = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger.With("component", "remote"),
	}, nil
}

// Fetch performs GET /api/apps/{appId}/graph.
func (s *HTTPSource) Fetch(ctx context.Context, appID graph.ApplicationID) (*graph.Document, error) {
	endpoint := fmt.Sprintf("%s/api/apps/%s/graph", s.baseURL, url.PathEscape(string(appID)))
	s.logger.Debug("Fetching graph.", "app_id", appID, "url", endpoint)

	body, status, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, &TransportError{AppID: appID, StatusCode: status, Err: err}
	}
	if err := graph.ValidateDocumentJSON(body); err != nil {
		return nil, &TransportError{AppID: appID, StatusCode: status, Err: fmt.Errorf("malformed graph document: %w", err)}
	}

	var doc graph.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &TransportError{AppID: appID, StatusCode: status, Err: fmt.Errorf("malformed graph document: %w", err)}
	}
	if doc.Nodes == nil {
		doc.Nodes = []graph.NodeRecord{}
	}
	if doc.Edges == nil {
		doc.Edges = []graph.EdgeRecord{}
	}
	s.logger.Debug("Graph fetched.", "app_id", appID, "nodes", len(doc.Nodes), "edges", len(doc.Edges))
	return &doc, nil
}

// ListApps performs GET /api/apps.
func (s *HTTPSource) ListApps(ctx context.Context) ([]graph.Application, error) {
	body, status, err := s.get(ctx, s.baseURL+"/api/apps")
	if err != nil {
		return nil, &TransportError{StatusCode: status, Err: err}
	}
	var apps []graph.Application
	if err := json.Unmarshal(body, &apps); err != nil {
		return nil, &TransportError{StatusCode: status, Err: fmt.Errorf("malformed application list: %w", err)}
	}
	return apps, nil
}

// CloseIdleConnections releases pooled connections.
func (s *HTTPSource) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

func (s *HTTPSource) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, errors.New(resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxDocumentBytes {
		return nil, resp.StatusCode, fmt.Errorf("response body exceeds %d bytes", maxDocumentBytes)
	}
	return body, resp.StatusCode, nil
}
