package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// completedStatuses are the attempt statuses that count as completed:
// once an attempt reaches one of these, no further interaction with the
// assessment is possible.
var completedStatuses = map[string]struct{}{
	"submitted": {},
	"verified":  {},
	"rejected":  {},
	"declined":  {},
	"error":     {},
}

// IsCompletedStatus reports whether an attempt status counts as
// completed for aggregation purposes.
func IsCompletedStatus(status string) bool {
	_, ok := completedStatuses[status]
	return ok
}

// HTTPSource fetches completed assessment subtrees from an external
// proctoring service over REST.
//
// The service is expected to expose:
//
//	GET {base}/attempts?user={user}&scope={scope}
//
// returning a JSON array of attempt objects:
//
//	[{"content_id": "block-1", "status": "submitted"}, ...]
//
// Attempts whose status is a completed status (see IsCompletedStatus)
// contribute their content_id to the result set.
//
// Example:
//
//	src := exam.NewHTTPSource("https://proctoring.internal", nil)
//	roots, err := src.CompletedRoots(ctx, "alice", "course-v1:Demo+101")
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource creates an HTTP-backed exam source.
//
// Parameters:
//   - base: Service base URL without trailing slash (e.g.
//     "https://proctoring.internal")
//   - client: HTTP client to use; nil uses http.DefaultClient.
//     Timeouts are the caller's responsibility, via the client or the
//     request context.
func NewHTTPSource(base string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{
		base:   strings.TrimRight(base, "/"),
		client: client,
	}
}

// attempt is the wire shape of one assessment attempt.
type attempt struct {
	ContentID string `json:"content_id"`
	Status    string `json:"status"`
}

// CompletedRoots queries the proctoring service and returns the subtree
// roots whose attempt is completed (implements Source).
//
// Any transport or decoding failure is returned to the caller; the
// transform must fail rather than run with partial attempt data.
func (h *HTTPSource) CompletedRoots(ctx context.Context, user, scope string) (map[string]struct{}, error) {
	params := url.Values{}
	params.Set("user", user)
	params.Set("scope", scope)

	reqURL := h.base + "/attempts?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exam attempts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("exam attempt fetch returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var attempts []attempt
	if err := json.NewDecoder(resp.Body).Decode(&attempts); err != nil {
		return nil, fmt.Errorf("failed to decode exam attempts: %w", err)
	}

	roots := make(map[string]struct{})
	for _, a := range attempts {
		if IsCompletedStatus(a.Status) {
			roots[a.ContentID] = struct{}{}
		}
	}
	return roots, nil
}

var _ Source = (*HTTPSource)(nil)
