package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/email-management-platform/backend/gateway/internal/auth/domain"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

const maxDirectoryResponseBytes = 1 << 20

// subjectRolesResponse is the wire shape of a roles lookup against the
// identity management service.
type subjectRolesResponse struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
}

// HTTPSubjectDirectory implements SubjectDirectory against the identity
// management service's internal API.
type HTTPSubjectDirectory struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

// NewHTTPSubjectDirectory creates a directory client for the identity
// management service. apiToken authenticates the gateway against the internal
// API; timeout bounds each lookup.
func NewHTTPSubjectDirectory(baseURL, apiToken string, timeout time.Duration) *HTTPSubjectDirectory {
	return &HTTPSubjectDirectory{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		client:   &http.Client{Timeout: timeout},
	}
}

// RolesForSubject returns the roles assigned to the subject. An unknown
// subject is reported as ErrSubjectNotFound; any other failure leaves the
// caller unable to authorize and must fail closed.
func (d *HTTPSubjectDirectory) RolesForSubject(ctx context.Context, externalID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/internal/subjects/%s/roles", d.baseURL, url.PathEscape(externalID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build subject roles request")
	}
	if d.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to look up subject roles")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrSubjectNotFound
	default:
		return nil, apperrors.New(fmt.Sprintf("unexpected subject roles response status %d", resp.StatusCode))
	}

	var payload subjectRolesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDirectoryResponseBytes)).Decode(&payload); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode subject roles response")
	}

	return payload.Roles, nil
}

// Close releases idle connections held by the underlying HTTP client.
func (d *HTTPSubjectDirectory) Close() {
	d.client.CloseIdleConnections()
}
