package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pmgmt/agent/internal/httputil"
	"github.com/pmgmt/agent/internal/logging"
	"github.com/pmgmt/agent/internal/report"
)

var apiLog = logging.L("api-sink")

// APISink POSTs the JSON report to a remote collection endpoint with Bearer
// authentication. Network errors and retryable statuses are retried with
// backoff; anything still failing surfaces as *DeliveryError.
type APISink struct {
	URL    string
	APIKey string
	Client *http.Client
	Retry  httputil.RetryConfig
}

// NewAPISink creates an APISink with default HTTP client and retry policy.
func NewAPISink(url, apiKey string) *APISink {
	return &APISink{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 30 * time.Second},
		Retry:  httputil.DefaultRetryConfig(),
	}
}

func (s *APISink) Deliver(ctx context.Context, r report.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return &DeliveryError{Target: s.URL, Err: err}
	}

	headers := http.Header{
		"Content-Type":  {"application/json"},
		"Authorization": {"Bearer " + s.APIKey},
	}

	resp, err := httputil.Do(ctx, s.Client, http.MethodPost, s.URL, body, headers, s.Retry)
	if err != nil {
		return &DeliveryError{Target: s.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{
			Target: s.URL,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, detail),
		}
	}

	apiLog.Info("report delivered", "url", s.URL, "status", resp.StatusCode, "updates", r.TotalUpdates)
	return nil
}
