package obscheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/gks77/user-account-service/internal/tools/common"
	"github.com/gks77/user-account-service/internal/tools/ui"
)

// obscheck probes a running deployment end to end: the service must answer
// its health endpoints and Grafana must hold a recent trace exemplar for the
// request metrics, proving the whole telemetry pipeline is connected.

type options struct {
	ci         bool
	timeout    time.Duration
	serviceURL string
	grafanaURL string
	metric     string
	window     time.Duration
}

func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "obscheck",
		Short: "Verify the observability pipeline of a running deployment",
	}
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a JSON result instead of the interactive view")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall check timeout")
	root.PersistentFlags().StringVar(&opts.serviceURL, "service-url", "http://localhost:8080", "base URL of the running service")
	root.PersistentFlags().StringVar(&opts.grafanaURL, "grafana-url", "http://localhost:3001", "base URL of Grafana")
	root.PersistentFlags().StringVar(&opts.metric, "metric", "http_server_request_duration_seconds_bucket", "metric to look up exemplars for")
	root.PersistentFlags().DurationVar(&opts.window, "window", 15*time.Minute, "how far back to look for a trace exemplar")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run all observability checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			action := func(ctx context.Context) ([]string, error) {
				return runChecks(ctx, *opts)
			}
			if opts.ci {
				ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
				defer cancel()
				details, err := action(ctx)
				common.PrintCIResult(err == nil, "obscheck run", details, err)
				return err
			}
			_, err := ui.Run("Checking observability pipeline", opts.timeout, action)
			return err
		},
	})

	return root
}

func runChecks(ctx context.Context, opts options) ([]string, error) {
	var details []string

	if err := probeService(ctx, opts, "/health/live"); err != nil {
		return details, fmt.Errorf("liveness probe: %w", err)
	}
	details = append(details, "service liveness: ok")

	if err := probeService(ctx, opts, "/health/ready"); err != nil {
		return details, fmt.Errorf("readiness probe: %w", err)
	}
	details = append(details, "service readiness: ok")

	traceID, err := fetchTraceIDFromExemplar(ctx, opts, time.Now().Add(-opts.window))
	if err != nil {
		return details, err
	}
	details = append(details, fmt.Sprintf("trace exemplar found: %s", traceID))
	return details, nil
}

func probeService(ctx context.Context, opts options, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.serviceURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return nil
}

func grafanaGET(ctx context.Context, opts options, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.grafanaURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("grafana returned status %d for %s", resp.StatusCode, path)
	}
	return io.ReadAll(resp.Body)
}

type exemplarResponse struct {
	Data []struct {
		Exemplars []struct {
			Timestamp float64           `json:"timestamp"`
			Labels    map[string]string `json:"labels"`
		} `json:"exemplars"`
	} `json:"data"`
}

// fetchTraceIDFromExemplar asks the Prometheus datasource for exemplars of
// the request metric and returns the trace id of the newest one inside the
// lookback window.
func fetchTraceIDFromExemplar(ctx context.Context, opts options, since time.Time) (string, error) {
	query := url.Values{}
	query.Set("query", opts.metric)
	query.Set("start", fmt.Sprintf("%d", since.Unix()))
	query.Set("end", fmt.Sprintf("%d", time.Now().Unix()))
	path := "/api/datasources/proxy/uid/prometheus/api/v1/query_exemplars?" + query.Encode()

	body, err := grafanaGET(ctx, opts, path)
	if err != nil {
		return "", err
	}

	var parsed exemplarResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse exemplar response: %w", err)
	}

	var best string
	var bestTS float64
	cutoff := float64(since.Unix())
	for _, series := range parsed.Data {
		for _, ex := range series.Exemplars {
			traceID := ex.Labels["trace_id"]
			if traceID == "" || ex.Timestamp < cutoff {
				continue
			}
			if ex.Timestamp >= bestTS {
				best = traceID
				bestTS = ex.Timestamp
			}
		}
	}
	if best == "" {
		return "", fmt.Errorf("no trace exemplar for %s in the last %s", opts.metric, opts.window)
	}
	return best, nil
}
