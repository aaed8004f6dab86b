package feeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/stride/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON decodes a 200 response from url into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse(resp, v)
}

// postJSON posts body to url and decodes a 200 response into v.
func (c *HTTPClient) postJSON(ctx context.Context, url string, body, v interface{}) error {
	resp, err := c.Post(ctx, url, body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse(resp, v)
}

func decodeResponse(resp *http.Response, v interface{}) error {
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitSamples posts samples concurrently using a worker pool.
func submitSamples(ctx context.Context, config *Config, samples []Sample, stats *Stats) {
	log := logger.Get().Named("feeder")
	log.Info(ctx, "submitting samples", logger.Int("count", len(samples)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/pedometer/samples"

	var accepted, duplicate, rejected, failed, submitted int64

	sampleChan := make(chan Sample, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sample := range sampleChan {
				if ctx.Err() != nil {
					continue
				}
				result := submitSingleSample(ctx, client, url, sample)
				n := atomic.AddInt64(&submitted, 1)
				switch result {
				case outcomeAccepted:
					atomic.AddInt64(&accepted, 1)
				case outcomeDuplicate:
					atomic.AddInt64(&duplicate, 1)
				case outcomeRejected:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
				if config.Verbose && n%1000 == 0 {
					log.Debug(ctx, "submission progress",
						logger.Int("submitted", int(n)),
						logger.Int("total", len(samples)))
				}
			}
		}()
	}

	go func() {
		defer close(sampleChan)
		for _, sample := range samples {
			select {
			case <-ctx.Done():
				return
			case sampleChan <- sample:
			}
		}
	}()

	wg.Wait()

	stats.SamplesSubmitted += int(atomic.LoadInt64(&submitted))
	stats.SamplesAccepted += int(atomic.LoadInt64(&accepted))
	stats.SamplesDuplicate += int(atomic.LoadInt64(&duplicate))
	stats.SamplesRejected += int(atomic.LoadInt64(&rejected))
	stats.SamplesFailed += int(atomic.LoadInt64(&failed))

	log.Info(ctx, "sample submission completed",
		logger.Int("accepted", stats.SamplesAccepted),
		logger.Int("duplicate", stats.SamplesDuplicate),
		logger.Int("rejected", stats.SamplesRejected),
		logger.Int("failed", stats.SamplesFailed))
}

// submitSingleSample submits a single sample and returns the outcome.
func submitSingleSample(ctx context.Context, client *HTTPClient, url string, sample Sample) string {
	resp, err := client.Post(ctx, url, sample)
	if err != nil {
		return outcomeFailed
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return outcomeFailed
	}

	switch resp.StatusCode {
	case StatusAccepted:
		return outcomeAccepted
	case StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && !ack.Duplicate {
			return outcomeAccepted
		}
		return outcomeDuplicate
	case StatusTooManyRequests:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
