package source

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"keyword-volume/pkg/volume"
)

const userAgent = "keyword-volume/1.0"

// httpClient issues single-attempt GET requests with a per-request timeout
// and a minimum spacing between requests.
type httpClient struct {
	client   *fasthttp.Client
	timeout  time.Duration
	throttle *Throttle
}

func newHTTPClient(timeout, delay time.Duration) *httpClient {
	return &httpClient{
		client: &fasthttp.Client{
			Name:                userAgent,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxConnsPerHost:     32,
			MaxIdleConnDuration: 90 * time.Second,
		},
		timeout:  timeout,
		throttle: NewThrottle(delay),
	}
}

// get performs GET endpoint?args and returns a copy of the body.
func (c *httpClient) get(ctx context.Context, endpoint string, args map[string]string) ([]byte, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ctx.Err()
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint)
	query := req.URI().QueryArgs()
	for k, v := range args {
		query.Set(k, v)
	}
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", volume.ErrSourceUnavailable, err)
	}

	body := append([]byte(nil), resp.Body()...)
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode(), Body: string(body[:min(len(body), 200)])}
	}
	return body, nil
}
