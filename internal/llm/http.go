package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/perspecta/internal/util"
)

const maxResponseBytes = 8 << 20

func newHTTPClient(config Config, fallback time.Duration) *http.Client {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = fallback
	}
	return util.NewHTTPClient(timeout, util.ProxyConfig{
		HTTPProxy:  config.HTTPProxy,
		HTTPSProxy: config.HTTPSProxy,
		NoProxy:    config.NoProxy,
	})
}

// ErrorDecoder turns a non-200 response into a Kind and a readable message.
// An empty Kind falls back to the HTTP status mapping.
type ErrorDecoder func(status int, body []byte) (Kind, string)

// DoJSON sends in (if non-nil) as JSON and decodes the response into out.
// Failures come back as *Error with a Kind.
func DoJSON(ctx context.Context, client *http.Client, provider, method, url string, headers map[string]string, in, out any, decode ErrorDecoder) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return malformedError(provider, fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return malformedError(provider, fmt.Errorf("create request: %w", err))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return transportError(provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(provider, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var kind Kind
		var msg string
		if decode != nil {
			kind, msg = decode(resp.StatusCode, respBody)
		}
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		e := statusError(provider, resp.StatusCode, errors.New(msg))
		if kind != "" {
			e.Kind = kind
		}
		return e
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return malformedError(provider, fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}
