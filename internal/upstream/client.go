package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jobappid/verify-portal/internal/config"
	"github.com/jobappid/verify-portal/internal/observability"
	apperrors "github.com/jobappid/verify-portal/pkg/util/errorutil"
)

// KeyHeader carries the static access key on search-class calls.
const KeyHeader = "X-VERIFY-KEY"

// Auth selects the credential attached to one call. A call carries the
// static key header, the bearer header, or nothing; never both.
type Auth struct {
	header string
	value  string
}

// NoAuth sends no credential.
func NoAuth() Auth { return Auth{} }

// KeyAuth sends an agent access key.
func KeyAuth(accessKey string) Auth { return Auth{header: KeyHeader, value: accessKey} }

// BearerAuth sends an agency token.
func BearerAuth(token string) Auth {
	return Auth{header: "Authorization", value: "Bearer " + token}
}

func (a Auth) apply(r *resty.Request) {
	if a.header == "" {
		return
	}
	r.SetHeader(a.header, a.value)
}

// Client is a typed wrapper over the verification API.
type Client struct {
	http    *resty.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New builds a client. An empty base URL is a configuration error returned
// before any request can be made.
func New(cfg config.UpstreamConfig, logger *zap.Logger, metrics *observability.Metrics) (*Client, error) {
	baseURL, err := config.BaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())
	if t := cfg.Timeout(); t > 0 {
		rc.SetTimeout(t)
	}

	return &Client{http: rc, logger: logger, metrics: metrics}, nil
}

// response is a completed call. Body is the decoded JSON object; a body that
// is not a JSON object is exposed as {"raw": text}.
type response struct {
	Status int
	Body   map[string]any
	raw    []byte
}

// into decodes the raw body into v.
func (r response) into(v any) error {
	if err := json.Unmarshal(r.raw, v); err != nil {
		return apperrors.NewUpstreamError(r.Status, "unexpected response from verification service")
	}
	return nil
}

// do performs one call and normalizes both failure classes into DomainError.
func (c *Client) do(ctx context.Context, endpoint, method, path string, auth Auth, body any) (response, error) {
	req := c.http.R().SetContext(ctx)
	auth.apply(req)
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordUpstream(endpoint, "transport_error", duration)
		c.logger.Warn("upstream call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return response{}, apperrors.NewTransportError(err)
	}

	out := response{Status: resp.StatusCode(), raw: resp.Body()}
	out.Body = decodeBody(out.raw)

	c.logger.Debug("upstream call",
		zap.String("endpoint", endpoint),
		zap.Int("status", out.Status),
		zap.Duration("duration", duration),
	)

	if !resp.IsSuccess() {
		c.metrics.RecordUpstream(endpoint, "app_error", duration)
		return out, apperrors.NewUpstreamError(out.Status, ErrorMessage(out.Status, out.Body))
	}
	c.metrics.RecordUpstream(endpoint, "ok", duration)
	return out, nil
}

func decodeBody(raw []byte) map[string]any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil || obj == nil {
		var anyJSON any
		if json.Unmarshal(trimmed, &anyJSON) == nil {
			return map[string]any{"data": anyJSON}
		}
		return map[string]any{"raw": string(raw)}
	}
	return obj
}

// messageExtractor pulls a user-facing message out of an error body, or
// returns "" when its shape does not match.
type messageExtractor func(body map[string]any) string

// errorMessageChain is tried in order. Each entry matches the error envelope
// of one API generation.
var errorMessageChain = []messageExtractor{
	nestedErrorMessage,
	topLevelMessage,
	topLevelErrorString,
}

// {"error": {"message": "..."}}
func nestedErrorMessage(body map[string]any) string {
	envelope, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := envelope["message"].(string)
	return msg
}

// {"message": "..."}
func topLevelMessage(body map[string]any) string {
	msg, _ := body["message"].(string)
	return msg
}

// {"error": "..."}
func topLevelErrorString(body map[string]any) string {
	msg, _ := body["error"].(string)
	return msg
}

// ErrorMessage extracts the message for a failed call, falling back to
// "HTTP <status>".
func ErrorMessage(status int, body map[string]any) string {
	if msg := firstMessage(body); msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP %d", status)
}

func firstMessage(body map[string]any) string {
	for _, extract := range errorMessageChain {
		if msg := extract(body); msg != "" {
			return msg
		}
	}
	return ""
}
