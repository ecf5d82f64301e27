package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yoomapp/yoom-web/internal/metrics"
)

const (
	DefaultStreamBaseURL = "https://video.stream-io-api.com"

	// StartsAtLayout matches the provider's ISO-8601 timestamps.
	StartsAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

var callIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var tracer = otel.Tracer("github.com/yoomapp/yoom-web/internal/video")

func FormatStartsAt(t time.Time) string {
	return t.UTC().Format(StartsAtLayout)
}

type StreamOptions struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// StreamClient talks to a Stream-compatible video REST API with server-side
// credentials.
type StreamClient struct {
	apiKey  string
	secret  []byte
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewStreamClient(opts StreamOptions) (*StreamClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("stream api key is required")
	}
	if strings.TrimSpace(opts.APISecret) == "" {
		return nil, fmt.Errorf("stream api secret is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultStreamBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &StreamClient{
		apiKey:  opts.APIKey,
		secret:  []byte(opts.APISecret),
		baseURL: baseURL,
		http:    httpClient,
		log:     opts.Logger.With().Str("component", "video_stream").Logger(),
	}, nil
}

type callRequestData struct {
	CreatedByID string `json:"created_by_id,omitempty"`
}

type getOrCreateRequest struct {
	Data callRequestData `json:"data"`
}

type updateCallRequest struct {
	StartsAt string         `json:"starts_at"`
	Custom   map[string]any `json:"custom"`
}

type callResponse struct {
	Call *struct {
		ID       string `json:"id"`
		CID      string `json:"cid"`
		StartsAt string `json:"starts_at"`
	} `json:"call"`
	Created bool `json:"created"`
}

func (c *StreamClient) CreateOrGetCall(ctx context.Context, callType, id, createdBy string) (Call, error) {
	if callType == "" {
		callType = DefaultCallType
	}
	if !callIDPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: invalid call id %q", ErrNoCall, id)
	}
	var resp callResponse
	err := c.do(ctx, "get_or_create_call", http.MethodPost, callPath(callType, id), getOrCreateRequest{
		Data: callRequestData{CreatedByID: createdBy},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("get or create call: %w", err)
	}
	if resp.Call == nil || resp.Call.ID == "" {
		return nil, ErrNoCall
	}
	return &streamCall{client: c, callType: callType, id: resp.Call.ID}, nil
}

type streamCall struct {
	client   *StreamClient
	callType string
	id       string
}

func (s *streamCall) ID() string { return s.id }

func (s *streamCall) Finalize(ctx context.Context, md Metadata) error {
	var resp callResponse
	err := s.client.do(ctx, "update_call", http.MethodPatch, callPath(s.callType, s.id), updateCallRequest{
		StartsAt: FormatStartsAt(md.StartsAt),
		Custom:   map[string]any{"description": md.Description},
	}, &resp)
	if err != nil {
		return fmt.Errorf("update call: %w", err)
	}
	return nil
}

func callPath(callType, id string) string {
	return "/video/call/" + url.PathEscape(callType) + "/" + url.PathEscape(id)
}

func (c *StreamClient) do(ctx context.Context, op, method, path string, in, out any) error {
	ctx, span := tracer.Start(ctx, "video."+op, trace.WithAttributes(
		attribute.String("video.provider", "stream"),
		attribute.String("http.method", method),
	))
	defer span.End()

	start := time.Now()
	err := retryVideo(ctx, c.log, op, func(callCtx context.Context) error {
		return c.roundTrip(callCtx, method, path, in, out)
	})
	durMS := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Error().Err(err).Str("op", op).Float64("duration_ms", durMS).Msg("video operation failed")
	} else {
		c.log.Debug().Str("op", op).Float64("duration_ms", durMS).Msg("video operation")
	}
	metrics.Default().VideoOperations.WithLabelValues("stream", op, status).Inc()
	metrics.Default().VideoLatency.WithLabelValues("stream", op, status).Observe(durMS)
	return err
}

func (c *StreamClient) roundTrip(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	token, err := c.serverToken()
	if err != nil {
		return fmt.Errorf("sign server token: %w", err)
	}
	u := c.baseURL + path + "?api_key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("stream-auth-type", "jwt")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr)
		return &statusError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *StreamClient) serverToken() (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"server": true}).SignedString(c.secret)
}
