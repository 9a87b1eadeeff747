package coach

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	megabyte = 1024 * 1024

	systemPrompt = "You are an experienced personal trainer and sports nutritionist. " +
		"Answer only with JSON, no prose around it. The JSON must follow this shape: "
)

var (
	ErrLLMFailed  = errors.New("llm call failed")
	ErrNoJSON     = errors.New("no json found in llm answer")
	errEmptyReply = errors.New("empty llm answer")
)

type ClientOptions struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	CacheSizeMB int
	CacheTTL    time.Duration
}

// Client talks to an OpenAI compatible chat completions API.
// Decoded answers are cached by model, schema and prompt.
type Client struct {
	api      openai.Client
	model    string
	cache    *freecache.Cache
	cacheTTL time.Duration
	metrics  *metrics.Manager
}

func NewClient(opts ClientOptions, metricsManager *metrics.Manager) *Client {
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   opts.Timeout,
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(1),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	cacheSize := opts.CacheSizeMB * megabyte
	if cacheSize <= 0 {
		cacheSize = 16 * megabyte
	}

	return &Client{
		api:      openai.NewClient(reqOpts...),
		model:    opts.Model,
		cache:    freecache.NewCache(cacheSize),
		cacheTTL: opts.CacheTTL,
		metrics:  metricsManager,
	}
}

func cacheKey(model, schemaHint, prompt string) []byte {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(schemaHint))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return []byte("llm::" + hex.EncodeToString(h.Sum(nil)))
}

func (c *Client) countCall(outcome string) {
	c.metrics.CounterLLMCalls.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// Invoke sends the prompt and decodes the JSON part of the answer into out.
func (c *Client) Invoke(ctx context.Context, prompt, schemaHint string, out any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coach.llm.invoke")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("llm.model", c.model))

	key := cacheKey(c.model, schemaHint, prompt)
	if cached, cacheErr := c.cache.Get(key); cacheErr == nil {
		decodeErr := json.Unmarshal(cached, out)
		if decodeErr == nil {
			span.SetAttributes(attribute.Bool("llm.cached", true))
			c.countCall("cached")
			return nil
		}
		log.Warnf("llm cache: drop undecodable entry: %s", decodeErr)
		c.cache.Del(key)
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt + schemaHint),
			openai.UserMessage(prompt),
		},
	})
	c.metrics.HistogramLLMDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.countCall("error")
		return fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	if len(resp.Choices) == 0 {
		c.countCall("error")
		return fmt.Errorf("%w: %w", ErrLLMFailed, errEmptyReply)
	}

	raw, err := ExtractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		c.countCall("error")
		return fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.countCall("error")
		return fmt.Errorf("%w: decode answer: %w", ErrLLMFailed, err)
	}

	if err := c.cache.Set(key, raw, int(c.cacheTTL.Seconds())); err != nil {
		log.Warnf("llm cache: set: %s", err)
	}
	c.countCall("ok")

	return nil
}

// ExtractJSON returns the outermost JSON object or array found in an answer,
// which may be wrapped in markdown code fences or surrounded by text.
func ExtractJSON(answer string) ([]byte, error) {
	s := strings.TrimSpace(answer)
	if s == "" {
		return nil, errEmptyReply
	}

	if i := strings.Index(s, "```"); i >= 0 {
		fenced := s[i+3:]
		if nl := strings.IndexByte(fenced, '\n'); nl >= 0 {
			// skip the language tag
			fenced = fenced[nl+1:]
		}
		if end := strings.Index(fenced, "```"); end >= 0 {
			s = strings.TrimSpace(fenced[:end])
		}
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, ErrNoJSON
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return nil, ErrNoJSON
	}

	raw := []byte(s[start : end+1])
	if !json.Valid(raw) {
		return nil, ErrNoJSON
	}
	return raw, nil
}
