package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/misc"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	dailyQuoteKeyPrefix = "quote::daily::"
	dailyQuoteTTL       = 48 * time.Hour

	quoteSchema = `{"text": "string", "author": "string"}`
)

var FallbackQuote = Quote{
	Text:   "The only way to do great work is to love what you do.",
	Author: "Steve Jobs",
}

type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Date   string `json:"date"`
}

type dailyQuoter interface {
	DailyQuote(day time.Time) *misc.Quote
}

// Quotes picks one motivational quote per day and keeps it in redis,
// so every user sees the same quote on the same day.
type Quotes struct {
	llm         invoker
	redisClient *redis.Client
	fallback    dailyQuoter
}

func NewQuotes(llm invoker, redisClient *redis.Client, fallback dailyQuoter) *Quotes {
	return &Quotes{
		llm:         llm,
		redisClient: redisClient,
		fallback:    fallback,
	}
}

func dailyQuoteKey(day string) string {
	return dailyQuoteKeyPrefix + day
}

func quotePrompt(day string) string {
	return fmt.Sprintf(
		"Give one short motivational quote for someone who trains on %s. "+
			"Prefer quotes from athletes and coaches. The author must be a real person or \"Unknown\".",
		day,
	)
}

// DailyQuote never fails, it ends with a fixed quote when nothing else works.
func (q *Quotes) DailyQuote(ctx context.Context, now time.Time) Quote {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.daily_quote")
	defer span.End()

	day := now.Format(time.DateOnly)
	key := dailyQuoteKey(day)

	cached, err := q.redisClient.Get(ctx, key).Result()
	switch {
	case err == nil:
		var quote Quote
		if err := json.Unmarshal([]byte(cached), &quote); err == nil && quote.Text != "" {
			span.SetAttributes(attribute.String("quote.source", "cache"))
			return quote
		}
		log.Warnf("daily quote: bad cached value for %s", day)
	case !errors.Is(err, redis.Nil):
		log.Errorf("daily quote: get from redis: %s", err)
	}

	quote, source := q.pick(ctx, now)
	quote.Date = day
	span.SetAttributes(attribute.String("quote.source", source))

	if source == "fixed" {
		return quote
	}
	if val, err := json.Marshal(quote); err != nil {
		log.Errorf("daily quote: marshal: %s", err)
	} else if err := q.redisClient.Set(ctx, key, string(val), dailyQuoteTTL).Err(); err != nil {
		log.Errorf("daily quote: store in redis: %s", err)
	}

	return quote
}

func (q *Quotes) pick(ctx context.Context, now time.Time) (Quote, string) {
	var answer Quote
	err := q.llm.Invoke(ctx, quotePrompt(now.Format(time.DateOnly)), quoteSchema, &answer)
	if err == nil && strings.TrimSpace(answer.Text) != "" {
		answer.Text = strings.TrimSpace(answer.Text)
		answer.Author = strings.TrimSpace(answer.Author)
		if answer.Author == "" {
			answer.Author = "Unknown"
		}
		return answer, "llm"
	}
	if err != nil {
		log.Warnf("daily quote: llm: %s", err)
	}

	if q.fallback != nil {
		if fq := q.fallback.DailyQuote(now); fq != nil {
			return Quote{Text: fq.Text, Author: fq.Author}, "csv"
		}
	}

	return FallbackQuote, "fixed"
}
