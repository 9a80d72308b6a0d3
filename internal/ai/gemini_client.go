package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"docqa-platform/internal/config"
	"docqa-platform/services"
)

// GeminiGenerator wraps the generative model behind a circuit breaker and a
// client-side rate limiter. It is a black box to the engine: prompt in,
// answer text out, with failures surfaced as GenerationUnavailable.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	timeout time.Duration
}

func NewGeminiGenerator(ctx context.Context, cfg *config.Config) (*GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for generation")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// 90% of the configured RPM, with a small burst.
	rpm := cfg.GenerationRPM
	if rpm <= 0 {
		rpm = 10
	}
	limiter := rate.NewLimiter(rate.Limit(float64(rpm)*0.9/60.0), max(rpm/10, 1))

	return &GeminiGenerator{
		client:  client,
		model:   cfg.GenerationModel,
		breaker: breaker,
		limiter: limiter,
		timeout: time.Duration(cfg.GenerationTimeoutSecs) * time.Second,
	}, nil
}

// Generate produces an answer for an already-composed prompt. The prompt is
// assumed to carry its own evidence guard; this layer never rewrites it.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", g.model),
		attribute.Int("gemini.prompt_chars", len(prompt)),
	)

	if err := g.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", fmt.Errorf("%w: %v", services.ErrGenerationUnavailable, err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		model := g.client.GenerativeModel(g.model)
		model.SetTemperature(0.2)
		model.SetMaxOutputTokens(2048)

		resp, err := model.GenerateContent(callCtx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", fmt.Errorf("%w: %v", services.ErrGenerationUnavailable, err)
	}

	resp := result.(*genai.GenerateContentResponse)
	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: model returned no text", services.ErrGenerationUnavailable)
	}
	span.SetAttributes(attribute.Int("gemini.answer_chars", len(text)))
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
