package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"dealscout/internal/domain"
	"dealscout/internal/ports"
)

const systemPrompt = `You extract structured sale information from local-deal postings.
Respond STRICTLY with one JSON object using this schema:
{"title": "...", "description": "...", "discountPercentage": 0, "originalPrice": 0,
 "salePrice": 0, "category": "...", "storeName": "...", "storeAddress": "...",
 "confidence": 0.0}
Set "confidence" between 0 and 1 for how certain you are this is a genuine,
currently valid sale or discount offer. Use 0 when it is not a sale at all.`

// Provider performs one completion round-trip against a concrete model API
// and returns its raw text answer.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string, image *ImagePayload) (string, error)
}

// ImagePayload carries an inline image for multimodal extraction.
type ImagePayload struct {
	Base64 string
	MIME   string
}

// Gateway adapts a Provider to the pipeline's Classifier port. The model
// answer is untrusted free text: the gateway digs a JSON object out of it
// and falls back to a zero-confidence extraction on any failure, so the
// pipeline never sees an error from here.
type Gateway struct {
	provider Provider
	logger   *slog.Logger
}

var _ ports.Classifier = (*Gateway)(nil)

// NewGateway wires a provider; a nil provider disables classification.
func NewGateway(provider Provider, logger *slog.Logger) *Gateway {
	return &Gateway{provider: provider, logger: logger}
}

// Classify runs one extraction. Never returns an error; degraded runs yield
// Confidence zero.
func (g *Gateway) Classify(ctx context.Context, input domain.ClassifierInput) domain.Extraction {
	if g.provider == nil {
		g.debug("classifier disabled, no provider configured")
		return domain.Extraction{}
	}

	user, image := buildUserContent(input)
	if user == "" && image == nil {
		return domain.Extraction{}
	}

	raw, err := g.provider.Complete(ctx, systemPrompt, user, image)
	if err != nil {
		g.warn("provider call failed", "provider", g.provider.Name(), "error", err)
		return domain.Extraction{}
	}

	ext, ok := parseExtraction(raw)
	if !ok {
		g.warn("unparseable model answer", "provider", g.provider.Name(),
			"answer", truncate(raw, 160))
		return domain.Extraction{}
	}
	return ext
}

func buildUserContent(input domain.ClassifierInput) (string, *ImagePayload) {
	switch {
	case input.Text != "":
		return fmt.Sprintf("Posting text:\n%s", input.Text), nil
	case input.URL != "":
		return fmt.Sprintf("Posting URL (classify what it points to):\n%s", input.URL), nil
	case input.ImageBase64 != "":
		return "Extract the sale from the attached image.",
			&ImagePayload{Base64: input.ImageBase64, MIME: input.ImageMIME}
	default:
		return "", nil
	}
}

// parseExtraction locates an embedded JSON object in the model answer,
// tolerant of surrounding prose and code fences, and decodes it
// defensively.
func parseExtraction(content string) (domain.Extraction, bool) {
	payload := extractJSON(content)
	if payload == "" {
		return domain.Extraction{}, false
	}

	var ext domain.Extraction
	if err := json.Unmarshal([]byte(payload), &ext); err != nil {
		return domain.Extraction{}, false
	}

	ext.Confidence = clamp01(ext.Confidence)
	ext.RawText = strings.TrimSpace(content)
	return ext, true
}

// extractJSON returns the outermost object between the first '{' and the
// last '}'. That also skips ```json fences and any prose around them.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return content[start : end+1]
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func (g *Gateway) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

func (g *Gateway) warn(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
