package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"dealscout/internal/domain"
)

type fakeProvider struct {
	answer string
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(context.Context, string, string, *ImagePayload) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestClassifyParsesCleanJSON(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{answer: `{"title":"Test Sale","storeName":"SuperSal","confidence":0.9}`}
	gw := NewGateway(provider, nil)

	ext := gw.Classify(context.Background(), domain.ClassifierInput{Text: "מבצע 50% הנחה"})
	assert.Equal(t, "Test Sale", ext.Title)
	assert.Equal(t, "SuperSal", ext.StoreName)
	assert.Equal(t, 0.9, ext.Confidence)
}

func TestClassifyToleratesProseAndFences(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{answer: "Sure! Here is the extraction:\n```json\n" +
		`{"title":"Fenced Deal","confidence":0.8}` + "\n```\nLet me know if you need more."}
	gw := NewGateway(provider, nil)

	ext := gw.Classify(context.Background(), domain.ClassifierInput{Text: "sale"})
	assert.Equal(t, "Fenced Deal", ext.Title)
	assert.Equal(t, 0.8, ext.Confidence)
}

func TestClassifyProviderFailureYieldsZeroConfidence(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: errors.New("connection refused")}
	gw := NewGateway(provider, nil)

	ext := gw.Classify(context.Background(), domain.ClassifierInput{Text: "sale"})
	assert.Zero(t, ext.Confidence)
	assert.Empty(t, ext.Title)
}

func TestClassifyGarbageAnswerYieldsZeroConfidence(t *testing.T) {
	t.Parallel()

	cases := []string{
		"I could not find any sale here.",
		"{broken json",
		"",
		"[]",
	}
	for _, answer := range cases {
		gw := NewGateway(&fakeProvider{answer: answer}, nil)
		ext := gw.Classify(context.Background(), domain.ClassifierInput{Text: "sale"})
		assert.Zero(t, ext.Confidence, "answer %q", answer)
	}
}

func TestClassifyNoProvider(t *testing.T) {
	t.Parallel()

	gw := NewGateway(nil, nil)
	ext := gw.Classify(context.Background(), domain.ClassifierInput{Text: "sale"})
	assert.Zero(t, ext.Confidence)
}

func TestClassifyClampsConfidence(t *testing.T) {
	t.Parallel()

	gw := NewGateway(&fakeProvider{answer: `{"confidence": 3.5}`}, nil)
	ext := gw.Classify(context.Background(), domain.ClassifierInput{Text: "sale"})
	assert.Equal(t, 1.0, ext.Confidence)

	gw = NewGateway(&fakeProvider{answer: `{"confidence": -0.2}`}, nil)
	ext = gw.Classify(context.Background(), domain.ClassifierInput{Text: "sale"})
	assert.Equal(t, 0.0, ext.Confidence)
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, extractJSON("prefix {\"a\":1} suffix"))
	assert.Equal(t, "", extractJSON("no braces here"))
	assert.Equal(t, "", extractJSON("} reversed {"))
}

func TestBuildUserContentPrecedence(t *testing.T) {
	t.Parallel()

	user, image := buildUserContent(domain.ClassifierInput{Text: "hello"})
	assert.Contains(t, user, "hello")
	assert.Nil(t, image)

	user, image = buildUserContent(domain.ClassifierInput{URL: "https://deals.example/1"})
	assert.Contains(t, user, "https://deals.example/1")
	assert.Nil(t, image)

	user, image = buildUserContent(domain.ClassifierInput{ImageBase64: "aGk=", ImageMIME: "image/png"})
	assert.NotEmpty(t, user)
	if assert.NotNil(t, image) {
		assert.Equal(t, "image/png", image.MIME)
	}

	user, image = buildUserContent(domain.ClassifierInput{})
	assert.Empty(t, user)
	assert.Nil(t, image)
}
