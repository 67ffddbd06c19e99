package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsbot/internal/artifact"
	"newsbot/internal/gemini"
)

// fakeGenerator returns a scripted response text or error.
type fakeGenerator struct {
	response string
	err      error
	gotParams gemini.GenerateParams
}

func (f *fakeGenerator) GenerateContent(_ context.Context, p gemini.GenerateParams) (string, error) {
	f.gotParams = p
	return f.response, f.err
}

func testConfig() Config {
	return Config{
		TopN:             3,
		Category:         "technology",
		SourceOrigin:     "https://example.com",
		ExcludedHashtags: []string{"news", "tech"},
	}
}

func testArtifact() artifact.RemoteArtifact {
	return artifact.RemoteArtifact{
		Name:        "files/abc",
		URI:         "https://files/abc",
		MIMEType:    "text/html",
		DisplayName: "frontpage.html",
	}
}

func TestExtractNormalizesItems(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{response: `{
		"intro": "Hi",
		"outro": "Bye",
		"news_items": [
			{"title": "T", "short_description": "D", "link": "/a", "hashtags": ["x"]}
		]
	}`}
	e := New(gen, testConfig(), zap.NewNop())

	bundle, err := e.Extract(context.Background(), testArtifact())
	require.NoError(t, err)
	assert.Equal(t, "Hi", bundle.Intro)
	assert.Equal(t, "Bye", bundle.Outro)
	require.Len(t, bundle.Items, 1)
	assert.Equal(t, "https://example.com/a", bundle.Items[0].Link)
	assert.Equal(t, []string{"#x"}, bundle.Items[0].Hashtags)

	// The request must reference the artifact and declare the schema.
	require.NotNil(t, gen.gotParams.File)
	assert.Equal(t, "https://files/abc", gen.gotParams.File.URI)
	require.NotNil(t, gen.gotParams.ResponseSchema)
	assert.ElementsMatch(t, []string{"intro", "outro", "news_items"}, gen.gotParams.ResponseSchema.Required)
	assert.Contains(t, gen.gotParams.Prompt, "top 3 technology stories")
	assert.Contains(t, gen.gotParams.Prompt, "frontpage.html")
}

func TestExtractStripsCodeFence(t *testing.T) {
	t.Parallel()

	fenced := "```json\n{\"intro\":\"Hi\",\"outro\":\"Bye\",\"news_items\":[]}\n```"
	plain := `{"intro":"Hi","outro":"Bye","news_items":[]}`

	for _, response := range []string{fenced, plain} {
		e := New(&fakeGenerator{response: response}, testConfig(), zap.NewNop())
		bundle, err := e.Extract(context.Background(), testArtifact())
		require.NoError(t, err)
		assert.Equal(t, "Hi", bundle.Intro)
		assert.Empty(t, bundle.Items)
	}
}

func TestExtractTruncatesToTopN(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{response: `{
		"intro": "Hi", "outro": "Bye",
		"news_items": [
			{"title": "1", "link": "/1", "hashtags": ["a"]},
			{"title": "2", "link": "/2", "hashtags": ["b"]},
			{"title": "3", "link": "/3", "hashtags": ["c"]}
		]
	}`}
	cfg := testConfig()
	cfg.TopN = 2
	e := New(gen, cfg, zap.NewNop())

	bundle, err := e.Extract(context.Background(), testArtifact())
	require.NoError(t, err)
	require.Len(t, bundle.Items, 2)
	assert.Equal(t, "1", bundle.Items[0].Title)
	assert.Equal(t, "2", bundle.Items[1].Title)
}

func TestExtractRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	e := New(&fakeGenerator{response: "this is not json"}, testConfig(), zap.NewNop())
	_, err := e.Extract(context.Background(), testArtifact())

	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "malformed structured response", ee.Reason)
}

func TestExtractRejectsMissingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
	}{
		{"missing intro", `{"outro":"Bye","news_items":[]}`},
		{"missing outro", `{"intro":"Hi","news_items":[]}`},
		{"missing items", `{"intro":"Hi","outro":"Bye"}`},
		{"null items", `{"intro":"Hi","outro":"Bye","news_items":null}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := New(&fakeGenerator{response: tt.response}, testConfig(), zap.NewNop())
			_, err := e.Extract(context.Background(), testArtifact())

			var ee *ExtractionError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, "unexpected response shape", ee.Reason)
		})
	}
}

func TestExtractKeepsMalformedItems(t *testing.T) {
	t.Parallel()

	// An item without a title is logged but still returned.
	gen := &fakeGenerator{response: `{
		"intro": "Hi", "outro": "Bye",
		"news_items": [{"short_description": "D", "link": "/a", "hashtags": []}]
	}`}
	e := New(gen, testConfig(), zap.NewNop())

	bundle, err := e.Extract(context.Background(), testArtifact())
	require.NoError(t, err)
	require.Len(t, bundle.Items, 1)
	assert.Empty(t, bundle.Items[0].Title)
}

func TestExtractWrapsGenerationFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("model unavailable")
	e := New(&fakeGenerator{err: cause}, testConfig(), zap.NewNop())
	_, err := e.Extract(context.Background(), testArtifact())

	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, cause)
}
