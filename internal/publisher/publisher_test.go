package publisher

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsbot/internal/extractor"
	"newsbot/internal/xapi"
)

// fakeClient records posts and fails the attempt indexes listed in
// failAt (0-based, counting failed attempts too).
type fakeClient struct {
	posts    []fakePost
	failAt   map[int]error
	attempts int
	nextID   int
}

type fakePost struct {
	text      string
	inReplyTo string
	id        string
}

func (f *fakeClient) CreatePost(_ context.Context, text, inReplyTo string) (string, error) {
	attempt := f.attempts
	f.attempts++
	if err, ok := f.failAt[attempt]; ok {
		return "", err
	}
	f.nextID++
	id := fmt.Sprintf("id-%d", f.nextID)
	f.posts = append(f.posts, fakePost{text: text, inReplyTo: inReplyTo, id: id})
	return id, nil
}

var _ PostClient = (*fakeClient)(nil)

type stubClock struct {
	slept []time.Duration
}

func (s *stubClock) Now() time.Time        { return time.Unix(0, 0) }
func (s *stubClock) Sleep(d time.Duration) { s.slept = append(s.slept, d) }

func testBundle(k int) extractor.NewsBundle {
	items := make([]extractor.NewsItem, 0, k)
	for i := 0; i < k; i++ {
		items = append(items, extractor.NewsItem{
			Title:            fmt.Sprintf("Story %d", i+1),
			ShortDescription: "A short description.",
			Link:             fmt.Sprintf("https://example.com/%d", i+1),
			Hashtags:         []string{"#go"},
		})
	}
	return extractor.NewsBundle{Intro: "Good morning!", Outro: "See you tomorrow.", Items: items}
}

func testConfig() Config {
	return Config{
		CharacterLimit: 280,
		PostDelay:      time.Second,
		IntroHashtags:  "#TechNews",
		Attribution:    "Automated digest.",
	}
}

func TestPublishFullThread(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	clk := &stubClock{}
	p := New(client, clk, testConfig(), zap.NewNop())

	res := p.Publish(context.Background(), testBundle(3))

	// intro + 3 items + outro
	require.Len(t, res.PostIDs, 5)
	assert.Equal(t, 5, res.Attempted)
	assert.Zero(t, res.Failed)

	// Strict reply chaining: each post replies to the previous one.
	assert.Empty(t, client.posts[0].inReplyTo)
	for i := 1; i < len(client.posts); i++ {
		assert.Equal(t, client.posts[i-1].id, client.posts[i].inReplyTo,
			"post %d must reply to post %d", i, i-1)
	}

	// Intro carries the fixed hashtag block, outro the attribution.
	assert.Contains(t, client.posts[0].text, "Good morning!")
	assert.Contains(t, client.posts[0].text, "#TechNews")
	last := client.posts[len(client.posts)-1]
	assert.Contains(t, last.text, "See you tomorrow.")
	assert.Contains(t, last.text, "Automated digest.")

	// Item bodies carry the bold title, description, link and hashtags.
	assert.Contains(t, client.posts[1].text, "A short description.")
	assert.Contains(t, client.posts[1].text, "https://example.com/1")
	assert.Contains(t, client.posts[1].text, "#go")
	assert.NotContains(t, client.posts[1].text, "Story 1", "title must be bold-transformed")

	// Pacing delay after every successful post.
	assert.Len(t, clk.slept, 5)
	assert.Equal(t, time.Second, clk.slept[0])
}

func TestPublishEmptyBundleIsNoOp(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	p := New(client, &stubClock{}, testConfig(), zap.NewNop())

	res := p.Publish(context.Background(), extractor.NewsBundle{Intro: "Hi", Outro: "Bye"})
	assert.Zero(t, res.Attempted)
	assert.Empty(t, client.posts)
}

func TestPublishContinuePolicySkipsOutroAndRechains(t *testing.T) {
	t.Parallel()

	// Second item (attempt index 2: intro=0, item1=1, item2=2) fails.
	client := &fakeClient{failAt: map[int]error{2: &xapi.APIError{StatusCode: 403, Detail: "duplicate"}}}
	p := New(client, &stubClock{}, testConfig(), zap.NewNop())

	res := p.Publish(context.Background(), testBundle(3))

	// intro + item1 + item3 published; item2 attempted and failed; no outro.
	assert.Equal(t, 4, res.Attempted)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, client.posts, 3)

	// item3 chains off item1, not the failed item2.
	item1 := client.posts[1]
	item3 := client.posts[2]
	assert.Equal(t, item1.id, item3.inReplyTo)
	assert.NotContains(t, item3.text, "See you tomorrow.", "outro must be suppressed")
}

func TestPublishAbortPolicyStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{failAt: map[int]error{1: &xapi.APIError{StatusCode: 500}}}
	cfg := testConfig()
	cfg.AbortOnFailure = true
	p := New(client, &stubClock{}, cfg, zap.NewNop())

	res := p.Publish(context.Background(), testBundle(3))

	// intro published, item1 failed, nothing after.
	assert.Equal(t, 2, res.Attempted)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, client.posts, 1)
	assert.Contains(t, client.posts[0].text, "Good morning!")
}

func TestPublishIntroFailureContinueStartsFreshChain(t *testing.T) {
	t.Parallel()

	client := &fakeClient{failAt: map[int]error{0: &xapi.APIError{StatusCode: 500}}}
	p := New(client, &stubClock{}, testConfig(), zap.NewNop())

	res := p.Publish(context.Background(), testBundle(2))

	// Items still publish; the first success has no reply target and the
	// outro stays suppressed.
	assert.Equal(t, 3, res.Attempted)
	require.Len(t, client.posts, 2)
	assert.Empty(t, client.posts[0].inReplyTo)
	assert.Equal(t, client.posts[0].id, client.posts[1].inReplyTo)
}

func TestPublishOversizedPostStillAttempted(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	cfg := testConfig()
	cfg.CharacterLimit = 10
	p := New(client, &stubClock{}, cfg, zap.NewNop())

	res := p.Publish(context.Background(), testBundle(1))
	assert.Equal(t, 3, res.Attempted)
	assert.Zero(t, res.Failed)
	for _, post := range client.posts {
		assert.Greater(t, len(post.text), 10, "bodies must not be truncated")
	}
}

func TestPublishThreadPositionSuffix(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	cfg := testConfig()
	cfg.ThreadPosition = true
	p := New(client, &stubClock{}, cfg, zap.NewNop())

	p.Publish(context.Background(), testBundle(2))
	require.Len(t, client.posts, 4)
	assert.True(t, strings.HasSuffix(client.posts[1].text, "(1/2)"), "got %q", client.posts[1].text)
	assert.True(t, strings.HasSuffix(client.posts[2].text, "(2/2)"), "got %q", client.posts[2].text)
}
