package harvest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	platform     Platform
	urlPrefix    string
	containers   []Container
	listErr      error
	resolveCalls int
}

func (f *fakeClient) Platform() Platform { return f.platform }

func (f *fakeClient) Identify(context.Context) (*Account, error) {
	return &Account{Platform: f.platform, ID: "u"}, nil
}

func (f *fakeClient) ListContainers(context.Context, string, KindFilter, int) ([]Container, error) {
	return f.containers, f.listErr
}

func (f *fakeClient) ListItems(context.Context, string, ListOptions) ([]Item, error) {
	return nil, nil
}

func (f *fakeClient) FetchContent(_ context.Context, ref ItemRef, _ ContentOptions) (*ContentRecord, error) {
	return &ContentRecord{Platform: f.platform, ItemID: ref.ID, Method: MethodArticleBody, Text: "x"}, nil
}

func (f *fakeClient) ResolveURL(rawURL string) (ItemRef, bool) {
	f.resolveCalls++
	if !strings.HasPrefix(rawURL, f.urlPrefix) {
		return ItemRef{}, false
	}
	return ItemRef{Platform: f.platform, ID: "id", URL: rawURL}, true
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		in   string
		want Platform
		ok   bool
	}{
		{"https://www.bilibili.com/video/BV1xx411c7mD", Bilibili, true},
		{"BV1xx411c7mD", Bilibili, true},
		{"https://www.zhihu.com/question/1/answer/2", Zhihu, true},
		{"https://zhuanlan.zhihu.com/p/12345", Zhihu, true},
		{"https://www.xiaohongshu.com/explore/abcdef", Xiaohongshu, true},
		{"https://example.com/whatever", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := DetectPlatform(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouterResolve(t *testing.T) {
	router := NewRouter(
		&fakeClient{platform: Bilibili, urlPrefix: "https://www.bilibili.com"},
		&fakeClient{platform: Zhihu, urlPrefix: "https://www.zhihu.com"},
	)

	client, ref, err := router.Resolve("https://www.zhihu.com/answer/1")
	require.NoError(t, err)
	assert.Equal(t, Zhihu, client.Platform())
	assert.Equal(t, Zhihu, ref.Platform)

	_, _, err = router.Resolve("https://unknown.example/x")
	var unsupported *UnsupportedURLError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "https://unknown.example/x", unsupported.URL)
}

func TestRouterResolveRoutesByHostnameFirst(t *testing.T) {
	bili := &fakeClient{platform: Bilibili, urlPrefix: "https://www.bilibili.com"}
	zhihu := &fakeClient{platform: Zhihu, urlPrefix: "https://www.zhihu.com"}
	router := NewRouter(bili, zhihu)

	client, _, err := router.Resolve("https://www.zhihu.com/answer/1")
	require.NoError(t, err)
	assert.Equal(t, Zhihu, client.Platform())
	// The hostname sends the URL straight to its owner; earlier-priority
	// clients are never consulted.
	assert.Equal(t, 0, bili.resolveCalls)
	assert.Equal(t, 1, zhihu.resolveCalls)
}

func TestRouterListAllKeepsOrderAndPartialFailures(t *testing.T) {
	router := NewRouter(
		&fakeClient{platform: Xiaohongshu, containers: []Container{{Platform: Xiaohongshu, ID: "b1"}}},
		&fakeClient{platform: Bilibili, listErr: errors.New("boom")},
		&fakeClient{platform: Zhihu, containers: []Container{{Platform: Zhihu, ID: "c1"}}},
	)

	results := router.ListAll(context.Background(), FilterCreated, 0)
	require.Len(t, results, 3)

	// Fixed platform order regardless of registration or completion order.
	assert.Equal(t, Bilibili, results[0].Platform)
	assert.Equal(t, Zhihu, results[1].Platform)
	assert.Equal(t, Xiaohongshu, results[2].Platform)

	assert.Error(t, results[0].Err)
	assert.Empty(t, results[0].Containers)
	require.NoError(t, results[1].Err)
	assert.Equal(t, "c1", results[1].Containers[0].ID)
	require.NoError(t, results[2].Err)
	assert.Equal(t, "b1", results[2].Containers[0].ID)
}

func TestRouterContentByURL(t *testing.T) {
	router := NewRouter(&fakeClient{platform: Bilibili, urlPrefix: "https://www.bilibili.com"})
	rec, err := router.ContentByURL(context.Background(), "https://www.bilibili.com/video/BV1", ContentOptions{})
	require.NoError(t, err)
	assert.Equal(t, Bilibili, rec.Platform)
}

func TestParsePlatform(t *testing.T) {
	for _, name := range []string{"bilibili", "zhihu", "xiaohongshu"} {
		p, ok := ParsePlatform(name)
		assert.True(t, ok)
		assert.Equal(t, Platform(name), p)
	}
	p, ok := ParsePlatform("xhs")
	assert.True(t, ok)
	assert.Equal(t, Xiaohongshu, p)

	_, ok = ParsePlatform("youtube")
	assert.False(t, ok)
}
