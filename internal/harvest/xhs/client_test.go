package xhs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favharvest/internal/harvest"
)

// fakeExtractor serves canned pages keyed by a URL substring.
type fakeExtractor struct {
	pages   map[string]string // substring -> html
	fetched []string
}

func (f *fakeExtractor) FetchPage(_ context.Context, pageURL, _ string) ([]byte, error) {
	f.fetched = append(f.fetched, pageURL)
	for sub, html := range f.pages {
		if sub != "" && strings.Contains(pageURL, sub) {
			return []byte(html), nil
		}
	}
	return []byte("<html></html>"), nil
}

func (f *fakeExtractor) ExtractState(ctx context.Context, pageURL, cookie string) (json.RawMessage, error) {
	html, err := f.FetchPage(ctx, pageURL, cookie)
	if err != nil {
		return nil, err
	}
	state, ok := harvest.ParseInitialState(html)
	if !ok {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Xiaohongshu, Op: "extract state", Detail: "no state"}
	}
	return state, nil
}

func statePage(state string) string {
	return fmt.Sprintf(`<html><a href="/user/profile/5ff0e0008000000001000aaa">me</a><script>window.__INITIAL_STATE__=%s;</script></html>`, state)
}

func newTestClient(t *testing.T, pages map[string]string) (*Client, *fakeExtractor) {
	t.Helper()
	harvest.Init(harvest.Config{UserAgent: "test", RequestsPerSecond: 1000, PageSize: 20, ItemLimit: 500})
	extractor := &fakeExtractor{pages: pages}
	return New(harvest.StaticCredentials("web_session=tok", harvest.SourceEnv), extractor), extractor
}

func TestIdentify(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"/explore": statePage(`{"user":{"userInfo":{"_rawValue":{"nickname":"小测试"}}}}`),
	})

	acct, err := client.Identify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5ff0e0008000000001000aaa", acct.ID)
	assert.Equal(t, "小测试", acct.Name)
}

func TestIdentifyAnonymous(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"/explore": `<html>no profile link</html>`,
	})

	_, err := client.Identify(context.Background())
	var authErr *harvest.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestListContainers(t *testing.T) {
	boardState := `{"board":{"userBoardList":{"_rawValue":[
		{"id":"board1","name":"菜谱","total":12,"privacy":0,"desc":""},
		{"id":"board2","name":"旅行","total":3,"privacy":1,"desc":"私密"}]}}}`
	client, extractor := newTestClient(t, map[string]string{
		"subTab=board": statePage(boardState),
		"/explore":     statePage(`{}`),
	})

	containers, err := client.ListContainers(context.Background(), "", harvest.FilterCreated, 0)
	require.NoError(t, err)
	require.Len(t, containers, 3)

	// The saved-notes pseudo container always comes first.
	assert.Equal(t, SavedContainerID, containers[0].ID)
	assert.Equal(t, "board1", containers[1].ID)
	assert.Equal(t, "菜谱", containers[1].Name)
	assert.Equal(t, 12, containers[1].ItemCount)
	assert.Equal(t, "https://www.xiaohongshu.com/board/board1?source=web_user_page", containers[1].URL)
	assert.Equal(t, "board2", containers[2].ID)

	// Profile discovery plus the board tab.
	assert.Len(t, extractor.fetched, 2)
}

func TestListItemsSaved(t *testing.T) {
	notesState := `{"user":{"notes":{"_rawValue":[
		[{"id":"posted1","xsecToken":"","noteCard":{"displayTitle":"自己发的"}}],
		[{"id":"note1","xsecToken":"tokA","noteCard":{"displayTitle":"收藏一","user":{"nickName":"作者甲"}}},
		 {"id":"note2","xsecToken":"","noteCard":{"displayTitle":"收藏二","user":{"nickname":"作者乙"}}}]
	]}}}`
	client, _ := newTestClient(t, map[string]string{
		"tab=fav":  statePage(notesState),
		"/explore": statePage(`{}`),
	})

	items, err := client.ListItems(context.Background(), SavedContainerID, harvest.ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "note1", items[0].ID)
	assert.Equal(t, "收藏一", items[0].Title)
	assert.Equal(t, "作者甲", items[0].Author)
	assert.Equal(t, "tokA", items[0].AccessToken)
	assert.Contains(t, items[0].URL, "/discovery/item/note1")
	assert.Contains(t, items[0].URL, "xsec_token=tokA")

	// The fallback nickname field still maps, and tokenless notes get the
	// explore URL.
	assert.Equal(t, "作者乙", items[1].Author)
	assert.Equal(t, "https://www.xiaohongshu.com/explore/note2", items[1].URL)
}

func TestListItemsBoard(t *testing.T) {
	boardFeed := `{"board":{"boardFeedsMap":{"_rawValue":{
		"board1":[{"id":"n1","xsecToken":"t1","noteCard":{"displayTitle":"第一篇"}}],
		"board2":[{"id":"n9","xsecToken":"t9","noteCard":{"displayTitle":"其他"}}]
	}}}}`
	client, _ := newTestClient(t, map[string]string{
		"/board/board1": statePage(boardFeed),
	})

	items, err := client.ListItems(context.Background(), "board1", harvest.ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "n1", items[0].ID)
	assert.Equal(t, "board1", items[0].ContainerID)
}

func TestListItemsRejectsOrder(t *testing.T) {
	client, _ := newTestClient(t, nil)
	_, err := client.ListItems(context.Background(), "board1", harvest.ListOptions{Order: "mtime"})
	assert.ErrorContains(t, err, "no server-side ordering")
}
