package zhihu

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favharvest/internal/harvest"
)

func newTestClient(t *testing.T, handler http.Handler, extractor harvest.StateExtractor) *Client {
	t.Helper()
	harvest.Init(harvest.Config{UserAgent: "test", RequestsPerSecond: 1000, PageSize: 2, ItemLimit: 500})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	old := apiBase
	apiBase = srv.URL
	t.Cleanup(func() { apiBase = old })

	return New(harvest.StaticCredentials("z_c0=tok", harvest.SourceEnv), extractor)
}

func TestIdentify(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v4/me", r.URL.Path)
		assert.Equal(t, "z_c0=tok", r.Header.Get("Cookie"))
		fmt.Fprint(w, `{"id":"abc123","url_token":"tester","name":"测试用户"}`)
	}), nil)

	acct, err := client.Identify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tester", acct.ID)
	assert.Equal(t, "测试用户", acct.Name)
}

func TestIdentifyUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":100}}`, http.StatusUnauthorized)
	}), nil)

	_, err := client.Identify(context.Background())
	var authErr *harvest.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, harvest.Zhihu, authErr.Platform)
}

func TestListContainersPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x","url_token":"tester"}`)
	})
	mux.HandleFunc("/api/v4/people/tester/collections", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprint(w, `{"data":[{"id":100,"title":"第一","item_count":4},{"id":101,"title":"第二","item_count":0}],"paging":{"is_end":false}}`)
		default:
			fmt.Fprint(w, `{"data":[{"id":102,"title":"第三","item_count":9}],"paging":{"is_end":true}}`)
		}
	})
	client := newTestClient(t, mux, nil)

	containers, err := client.ListContainers(context.Background(), "", harvest.FilterCreated, 0)
	require.NoError(t, err)
	require.Len(t, containers, 3)
	assert.Equal(t, "100", containers[0].ID)
	assert.Equal(t, "第一", containers[0].Name)
	assert.Equal(t, 4, containers[0].ItemCount)
	assert.Equal(t, "https://www.zhihu.com/collection/102", containers[2].URL)
}

func TestListItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/collections/100/items", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"created":1700000000,"content":{"type":"answer","id":11,"url":"https://www.zhihu.com/question/1/answer/11",
				"question":{"title":"问题标题"},"author":{"name":"作者甲"},"excerpt":"..."}},
			{"created":1700000001,"content":{"type":"article","id":22,"url":"https://zhuanlan.zhihu.com/p/22",
				"title":"专栏标题","author":{"name":"作者乙"}}},
			{"created":1700000002,"content":{"type":"pin","id":33}}
		],"paging":{"is_end":true}}`)
	})
	client := newTestClient(t, mux, nil)

	items, err := client.ListItems(context.Background(), "100", harvest.ListOptions{})
	require.NoError(t, err)
	// Pins and other kinds are skipped.
	require.Len(t, items, 2)

	assert.Equal(t, "answer:11", items[0].ID)
	assert.Equal(t, "问题标题", items[0].Title)
	assert.Equal(t, "作者甲", items[0].Author)
	assert.Equal(t, int64(1700000000), items[0].SavedAt)

	assert.Equal(t, "article:22", items[1].ID)
	assert.Equal(t, "专栏标题", items[1].Title)
}

func TestListItemsRejectsOrder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}), nil)
	_, err := client.ListItems(context.Background(), "100", harvest.ListOptions{Order: "mtime"})
	assert.ErrorContains(t, err, "no server-side ordering")
}

func TestSplitItemID(t *testing.T) {
	tests := []struct {
		in       string
		kind, id string
		wantErr  bool
	}{
		{"answer:123", "answer", "123", false},
		{"article:456", "article", "456", false},
		{"789", "answer", "789", false},
		{"pin:1", "", "", true},
		{"answer:", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, id, err := splitItemID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.id, id)
		})
	}
}
