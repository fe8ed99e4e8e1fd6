package cookiecloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(Config{UUID: "u"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(Config{UUID: "u", Password: "p"}, nil)
	assert.NoError(t, err)

	_, err = New(Config{InputFile: "/tmp/snapshot.json"}, nil)
	assert.NoError(t, err)
}

func TestFetchFromServer(t *testing.T) {
	snapshot := `{"cookie_data":{".bilibili.com":[{"name":"SESSDATA","value":"tok","domain":".bilibili.com"}]}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/get/my-uuid", r.URL.Path)
		encrypted := encrypt(t, []byte(snapshot), "my-uuid", "my-password", []byte("saltsalt"))
		json.NewEncoder(w).Encode(map[string]string{"encrypted": encrypted})
	}))
	defer srv.Close()

	client, err := New(Config{ServerURL: srv.URL, UUID: "my-uuid", Password: "my-password"}, srv.Client())
	require.NoError(t, err)

	snap, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Contains(t, snap.CookieData, ".bilibili.com")
	assert.Equal(t, "SESSDATA", snap.CookieData[".bilibili.com"][0].Name)
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := New(Config{ServerURL: srv.URL, UUID: "u", Password: "p"}, srv.Client())
	require.NoError(t, err)
	_, err = client.Fetch(context.Background())
	assert.ErrorContains(t, err, "status 404")
}

func TestFetchFromInputFile(t *testing.T) {
	// A local snapshot may already be decrypted.
	path := filepath.Join(t.TempDir(), "cookies.json")
	content := `{"cookie_data":{"zhihu.com":[{"name":"z_c0","value":"v","domain":"zhihu.com"}]}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	client, err := New(Config{InputFile: path}, nil)
	require.NoError(t, err)
	snap, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "z_c0", snap.CookieData["zhihu.com"][0].Name)
}

func TestFetchFromEncryptedInputFile(t *testing.T) {
	snapshot := `{"cookie_data":{"x.com":[{"name":"a","value":"1"}]}}`
	encrypted := encrypt(t, []byte(snapshot), "u", "p", []byte("abcdefgh"))
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`{"encrypted":%q}`, encrypted)), 0o600))

	client, err := New(Config{InputFile: path, UUID: "u", Password: "p"}, nil)
	require.NoError(t, err)
	snap, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", snap.CookieData["x.com"][0].Name)
}

func TestCookieHeader(t *testing.T) {
	snap := &Snapshot{CookieData: map[string][]Cookie{
		".bilibili.com": {
			{Name: "SESSDATA", Value: "s1", Domain: ".bilibili.com"},
			{Name: "bili_jct", Value: "j1", Domain: ".bilibili.com"},
		},
		"space.bilibili.com": {
			{Name: "extra", Value: "e1", Domain: "space.bilibili.com"},
		},
		"zhihu.com": {
			{Name: "z_c0", Value: "z1", Domain: "zhihu.com"},
		},
	}}

	header := snap.CookieHeader("bilibili.com")
	assert.Contains(t, header, "SESSDATA=s1")
	assert.Contains(t, header, "bili_jct=j1")
	assert.Contains(t, header, "extra=e1")
	assert.NotContains(t, header, "z_c0")
	assert.Equal(t, "SESSDATA=s1; bili_jct=j1; extra=e1", header)

	assert.Equal(t, "z_c0=z1", snap.CookieHeader("zhihu.com"))
	assert.Equal(t, "", snap.CookieHeader("xiaohongshu.com"))
}

func TestDomainMatches(t *testing.T) {
	tests := []struct {
		stored, target string
		want           bool
	}{
		{".bilibili.com", "bilibili.com", true},
		{"bilibili.com", "bilibili.com", true},
		{"space.bilibili.com", "bilibili.com", true},
		{".bilibili.com", "www.bilibili.com", true},
		{"zhihu.com", "bilibili.com", false},
		{"", "bilibili.com", false},
		{"notbilibili.com", "bilibili.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domainMatches(tt.stored, tt.target), "%s vs %s", tt.stored, tt.target)
	}
}
