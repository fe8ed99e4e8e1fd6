package cookiecloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favharvest/internal/harvest"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, names := range cookieEnvNames {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		for _, prefix := range cookieEnvPrefixes {
			if strings.HasPrefix(name, prefix) {
				t.Setenv(name, "")
			}
		}
	}
}

func TestResolverOverrideWins(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("BILIBILI_COOKIE", "from-env")

	r := NewResolver("from-flag", Config{}, nil)
	creds, err := r.For(harvest.Bilibili)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-flag", creds.Cookie)
	assert.Equal(t, harvest.SourceOverride, creds.Source)
}

func TestResolverEnvBeforeSync(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("ZHIHU_COOKIE", "z_c0=env")

	r := NewResolver("", Config{}, nil)
	creds, err := r.For(harvest.Zhihu)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "z_c0=env", creds.Cookie)
	assert.Equal(t, harvest.SourceEnv, creds.Source)
}

func TestResolverEnvAlias(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("XHS_COOKIE", "web_session=alias")

	r := NewResolver("", Config{}, nil)
	creds, err := r.For(harvest.Xiaohongshu)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "web_session=alias", creds.Cookie)
}

func TestResolverEnvPrefixFallback(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("BILIBILI_COOKIE_MAIN", "SESSDATA=main")
	t.Setenv("BILIBILI_COOKIE_ALT", "SESSDATA=alt")

	r := NewResolver("", Config{}, nil)
	creds, err := r.For(harvest.Bilibili)(context.Background())
	require.NoError(t, err)
	// Lexicographic pick: ALT sorts before MAIN.
	assert.Equal(t, "SESSDATA=alt", creds.Cookie)
	assert.Equal(t, harvest.SourceEnv, creds.Source)
}

func TestResolverExactNameBeforePrefix(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("BILIBILI_COOKIE", "SESSDATA=exact")
	t.Setenv("BILIBILI_COOKIE_MAIN", "SESSDATA=main")

	r := NewResolver("", Config{}, nil)
	creds, err := r.For(harvest.Bilibili)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SESSDATA=exact", creds.Cookie)
}

func TestResolverSyncSharedAcrossPlatforms(t *testing.T) {
	clearCredentialEnv(t)
	snapshot := `{"cookie_data":{` +
		`".bilibili.com":[{"name":"SESSDATA","value":"b","domain":".bilibili.com"}],` +
		`"zhihu.com":[{"name":"z_c0","value":"z","domain":"zhihu.com"}]}}`

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		encrypted := encrypt(t, []byte(snapshot), "u", "p", []byte("saltsalt"))
		json.NewEncoder(w).Encode(map[string]string{"encrypted": encrypted})
	}))
	defer srv.Close()

	r := NewResolver("", Config{ServerURL: srv.URL, UUID: "u", Password: "p"}, srv.Client())

	bili, err := r.For(harvest.Bilibili)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SESSDATA=b", bili.Cookie)
	assert.Equal(t, harvest.SourceSync, bili.Source)

	zh, err := r.For(harvest.Zhihu)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "z_c0=z", zh.Cookie)

	// One snapshot fetch serves every platform.
	assert.Equal(t, int64(1), hits.Load())
}

func TestResolverNoCredentials(t *testing.T) {
	clearCredentialEnv(t)

	r := NewResolver("", Config{}, nil)
	_, err := r.For(harvest.Xiaohongshu)(context.Background())
	var noCreds *harvest.NoCredentialsError
	require.ErrorAs(t, err, &noCreds)
	assert.Equal(t, harvest.Xiaohongshu, noCreds.Platform)
	assert.Contains(t, noCreds.Tried, "cookiecloud")
}

func TestResolverSnapshotMissingDomain(t *testing.T) {
	clearCredentialEnv(t)
	snapshot := `{"cookie_data":{"zhihu.com":[{"name":"z_c0","value":"z"}]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		encrypted := encrypt(t, []byte(snapshot), "u", "p", []byte("saltsalt"))
		json.NewEncoder(w).Encode(map[string]string{"encrypted": encrypted})
	}))
	defer srv.Close()

	r := NewResolver("", Config{ServerURL: srv.URL, UUID: "u", Password: "p"}, srv.Client())
	_, err := r.For(harvest.Bilibili)(context.Background())
	var noCreds *harvest.NoCredentialsError
	require.ErrorAs(t, err, &noCreds)
}
