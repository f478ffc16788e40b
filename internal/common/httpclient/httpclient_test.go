package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	serverURL string
	apiKey    string
	token     string
	expiry    time.Time
}

func (c testConfig) GetServerURL() string      { return c.serverURL }
func (c testConfig) GetAPIKey() string         { return c.apiKey }
func (c testConfig) GetToken() string          { return c.token }
func (c testConfig) GetTokenExpiry() time.Time { return c.expiry }

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestClientMethodsAndPaths(t *testing.T) {
	var gotMethod, gotPath, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig{serverURL: srv.URL + "/rest/"})
	ctx := context.Background()

	body, err := c.Get(ctx, "/tenant/0/skill/")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/rest/tenant/0/skill/", gotPath, "trailing slash is preserved")

	_, err = c.Post(ctx, "/tenant/0/skill/add", map[string]any{"name": "Cook"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"name":"Cook"}`, gotBody)

	_, err = c.Post(ctx, "tenant/0/skill/update", []byte(`{"raw":1}`))
	require.NoError(t, err)
	assert.Equal(t, "/rest/tenant/0/skill/update", gotPath)
	assert.Equal(t, `{"raw":1}`, gotBody)

	_, err = c.Delete(ctx, "/tenant/0/skill/5")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/rest/tenant/0/skill/5", gotPath)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"server envelope", http.StatusConflict, `{"result":0,"error":"stale version"}`, "stale version"},
		{"not found", http.StatusNotFound, `nope`, "server doesn't implement this endpoint"},
		{"plain body", http.StatusBadRequest, "bad input\n", "bad input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(testConfig{serverURL: srv.URL}).Get(context.Background(), "/x")
			require.Error(t, err)
			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.message, httpErr.Message)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.status == http.StatusConflict, IsConflict(err))
		})
	}
}

func TestClientRetriesIdempotentRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(testConfig{serverURL: srv.URL}, ClientOptions{RetryAttempts: 3, RetryDelay: time.Millisecond})
	body, err := c.Get(context.Background(), "/tenant/0/spot/")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	_, err = c.Post(context.Background(), "/tenant/0/spot/add", map[string]string{})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	assert.Equal(t, int32(1), calls.Load(), "posts are never retried")
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(testConfig{serverURL: srv.URL}, ClientOptions{RetryAttempts: 4, RetryDelay: time.Millisecond})
	_, err := c.Delete(context.Background(), "/tenant/0/skill/1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewClient(testConfig{serverURL: srv.URL}).Get(ctx, "/slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientAuthorization(t *testing.T) {
	valid := signedToken(t, time.Now().Add(time.Hour))
	expired := signedToken(t, time.Now().Add(-time.Hour))

	tests := []struct {
		name   string
		config testConfig
		want   string
	}{
		{"no credentials", testConfig{}, ""},
		{"api key only", testConfig{apiKey: "key"}, "Bearer key"},
		{"valid token claim", testConfig{apiKey: "key", token: valid}, "Bearer " + valid},
		{"expired token claim", testConfig{apiKey: "key", token: expired}, "Bearer key"},
		{"explicit expiry wins", testConfig{apiKey: "key", token: valid, expiry: time.Now().Add(-time.Minute)}, "Bearer key"},
		{"opaque token without expiry", testConfig{apiKey: "key", token: "opaque"}, "Bearer opaque"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
			}))
			defer srv.Close()

			tt.config.serverURL = srv.URL
			_, err := NewClient(tt.config).Get(context.Background(), "/")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	assert.True(t, TokenExpiry(signedToken(t, exp)).Equal(exp))
	assert.True(t, TokenExpiry("not-a-jwt").IsZero())
}
