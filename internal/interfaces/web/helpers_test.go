package web

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/roleguard/internal/application/usecases"
	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/infrastructure/database"
	"github.com/example/roleguard/internal/logger"
	"github.com/example/roleguard/internal/testutil"
)

type testApp struct {
	srv  *httptest.Server
	auth usecases.AuthService
	db   *database.Handle
}

func newTestApp(t *testing.T, opts ...Option) *testApp {
	t.Helper()
	return newTestAppWithLogger(t, testutil.DiscardLogger(), opts...)
}

func newTestAppWithLogger(t *testing.T, log *logger.Logger, opts ...Option) *testApp {
	t.Helper()
	auth, h := testutil.AuthService(t)
	tmpl, err := ParseTemplates()
	require.NoError(t, err)

	s := New("", newSessions(), auth, tmpl, log, opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &testApp{srv: ts, auth: auth, db: h}
}

// client returns a browser-like client with its own cookie jar that does not
// follow redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) seed(t *testing.T, username, password string, role user.Role) user.User {
	t.Helper()
	u, err := a.auth.Register(context.Background(), username, password, role)
	require.NoError(t, err)
	return u
}

type response struct {
	status   int
	location string
	body     string
	header   http.Header
}

func do(t *testing.T, c *http.Client, req *http.Request) response {
	t.Helper()
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return response{status: res.StatusCode, location: res.Header.Get("Location"), body: string(b), header: res.Header}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	require.NoError(t, err)
	return do(t, c, req)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, c, req)
}

func (a *testApp) login(t *testing.T, c *http.Client, username, password string) response {
	t.Helper()
	return a.post(t, c, "/login", url.Values{"username": {username}, "password": {password}})
}

// logBuffer is a bytes.Buffer safe for the server goroutine to write to.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
