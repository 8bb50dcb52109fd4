// FILE: logvault/src/internal/api/server_test.go
package api

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"logvault/src/internal/auth"
	"logvault/src/internal/config"
	"logvault/src/internal/core"
	"logvault/src/internal/filter"
	"logvault/src/internal/ingest"
	"logvault/src/internal/metrics"
	"logvault/src/internal/query"
	"logvault/src/internal/store/memory"

	"github.com/goccy/go-json"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type testEnv struct {
	t      *testing.T
	srv    *Server
	client *fasthttp.Client
	store  *memory.Store
	clock  *testClock
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Defaults()
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.LoginLimit.Enabled = false
	cfg.Store.Type = config.StoreTypeMemory
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	logger := log.NewLogger()
	st := memory.New()
	clock := &testClock{now: time.Now()}

	tokens, err := auth.NewTokenService(cfg.Auth.Secret,
		time.Duration(cfg.Auth.TokenTTLSeconds)*time.Second,
		auth.WithClock(clock.Now))
	require.NoError(t, err)
	passwords, err := auth.NewPasswordPolicy(cfg.Auth)
	require.NoError(t, err)
	limiter := auth.NewLoginLimiter(cfg.Auth.LoginLimit, logger)

	authSvc := auth.NewService(st.Users(), tokens, passwords, limiter, logger)
	t.Cleanup(authSvc.Stop)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	srv := New(cfg, Deps{
		Auth:     authSvc,
		Ingestor: ingest.New(st.Logs(), logger),
		Engine:   query.New(st.Logs(), cfg.Query.UnsetParams, logger),
		Store:    st,
		Metrics:  m,
		Logger:   logger,
	})

	ln := fasthttputil.NewInmemoryListener()
	srv.Serve(ln)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}

	return &testEnv{t: t, srv: srv, client: client, store: st, clock: clock}
}

func (e *testEnv) do(method, path, token, body string) (int, []byte) {
	e.t.Helper()

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://logvault.test" + path)
	req.Header.SetMethod(method)
	if token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}

	require.NoError(e.t, e.client.Do(req, resp))
	return resp.StatusCode(), append([]byte(nil), resp.Body()...)
}

func (e *testEnv) register(username, password, role string) {
	e.t.Helper()
	status, body := e.do("POST", "/register", "",
		fmt.Sprintf(`{"username":%q,"password":%q,"role":%q}`, username, password, role))
	require.Equal(e.t, fasthttp.StatusCreated, status, string(body))
}

func (e *testEnv) login(username, password string) string {
	e.t.Helper()
	status, body := e.do("POST", "/login", "",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	require.Equal(e.t, fasthttp.StatusOK, status, string(body))

	var resp map[string]string
	require.NoError(e.t, json.Unmarshal(body, &resp))
	require.NotEmpty(e.t, resp["token"])
	return resp["token"]
}

func (e *testEnv) adminToken() string {
	e.register("root", "pw", core.RoleAdmin)
	return e.login("root", "pw")
}

func (e *testEnv) ingest(token, body string) {
	e.t.Helper()
	status, resp := e.do("POST", "/ingest", token, body)
	require.Equal(e.t, fasthttp.StatusOK, status, string(resp))
}

func decodeRecords(t *testing.T, body []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	return out["error"]
}

func TestRegisterTwice(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do("POST", "/register", "", `{"username":"alice","password":"pw","role":"admin"}`)
	require.Equal(t, fasthttp.StatusCreated, status)
	var created map[string]string
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "User registered successfully", created["message"])
	assert.NotEmpty(t, created["id"])

	status, body = env.do("POST", "/register", "", `{"username":"alice","password":"other","role":"viewer"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Equal(t, "Username already exists", errorOf(t, body))

	assert.Equal(t, 1, env.store.GetStats()["user_count"])
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do("POST", "/register", "", `{"password":"pw"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Equal(t, "Username is required", errorOf(t, body))

	status, _ = env.do("POST", "/register", "", `{"username":`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register("alice", "pw", "viewer")

	status, body := env.do("POST", "/login", "", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username or password", errorOf(t, body))

	status, _ = env.do("POST", "/login", "", `{"username":"nobody","password":"pw"}`)
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
}

func TestLoginThrottled(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Auth.LoginLimit.Enabled = true
		c.Auth.LoginLimit.Burst = 2
	})
	env.register("alice", "pw", "viewer")

	for i := 0; i < 2; i++ {
		status, _ := env.do("POST", "/login", "", `{"username":"alice","password":"wrong"}`)
		require.Equal(t, fasthttp.StatusUnauthorized, status)
	}

	status, body := env.do("POST", "/login", "", `{"username":"alice","password":"pw"}`)
	assert.Equal(t, fasthttp.StatusTooManyRequests, status)
	assert.Equal(t, "Too many login attempts, try again later", errorOf(t, body))
}

func TestAdminIngestThenQuery(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.adminToken()

	status, body := env.do("POST", "/ingest", token,
		`{"level":"error","message":"disk full","resourceId":"r1","traceId":"t1"}`)
	require.Equal(t, fasthttp.StatusOK, status, string(body))
	var ack map[string]string
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.Equal(t, "Log ingested successfully", ack["message"])

	status, body = env.do("GET", "/logsByResourceId?resourceId=r1", token, "")
	require.Equal(t, fasthttp.StatusOK, status)

	records := decodeRecords(t, body)
	require.Len(t, records, 1)
	assert.Equal(t, ack["id"], records[0]["id"])
	assert.Equal(t, "error", records[0]["level"])
	assert.Equal(t, "disk full", records[0]["message"])
	assert.Equal(t, "r1", records[0]["resourceId"])
	assert.Equal(t, "t1", records[0]["traceId"])
	assert.Equal(t, "root", records[0]["issuer"])
	assert.NotEmpty(t, records[0]["timestamp"])
}

func TestNonAdminCannotIngest(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register("eve", "pw", "viewer")
	token := env.login("eve", "pw")

	status, body := env.do("POST", "/ingest", token, `{"message":"sneaky"}`)
	assert.Equal(t, fasthttp.StatusForbidden, status)
	assert.Equal(t, "Permission denied. Only admin users can ingest logs.", errorOf(t, body))

	logs, err := env.store.Logs().Find(context.Background(), filter.New())
	require.NoError(t, err)
	assert.Empty(t, logs)

	// Reads are allowed for any authenticated role
	status, _ = env.do("GET", "/logs?level=error", token, "")
	assert.Equal(t, fasthttp.StatusOK, status)
}

func TestExpiredTokenRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.adminToken()

	env.clock.now = env.clock.now.Add(time.Hour + time.Minute)

	status, body := env.do("GET", "/logs?level=error", token, "")
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", errorOf(t, body))

	status, _ = env.do("POST", "/ingest", token, `{"message":"late"}`)
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
}

func TestInvalidBearer(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do("GET", "/logs", "garbage", "")
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", errorOf(t, body))

	other, err := auth.NewTokenService("another-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue(core.User{Username: "root", Role: core.RoleAdmin})
	require.NoError(t, err)

	status, body = env.do("POST", "/ingest", forged, `{"message":"forged"}`)
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", errorOf(t, body))
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)

	protected := []struct{ method, path string }{
		{"POST", "/ingest"},
		{"GET", "/logs"},
		{"GET", "/logsByMessage?message=x"},
		{"GET", "/logsByResourceId?resourceId=x"},
		{"GET", "/logsByTimestampRange"},
		{"GET", "/logsByTraceId?traceId=x"},
		{"GET", "/logsBySpanId?spanId=x"},
		{"GET", "/logsByCommit?commit=x"},
		{"GET", "/logsByParentResourceId?parentResourceId=x"},
	}

	for _, p := range protected {
		t.Run(p.path, func(t *testing.T) {
			body := ""
			if p.method == "POST" {
				body = `{"message":"should not be stored"}`
			}
			status, resp := env.do(p.method, p.path, "", body)
			assert.Equal(t, fasthttp.StatusUnauthorized, status)
			assert.Equal(t, "No token provided", errorOf(t, resp))
		})
	}

	logs, err := env.store.Logs().Find(context.Background(), filter.New())
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestNonBearerSchemeIsMissingToken(t *testing.T) {
	env := newTestEnv(t, nil)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://logvault.test/logs")
	req.Header.Set(fasthttp.HeaderAuthorization, "Basic cm9vdDpwdw==")
	require.NoError(t, env.client.Do(req, resp))

	assert.Equal(t, fasthttp.StatusUnauthorized, resp.StatusCode())
	assert.Equal(t, "No token provided", errorOf(t, resp.Body()))
}

func TestLogsByMessageCaseInsensitive(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.adminToken()
	env.ingest(token, `{"level":"error","message":"disk full"}`)
	env.ingest(token, `{"level":"info","message":"all good"}`)

	status, body := env.do("GET", "/logsByMessage?message=DISK", token, "")
	require.Equal(t, fasthttp.StatusOK, status)
	records := decodeRecords(t, body)
	require.Len(t, records, 1)
	assert.Equal(t, "disk full", records[0]["message"])

	status, body = env.do("GET", "/logsByMessage?message="+url.QueryEscape("(bad"), token, "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Contains(t, errorOf(t, body), "invalid query")
}

func TestLogsByTimestampRange(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.adminToken()
	env.ingest(token, `{"level":"info","message":"first","timestamp":"2024-01-01T00:00:00Z"}`)
	env.ingest(token, `{"level":"info","message":"last","timestamp":"2024-01-31T00:00:00Z"}`)
	env.ingest(token, `{"level":"info","message":"february","timestamp":"2024-02-01T00:00:00Z"}`)
	env.ingest(token, `{"level":"error","message":"mid","timestamp":"2024-01-15T12:00:00Z","metadata":{"parentResourceId":"p1"}}`)

	status, body := env.do("GET", "/logsByTimestampRange?startDate=2024-01-01&endDate=2024-01-31", token, "")
	require.Equal(t, fasthttp.StatusOK, status)
	var got []string
	for _, r := range decodeRecords(t, body) {
		got = append(got, r["message"].(string))
	}
	assert.Equal(t, []string{"first", "last", "mid"}, got)

	status, body = env.do("GET",
		"/logsByTimestampRange?level=error&metadata.parentResourceId=p1&startDate=2024-01-01&endDate=2024-01-31",
		token, "")
	require.Equal(t, fasthttp.StatusOK, status)
	records := decodeRecords(t, body)
	require.Len(t, records, 1)
	assert.Equal(t, "mid", records[0]["message"])

	status, body = env.do("GET", "/logsByTimestampRange?startDate=not-a-date&endDate=2024-01-31", token, "")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, "[]", string(body))
}

func TestSearchWithFullText(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.adminToken()
	env.ingest(token, `{"level":"error","message":"Failed to connect to DB"}`)
	env.ingest(token, `{"level":"error","message":"disk full"}`)
	env.ingest(token, `{"level":"info","message":"connect ok"}`)

	status, body := env.do("GET", "/logs?level=error&q=connect", token, "")
	require.Equal(t, fasthttp.StatusOK, status)
	records := decodeRecords(t, body)
	require.Len(t, records, 1)
	assert.Equal(t, "Failed to connect to DB", records[0]["message"])
}

func TestNoMatchIsEmptyArray(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.adminToken()
	env.ingest(token, `{"level":"info","message":"x","traceId":"t1"}`)

	for _, path := range []string{
		"/logs?level=fatal",
		"/logsByTraceId?traceId=none",
		"/logsByCommit?commit=deadbeef",
		"/logsByCommit?commit=",
		"/logs?level=",
		"/logsByTimestampRange?startDate=2000-01-01&endDate=2000-01-02",
	} {
		status, body := env.do("GET", path, token, "")
		assert.Equal(t, fasthttp.StatusOK, status, path)
		assert.Equal(t, "[]", string(body), path)
	}
}

func TestUnsetParamPolicies(t *testing.T) {
	for _, tt := range []struct {
		policy string
		want   int
	}{
		{config.UnsetAbsent, 1},
		{config.UnsetOmit, 2},
	} {
		t.Run(tt.policy, func(t *testing.T) {
			env := newTestEnv(t, func(c *config.Config) { c.Query.UnsetParams = tt.policy })
			token := env.adminToken()
			env.ingest(token, `{"message":"with trace","traceId":"t1"}`)
			env.ingest(token, `{"message":"without trace"}`)

			status, body := env.do("GET", "/logsByTraceId", token, "")
			require.Equal(t, fasthttp.StatusOK, status)
			assert.Len(t, decodeRecords(t, body), tt.want)
		})
	}
}

func TestIngestBodyValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.adminToken()

	status, _ := env.do("POST", "/ingest", token, `{"level":`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)

	status, _ = env.do("POST", "/ingest", token, `[{"level":"info"}]`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)

	status, _ = env.do("POST", "/ingest", token, `{"timestamp":"whenever"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)

	// Unknown fields are ignored
	status, _ = env.do("POST", "/ingest", token, `{"message":"ok","extra":{"nested":true}}`)
	assert.Equal(t, fasthttp.StatusOK, status)
}

func TestRoutingErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do("GET", "/nope", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, status)
	assert.Equal(t, "Not Found", errorOf(t, body))

	status, body = env.do("GET", "/ingest", "", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method Not Allowed", errorOf(t, body))

	status, _ = env.do("POST", "/logs", "", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, status)
}

func TestHealthStatusMetrics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.adminToken()

	status, body := env.do("GET", "/health", "", "")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	status, body = env.do("GET", "/status", "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	var st map[string]any
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "LogVault", st["service"])
	components := st["components"].(map[string]any)
	assert.Contains(t, components, "auth")
	assert.Contains(t, components, "store")

	status, body = env.do("GET", "/metrics", "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, string(body), "logvault_http_requests_total")
	assert.Contains(t, string(body), `logvault_auth_events_total{event="login",result="success"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Metrics.Enabled = false })

	status, _ := env.do("GET", "/metrics", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, status)
	assert.NotContains(t, env.srv.Routes(), "/metrics")
}

func TestPipelineShortCircuits(t *testing.T) {
	var calls []string
	gate := func(name string, err error) Gate {
		return func(*fasthttp.RequestCtx) error {
			calls = append(calls, name)
			return err
		}
	}

	p := Pipeline{gate("a", nil), gate("b", core.ErrAuthMissing), gate("c", nil)}
	err := p.Run(&fasthttp.RequestCtx{})
	assert.ErrorIs(t, err, core.ErrAuthMissing)
	assert.Equal(t, []string{"a", "b"}, calls)

	calls = nil
	assert.NoError(t, Pipeline{}.Run(&fasthttp.RequestCtx{}))
	assert.Empty(t, calls)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{core.ErrAuthMissing, 401},
		{auth.ErrTokenExpired, 401},
		{core.ErrPermissionDenied, 403},
		{core.ErrDuplicateUsername, 400},
		{core.ErrInvalidUser, 400},
		{core.ErrInvalidCredentials, 401},
		{core.ErrTooManyAttempts, 429},
		{core.ErrInvalidQuery, 400},
		{core.ErrBadRequest, 400},
		{core.ErrPersistence, 500},
		{fmt.Errorf("boom"), 500},
	}
	for _, tt := range tests {
		status, msg := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.NotEmpty(t, msg)
	}

	_, msg := classify(fmt.Errorf("%w: mongo timeout", core.ErrPersistence))
	assert.Equal(t, "Internal Server Error", msg)
}
