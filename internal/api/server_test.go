package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZertGraf/observ/internal/api/handler"
	"github.com/ZertGraf/observ/internal/api/middleware"
	"github.com/ZertGraf/observ/internal/auth"
	"github.com/ZertGraf/observ/internal/commits"
	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/ZertGraf/observ/internal/repository/memory"
	"github.com/ZertGraf/observ/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	err error
}

func (f stubFetcher) Fetch(_ context.Context, endpoint string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`[{"sha":"` + endpoint[len(endpoint)-3:] + `"}]`), nil
}

type testServer struct {
	handler http.Handler
	ready   error
	store   *memory.Store
	tokens  *auth.Tokens
}

func newTestServer(t *testing.T, fetcher commits.Fetcher) *testServer {
	t.Helper()

	s := &testServer{}

	store := memory.New()
	store.PutUser(domain.User{ID: 1, Username: "basic", Tier: 0})
	store.PutUser(domain.User{ID: 2, Username: "manager", Tier: 1})
	store.PutUser(domain.User{ID: 3, Username: "admin", Tier: 2})

	tokens, err := auth.NewTokens(&auth.Config{
		Secret: "0123456789abcdef0123456789abcdef",
		Issuer: "observ-test",
		TTL:    time.Hour,
	})
	require.NoError(t, err)

	log := logger.Discard()
	svc := service.NewProjectService(
		store.Projects(),
		store.Users(),
		store.Memberships(),
		commits.NewAggregator(fetcher, 2, log),
		log,
	)

	router := NewRouter(
		&ServerConfig{RequestTimeout: 5 * time.Second, CORSOrigins: []string{"https://ui.example.com"}},
		handler.NewProjectHandler(svc, log),
		handler.NewUserHandler(service.NewUserService(store.Users(), log), log),
		middleware.Authenticate(tokens, store.Users(), log),
		func(context.Context) error { return s.ready },
		log,
	)

	s.handler, s.store, s.tokens = router, store, tokens
	return s
}

func (s *testServer) do(t *testing.T, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID > 0 {
		token, _, err := s.tokens.Issue(userID, 0)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorCode {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := s.do(t, http.MethodGet, "/health", 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestReady(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := s.do(t, http.MethodGet, "/ready", 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[handler.StatusResponse](t, rec).Status)

	s.ready = errors.New("postgres health check failed: connection refused")
	rec = s.do(t, http.MethodGet, "/ready", 0, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decode[handler.StatusResponse](t, rec).Status)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCreateAndGetProject(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := s.do(t, http.MethodPost, "/projects", 1,
		`{"name":"observ","owner_id":3,"active":true,"repos":["https://github.com/acme/api","gitlab.com/x/y"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[handler.ProjectResponse](t, rec).Project
	assert.Equal(t, int64(1), created.OwnerID)
	assert.Equal(t, []string{"https://github.com/acme/api", "gitlab.com/x/y"}, created.Repos)
	assert.Equal(t, "/projects/1", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/projects/1", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		ID      int64          `json:"id"`
		Name    string         `json:"name"`
		Members []*domain.User `json:"members"`
	}
	body := decode[map[string]json.RawMessage](t, rec)
	require.NoError(t, json.Unmarshal(body["project"], &detail))
	assert.Equal(t, "observ", detail.Name)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, int64(1), detail.Members[0].ID)
}

func TestCreateRequiresIdentity(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := s.do(t, http.MethodPost, "/projects", 0, `{"name":"observ","repos":[]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handler.CodeUnauthenticated, errorCode(t, rec))
}

func TestCreateRejectsMalformedInput(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := s.do(t, http.MethodPost, "/projects", 1, `{"name":"observ","repos":"not a list"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handler.CodeValidation, errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/projects", 1, `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handler.CodeBadRequest, errorCode(t, rec))
}

func TestInvalidTokenIsRejected(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestGetProjectByNameRedirects(t *testing.T) {
	s := newTestServer(t, stubFetcher{})
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/projects", 1, `{"name":"observ","repos":[]}`).Code)

	rec := s.do(t, http.MethodGet, "/projects/obs%25", 0, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/projects/1", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/projects/missing", 0, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProjectsSearch(t *testing.T) {
	s := newTestServer(t, stubFetcher{})
	s.do(t, http.MethodPost, "/projects", 1, `{"name":"alpha","repos":[]}`)
	s.do(t, http.MethodPost, "/projects", 1, `{"name":"beta","repos":[]}`)

	rec := s.do(t, http.MethodGet, "/projects?search=alp", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	projects := decode[handler.ProjectsResponse](t, rec).Projects
	require.Len(t, projects, 1)
	assert.Equal(t, "alpha", projects[0].Name)

	rec = s.do(t, http.MethodGet, "/projects", 0, "")
	assert.Len(t, decode[handler.ProjectsResponse](t, rec).Projects, 2)
}

func TestEditAndDeletePermissions(t *testing.T) {
	s := newTestServer(t, stubFetcher{})
	s.do(t, http.MethodPost, "/projects", 1, `{"name":"observ","repos":[]}`)

	rec := s.do(t, http.MethodPut, "/projects/1", 2, `{"name":"renamed","active":true,"repos":[]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handler.CodeUnauthorized, errorCode(t, rec))

	rec = s.do(t, http.MethodPut, "/projects/1", 3, `{"name":"renamed","active":true,"repos":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[handler.ProjectResponse](t, rec).Project
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, int64(1), updated.OwnerID)

	rec = s.do(t, http.MethodDelete, "/projects/1", 2, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, "/projects/1", 1, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, s.store.MemberCount(1))

	rec = s.do(t, http.MethodGet, "/projects/1", 0, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMembershipFlow(t *testing.T) {
	s := newTestServer(t, stubFetcher{})
	s.do(t, http.MethodPost, "/projects", 1, `{"name":"observ","active":true,"repos":[]}`)

	rec := s.do(t, http.MethodGet, "/projects/1/members/candidates", 2, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[handler.UsersResponse](t, rec).Users, 2)

	rec = s.do(t, http.MethodPost, "/projects/1/members", 2, `{"user_id":3}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/projects/1/members", 2, `{"user_id":3}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, handler.CodeAlreadyMember, errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/projects/1/members", 2, `{"user_id":99}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/projects/1/join", 2, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/projects/1/members", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[handler.UsersResponse](t, rec).Users, 3)

	rec = s.do(t, http.MethodDelete, "/projects/1/members/3", 2, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 2, s.store.MemberCount(1))

	rec = s.do(t, http.MethodDelete, "/projects/1/members/abc", 2, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinInactiveProject(t *testing.T) {
	s := newTestServer(t, stubFetcher{})
	s.do(t, http.MethodPost, "/projects", 1, `{"name":"observ","active":false,"repos":[]}`)

	rec := s.do(t, http.MethodPost, "/projects/1/join", 2, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, handler.CodeProjectInactive, errorCode(t, rec))
}

func TestCommits(t *testing.T) {
	s := newTestServer(t, stubFetcher{})
	s.do(t, http.MethodPost, "/projects", 1,
		`{"name":"with","repos":["https://github.com/acme/one","github.com/acme/two/"]}`)
	s.do(t, http.MethodPost, "/projects", 1, `{"name":"without","repos":["gitlab.com/acme/one"]}`)

	rec := s.do(t, http.MethodGet, "/projects/1/commits", 0, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	records := decode[handler.CommitsResponse](t, rec).Commits
	require.Len(t, records, 2)
	assert.Contains(t, records[0].Endpoint, "/repos/acme/one/commits")
	assert.Contains(t, records[1].Endpoint, "/repos/acme/two/commits")

	rec = s.do(t, http.MethodGet, "/projects/2/commits", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"project_id":2,"commits":null}`, rec.Body.String())
}

func TestCommitsUpstreamFailure(t *testing.T) {
	s := newTestServer(t, stubFetcher{err: assert.AnError})
	s.do(t, http.MethodPost, "/projects", 1, `{"name":"with","repos":["https://github.com/acme/one"]}`)

	rec := s.do(t, http.MethodGet, "/projects/1/commits", 0, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, handler.CodeUpstream, errorCode(t, rec))
}

func TestUsers(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	rec := s.do(t, http.MethodGet, "/users/me", 2, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{"id":2,"username":"manager","tier":1}}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/users/me", 0, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/3", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decode[handler.UserResponse](t, rec).User.Username)

	rec = s.do(t, http.MethodGet, "/users/42", 0, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, stubFetcher{})

	req := httptest.NewRequest(http.MethodOptions, "/projects", nil)
	req.Header.Set("Origin", "https://ui.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://ui.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
