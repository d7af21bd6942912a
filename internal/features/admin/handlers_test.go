package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/delta-bot/internal/common"
	"serotonyl.ru/delta-bot/internal/features/communities"
	"serotonyl.ru/delta-bot/internal/features/delta"
	"serotonyl.ru/delta-bot/internal/features/leaderboard"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLeaderboard struct {
	entries   []leaderboard.Entry
	lastLimit int
	err       error
}

func (f *fakeLeaderboard) Generate(_ context.Context, limit int) ([]leaderboard.Entry, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeLeaderboard) Description(_ context.Context) (string, error) {
	return leaderboard.RenderDescription("Top:\n"+leaderboard.Placeholder, leaderboard.Lines(f.entries)), nil
}

type fakeAwards struct {
	mu     sync.Mutex
	awards []*delta.Award
}

func (f *fakeAwards) ListRecent(_ context.Context, _ int) ([]*delta.Award, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.awards, nil
}

func (f *fakeAwards) DeleteByID(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.awards {
		if a.ID == id {
			f.awards = append(f.awards[:i], f.awards[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeCommunities struct {
	list []*communities.Community
}

func (f *fakeCommunities) List(_ context.Context) ([]*communities.Community, error) {
	return f.list, nil
}

func (f *fakeCommunities) Add(_ context.Context, id, name string) (*communities.Community, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, common.ErrInvalidArgument
	}
	for _, c := range f.list {
		if c.ID == id {
			return nil, common.ErrAlreadyExists
		}
	}
	c := &communities.Community{ID: id, Name: name, CreatedAt: time.Now()}
	f.list = append(f.list, c)
	return c, nil
}

func (f *fakeCommunities) Remove(_ context.Context, id string) error {
	for i, c := range f.list {
		if c.ID == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

type countingReloader struct{ n int }

func (r *countingReloader) Reload() { r.n++ }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeStats struct {
	seen, runs int64
	err        error
}

func (f fakeStats) Count(context.Context) (int64, error)    { return f.seen, f.err }
func (f fakeStats) RunCount(context.Context) (int64, error) { return f.runs, f.err }

type env struct {
	router      *gin.Engine
	leaderboard *fakeLeaderboard
	awards      *fakeAwards
	communities *fakeCommunities
	reloader    *countingReloader
	attempts    *memAttempts
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		leaderboard: &fakeLeaderboard{entries: []leaderboard.Entry{
			{Rank: 1, Username: "bob", Awards: 5},
			{Rank: 2, Username: "alice", Awards: 3},
			{Rank: 3, Username: "carol", Awards: 1},
		}},
		awards: &fakeAwards{awards: []*delta.Award{{
			ID: 7, Community: "changemyview", PostID: "p1", PostTitle: "Hot dogs",
			CommentID: "c2", AwardeeUsername: "alice", CreatedAt: time.Now(),
		}}},
		communities: &fakeCommunities{list: []*communities.Community{{ID: "cmv-id", Name: "changemyview"}}},
		reloader:    &countingReloader{},
		attempts:    newMemAttempts(),
	}
	h := NewHandler(HandlerDeps{
		Service:     NewService(e.attempts, "op", hashPassword("hunter2")),
		Leaderboard: e.leaderboard,
		Awards:      e.awards,
		Communities: e.communities,
		Reloader:    e.reloader,
		Health:      map[string]Pinger{"postgres": fakePinger{}, "redis": fakePinger{}},
		Stats:       fakeStats{seen: 1234, runs: 7},
		Community:   "changemyview",
		BaseURL:     "https://discuit.net",
	})
	e.router = h.Router()
	return e
}

func (e *env) do(method, target string, body string, contentType string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		req.SetBasicAuth("op", "hunter2")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestIndex(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/", "", "", false)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "@bob")
	require.Contains(t, w.Body.String(), "5 delta ∆ awards")
	require.Contains(t, w.Body.String(), "1 delta ∆ award<")
	require.Equal(t, publicLeaderboardLimit, e.leaderboard.lastLimit)
}

func TestAPILeaderboard(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/api/leaderboard?limit=2", "", "", false)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Community string              `json:"community"`
		Leaders   []leaderboard.Entry `json:"leaders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "changemyview", resp.Community)
	require.Equal(t, []leaderboard.Entry{
		{Rank: 1, Username: "bob", Awards: 5},
		{Rank: 2, Username: "alice", Awards: 3},
	}, resp.Leaders)

	w = e.do(http.MethodGet, "/api/leaderboard", "", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, defaultAPILimit, e.leaderboard.lastLimit)

	w = e.do(http.MethodGet, "/api/leaderboard?limit=100000", "", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, publicLeaderboardLimit, e.leaderboard.lastLimit)

	for _, bad := range []string{"abc", "-1"} {
		w = e.do(http.MethodGet, "/api/leaderboard?limit="+bad, "", "", false)
		require.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestAPILeaderboard_Error(t *testing.T) {
	e := newEnv(t)
	e.leaderboard.err = errors.New("db down")

	w := e.do(http.MethodGet, "/api/leaderboard", "", "", false)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestShadows_RequiresAuth(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/theshadows", "", "", false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, `Basic realm="delta-bot"`, w.Header().Get("WWW-Authenticate"))

	w = e.do(http.MethodGet, "/theshadows", "", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "Hot dogs")
	require.Contains(t, body, "@alice")
	require.Contains(t, body, "1. @bob (5 ∆)")
	require.Contains(t, body, "cmv-id")
	require.Contains(t, body, "Processed comments: <b>1234</b>, bot runs: <b>7</b>")
}

func TestShadows_StatsUnavailable(t *testing.T) {
	e := newEnv(t)
	h := NewHandler(HandlerDeps{
		Service:     NewService(e.attempts, "op", hashPassword("hunter2")),
		Leaderboard: e.leaderboard,
		Awards:      e.awards,
		Communities: e.communities,
		Reloader:    e.reloader,
		Stats:       fakeStats{err: errors.New("redis down")},
		Community:   "changemyview",
	})

	req := httptest.NewRequest(http.MethodGet, "/theshadows", nil)
	req.SetBasicAuth("op", "hunter2")
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "Processed comments")
	require.Contains(t, w.Body.String(), "Hot dogs")
}

func TestShadows_BruteForce(t *testing.T) {
	e := newEnv(t)

	for i := 0; i < maxFailedAttempts; i++ {
		req := httptest.NewRequest(http.MethodGet, "/theshadows", nil)
		req.SetBasicAuth("op", "wrong")
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := e.do(http.MethodGet, "/theshadows", "", "", true)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestDeleteAward(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodDelete, "/theshadows/awards/abc", "", "", true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodDelete, "/theshadows/awards/7", "", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, e.awards.awards)

	w = e.do(http.MethodDelete, "/theshadows/awards/7", "", "", true)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Not found", w.Body.String())
}

func TestCommunities(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/theshadows/communities", `{"id":"other-id","name":"other"}`, "application/json", true)
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(http.MethodPost, "/theshadows/communities", `{"id":"other-id"}`, "application/json", true)
	require.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPost, "/theshadows/communities", `{"name":"x"}`, "application/json", true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	form := url.Values{"id": {"third-id"}}.Encode()
	w = e.do(http.MethodPost, "/theshadows/communities", form, "application/x-www-form-urlencoded", true)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/theshadows", w.Header().Get("Location"))

	w = e.do(http.MethodGet, "/theshadows/communities", "", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var list []communities.Community
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)

	w = e.do(http.MethodDelete, "/theshadows/communities/other-id", "", "", true)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodDelete, "/theshadows/communities/other-id", "", "", true)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReload(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/theshadows/reload", "", "", false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Zero(t, e.reloader.n)

	w = e.do(http.MethodPost, "/theshadows/reload", "", "", true)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, 1, e.reloader.n)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/healthz", "", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"postgres":"ok","redis":"ok"}`, w.Body.String())
}

func TestHealthz_Degraded(t *testing.T) {
	h := NewHandler(HandlerDeps{
		Service: NewService(newMemAttempts(), "op", hashPassword("hunter2")),
		Health:  map[string]Pinger{"redis": fakePinger{err: errors.New("connection refused")}},
	})
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "connection refused")
}

func TestMetrics(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/metrics", "", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
