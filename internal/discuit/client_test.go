package discuit

// Тесты HTTP-клиента discuit на httptest-сервере:
//  - логин: CSRF через /api/_initial, X-Csrf-Token на запросах, 401 → ErrLoginFailed;
//  - 404 на комментарий/пост → nil без ошибки;
//  - PostComment передаёт тело, parentCommentId и userGroup;
//  - повторный логин при протухшей сессии;
//  - WatchComments доставляет комментарии свежих постов и завершается по отмене ctx.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"serotonyl.ru/delta-bot/internal/common"
)

// fakeDiscuit — минимальная имитация API discuit.
type fakeDiscuit struct {
	t *testing.T

	mu        sync.Mutex
	posted    []map[string]any
	postedQ   []string
	loggedIn  bool
	expireOne atomic.Bool // следующий защищённый запрос вернёт 401
	logins    atomic.Int32
}

func (f *fakeDiscuit) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	csrfOK := func(r *http.Request) bool { return r.Header.Get("X-Csrf-Token") == "tok-1" }

	mux.HandleFunc("GET /api/_initial", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Csrf-Token", "tok-1")
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "s1", Path: "/"})
		writeJSON(w, map[string]any{})
	})
	mux.HandleFunc("POST /api/_login", func(w http.ResponseWriter, r *http.Request) {
		if !csrfOK(r) {
			http.Error(w, "csrf", http.StatusForbidden)
			return
		}
		var in map[string]string
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		f.logins.Add(1)
		if in["password"] != "secret" {
			http.Error(w, `{"status":401}`, http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.loggedIn = true
		f.mu.Unlock()
		writeJSON(w, User{ID: "u-bot", Username: in["username"]})
	})
	mux.HandleFunc("GET /api/comments/{id}", func(w http.ResponseWriter, r *http.Request) {
		if f.expireOne.CompareAndSwap(true, false) {
			http.Error(w, "expired", http.StatusUnauthorized)
			return
		}
		if r.PathValue("id") != "c-parent" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, Comment{ID: "c-parent", Username: "alice", Body: "a view"})
	})
	mux.HandleFunc("GET /api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "p1" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, Post{ID: "post-1", PublicID: "p1", Title: "Hot dogs", CommunityName: "changemyview"})
	})
	mux.HandleFunc("GET /api/posts", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, "cmv-id", r.URL.Query().Get("communityId"))
		require.Equal(f.t, "latest", r.URL.Query().Get("sort"))
		writeJSON(w, postsPage{Posts: []*Post{
			{PublicID: "p1", Title: "Hot dogs", CommunityName: "changemyview", NoComments: 2},
			{PublicID: "p2", Title: "Empty", CommunityName: "changemyview", NoComments: 0},
		}})
	})
	mux.HandleFunc("GET /api/posts/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, "p1", r.PathValue("id"))
		parent := "c1"
		if r.URL.Query().Get("next") == "" {
			next := "cursor-2"
			writeJSON(w, commentsPage{
				Comments: []*Comment{{ID: "c1", Username: "alice", CommunityName: "changemyview", Body: "view"}},
				Next:     &next,
			})
			return
		}
		writeJSON(w, commentsPage{Comments: []*Comment{
			{ID: "c2", ParentID: &parent, Username: "bob", CommunityName: "changemyview", Body: "!delta"},
			{ID: "c3", Username: "ghost", Deleted: true},
		}})
	})
	mux.HandleFunc("POST /api/posts/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		if !csrfOK(r) {
			http.Error(w, "csrf", http.StatusForbidden)
			return
		}
		var in map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		f.mu.Lock()
		f.posted = append(f.posted, in)
		f.postedQ = append(f.postedQ, r.URL.Query().Get("userGroup"))
		f.mu.Unlock()
		writeJSON(w, Comment{ID: "reply"})
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeDiscuit) {
	t.Helper()
	f := &fakeDiscuit{t: t}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second, WatchInterval: time.Hour, WatchPosts: 5})
	require.NoError(t, err)
	return c, f
}

func TestClient_Login(t *testing.T) {
	c, _ := newTestClient(t)

	user, err := c.Login(context.Background(), "deltabot", "secret")
	require.NoError(t, err)
	require.Equal(t, "deltabot", user.Username)
	require.Equal(t, "deltabot", c.Me().Username)
}

func TestClient_Login_WrongPassword(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Login(context.Background(), "deltabot", "nope")
	require.ErrorIs(t, err, common.ErrLoginFailed)
	require.Nil(t, c.Me())
}

func TestClient_GetComment_And_Post(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	parent, err := c.GetComment(ctx, "c-parent")
	require.NoError(t, err)
	require.Equal(t, "alice", parent.Username)

	missing, err := c.GetComment(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	post, err := c.GetPost(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Hot dogs", post.Title)

	noPost, err := c.GetPost(ctx, "gone")
	require.NoError(t, err)
	require.Nil(t, noPost)
}

func TestClient_PostComment(t *testing.T) {
	c, f := newTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "deltabot", "secret")
	require.NoError(t, err)

	require.NoError(t, c.PostComment(ctx, "p1", "You awarded a delta", "c2", "mods"))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.posted, 1)
	require.Equal(t, "You awarded a delta", f.posted[0]["body"])
	require.Equal(t, "c2", f.posted[0]["parentCommentId"])
	require.Equal(t, "mods", f.postedQ[0])
}

func TestClient_ReloginOnExpiredSession(t *testing.T) {
	c, f := newTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "deltabot", "secret")
	require.NoError(t, err)

	f.expireOne.Store(true)
	parent, err := c.GetComment(ctx, "c-parent")
	require.NoError(t, err)
	require.Equal(t, "alice", parent.Username)
	require.Equal(t, int32(2), f.logins.Load())
}

func TestClient_UpdateCommunityDescription_NotSupported(t *testing.T) {
	c, _ := newTestClient(t)
	err := c.UpdateCommunityDescription(context.Background(), "cmv-id", "about")
	require.True(t, errors.Is(err, common.ErrNotSupported))
}

func TestClient_WatchComments(t *testing.T) {
	c, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []*Comment
	)
	done := make(chan error, 1)
	go func() {
		done <- c.WatchComments(ctx, []string{"cmv-id"}, func(_ context.Context, community string, cm *Comment) {
			require.Equal(t, "changemyview", community)
			mu.Lock()
			got = append(got, cm)
			n := len(got)
			mu.Unlock()
			if n == 2 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("WatchComments не завершился после отмены контекста")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2) // удалённый c3 не доставляется
	require.Equal(t, "c1", got[0].ID)
	require.Equal(t, "c2", got[1].ID)
	require.True(t, got[1].HasParent())
	require.Equal(t, "p1", got[1].PostPublicID) // дозаполняется из поста
	require.Equal(t, "Hot dogs", got[1].PostTitle)
}
