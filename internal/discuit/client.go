// Package discuit — client.go выполняет запросы к API discuit.net:
// логин с CSRF-токеном, чтение комментариев и постов, публикация ответов.
package discuit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/common"
)

const csrfHeader = "Csrf-Token"

// Config — параметры клиента.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	WatchInterval time.Duration // пауза между проходами WatchComments
	WatchPosts    int           // сколько свежих постов сообщества смотреть за проход
}

// APIError — ответ API с неуспешным статусом.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discuit %s %s: статус %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client работает с API discuit.net от имени аккаунта бота.
type Client struct {
	baseURL string
	http    *http.Client
	cfg     Config

	mu       sync.RWMutex
	csrf     string
	username string
	password string
	user     *User
}

// New создаёт клиента. Сессия хранится в cookie jar.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("discuit: пустой BaseURL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = 5 * time.Minute
	}
	if cfg.WatchPosts <= 0 {
		cfg.WatchPosts = 25
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("discuit: cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout, Jar: jar},
		cfg:     cfg,
	}, nil
}

// Login получает CSRF-токен и входит под аккаунтом бота.
// Учётные данные запоминаются для повторного входа при протухшей сессии.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	if err := c.refreshCSRF(ctx); err != nil {
		return nil, err
	}

	var user User
	payload := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/_login", nil, payload, &user); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %v", common.ErrLoginFailed, err)
		}
		return nil, err
	}
	if user.Username == "" {
		return nil, common.ErrLoginFailed
	}

	c.mu.Lock()
	c.username, c.password, c.user = username, password, &user
	c.mu.Unlock()

	log.WithField("username", user.Username).Info("Авторизован в discuit")
	return &user, nil
}

// Me возвращает аккаунт бота (nil до Login).
func (c *Client) Me() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// GetComment возвращает комментарий по ID. Если комментария нет — nil, nil.
func (c *Client) GetComment(ctx context.Context, id string) (*Comment, error) {
	var comment Comment
	err := c.do(ctx, http.MethodGet, "/api/comments/"+url.PathEscape(id), nil, nil, &comment)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetPost возвращает пост по публичному ID. Если поста нет — nil, nil.
func (c *Client) GetPost(ctx context.Context, publicID string) (*Post, error) {
	var post Post
	err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(publicID), nil, nil, &post)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetCommunity возвращает сообщество по ID. Если сообщества нет — nil, nil.
func (c *Client) GetCommunity(ctx context.Context, id string) (*Community, error) {
	var community Community
	q := url.Values{"byName": {"false"}}
	err := c.do(ctx, http.MethodGet, "/api/communities/"+url.PathEscape(id), q, nil, &community)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// PostComment публикует ответ на комментарий parentCommentID в посте postPublicID.
// userGroup — от чьего имени ("mods", "admins" или пусто).
func (c *Client) PostComment(ctx context.Context, postPublicID, body, parentCommentID, userGroup string) error {
	q := url.Values{}
	if userGroup != "" {
		q.Set("userGroup", userGroup)
	}
	payload := map[string]any{"body": body}
	if parentCommentID != "" {
		payload["parentCommentId"] = parentCommentID
	}
	path := "/api/posts/" + url.PathEscape(postPublicID) + "/comments"
	return c.do(ctx, http.MethodPost, path, q, payload, nil)
}

// UpdateCommunityDescription должен обновлять описание сообщества.
// Эндпоинт на стороне discuit сейчас не работает, поэтому метод — заглушка.
func (c *Client) UpdateCommunityDescription(_ context.Context, _ string, _ string) error {
	return common.ErrNotSupported
}

// latestPosts возвращает свежие посты сообщества.
func (c *Client) latestPosts(ctx context.Context, communityID string, limit int) ([]*Post, error) {
	q := url.Values{
		"communityId": {communityID},
		"sort":        {"latest"},
		"limit":       {fmt.Sprint(limit)},
	}
	var page postsPage
	if err := c.do(ctx, http.MethodGet, "/api/posts", q, nil, &page); err != nil {
		return nil, err
	}
	return page.Posts, nil
}

// postComments возвращает все комментарии поста, проходя по страницам.
func (c *Client) postComments(ctx context.Context, publicID string) ([]*Comment, error) {
	const maxPages = 20

	var out []*Comment
	path := "/api/posts/" + url.PathEscape(publicID) + "/comments"
	q := url.Values{}
	for i := 0; i < maxPages; i++ {
		var page commentsPage
		if err := c.do(ctx, http.MethodGet, path, q, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Comments...)
		if page.Next == nil || *page.Next == "" || len(page.Comments) == 0 {
			break
		}
		q.Set("next", *page.Next)
	}
	return out, nil
}

// refreshCSRF получает CSRF-токен (и сессионную cookie) через /api/_initial.
func (c *Client) refreshCSRF(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/_initial", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("discuit: получение CSRF: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	token := resp.Header.Get(csrfHeader)
	if token == "" {
		return fmt.Errorf("discuit: сервер не вернул %s (статус %d)", csrfHeader, resp.StatusCode)
	}

	c.mu.Lock()
	c.csrf = token
	c.mu.Unlock()
	return nil
}

// relogin повторяет вход с сохранёнными учётными данными.
func (c *Client) relogin(ctx context.Context) error {
	c.mu.RLock()
	username, password := c.username, c.password
	c.mu.RUnlock()
	if username == "" {
		return common.ErrUnauthorized
	}
	log.Warn("Сессия discuit истекла, входим заново")
	_, err := c.Login(ctx, username, password)
	return err
}

// do выполняет запрос. 404 → common.ErrNotFound; 401 на запросе после логина —
// один повторный вход и повтор запроса.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	err := c.doOnce(ctx, method, path, q, in, out)
	if errors.Is(err, common.ErrUnauthorized) && path != "/api/_login" {
		if rerr := c.relogin(ctx); rerr != nil {
			return fmt.Errorf("%w: %v", common.ErrUnauthorized, rerr)
		}
		return c.doOnce(ctx, method, path, q, in, out)
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("discuit: кодирование запроса: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.csrf != "" {
		req.Header.Set("X-Csrf-Token", c.csrf)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("discuit %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("discuit %s %s: чтение ответа: %w", method, path, err)
	}

	if token := resp.Header.Get(csrfHeader); token != "" {
		c.mu.Lock()
		c.csrf = token
		c.mu.Unlock()
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("discuit %s %s: %w", method, path, common.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized && path != "/api/_login":
		return fmt.Errorf("discuit %s %s: %w", method, path, common.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: common.Truncate(string(raw), 200)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("discuit %s %s: разбор ответа: %w", method, path, err)
	}
	return nil
}
