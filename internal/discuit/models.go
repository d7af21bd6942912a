// Package discuit — тонкий HTTP-клиент к API discuit.net.
// models.go описывает сущности платформы в том виде, в каком их отдаёт API.
package discuit

import (
	"context"
	"time"
)

// Comment — комментарий в ветке обсуждения. Для бота только для чтения.
type Comment struct {
	ID            string    `json:"id"`
	PostID        string    `json:"postId"`
	PostPublicID  string    `json:"postPublicId"`
	PostTitle     string    `json:"postTitle,omitempty"`
	CommunityID   string    `json:"communityId"`
	CommunityName string    `json:"communityName"`
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	ParentID      *string   `json:"parentId"` // nil у комментариев верхнего уровня
	Depth         int       `json:"depth"`
	Body          string    `json:"body"`
	Deleted       bool      `json:"deleted"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HasParent сообщает, является ли комментарий ответом на другой комментарий.
func (c *Comment) HasParent() bool {
	return c.ParentID != nil && *c.ParentID != ""
}

// Post — пост сообщества.
type Post struct {
	ID            string    `json:"id"`
	PublicID      string    `json:"publicId"`
	Title         string    `json:"title"`
	CommunityID   string    `json:"communityId"`
	CommunityName string    `json:"communityName"`
	Username      string    `json:"username"`
	NoComments    int       `json:"noComments"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Community — сообщество.
type Community struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	About string `json:"about"`
}

// User — пользователь платформы (нужен только аккаунт бота после логина).
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// postsPage — ответ GET /api/posts.
type postsPage struct {
	Posts []*Post `json:"posts"`
	Next  *string `json:"next"`
}

// commentsPage — ответ GET /api/posts/{id}/comments.
type commentsPage struct {
	Comments []*Comment `json:"comments"`
	Next     *string    `json:"next"`
}

// CommentHandler вызывается на каждый комментарий, найденный при наблюдении.
// community — имя сообщества, к которому относится комментарий.
type CommentHandler func(ctx context.Context, community string, c *Comment)
