// Package delta реализует выдачу дельт: поиск триггера, проверку правил,
// запись награды и ответ в ветке.
// models.go описывает награду и исход обработки комментария.
package delta

import "time"

// Award — выданная дельта. Одна на (community, post_id, awardee_username).
type Award struct {
	ID               int64     `db:"id" json:"id"`
	Community        string    `db:"community" json:"community"`
	PostID           string    `db:"post_id" json:"postId"` // публичный ID поста
	PostTitle        string    `db:"post_title" json:"postTitle"`
	CommentID        string    `db:"comment_id" json:"commentId"`
	AwardeeUsername  string    `db:"awardee_username" json:"awardeeUsername"`
	AwardeeCommentID string    `db:"awardee_comment_id" json:"awardeeCommentId"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// Reason — причина пропуска комментария.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonSelf             Reason = "self"              // комментарий самого бота
	ReasonAlreadyProcessed Reason = "already-processed" // уже разобран раньше
	ReasonNoTrigger        Reason = "no-trigger"        // нет родителя или триггера
	ReasonTooShort         Reason = "too-short"
	ReasonMissingParent    Reason = "missing-parent"
	ReasonSelfAward        Reason = "self-award" // ответ самому себе
	ReasonMissingPost      Reason = "missing-post"
	ReasonDuplicate        Reason = "duplicate" // за этот пост дельта уже есть
)

// Outcome — результат Evaluate.
type Outcome struct {
	Granted bool
	Reason  Reason // пусто, если Granted
	Award   *Award // только при Granted
	Total   int    // дельт у получателя в сообществе (если считали)
}

// Label — метка исхода для логов и метрик.
func (o Outcome) Label() string {
	if o.Granted {
		return "granted"
	}
	return string(o.Reason)
}

func skipped(r Reason) Outcome {
	return Outcome{Reason: r}
}
