// Package leaderboard строит рейтинг пользователей по числу полученных дельт
// и подставляет его в описание сообщества.
// models.go описывает строку рейтинга и шаблон описания.
package leaderboard

// Entry — строка рейтинга. Rank начинается с 1.
type Entry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Awards   int    `json:"awards"`
}

// Placeholder заменяется в шаблоне описания строками рейтинга.
const Placeholder = "{{ leaderboard }}"

// DefaultDescription — описание сообщества changemyview.
const DefaultDescription = `A place to post opinions you want challenged.

OP makes a post to have an opinion challenged, i.e. "Hot dogs taste better with ketchup." Everyone else tries to change OP's view.

Any user (OP or not) should reply with a !delta when their view has been changed in order to give the other person a delta ∆ award. A leaderboard will be kept of users with the most deltas.

Wiki https://discuit.wiki/changemyview/home

**Leaderboard**
{{ leaderboard }}

Complete leaderboard at https://changemyview.org/`
