// Package admin — handlers.go обслуживает веб-админку и публичный лидерборд.
//
// Маршруты:
//
//	GET    /                               публичный лидерборд (HTML)
//	GET    /api/leaderboard?limit=          публичный лидерборд (JSON)
//	GET    /theshadows                      последние награды и описание сообщества
//	DELETE /theshadows/awards/:id           удалить награду
//	GET    /theshadows/communities          список сообществ
//	POST   /theshadows/communities          добавить сообщество
//	DELETE /theshadows/communities/:id      убрать сообщество
//	POST   /theshadows/reload               перезапустить наблюдение
//	GET    /metrics, /healthz
package admin

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/common"
	"serotonyl.ru/delta-bot/internal/features/communities"
	"serotonyl.ru/delta-bot/internal/features/delta"
	"serotonyl.ru/delta-bot/internal/features/leaderboard"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Leaderboard — рейтинг и описание сообщества.
type Leaderboard interface {
	Generate(ctx context.Context, limit int) ([]leaderboard.Entry, error)
	Description(ctx context.Context) (string, error)
}

// Awards — управление наградами.
type Awards interface {
	ListRecent(ctx context.Context, limit int) ([]*delta.Award, error)
	DeleteByID(ctx context.Context, id int64) error
}

// Communities — список сообществ под наблюдением. Изменения сами вызывают перезапуск.
type Communities interface {
	List(ctx context.Context) ([]*communities.Community, error)
	Add(ctx context.Context, id, name string) (*communities.Community, error)
	Remove(ctx context.Context, id string) error
}

// Reloader перезапускает наблюдение за комментариями.
type Reloader interface {
	Reload()
}

// Pinger — зависимость, проверяемая в /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stats — счётчики разобранных комментариев и запусков бота.
type Stats interface {
	Count(ctx context.Context) (int64, error)
	RunCount(ctx context.Context) (int64, error)
}

// Handler обрабатывает HTTP-запросы админки.
type Handler struct {
	service     *Service
	leaderboard Leaderboard
	awards      Awards
	communities Communities
	reloader    Reloader
	health      map[string]Pinger
	stats       Stats

	community string
	baseURL   string
}

// HandlerDeps — зависимости обработчика.
type HandlerDeps struct {
	Service     *Service
	Leaderboard Leaderboard
	Awards      Awards
	Communities Communities
	Reloader    Reloader
	Health      map[string]Pinger
	Stats       Stats
	Community   string
	BaseURL     string
}

// NewHandler создаёт обработчик.
func NewHandler(d HandlerDeps) *Handler {
	return &Handler{
		service:     d.Service,
		leaderboard: d.Leaderboard,
		awards:      d.Awards,
		communities: d.Communities,
		reloader:    d.Reloader,
		health:      d.Health,
		stats:       d.Stats,
		community:   d.Community,
		baseURL:     d.BaseURL,
	}
}

// Router собирает gin-роутер со всеми маршрутами.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(recovery(), requestLogger())
	r.SetHTMLTemplate(parseTemplates())

	r.GET("/", h.index)
	r.GET("/api/leaderboard", h.apiLeaderboard)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.healthz)

	shadows := r.Group("/theshadows", h.basicAuth())
	{
		shadows.GET("", h.shadows)
		shadows.DELETE("/awards/:id", h.deleteAward)
		shadows.GET("/communities", h.listCommunities)
		shadows.POST("/communities", h.addCommunity)
		shadows.DELETE("/communities/:id", h.removeCommunity)
		shadows.POST("/reload", h.reload)
	}
	return r
}

func parseTemplates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"datetime": common.FormatDateTime,
		"truncate": common.Truncate,
		"awards": func(n int) string {
			return common.FormatAwards(n, delta.Glyph)
		},
	}).ParseFS(templatesFS, "templates/*.html"))
}

// basicAuth проверяет basic-auth через Service.Authenticate.
func (h *Handler) basicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			challenge(c)
			return
		}

		err := h.service.Authenticate(c.Request.Context(), c.ClientIP(), user, pass)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, common.ErrTooManyAttempts):
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		case errors.Is(err, common.ErrWrongPassword):
			challenge(c)
		default:
			log.WithError(err).Error("Ошибка проверки входа в админку")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
	}
}

func challenge(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="`+Realm+`"`)
	c.AbortWithStatus(http.StatusUnauthorized)
}

// index — GET /
func (h *Handler) index(c *gin.Context) {
	leaders, err := h.leaderboard.Generate(c.Request.Context(), publicLeaderboardLimit)
	if err != nil {
		log.WithError(err).Error("Ошибка построения лидерборда")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.HTML(http.StatusOK, "index.html", indexPage{Community: h.community, Leaders: leaders})
}

// apiLeaderboard — GET /api/leaderboard?limit=
func (h *Handler) apiLeaderboard(c *gin.Context) {
	limit := defaultAPILimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = min(n, publicLeaderboardLimit)
	}

	leaders, err := h.leaderboard.Generate(c.Request.Context(), limit)
	if err != nil {
		log.WithError(err).Error("Ошибка построения лидерборда")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"community": h.community, "leaders": leaders})
}

// shadows — GET /theshadows
func (h *Handler) shadows(c *gin.Context) {
	ctx := c.Request.Context()

	awards, err := h.awards.ListRecent(ctx, recentAwardsLimit)
	if err != nil {
		log.WithError(err).Error("Ошибка получения наград")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	about, err := h.leaderboard.Description(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка построения описания")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	list, err := h.communities.List(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения сообществ")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]communityView, 0, len(list))
	for _, cm := range list {
		views = append(views, communityView{ID: cm.ID, Name: cm.Name})
	}

	c.HTML(http.StatusOK, "theshadows.html", shadowsPage{
		Community:   h.community,
		BaseURL:     h.baseURL,
		About:       about,
		Awards:      awards,
		Communities: views,
		Stats:       h.loadStats(ctx),
	})
}

// loadStats читает счётчики. Ошибка Redis не ломает страницу: блок просто не выводится.
func (h *Handler) loadStats(ctx context.Context) *statsView {
	if h.stats == nil {
		return nil
	}
	seen, err := h.stats.Count(ctx)
	if err != nil {
		log.WithError(err).Warn("Не удалось получить число разобранных комментариев")
		return nil
	}
	runs, err := h.stats.RunCount(ctx)
	if err != nil {
		log.WithError(err).Warn("Не удалось получить счётчик запусков")
		return nil
	}
	return &statsView{SeenComments: seen, Runs: runs}
}

// deleteAward — DELETE /theshadows/awards/:id
func (h *Handler) deleteAward(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "Bad request")
		return
	}

	err = h.awards.DeleteByID(c.Request.Context(), id)
	switch {
	case err == nil:
		log.WithField("award_id", id).Info("Награда удалена из админки")
		c.String(http.StatusOK, "OK")
	case errors.Is(err, common.ErrNotFound):
		c.String(http.StatusNotFound, "Not found")
	default:
		log.WithError(err).WithField("award_id", id).Error("Ошибка удаления награды")
		c.String(http.StatusInternalServerError, "internal error")
	}
}

// listCommunities — GET /theshadows/communities
func (h *Handler) listCommunities(c *gin.Context) {
	list, err := h.communities.List(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Ошибка получения сообществ")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if list == nil {
		list = []*communities.Community{}
	}
	c.JSON(http.StatusOK, list)
}

type addCommunityRequest struct {
	ID   string `form:"id" json:"id" binding:"required"`
	Name string `form:"name" json:"name"`
}

// addCommunity — POST /theshadows/communities (form или JSON)
func (h *Handler) addCommunity(c *gin.Context) {
	var req addCommunityRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	added, err := h.communities.Add(c.Request.Context(), req.ID, req.Name)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "community already watched"})
		return
	case errors.Is(err, common.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		log.WithError(err).Error("Ошибка добавления сообщества")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if c.ContentType() == gin.MIMEJSON {
		c.JSON(http.StatusCreated, added)
		return
	}
	c.Redirect(http.StatusSeeOther, "/theshadows")
}

// removeCommunity — DELETE /theshadows/communities/:id
func (h *Handler) removeCommunity(c *gin.Context) {
	err := h.communities.Remove(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.String(http.StatusOK, "OK")
	case errors.Is(err, common.ErrNotFound):
		c.String(http.StatusNotFound, "Not found")
	default:
		log.WithError(err).Error("Ошибка удаления сообщества")
		c.String(http.StatusInternalServerError, "internal error")
	}
}

// reload — POST /theshadows/reload
func (h *Handler) reload(c *gin.Context) {
	h.reloader.Reload()
	c.String(http.StatusAccepted, "OK")
}

// healthz — GET /healthz
func (h *Handler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{}
	code := http.StatusOK
	for name, p := range h.health {
		if err := p.Ping(ctx); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	c.JSON(code, status)
}
