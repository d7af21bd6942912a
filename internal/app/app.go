// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, Redis, клиента discuit, репозитории,
// сервисы, обработчики и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/delta-bot/internal/bot"
	"serotonyl.ru/delta-bot/internal/bot/middleware"
	"serotonyl.ru/delta-bot/internal/common"
	"serotonyl.ru/delta-bot/internal/config"
	"serotonyl.ru/delta-bot/internal/db/postgres"
	"serotonyl.ru/delta-bot/internal/discuit"
	"serotonyl.ru/delta-bot/internal/features/admin"
	"serotonyl.ru/delta-bot/internal/features/communities"
	"serotonyl.ru/delta-bot/internal/features/delta"
	"serotonyl.ru/delta-bot/internal/features/leaderboard"
	"serotonyl.ru/delta-bot/internal/features/seen"
	"serotonyl.ru/delta-bot/internal/jobs"
)

// Клиент умеет обновлять описание сообщества, но эндпоинт discuit не работает,
// поэтому в цикл он не подключён.
var _ leaderboard.DescriptionPublisher = (*discuit.Client)(nil)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Admin     *admin.Server
	DB        *pgxpool.Pool
	Redis     *redis.Client

	limiter *middleware.RateLimiter
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := common.SetTimezone(cfg.AppTimezone); err != nil {
		log.WithError(err).WithField("timezone", cfg.AppTimezone).Warn("Не удалось загрузить часовой пояс, используем UTC")
	}

	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:      cfg.DatabaseDSN(),
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Redis ===
	rdb, err := seen.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}
	tracker := seen.NewTracker(rdb)
	if runs, err := tracker.IncrRunCount(ctx); err != nil {
		log.WithError(err).Warn("Не удалось обновить счётчик запусков")
	} else {
		log.WithField("run", runs).Info("Запуск бота")
	}

	closeAll := func() {
		_ = rdb.Close()
		pool.Close()
	}

	// === 3. Discuit ===
	client, err := discuit.New(discuit.Config{
		BaseURL:       cfg.DiscuitBaseURL,
		Timeout:       cfg.DiscuitHTTPTimeout,
		WatchInterval: cfg.DiscuitWatchInterval,
		WatchPosts:    cfg.DiscuitWatchPosts,
	})
	if err != nil {
		closeAll()
		return nil, err
	}
	if _, err := client.Login(ctx, cfg.DiscuitUsername, cfg.DiscuitPassword); err != nil {
		closeAll()
		return nil, fmt.Errorf("ошибка входа в discuit: %w", err)
	}

	// === 4. Репозитории ===
	awardRepo := delta.NewRepository(pool)
	leaderboardRepo := leaderboard.NewRepository(pool)
	communityRepo := communities.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 5. Сервисы ===
	communityService := communities.NewService(communityRepo, client)
	if err := communityService.Seed(ctx, cfg.CommunityIDs, cfg.CommunityName); err != nil {
		closeAll()
		return nil, fmt.Errorf("ошибка заполнения списка сообществ: %w", err)
	}

	limiter, replyLimiter := newReplyLimiter(cfg)
	leaderboardService := leaderboard.NewService(leaderboardRepo, cfg.CommunityName, cfg.LeaderboardLimit)
	deltaService := delta.NewService(awardRepo, tracker, client, replyLimiter, cfg)
	adminService := admin.NewService(adminRepo, cfg.AdminUsername, cfg.AdminPasswordHash)

	// === 6. Бот ===
	deltaHandler := delta.NewHandler(deltaService, leaderboardService)
	b := bot.New(client, deltaHandler, communityService, cfg)
	communityService.OnChange(b.Reload)

	// === 7. Админка ===
	adminHandler := admin.NewHandler(admin.HandlerDeps{
		Service:     adminService,
		Leaderboard: leaderboardService,
		Awards:      awardRepo,
		Communities: communityService,
		Reloader:    b,
		Health:      map[string]admin.Pinger{"postgres": pool, "redis": tracker},
		Stats:       tracker,
		Community:   cfg.CommunityName,
		BaseURL:     cfg.DiscuitBaseURL,
	})

	return &App{
		Bot:       b,
		Scheduler: jobs.NewScheduler(leaderboardService, cfg.LeaderboardCron),
		Admin:     admin.NewServer(cfg.AdminAddr(), adminHandler),
		DB:        pool,
		Redis:     rdb,
		limiter:   limiter,
	}, nil
}

// Run запускает цикл наблюдения, админку и планировщик. Возвращается после отмены ctx
// или первой фатальной ошибки одного из компонентов.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if err := a.Scheduler.Start(gctx); err != nil {
		return err
	}
	defer a.Scheduler.Stop()

	g.Go(func() error { return a.Bot.Start(gctx) })
	g.Go(func() error { return a.Admin.Run(gctx) })

	return g.Wait()
}

// newReplyLimiter создаёт ограничитель ответов «слишком коротко».
// При RATE_LIMIT_REQUESTS=0 оба значения nil: интерфейс именно nil, а не
// nil-указатель внутри интерфейса.
func newReplyLimiter(cfg *config.Config) (*middleware.RateLimiter, delta.ReplyLimiter) {
	if cfg.RateLimitRequests <= 0 {
		return nil, nil
	}
	rl := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	return rl, rl
}

// Close освобождает ресурсы.
func (a *App) Close() {
	a.closeLimiter()
	if err := a.Redis.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия Redis")
	}
	a.DB.Close()
}

func (a *App) closeLimiter() {
	if a.limiter != nil {
		a.limiter.Close()
	}
}
