// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// перед этим подхватывается необязательный .env (godotenv).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"serotonyl.ru/delta-bot/internal/common"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Discuit ---
	DiscuitBaseURL  string `envconfig:"DISCUIT_BASE_URL" default:"https://discuit.net"`
	DiscuitUsername string `envconfig:"DISCUIT_USERNAME" required:"true"`
	DiscuitPassword string `envconfig:"DISCUIT_PASSWORD" required:"true"`
	// Пауза между проходами по свежим постам сообщества
	DiscuitWatchInterval time.Duration `envconfig:"DISCUIT_WATCH_INTERVAL" default:"5m"`
	// Сколько последних постов просматривать за один проход
	DiscuitWatchPosts  int           `envconfig:"DISCUIT_WATCH_POSTS" default:"25"`
	DiscuitHTTPTimeout time.Duration `envconfig:"DISCUIT_HTTP_TIMEOUT" default:"30s"`

	// --- Communities ---
	// Стартовый список сообществ. Дальше список живёт в БД и правится из админки.
	CommunityIDsRaw string   `envconfig:"COMMUNITY_IDS" default:"177b549f4e8a6b2e36c80f82"`
	CommunityIDs    []string `envconfig:"-"` // заполним вручную
	// Имя сообщества, для которого строится лидерборд. Приводится к нижнему регистру.
	CommunityName string `envconfig:"COMMUNITY_NAME" default:"changemyview"`

	// --- Delta ---
	DeltaMinLength     int  `envconfig:"DELTA_MIN_LENGTH" default:"50"`
	LeaderboardLimit   int  `envconfig:"LEADERBOARD_LIMIT" default:"10"`
	CommentingDisabled bool `envconfig:"COMMENTING_DISABLED" default:"false"`
	// Расписание вывода описания сообщества с лидербордом
	LeaderboardCron string `envconfig:"LEADERBOARD_CRON" default:"0 * * * *"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"delta_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Redis ---
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// --- Admin ---
	AdminUsername     string `envconfig:"DISCUIT_ADMIN_USERNAME" required:"true"`
	AdminPasswordHash string `envconfig:"DISCUIT_ADMIN_PASSWORD_HASH" required:"true"`
	AdminPort         int    `envconfig:"DISCUIT_ADMIN_PORT" required:"true"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Bot runtime ---
	// Сколько комментариев обрабатываем параллельно. Иначе "go на каждый коммент" = утечка памяти при флуде.
	BotMaxInflight  int           `envconfig:"BOT_MAX_INFLIGHT" default:"16"`
	WatchRetryDelay time.Duration `envconfig:"WATCH_RETRY_DELAY" default:"30s"`

	// --- Rate Limiting ---
	// Ограничение ответов «слишком коротко» одному пользователю.
	// 0 — выключено: ответ получает каждый короткий комментарий.
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"0"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1h"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// AdminAddr возвращает адрес, на котором слушает админка.
func (c *Config) AdminAddr() string {
	return ":" + strconv.Itoa(c.AdminPort)
}

func (c *Config) Validate() error {
	// envconfig считает пустую переменную заданной, поэтому проверяем руками
	if strings.TrimSpace(c.DiscuitUsername) == "" || c.DiscuitPassword == "" {
		return fmt.Errorf("DISCUIT_USERNAME/DISCUIT_PASSWORD не заданы")
	}
	if strings.TrimSpace(c.AdminUsername) == "" {
		return fmt.Errorf("DISCUIT_ADMIN_USERNAME не задан")
	}
	if len(c.CommunityIDs) == 0 {
		return fmt.Errorf("COMMUNITY_IDS не задан")
	}
	if strings.TrimSpace(c.CommunityName) == "" {
		return fmt.Errorf("COMMUNITY_NAME не задан")
	}
	if c.AdminPort <= 0 || c.AdminPort > 65535 {
		return fmt.Errorf("DISCUIT_ADMIN_PORT должен быть в диапазоне 1..65535")
	}
	if !strings.HasPrefix(c.AdminPasswordHash, "$argon2id$") {
		return fmt.Errorf("DISCUIT_ADMIN_PASSWORD_HASH должен быть хешем Argon2id (scripts/generate_hash.go)")
	}
	if c.DeltaMinLength < 0 {
		return fmt.Errorf("DELTA_MIN_LENGTH должен быть >= 0")
	}
	if c.LeaderboardLimit <= 0 {
		return fmt.Errorf("LEADERBOARD_LIMIT должен быть > 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.DiscuitWatchInterval <= 0 {
		return fmt.Errorf("DISCUIT_WATCH_INTERVAL должен быть > 0")
	}
	if c.DiscuitWatchPosts <= 0 {
		return fmt.Errorf("DISCUIT_WATCH_POSTS должен быть > 0")
	}
	if c.WatchRetryDelay <= 0 {
		return fmt.Errorf("WATCH_RETRY_DELAY должен быть > 0")
	}
	if c.RateLimitRequests < 0 || (c.RateLimitRequests > 0 && c.RateLimitWindow <= 0) {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return nil
}

// Load читает .env (если он есть) и переменные окружения, заполняет структуру Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("не удалось прочитать .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	cfg.CommunityIDs = parseCSV(cfg.CommunityIDsRaw)
	cfg.CommunityName = common.NormalizeCommunity(cfg.CommunityName)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
