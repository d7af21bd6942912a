// Package admin — service.go проверяет учётные данные админки.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/delta-bot/internal/common"
)

// AttemptStore — журнал попыток входа.
type AttemptStore interface {
	LogAttempt(ctx context.Context, clientIP string, success bool) error
	RecentFailures(ctx context.Context, clientIP string, period time.Duration) (int, error)
}

// Service проверяет логин и пароль администратора.
type Service struct {
	repo         AttemptStore
	username     string
	passwordHash string
}

// NewService создаёт сервис.
func NewService(repo AttemptStore, username, passwordHash string) *Service {
	return &Service{repo: repo, username: username, passwordHash: passwordHash}
}

// Authenticate проверяет учётные данные с защитой от brute-force:
// после 3 неудач за час с одного IP — common.ErrTooManyAttempts.
// Успешные входы не пишутся: basic-auth приходит с каждым запросом.
func (s *Service) Authenticate(ctx context.Context, clientIP, username, password string) error {
	failures, err := s.repo.RecentFailures(ctx, clientIP, attemptsWindow)
	if err != nil {
		return err
	}
	if failures >= maxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := verifyArgon2id(password, s.passwordHash)
	if userOK && passOK {
		return nil
	}

	if err := s.repo.LogAttempt(ctx, clientIP, false); err != nil {
		log.WithError(err).Error("Ошибка записи попытки входа")
	}
	log.WithField("client_ip", clientIP).Warn("Неудачная попытка входа в админку")
	return common.ErrWrongPassword
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// сравнение в постоянном времени
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}
