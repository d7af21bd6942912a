//go:build ignore

// generate_hash.go — утилита для генерации Argon2id хеша пароля админки.
//
//	go run scripts/generate_hash.go <пароль>
//	DISCUIT_ADMIN_PASSWORD=<пароль> go run scripts/generate_hash.go
//
// Печатает готовую строку для .env.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

// Параметры совпадают с теми, что разбирает admin.verifyArgon2id.
const (
	memory      uint32 = 64 * 1024 // 64 MB
	iterations  uint32 = 3
	parallelism uint8  = 2
	keyLength   uint32 = 32
	saltLength         = 16
)

func main() {
	password := os.Getenv("DISCUIT_ADMIN_PASSWORD")
	if len(os.Args) > 1 {
		password = os.Args[1]
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "Использование: go run scripts/generate_hash.go <пароль>")
		os.Exit(1)
	}

	encoded, err := hash(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("DISCUIT_ADMIN_PASSWORD_HASH='%s'\n", encoded)
}

func hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("генерация соли: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}
