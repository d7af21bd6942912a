// Package common — errors.go определяет ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и решать, что делать с событием: отбросить, повторить или показать оператору.
package common

import "errors"

// Ошибки хранилищ
var (
	// ErrNotFound — запись не найдена
	ErrNotFound = errors.New("не найдено")
	// ErrDuplicateAward — дельта за этот пост этому пользователю уже выдана
	ErrDuplicateAward = errors.New("дельта уже выдана")
	// ErrAlreadyExists — нарушение уникальности для прочих таблиц
	ErrAlreadyExists = errors.New("запись уже существует")
)

// Ошибки платформы
var (
	// ErrNotSupported — возможность платформы пока не работает
	ErrNotSupported = errors.New("не поддерживается платформой")
	// ErrLoginFailed — не удалось войти под аккаунтом бота
	ErrLoginFailed = errors.New("не удалось авторизоваться в discuit")
	// ErrUnauthorized — сессия протухла, нужен повторный логин
	ErrUnauthorized = errors.New("сессия discuit недействительна")
)

// Ошибки админки
var (
	// ErrWrongPassword — неверный логин или пароль
	ErrWrongPassword = errors.New("неверный логин или пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrInvalidArgument — некорректные входные данные
	ErrInvalidArgument = errors.New("некорректные данные")
)
