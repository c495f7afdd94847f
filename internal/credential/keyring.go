// Package credential хранит bearer-токен доски в системном keyring.
package credential

import (
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"
)

const (
	serviceName = "kanban-board"
	tokenKey    = "auth-token"
)

// Open открывает системный keyring; если ни один бэкенд недоступен, остаётся файловый.
func Open() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/kanban-board/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("kanban-board-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Tokens - токен в keyring. Прочитанное значение держится в памяти,
// чтобы не ходить в keyring на каждый запрос.
type Tokens struct {
	ring keyring.Keyring

	mu     sync.Mutex
	cached *string
}

func NewTokens(ring keyring.Keyring) *Tokens {
	return &Tokens{ring: ring}
}

// Token возвращает сохранённый токен или "", если его нет.
func (t *Tokens) Token() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cached != nil {
		return *t.cached, nil
	}

	item, err := t.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		empty := ""
		t.cached = &empty
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", tokenKey, err)
	}

	token := string(item.Data)
	t.cached = &token
	return token, nil
}

func (t *Tokens) Save(token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "Kanban board API token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", tokenKey, err)
	}
	t.cached = &token
	return nil
}

// Forget удаляет токен. Отсутствие токена не ошибка.
func (t *Tokens) Forget() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	empty := ""
	t.cached = &empty

	err := t.ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", tokenKey, err)
	}
	return nil
}
