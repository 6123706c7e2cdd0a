// Package users is the in-process stand-in for the persistent user
// store. The relay only needs to resolve a verified subject id to a
// display name at admission time.
package users

import (
	"sync"

	"github.com/rs/zerolog/log"

	"voicerelay/internal/domain"
)

type Directory struct {
	mu    sync.RWMutex
	users map[domain.UserID]*domain.User
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[domain.UserID]*domain.User)}
}

func (d *Directory) Put(u *domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
	log.Info().Str("module", "users.directory").Int64("user", int64(u.ID)).Str("username", u.Username).Msg("user registered")
}

func (d *Directory) Lookup(id domain.UserID) (*domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	return u, ok
}
