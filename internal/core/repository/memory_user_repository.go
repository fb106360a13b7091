package repository

import (
	"context"
	"sync"

	"sainmakosam/internal/core/model"
)

type inMemoryUserRepository struct {
	users map[string]*model.User
	mutex sync.RWMutex
}

func NewInMemoryUserRepository() UserRepository {
	return &inMemoryUserRepository{
		users: make(map[string]*model.User),
	}
}

func (r *inMemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return ErrDuplicateEntry
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *inMemoryUserRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n := int64(len(r.users))
	r.users = make(map[string]*model.User)
	return n, nil
}

func (r *inMemoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if user, exists := r.users[id]; exists {
		return user, nil
	}
	return nil, nil
}

func (r *inMemoryUserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, nil
}
