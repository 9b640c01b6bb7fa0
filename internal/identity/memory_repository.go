package identity

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]User
	byUsername map[string]string
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:       make(map[string]User),
		byUsername: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(user)
}

func (r *memoryRepository) CreateBatch(_ context.Context, users []User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate everything before touching state so the batch is all-or-nothing.
	seen := make(map[string]bool, len(users))
	for _, user := range users {
		if _, exists := r.byUsername[user.Username]; exists || seen[user.Username] {
			return ErrUsernameTaken
		}
		seen[user.Username] = true
	}
	for _, user := range users {
		if err := r.insert(user); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) ListMembers(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []User
	for _, u := range r.byID {
		if !u.IsStaff {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *memoryRepository) insert(user User) error {
	if _, exists := r.byUsername[user.Username]; exists {
		return ErrUsernameTaken
	}
	r.byID[user.ID] = user
	r.byUsername[user.Username] = user.ID
	return nil
}
