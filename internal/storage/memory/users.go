package memory

import (
	"context"
	"sync"
	"time"

	"github.com/afric-remit/bankapp/internal/auth"
	"github.com/afric-remit/bankapp/internal/interfaces"
	"github.com/afric-remit/bankapp/internal/models"
)

// UserStore keeps registered users in memory, keyed by username.
type UserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := u
	return &cp, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return auth.ErrUsernameTaken
	}
	s.nextID++
	user.ID = s.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.Username] = *user
	return nil
}

var _ interfaces.UserStore = (*UserStore)(nil)
