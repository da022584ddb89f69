// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package users_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minhngo/clipstream/internal/platform/apperr"
	"github.com/minhngo/clipstream/internal/users"
)

// memoryUserRepository is an in-memory users.UserRepository used to exercise
// the token and session flows without PostgreSQL.
type memoryUserRepository struct {
	mu    sync.Mutex
	byID  map[string]*users.User
	delay bool
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{byID: map[string]*users.User{}}
}

func (repo *memoryUserRepository) clone(user *users.User) *users.User {
	copied := *user
	return &copied
}

func (repo *memoryUserRepository) FindByID(_ context.Context, id string) (*users.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return repo.clone(user), nil
}

func (repo *memoryUserRepository) FindByLogin(_ context.Context, login string) (*users.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, user := range repo.byID {
		if user.Username == login || user.Email == login {
			return repo.clone(user), nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUserRepository) ExistsByIdentity(_ context.Context, username, email string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, user := range repo.byID {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryUserRepository) Create(_ context.Context, user *users.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	repo.byID[user.ID] = repo.clone(user)
	return nil
}

func (repo *memoryUserRepository) UpdateAccountDetails(_ context.Context, userID, fullName, email string) (*users.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.byID[userID]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	user.FullName = fullName
	user.Email = email
	user.UpdatedAt = time.Now()
	return repo.clone(user), nil
}

func (repo *memoryUserRepository) UpdateAvatarURL(_ context.Context, userID, url string) (*users.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.byID[userID]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	user.AvatarURL = url
	return repo.clone(user), nil
}

func (repo *memoryUserRepository) UpdateCoverImageURL(_ context.Context, userID, url string) (*users.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.byID[userID]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	user.CoverImageURL = url
	return repo.clone(user), nil
}

func (repo *memoryUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = newHash
	return nil
}

func (repo *memoryUserRepository) SetRefreshToken(_ context.Context, userID, token string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.RefreshToken = token
	return nil
}

func (repo *memoryUserRepository) RotateRefreshToken(_ context.Context, userID, presented, next string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.byID[userID]
	if !ok || user.RefreshToken != presented {
		return false, nil
	}
	user.RefreshToken = next
	return true, nil
}

func (repo *memoryUserRepository) ClearRefreshToken(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.RefreshToken = ""
	return nil
}

// storedRefreshToken reads the trusted token directly, bypassing the contract.
func (repo *memoryUserRepository) storedRefreshToken(userID string) string {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.byID[userID]
	if !ok {
		return ""
	}
	return user.RefreshToken
}

func (repo *memoryUserRepository) delete(userID string) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	delete(repo.byID, userID)
}

// memoryThrottle is an in-memory users.LoginThrottleRepository.
type memoryThrottle struct {
	mu       sync.Mutex
	failures map[string]int64
	resetErr error
}

func newMemoryThrottle() *memoryThrottle {
	return &memoryThrottle{failures: map[string]int64{}}
}

func (throttle *memoryThrottle) RecordFailure(_ context.Context, login string, _ time.Duration) (int64, error) {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	throttle.failures[login]++
	return throttle.failures[login], nil
}

func (throttle *memoryThrottle) Failures(_ context.Context, login string) (int64, error) {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	return throttle.failures[login], nil
}

func (throttle *memoryThrottle) Reset(_ context.Context, login string) error {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	if throttle.resetErr != nil {
		return throttle.resetErr
	}
	delete(throttle.failures, login)
	return nil
}

// fakeUploader returns deterministic URLs instead of hitting object storage.
type fakeUploader struct {
	mu       sync.Mutex
	uploads  int
	failNext bool
}

func (uploader *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()

	if uploader.failNext {
		uploader.failNext = false
		return "", fmt.Errorf("upload rejected")
	}

	uploader.uploads++
	return fmt.Sprintf("https://media.clipstream.app/fake/%d", uploader.uploads), nil
}
