package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
)

type UserService struct {
	store core.UserStore
	log   logrus.FieldLogger
}

func NewUserService(store core.UserStore, log logrus.FieldLogger) *UserService {
	return &UserService{store: store, log: log}
}

// Upsert stores u unless its email already exists, in which case the stored
// user is returned untouched. created reports which case happened.
func (s *UserService) Upsert(ctx context.Context, u *models.User) (*models.User, bool, error) {
	if u == nil || u.Email == "" || u.PasswordHash == "" {
		return nil, false, core.Validation("invalid user payload")
	}
	stored, created, err := s.store.UpsertUser(ctx, u)
	if err != nil {
		return nil, false, core.Dependency("Failed to save user", err)
	}
	return stored, created, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, core.Dependency("Failed to load user", err)
	}
	if u == nil {
		return nil, core.NotFound("User not found")
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, core.Dependency("Failed to load user", err)
	}
	if u == nil {
		return nil, core.NotFound("User not found")
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, p models.Pagination) (*models.Page[models.User], error) {
	users, total, err := s.store.ListUsers(ctx, p)
	if err != nil {
		return nil, core.Dependency("Failed to list users", err)
	}
	return &models.Page[models.User]{Data: users, Meta: models.NewPaginationMeta(p.Page, p.Limit, total)}, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, core.Validation("role must be one of ADMIN, EDITOR, VIEWER")
	}
	u, err := s.store.UpdateUserRole(ctx, id, role)
	if err != nil {
		return nil, core.Dependency("Failed to update user", err)
	}
	if u == nil {
		return nil, core.NotFound("User not found")
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "role": role}).Info("user role updated")
	return u, nil
}

// Delete removes the user. Their documents stay and keep the dangling owner id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	ok, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return core.Dependency("Failed to delete user", err)
	}
	if !ok {
		return core.NotFound("User not found")
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}
