// Package seed fills an empty store with demo users and documents.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
	"github.com/markdave123-py/docflow/internal/services"
)

// DemoUsers log in with their email as password.
var DemoUsers = []struct {
	Email string
	Role  models.Role
}{
	{"admin@example.com", models.RoleAdmin},
	{"editor@example.com", models.RoleEditor},
	{"viewer1@example.com", models.RoleViewer},
	{"viewer2@example.com", models.RoleViewer},
	{"editor2@example.com", models.RoleEditor},
}

const sampleDocuments = 20

var sampleStatuses = []models.DocumentStatus{models.StatusUploaded, models.StatusIngested, models.StatusFailed}

type Result struct {
	UsersCreated     int
	DocumentsCreated int
}

type Seeder struct {
	users *services.UserService
	docs  core.DocumentStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func New(users *services.UserService, docs core.DocumentStore, log logrus.FieldLogger) *Seeder {
	return &Seeder{users: users, docs: docs, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Run upserts the demo users and gives sample documents to the ones it
// created. Running it twice adds nothing the second time.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	hashes := make([]string, len(DemoUsers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, u := range DemoUsers {
		i, u := i, u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := bcrypt.GenerateFromPassword([]byte(u.Email), services.BcryptCost)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.Email, err)
			}
			hashes[i] = string(h)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var (
		res   Result
		fresh []*models.User
	)
	for i, u := range DemoUsers {
		now := s.now()
		stored, created, err := s.users.Upsert(ctx, &models.User{
			ID:           uuid.NewString(),
			Email:        u.Email,
			PasswordHash: hashes[i],
			Role:         u.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return res, err
		}
		if created {
			res.UsersCreated++
			fresh = append(fresh, stored)
		}
	}

	if len(fresh) == 0 {
		s.log.Info("seed users already present; nothing to do")
		return res, nil
	}

	for i := 0; i < sampleDocuments; i++ {
		owner := fresh[i%len(fresh)]
		now := s.now()
		doc := &models.Document{
			ID:         uuid.NewString(),
			Title:      fmt.Sprintf("Sample document %d", i+1),
			UploadedBy: owner.ID,
			URL:        fmt.Sprintf("https://example.com/docs/sample-%02d.pdf", i+1),
			Status:     sampleStatuses[i%len(sampleStatuses)],
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.docs.CreateDocument(ctx, doc); err != nil {
			return res, fmt.Errorf("create sample document: %w", err)
		}
		res.DocumentsCreated++
	}

	s.log.WithFields(logrus.Fields{"users": res.UsersCreated, "documents": res.DocumentsCreated}).Info("database seeded")
	return res, nil
}
