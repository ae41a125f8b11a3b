// Package seed fills an empty user store with demo accounts.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
)

const (
	AdminEmail      = "admin@example.com"
	DefaultPassword = "password123"
)

// Hasher is satisfied by helpers.PasswordHasher.
type Hasher interface {
	Hash(plain string) (string, error)
}

type Options struct {
	// Force clears a non-empty store before seeding.
	Force bool
	// ClearOnly deletes every user and seeds nothing.
	ClearOnly bool
	Password  string
}

type Result struct {
	Deleted  int64
	Inserted int
	Skipped  bool
}

var names = []string{
	"Alice Johnson", "Bob Smith", "Carol White", "David Brown", "Eve Davis",
	"Frank Miller", "Grace Wilson", "Henry Moore", "Ivy Taylor", "Jack Anderson",
}

// Accounts returns the demo records: one admin followed by len(names) users.
func Accounts() []entity.User {
	users := make([]entity.User, 0, len(names)+1)
	users = append(users, entity.User{
		FullName:    "Admin User",
		DateOfBirth: time.Date(1985, 1, 15, 0, 0, 0, 0, time.UTC),
		Email:       AdminEmail,
		Role:        entity.RoleAdmin,
		IsActive:    true,
	})
	for i, name := range names {
		users = append(users, entity.User{
			FullName:    name,
			DateOfBirth: time.Date(1990+i, time.Month(i%12+1), 10+i, 0, 0, 0, 0, time.UTC),
			Email:       fmt.Sprintf("user%d@example.com", i+1),
			Role:        entity.RoleUser,
			IsActive:    true,
		})
	}
	return users
}

func Run(ctx context.Context, st repository.Store, hasher Hasher, opts Options, logger *logrus.Logger) (Result, error) {
	var res Result
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}

	if opts.ClearOnly || opts.Force {
		n, err := st.DeleteAll(ctx)
		if err != nil {
			return res, fmt.Errorf("clear users: %w", err)
		}
		res.Deleted = n
		logger.WithField("deleted", n).Info("user store cleared")
		if opts.ClearOnly {
			return res, nil
		}
	} else {
		n, err := st.Count(ctx)
		if err != nil {
			return res, fmt.Errorf("count users: %w", err)
		}
		if n > 0 {
			logger.WithField("count", n).Info("user store not empty; skipping seed (use -force to reseed)")
			res.Skipped = true
			return res, nil
		}
	}

	for _, u := range Accounts() {
		hash, err := hasher.Hash(opts.Password)
		if err != nil {
			return res, fmt.Errorf("hash password: %w", err)
		}
		u.ID = uuid.NewString()
		u.Password = hash
		if _, err := st.Insert(ctx, &u); err != nil {
			return res, fmt.Errorf("insert %s: %w", u.Email, err)
		}
		res.Inserted++
	}
	logger.WithField("inserted", res.Inserted).Info("user store seeded")
	return res, nil
}
