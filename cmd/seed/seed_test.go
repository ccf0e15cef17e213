package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/docstore/memory"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/identity/local"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/logger"
)

func TestSeed_PopulatesStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	out, err := newSeeder(store, logger.Discard()).seed(ctx, adminAccount{Email: "Admin@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, len(categories), out.Categories)
	assert.Equal(t, len(products), out.Products)

	repos := repository.New(store)
	all, err := repos.Products.All(ctx)
	require.NoError(t, err)
	var found bool
	for _, p := range all {
		if p.Name == "iPhone 15 Pro" {
			found = true
			assert.Equal(t, "electronics", p.Category)
		}
	}
	assert.True(t, found, "iPhone 15 Pro seeded")

	electronics, err := repos.Categories.GetBySlug(ctx, "electronics")
	require.NoError(t, err)
	assert.Equal(t, 4, electronics.ProductCount)

	admin, err := repos.Users.Get(ctx, out.AdminID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.Equal(t, "admin@example.com", admin.Email)

	_, err = repos.Settings.Get(ctx)
	require.NoError(t, err)
}

func TestSeed_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSeeder(store, logger.Discard())

	first, err := s.seed(ctx, adminAccount{Email: "admin@example.com"})
	require.NoError(t, err)
	second, err := s.seed(ctx, adminAccount{Email: "admin@example.com"})
	require.NoError(t, err)

	assert.Zero(t, second.Categories)
	assert.Zero(t, second.Products)
	assert.Equal(t, first.AdminID, second.AdminID)

	n, err := repository.New(store).Products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(products), n)
}

func TestSeed_LocalAdminCanSignIn(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	out, err := newSeeder(store, logger.Discard()).seed(ctx, adminAccount{
		Email:      "admin@example.com",
		Password:   "s3cret!",
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	acct, err := local.New(store, bcrypt.MinCost).SignIn(ctx, "admin@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, out.AdminID, acct.UID)
}

func TestMissingEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("SEED_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("POSTGRES_USER", "")

	assert.Equal(t, []string{"POSTGRES_DB", "POSTGRES_USER"}, missingEnv())

	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SEED_ADMIN_EMAIL", "")
	assert.Equal(t, []string{"STORE_DRIVER", "SEED_ADMIN_EMAIL"}, missingEnv())
}
