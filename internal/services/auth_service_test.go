package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
)

func TestRegisterDefaultsToViewer(t *testing.T) {
	h := newHarness(t)

	res, err := h.auth.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, res.User.Role)

	cost, err := bcrypt.Cost([]byte(res.User.PasswordHash))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cost, 10)
}

func TestRegisterSameEmailReusesUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.auth.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret1", Role: "EDITOR"})
	require.NoError(t, err)
	second, err := h.auth.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret1", Role: "ADMIN"})
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, models.RoleEditor, second.User.Role, "repeat registration keeps the stored role")

	other, err := h.auth.Register(ctx, RegisterInput{Email: "b@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.User.ID, other.User.ID)
}

func TestRegisterExistingEmailWrongPassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.auth.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = h.auth.Register(ctx, RegisterInput{Email: "a@example.com", Password: "hijack!"})
	assert.Equal(t, core.KindUnauthorized, core.KindOf(err))
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	h := newHarness(t)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]struct{}{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.auth.Register(context.Background(), RegisterInput{Email: "race@example.com", Password: "secret1"})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[res.User.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, ids, 1)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	cases := []RegisterInput{
		{Email: "not-an-email", Password: "secret1"},
		{Email: "Name <a@example.com>", Password: "secret1"},
		{Email: "a@example.com", Password: "short"},
		{Email: "a@example.com", Password: "secret1", Role: "ROOT"},
	}
	for i, in := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := h.auth.Register(context.Background(), in)
			assert.Equal(t, core.KindValidation, core.KindOf(err))
		})
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.auth.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret1", Role: "EDITOR"})
	require.NoError(t, err)

	_, err = h.auth.Login(ctx, "missing@example.com", "secret1")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	assert.Equal(t, "User not found", core.MessageOf(err, ""))

	_, err = h.auth.Login(ctx, "a@example.com", "wrong-password")
	assert.Equal(t, core.KindUnauthorized, core.KindOf(err))
	assert.Equal(t, "Invalid credentials", core.MessageOf(err, ""))

	res, err := h.auth.Login(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	id, err := h.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, id.Role)
	assert.Equal(t, "a@example.com", id.Email)
	assert.Equal(t, res.User.ID, id.UserID)
}
