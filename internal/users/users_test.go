package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[int64]User{}}
}

func (r *memoryRepo) List(_ context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepo) Create(_ context.Context, user User) (User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return User{}, ErrEmailTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryRepo) Update(_ context.Context, id int64, user User) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Name, u.Role, u.IsActive = user.Name, user.Role, user.IsActive
	r.users[id] = u
	return nil
}

func (r *memoryRepo) SetPasswordHash(_ context.Context, id int64, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateRequest{
		Email:    "  Admin@Example.COM ",
		Name:     "Admin",
		Role:     RoleAdmin,
		Password: "correcthorse",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.True(t, user.IsActive)
	require.NotEqual(t, "correcthorse", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correcthorse")))
}

func TestCreateRejectsShortPassword(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateRequest{
		Email: "a@b.c", Name: "A", Role: RoleViewer, Password: "short",
	})
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateRequest{
		Email: "op@example.com", Name: "Op", Role: RoleOperator, Password: "correcthorse",
	})
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "OP@example.com", "correcthorse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate(context.Background(), "op@example.com", "wrongpass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "ghost@example.com", "correcthorse")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// deactivated accounts look like unknown ones
	require.NoError(t, svc.Update(context.Background(), created.ID, UpdateRequest{Name: "Op", Role: RoleOperator, IsActive: false}))
	_, err = svc.Authenticate(context.Background(), "op@example.com", "correcthorse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateRequest{
		Email: "op@example.com", Name: "Op", Role: RoleOperator, Password: "firstpassword",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), created.ID, ChangePasswordRequest{Password: "secondpassword"}))

	_, err = svc.Authenticate(context.Background(), "op@example.com", "firstpassword")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "op@example.com", "secondpassword")
	require.NoError(t, err)

	require.ErrorIs(t, svc.ChangePassword(context.Background(), created.ID, ChangePasswordRequest{Password: "nope"}), ErrWeakPassword)
	require.ErrorIs(t, svc.ChangePassword(context.Background(), 999, ChangePasswordRequest{Password: "longenough"}), ErrNotFound)
}
