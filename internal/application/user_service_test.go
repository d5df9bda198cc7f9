package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altairlabs/user-management-api/internal/domain/entity"
	"github.com/altairlabs/user-management-api/pkg/apperr"
	"github.com/altairlabs/user-management-api/pkg/helpers"
	"github.com/altairlabs/user-management-api/pkg/policy"
)

// memoryRepo mimics the postgres repository: it assigns ids and timestamps on
// insert, enforces the unique constraints, and reports missing rows as
// NotFound.
type memoryRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]*entity.User{}}
}

func (r *memoryRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperr.Conflict("the user with this email already exists in the system")
		}
		if existing.Username == u.Username {
			return apperr.Conflict("the user with this username already exists in the system")
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("the user with this ID does not exist in the system")
	}
	cp := *u
	return &cp, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("the user with this email does not exist in the system")
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("the user with this username does not exist in the system")
}

func (r *memoryRepo) List(_ context.Context, skip, limit int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if skip >= len(all) {
		return nil, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memoryRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperr.NotFound("the user with this ID does not exist in the system")
	}
	for _, existing := range r.users {
		if existing.ID == u.ID {
			continue
		}
		if existing.Email == u.Email {
			return apperr.Conflict("the user with this email already exists in the system")
		}
		if existing.Username == u.Username {
			return apperr.Conflict("the user with this username already exists in the system")
		}
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperr.NotFound("the user with this ID does not exist in the system")
	}
	delete(r.users, id)
	return nil
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, policy.Unrestricted{}, nil), repo
}

func seedUser(t *testing.T, repo *memoryRepo, email, username string, superuser bool) *entity.User {
	t.Helper()
	hash, err := helpers.HashPassword("oldsecret")
	require.NoError(t, err)
	u := &entity.User{
		Email:          email,
		Username:       username,
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    superuser,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestCreateAndReadBack(t *testing.T) {
	svc, repo := newTestService()
	admin := seedUser(t, repo, "admin@example.com", "admin", true)
	ctx := context.Background()

	u, err := svc.Create(ctx, admin, CreateUserInput{
		Email:     "john@example.com",
		Username:  "johndoe",
		Password:  "s3cret",
		FirstName: "John",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsSuperuser)
	assert.NotEqual(t, "s3cret", u.HashedPassword)
	assert.True(t, helpers.CompareHashAndPassword(u.HashedPassword, "s3cret"))
	assert.False(t, u.UpdatedAt.Before(u.CreatedAt))

	got, err := svc.GetByID(ctx, admin, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", got.Email)
	assert.Equal(t, "johndoe", got.Username)
	assert.Equal(t, "John", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
}

func TestCreateConflicts(t *testing.T) {
	svc, repo := newTestService()
	admin := seedUser(t, repo, "admin@example.com", "admin", true)
	seedUser(t, repo, "taken@example.com", "taken", false)
	ctx := context.Background()

	// Email conflict wins even when the username also collides.
	_, err := svc.Create(ctx, admin, CreateUserInput{Email: "taken@example.com", Username: "taken", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "email")

	_, err = svc.Create(ctx, admin, CreateUserInput{Email: "fresh@example.com", Username: "taken", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "username")
}

func TestCreateValidation(t *testing.T) {
	svc, repo := newTestService()
	admin := seedUser(t, repo, "admin@example.com", "admin", true)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateUserInput
	}{
		{"bad email", CreateUserInput{Email: "not-an-email", Username: "johndoe", Password: "x"}},
		{"username with underscore", CreateUserInput{Email: "a@b.com", Username: "john_doe", Password: "x"}},
		{"username with space", CreateUserInput{Email: "a@b.com", Username: "john doe", Password: "x"}},
		{"empty username", CreateUserInput{Email: "a@b.com", Username: "", Password: "x"}},
		{"empty password", CreateUserInput{Email: "a@b.com", Username: "johndoe", Password: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, admin, tt.in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestCreateHonorsPasswordPolicy(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, policy.MinLength{N: 8}, nil)
	admin := seedUser(t, repo, "admin@example.com", "admin", true)

	_, err := svc.Create(context.Background(), admin, CreateUserInput{Email: "a@b.com", Username: "johndoe", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestNonSuperuserIsForbidden(t *testing.T) {
	svc, repo := newTestService()
	member := seedUser(t, repo, "member@example.com", "member", false)
	other := seedUser(t, repo, "other@example.com", "other", false)
	ctx := context.Background()

	_, err := svc.List(ctx, member, 0, 0)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = svc.Create(ctx, member, CreateUserInput{Email: "x@y.com", Username: "xy", Password: "x"})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = svc.GetByID(ctx, member, other.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = svc.UpdateByID(ctx, member, other.ID, entity.UserPatch{FirstName: strPtr("X")})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = svc.DeleteByID(ctx, member, other.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestGetByIDSelfAccess(t *testing.T) {
	svc, repo := newTestService()
	member := seedUser(t, repo, "member@example.com", "member", false)

	got, err := svc.GetByID(context.Background(), member, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, got.ID)
}

func TestGetByIDNotFoundOnlyForSuperusers(t *testing.T) {
	svc, repo := newTestService()
	admin := seedUser(t, repo, "admin@example.com", "admin", true)
	member := seedUser(t, repo, "member@example.com", "member", false)
	ctx := context.Background()

	// The authorization failure must not reveal whether the record exists.
	_, err := svc.GetByID(ctx, member, uuid.NewString())
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = svc.GetByID(ctx, admin, uuid.NewString())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateSelfPartialPatch(t *testing.T) {
	svc, repo := newTestService()
	member := seedUser(t, repo, "member@example.com", "member", false)
	ctx := context.Background()

	before := *member
	updated, err := svc.UpdateSelf(ctx, member, entity.UserPatch{FirstName: strPtr("Updated")})
	require.NoError(t, err)

	assert.Equal(t, "Updated", updated.FirstName)
	assert.Equal(t, before.Email, updated.Email)
	assert.Equal(t, before.Username, updated.Username)
	assert.Equal(t, before.IsActive, updated.IsActive)
	assert.Equal(t, before.IsSuperuser, updated.IsSuperuser)
	assert.Equal(t, before.LastName, updated.LastName)
	assert.Equal(t, before.HashedPassword, updated.HashedPassword)
	assert.False(t, updated.UpdatedAt.Before(before.UpdatedAt))
}

func TestUpdateSelfPasswordRotates(t *testing.T) {
	svc, repo := newTestService()
	member := seedUser(t, repo, "member@example.com", "member", false)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "member@example.com", "oldsecret")
	require.NoError(t, err)

	updated, err := svc.UpdateSelf(ctx, member, entity.UserPatch{Password: strPtr("newsecret")})
	require.NoError(t, err)
	assert.NotEqual(t, member.HashedPassword, updated.HashedPassword)

	_, err = svc.Authenticate(ctx, "member@example.com", "oldsecret")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = svc.Authenticate(ctx, "member@example.com", "newsecret")
	assert.NoError(t, err)
}

func TestUpdateSelfIdempotentPatch(t *testing.T) {
	svc, repo := newTestService()
	member := seedUser(t, repo, "member@example.com", "member", false)
	ctx := context.Background()

	patch := entity.UserPatch{FirstName: strPtr("Jane"), LastName: strPtr("Doe"), Email: strPtr("jane@example.com")}
	first, err := svc.UpdateSelf(ctx, member, patch)
	require.NoError(t, err)
	second, err := svc.UpdateSelf(ctx, first, patch)
	require.NoError(t, err)

	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, first.Username, second.Username)
	assert.Equal(t, first.FirstName, second.FirstName)
	assert.Equal(t, first.LastName, second.LastName)
	assert.Equal(t, first.IsActive, second.IsActive)
	assert.Equal(t, first.IsSuperuser, second.IsSuperuser)
}

func TestUpdateByID(t *testing.T) {
	svc, repo := newTestService()
	admin := seedUser(t, repo, "admin@example.com", "admin", true)
	member := seedUser(t, repo, "member@example.com", "member", false)
	ctx := context.Background()

	updated, err := svc.UpdateByID(ctx, admin, member.ID, entity.UserPatch{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = svc.UpdateByID(ctx, admin, uuid.NewString(), entity.UserPatch{FirstName: strPtr("X")})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteByID(t *testing.T) {
	svc, repo := newTestService()
	admin := seedUser(t, repo, "admin@example.com", "admin", true)
	member := seedUser(t, repo, "member@example.com", "member", false)
	ctx := context.Background()

	_, err := svc.DeleteByID(ctx, admin, uuid.NewString())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	deleted, err := svc.DeleteByID(ctx, admin, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.Email, deleted.Email)

	_, err = svc.GetByID(ctx, admin, member.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListPagination(t *testing.T) {
	svc, repo := newTestService()
	admin := seedUser(t, repo, "admin@example.com", "admin", true)
	for i := 0; i < 5; i++ {
		seedUser(t, repo, fmt.Sprintf("user%d@example.com", i), fmt.Sprintf("user%d", i), false)
	}
	ctx := context.Background()

	all, err := svc.List(ctx, admin, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	page, err := svc.List(ctx, admin, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	// Stable ordering across repeated calls absent mutation.
	again, err := svc.List(ctx, admin, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, page[0].ID, again[0].ID)
	assert.Equal(t, page[1].ID, again[1].ID)

	_, err = svc.List(ctx, admin, -1, 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = svc.List(ctx, admin, 0, -1)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAuthenticate(t *testing.T) {
	svc, repo := newTestService()
	seedUser(t, repo, "member@example.com", "member", false)
	inactive := seedUser(t, repo, "ghost@example.com", "ghost", false)
	ctx := context.Background()
	inactive.IsActive = false
	require.NoError(t, repo.Update(ctx, inactive))

	u, err := svc.Authenticate(ctx, "member@example.com", "oldsecret")
	require.NoError(t, err)
	assert.Equal(t, "member@example.com", u.Email)

	_, err = svc.Authenticate(ctx, "member@example.com", "wrong")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = svc.Authenticate(ctx, "nobody@example.com", "whatever")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = svc.Authenticate(ctx, "ghost@example.com", "oldsecret")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestCurrentUser(t *testing.T) {
	svc, repo := newTestService()
	member := seedUser(t, repo, "member@example.com", "member", false)
	ctx := context.Background()

	u, err := svc.CurrentUser(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, u.ID)

	// Deleted mid-session: the identity no longer authenticates.
	require.NoError(t, repo.Delete(ctx, member.ID))
	_, err = svc.CurrentUser(ctx, member.ID)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestInactiveActorRejectedBeforeOperationCheck(t *testing.T) {
	svc, repo := newTestService()
	admin := seedUser(t, repo, "admin@example.com", "admin", true)
	admin.IsActive = false

	_, err := svc.List(context.Background(), admin, 0, 0)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = svc.UpdateSelf(context.Background(), admin, entity.UserPatch{FirstName: strPtr("X")})
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}
