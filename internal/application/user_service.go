package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/altairlabs/user-management-api/internal/domain/authz"
	"github.com/altairlabs/user-management-api/internal/domain/entity"
	repo "github.com/altairlabs/user-management-api/internal/domain/repository"
	"github.com/altairlabs/user-management-api/pkg/apperr"
	"github.com/altairlabs/user-management-api/pkg/helpers"
	"github.com/altairlabs/user-management-api/pkg/policy"
	"github.com/altairlabs/user-management-api/pkg/validation"
)

// DefaultListLimit bounds list responses when the caller does not ask for a
// specific page size.
const DefaultListLimit = 100

// Service orchestrates every user management use case. It holds no durable
// state of its own; each operation borrows records from the repository for
// the duration of one call, so a single instance is safe for concurrent use.
type Service struct {
	Repo      repo.UserRepository
	Gate      authz.Gate
	Passwords policy.Password
	Logger    *logrus.Logger
}

func NewService(r repo.UserRepository, passwords policy.Password, logger *logrus.Logger) *Service {
	if passwords == nil {
		passwords = policy.Unrestricted{}
	}
	return &Service{Repo: r, Passwords: passwords, Logger: logger}
}

// CreateUserInput carries the candidate fields for a new account. IsActive
// and IsSuperuser follow the stored defaults (true / false) when nil.
type CreateUserInput struct {
	Email       string
	Username    string
	Password    string
	IsActive    *bool
	IsSuperuser *bool
	FirstName   string
	LastName    string
}

// Authenticate verifies an email/password pair. Unknown email, wrong
// password, and inactive account all fail with an Authentication error; the
// message does not reveal which check failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Authentication("incorrect email or password")
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.HashedPassword, password) {
		return nil, apperr.Authentication("incorrect email or password")
	}
	if !u.IsActive {
		return nil, apperr.Authentication("inactive user")
	}
	return u, nil
}

// CurrentUser resolves the acting identity for an authenticated request.
// A deleted or inactive account fails authentication, so every request
// re-validates that the identity behind the token still exists and is usable.
func (s *Service) CurrentUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Authentication("could not validate credentials")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Authentication("inactive user")
	}
	return u, nil
}

// List returns a stable page of users. Superuser only.
func (s *Service) List(ctx context.Context, actor *entity.User, skip, limit int) ([]*entity.User, error) {
	if err := s.Gate.Authorize(actor, authz.OpListAll); err != nil {
		return nil, err
	}
	if skip < 0 {
		return nil, apperr.Validation("skip must be non-negative")
	}
	if limit < 0 {
		return nil, apperr.Validation("limit must be non-negative")
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	return s.Repo.List(ctx, skip, limit)
}

// Create validates a candidate, checks email then username uniqueness (in
// that order, so an email conflict is reported first), hashes the password,
// and persists the new record. Superuser only.
func (s *Service) Create(ctx context.Context, actor *entity.User, in CreateUserInput) (*entity.User, error) {
	if err := s.Gate.Authorize(actor, authz.OpCreate); err != nil {
		return nil, err
	}
	if err := validation.Email(in.Email); err != nil {
		return nil, err
	}
	if err := validation.Username(in.Username); err != nil {
		return nil, err
	}
	if err := s.Passwords.Validate(in.Password); err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, in.Email, in.Username); err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		Email:          in.Email,
		Username:       in.Username,
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    false,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsSuperuser != nil {
		u.IsSuperuser = *in.IsSuperuser
	}

	// The users table carries UNIQUE constraints on email and username, so a
	// concurrent insert between the checks above and this write still surfaces
	// as a Conflict instead of a broken invariant.
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "by": actor.ID}).Info("user created")
	}
	return u, nil
}

func (s *Service) ensureUnique(ctx context.Context, email, username string) error {
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return apperr.Conflict("the user with this email already exists in the system")
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return err
	}
	if _, err := s.Repo.GetByUsername(ctx, username); err == nil {
		return apperr.Conflict("the user with this username already exists in the system")
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return err
	}
	return nil
}

// GetSelf returns the acting identity's own record unconditionally.
func (s *Service) GetSelf(actor *entity.User) *entity.User {
	return actor
}

// UpdateSelf applies a patch to the acting identity's own record.
func (s *Service) UpdateSelf(ctx context.Context, actor *entity.User, patch entity.UserPatch) (*entity.User, error) {
	if err := s.Gate.Authorize(actor, authz.OpUpdateSelf); err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, actor, patch)
}

// GetByID returns a record by id. Self-access is always allowed and returns
// the actor as resolved at authentication time; any other target requires
// superuser privilege before the existence check, so a NotFound never leaks
// to callers who were not entitled to ask.
func (s *Service) GetByID(ctx context.Context, actor *entity.User, targetID string) (*entity.User, error) {
	if actor != nil && targetID == actor.ID {
		return actor, nil
	}
	if err := s.Gate.Authorize(actor, authz.OpReadOther); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, targetID)
}

// UpdateByID applies a patch to any record. Superuser only; NotFound is
// checked after authorization.
func (s *Service) UpdateByID(ctx context.Context, actor *entity.User, targetID string, patch entity.UserPatch) (*entity.User, error) {
	if err := s.Gate.Authorize(actor, authz.OpUpdateOther); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, u, patch)
}

// DeleteByID permanently removes a record and returns it as it existed
// immediately before deletion. Superuser only.
func (s *Service) DeleteByID(ctx context.Context, actor *entity.User, targetID string) (*entity.User, error) {
	if err := s.Gate.Authorize(actor, authz.OpDelete); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Delete(ctx, targetID); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "by": actor.ID}).Info("user deleted")
	}
	return u, nil
}

// applyPatch overwrites exactly the fields present in the patch, re-hashing
// the password when one is supplied, and persists the record as one write.
// The input record is not mutated unless the whole patch is valid.
func (s *Service) applyPatch(ctx context.Context, base *entity.User, patch entity.UserPatch) (*entity.User, error) {
	u := *base

	if patch.Email != nil {
		if err := validation.Email(*patch.Email); err != nil {
			return nil, err
		}
		u.Email = *patch.Email
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Password != nil {
		if err := s.Passwords.Validate(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := helpers.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		u.HashedPassword = hash
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
	if patch.IsSuperuser != nil {
		u.IsSuperuser = *patch.IsSuperuser
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}

	if err := s.Repo.Update(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
