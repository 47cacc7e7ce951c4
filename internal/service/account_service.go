package service

import (
	"context"
	"errors"
	"strings"

	"namethatobject/internal/models"
	"namethatobject/internal/observability"
	"namethatobject/internal/repository"
	"namethatobject/internal/storage"
	"namethatobject/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// errBadCredentials is answered for unknown users and wrong passwords alike.
var errBadCredentials = models.NewValidationError("Unable to log in with provided credentials")

type AccountService struct {
	repos    repository.Repos
	tx       repository.Transactor
	media    storage.Store
	hashCost int
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput carries profile changes. Nil fields are left untouched.
type UpdateProfileInput struct {
	UserID     uint
	Bio        *string
	Profession *string
	Picture    *Attachment
}

func NewAccountService(repos repository.Repos, tx repository.Transactor, media storage.Store) *AccountService {
	return &AccountService{repos: repos, tx: tx, media: media, hashCost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, mostly to keep tests fast.
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.hashCost = cost
	return s
}

// Signup creates a user and its empty profile in one transaction.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password, in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	taken, err := s.repos.Users.UsernameTaken(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("A user with that username already exists")
	}
	taken, err = s.repos.Users.EmailTaken(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("A user with that email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: in.Username, Email: in.Email, Password: string(hash)}
	err = s.tx.InTx(ctx, func(r repository.Repos) error {
		if err := r.Users.Create(ctx, user); err != nil {
			return err
		}
		return r.Profiles.Create(ctx, &models.Profile{UserID: user.ID})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}
	user, err := s.repos.Users.GetByUsername(ctx, username)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return user, nil
}

// GetProfile returns the profile of the acting user.
func (s *AccountService) GetProfile(ctx context.Context, userID uint) (*models.ProfileResponse, error) {
	user, err := requireAccount(ctx, s.repos.Users, userID)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, user)
}

func (s *AccountService) GetProfileByUsername(ctx context.Context, username string) (*models.ProfileResponse, error) {
	user, err := s.repos.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, user)
}

func (s *AccountService) profileOf(ctx context.Context, user *models.User) (*models.ProfileResponse, error) {
	profile, err := s.repos.Profiles.GetByUserID(ctx, user.ID)
	if err != nil && !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}
	resp := models.NewProfileResponse(user, profile)
	return &resp, nil
}

// UpdateProfile edits bio, profession and picture. A new picture gets a fresh
// public URL; an unchanged one keeps its URL.
func (s *AccountService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.ProfileResponse, error) {
	user, err := requireAccount(ctx, s.repos.Users, in.UserID)
	if err != nil {
		return nil, err
	}
	profile, err := s.repos.Profiles.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		if err := validation.ValidateOptionalText("bio", *in.Bio, validation.MaxBioLength); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Bio = *in.Bio
	}
	if in.Profession != nil {
		if err := validation.ValidateOptionalText("profession", *in.Profession, validation.MaxProfessionLen); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Profession = *in.Profession
	}
	if in.Picture != nil {
		ref := strings.TrimSpace(in.Picture.Ref)
		if in.Picture.Body != nil {
			if s.media == nil {
				return nil, models.NewInternalError(errors.New("media storage not configured"))
			}
			ref, err = s.media.Save(ctx, storage.KindPicture, in.Picture.Filename, in.Picture.Body)
			if err != nil {
				return nil, mediaError(storage.KindPicture, err)
			}
		}
		if ref != profile.Picture {
			profile.Picture = ref
			profile.PictureURL = publicURL(s.media, ref)
		}
	}

	if err := s.repos.Profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	resp := models.NewProfileResponse(user, profile)
	return &resp, nil
}

// DeleteAccount removes a user in one transaction. Posts that drew comments
// stay up anonymously, posts without comments are soft-deleted, and every
// comment by the user is anonymised. Authorship is then detached before the
// profile and the user row go.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "account.delete",
		attribute.Int64("user.id", int64(userID)))
	defer func() {
		observability.EndSpan(span, err)
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		observability.AccountDeletions.WithLabelValues(outcome).Inc()
	}()

	return s.tx.InTx(ctx, func(r repository.Repos) error {
		if _, err := requireAccount(ctx, r.Users, userID); err != nil {
			return err
		}

		postIDs, err := r.Posts.ListIDsByUser(ctx, userID)
		if err != nil {
			return err
		}
		counts, err := r.Comments.CountByPost(ctx, postIDs)
		if err != nil {
			return err
		}
		var discussed, silent []uint
		for _, id := range postIDs {
			if counts[id] > 0 {
				discussed = append(discussed, id)
			} else {
				silent = append(silent, id)
			}
		}
		span.SetAttributes(
			attribute.Int("posts.anonymised", len(discussed)),
			attribute.Int("posts.deleted", len(silent)),
		)

		if err := r.Posts.MarkAnonymous(ctx, discussed); err != nil {
			return err
		}
		if err := r.Posts.SoftDeleteMany(ctx, silent); err != nil {
			return err
		}
		if err := r.Comments.AnonymizeByUser(ctx, userID); err != nil {
			return err
		}
		if err := r.Posts.DetachAuthor(ctx, userID); err != nil {
			return err
		}
		if err := r.Comments.DetachAuthor(ctx, userID); err != nil {
			return err
		}
		if err := r.Profiles.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		return r.Users.Delete(ctx, userID)
	})
}
