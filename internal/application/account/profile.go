package account

import (
	"context"
	"strings"

	"github.com/baechuer/account-service/internal/domain"
)

func (s *Service) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Profile{}, domain.ErrAccountNotFound()
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}
	return a.Profile(), nil
}

// UpdateProfile merges patch into the account. An uploaded avatar wins over
// patch.AvatarURL. Required fields can be changed but not blanked; an empty
// Address or AvatarURL clears it.
func (s *Service) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch, avatar *AvatarFile) (domain.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Profile{}, domain.ErrAccountNotFound()
	}

	required := []struct {
		name string
		val  *string
	}{
		{"fName", patch.FirstName},
		{"lName", patch.LastName},
		{"email", patch.Email},
		{"phoneNumber", patch.PhoneNumber},
	}
	for _, f := range required {
		if f.val != nil && strings.TrimSpace(*f.val) == "" {
			return domain.Profile{}, domain.ErrInvalidField(f.name, "empty")
		}
	}
	if avatar != nil {
		if _, ok := domain.AvatarExt(avatar.ContentType); !ok {
			return domain.Profile{}, domain.ErrUnsupportedAvatarType(avatar.ContentType)
		}
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}

	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		patch.Email = &email
		if email != current.Email {
			if other, err := s.repo.GetByEmail(ctx, email); err == nil && other.ID != id {
				return domain.Profile{}, domain.ErrEmailAlreadyExists()
			} else if err != nil && !isAccountNotFound(err) {
				return domain.Profile{}, err
			}
		}
	}

	var uploaded string
	if avatar != nil {
		if s.avatars == nil {
			return domain.Profile{}, domain.ErrAvatarUpload(nil)
		}
		url, err := s.avatars.Upload(ctx, *avatar, s.avatarFolder)
		if err != nil {
			return domain.Profile{}, domain.ErrAvatarUpload(err)
		}
		uploaded = url
		patch.AvatarURL = &url
	}

	if patch.Empty() {
		return current.Profile(), nil
	}

	updated, err := s.repo.UpdateProfile(ctx, id, patch, s.now())
	if err != nil {
		if uploaded != "" {
			s.discardAvatar(ctx, id, uploaded)
		}
		return domain.Profile{}, err
	}

	s.audit("profile_updated", map[string]string{"account_id": id})
	return updated.Profile(), nil
}

// discardAvatar removes an upload whose row update failed.
func (s *Service) discardAvatar(ctx context.Context, id, url string) {
	if err := s.avatars.Delete(context.WithoutCancel(ctx), url); err != nil {
		s.audit("avatar_orphaned", map[string]string{"account_id": id, "url": url, "error": err.Error()})
	}
}
