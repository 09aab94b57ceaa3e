package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/storage"
	"github.com/roadrunner/api-go/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProfilePatch struct {
	Username *string `json:"username" binding:"omitempty,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password"`
	Status   *string `json:"status" binding:"omitempty,max=20"`
}

type UserService struct {
	DB      *gorm.DB
	Storage storage.Storage
	Log     *zap.Logger
}

func (s *UserService) load(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, userID uint) (*UserView, error) {
	user, err := s.load(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	view := userView(user, s.Storage)
	return &view, nil
}

// Update validates every supplied field and saves them together. A single
// failing field leaves the profile untouched.
func (s *UserService) Update(ctx context.Context, userID uint, patch ProfilePatch) (*UserView, error) {
	var user *models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.load(tx, userID)
		if err != nil {
			return err
		}

		verr := NewValidationError()
		updates := map[string]interface{}{}
		if patch.Username != nil {
			username := strings.TrimSpace(*patch.Username)
			if username == "" {
				verr.Add("username", "This field may not be blank.")
			}
			patch.Username = &username
			updates["username"] = username
		}
		if patch.Email != nil {
			email := normalizeEmail(*patch.Email)
			if email == "" {
				verr.Add("email", "This field may not be blank.")
			}
			patch.Email = &email
			updates["email"] = email
		}
		if err := checkUnique(tx, verr, user.ID, patch.Username, patch.Email,
			"This username is already taken.", "This email is already in use."); err != nil {
			return err
		}
		if patch.Status != nil {
			status := strings.TrimSpace(*patch.Status)
			if status == "" {
				verr.Add("status", "This field may not be blank.")
			}
			updates["status"] = status
		}
		if patch.Password != nil {
			attrs := validation.UserAttributes{Username: user.Username, Email: user.Email}
			if patch.Username != nil {
				attrs.Username = *patch.Username
			}
			if patch.Email != nil {
				attrs.Email = *patch.Email
			}
			problems := validation.Password(*patch.Password, attrs)
			for _, msg := range problems {
				verr.Add("password", msg)
			}
			if len(problems) == 0 {
				hashed, err := hashPassword(*patch.Password)
				if err != nil {
					return err
				}
				updates["password"] = hashed
			}
		}
		if verr.HasErrors() {
			return verr
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(user).Updates(updates).Error; err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return tx.First(user, user.ID).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent update or registration.
		return nil, s.updateConflict(ctx, userID, patch)
	}
	if err != nil {
		return nil, err
	}
	view := userView(user, s.Storage)
	return &view, nil
}

// updateConflict re-checks the columns a failed update collided on.
func (s *UserService) updateConflict(ctx context.Context, userID uint, patch ProfilePatch) error {
	dup := NewValidationError()
	if err := checkUnique(s.DB.WithContext(ctx), dup, userID, patch.Username, patch.Email,
		"This username is already taken.", "This email is already in use."); err != nil {
		return err
	}
	if dup.HasErrors() {
		return dup
	}
	return BadRequest(msgAccountTaken)
}

// SetPhoto replaces the profile photo, removing the previous blob.
func (s *UserService) SetPhoto(ctx context.Context, userID uint, file Upload) (*UserView, error) {
	if !storage.IsImage(file.FileName) {
		return nil, FieldError("profile_photo", imageExtensionMessage(file.FileName))
	}
	db := s.DB.WithContext(ctx)
	user, err := s.load(db, userID)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey("profile_photos", user.ID, file.FileName)
	if err := s.Storage.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		return nil, fmt.Errorf("store profile photo: %w", err)
	}
	if err := db.Model(user).Update("profile_photo", key).Error; err != nil {
		s.removeBlob(ctx, key)
		return nil, fmt.Errorf("save profile photo: %w", err)
	}
	s.removeBlob(ctx, user.ProfilePhoto)
	user.ProfilePhoto = key

	view := userView(user, s.Storage)
	return &view, nil
}

func (s *UserService) RemovePhoto(ctx context.Context, userID uint) error {
	db := s.DB.WithContext(ctx)
	user, err := s.load(db, userID)
	if err != nil {
		return err
	}
	if user.ProfilePhoto == "" {
		return BadRequest("No profile photo to remove.")
	}
	if err := db.Model(user).Update("profile_photo", "").Error; err != nil {
		return fmt.Errorf("clear profile photo: %w", err)
	}
	s.removeBlob(ctx, user.ProfilePhoto)
	return nil
}

// Delete removes the account. Rows owned by the user go with it through
// foreign key cascades; blobs are cleaned up afterwards on a best-effort basis.
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	db := s.DB.WithContext(ctx)
	user, err := s.load(db, userID)
	if err != nil {
		return err
	}

	var keys []string
	if err := db.Model(&models.TravelDocument{}).Where("user_id = ?", userID).Pluck("file", &keys).Error; err != nil {
		return fmt.Errorf("collect documents: %w", err)
	}
	if user.ProfilePhoto != "" {
		keys = append(keys, user.ProfilePhoto)
	}
	if err := db.Delete(user).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	for _, key := range keys {
		s.removeBlob(ctx, key)
	}
	return nil
}

func (s *UserService) removeBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.Storage.Delete(ctx, key); err != nil {
		s.Log.Warn("blob cleanup failed", zap.Error(err), zap.String("key", key))
	}
}

// Active reports whether userID names an existing account that may sign in.
// The profile status is a free-form label and plays no part here.
func (s *UserService) Active(ctx context.Context, userID uint) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_active", userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check account: %w", err)
	}
	return n > 0, nil
}

// Exists backs the public username and email availability checks.
func (s *UserService) Exists(ctx context.Context, column, value string) (bool, error) {
	if column != "username" && column != "email" {
		return false, fmt.Errorf("unsupported lookup column %q", column)
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check %s: %w", column, err)
	}
	return n > 0, nil
}
