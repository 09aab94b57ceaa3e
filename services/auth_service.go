package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roadrunner/api-go/config"
	"github.com/roadrunner/api-go/models"
	"github.com/roadrunner/api-go/utils"
	"github.com/roadrunner/api-go/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgUsernameTaken = "A user with that username already exists."
	msgEmailTaken    = "User with this email already exists."
	msgAccountTaken  = "A user with that username or email already exists."
)

type RegisterInput struct {
	Username       string `json:"username" binding:"required,max=50"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	RepeatPassword string `json:"repeat_password" binding:"required"`
}

type GoogleInput struct {
	IDToken     string `json:"id_token"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// AuthResult is returned by every sign-in path.
type AuthResult struct {
	Tokens utils.TokenPair `json:"tokens"`
	User   UserSummary     `json:"user"`
}

// GoogleVerifier resolves a Google credential to the account behind it.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*config.GoogleUserInfo, error)
	ExchangeCode(ctx context.Context, code, redirectURI string) (*config.GoogleUserInfo, error)
}

type AuthService struct {
	DB     *gorm.DB
	Tokens *utils.TokenManager
	Google GoogleVerifier
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy spends the same bcrypt work as a real check so that unknown
// identifiers are not distinguishable by response time.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// normalizeEmail lowercases the domain part, leaving the local part as typed.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func summary(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	verr := NewValidationError()
	if username == "" {
		verr.Add("username", "This field may not be blank.")
	}
	for _, msg := range validation.Password(in.Password, validation.UserAttributes{Username: username, Email: email}) {
		verr.Add("password", msg)
	}
	if in.Password != in.RepeatPassword {
		verr.Add("repeat_password", "Passwords do not match.")
	}

	db := s.DB.WithContext(ctx)
	if err := s.checkUnique(db, verr, 0, &username, &email); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{Username: username, Email: email, Password: hashed, Status: models.UserStatusActive, IsActive: true}

	var result *AuthResult
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		var err error
		result, err = s.issue(tx, &user)
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent registration.
		return nil, s.registrationConflict(db, username, email)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// registrationConflict names the column a failed insert collided on. When the
// conflicting row is no longer visible neither field is blamed.
func (s *AuthService) registrationConflict(db *gorm.DB, username, email string) error {
	dup := NewValidationError()
	if err := s.checkUnique(db, dup, 0, &username, &email); err != nil {
		return err
	}
	if dup.HasErrors() {
		return dup
	}
	return BadRequest(msgAccountTaken)
}

// checkUnique adds a field error for a username or email already used by
// another user. exceptID excludes the caller on profile updates.
func (s *AuthService) checkUnique(db *gorm.DB, verr *ValidationError, exceptID uint, username, email *string) error {
	return checkUnique(db, verr, exceptID, username, email, msgUsernameTaken, msgEmailTaken)
}

func checkUnique(db *gorm.DB, verr *ValidationError, exceptID uint, username, email *string, usernameMsg, emailMsg string) error {
	exists := func(column, value string) (bool, error) {
		var n int64
		err := db.Model(&models.User{}).Where(column+" = ? AND id <> ?", value, exceptID).Count(&n).Error
		return n > 0, err
	}
	if username != nil && *username != "" {
		taken, err := exists("username", *username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			verr.Add("username", usernameMsg)
		}
	}
	if email != nil && *email != "" {
		taken, err := exists("email", *email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			verr.Add("email", emailMsg)
		}
	}
	return nil
}

// issue signs a token pair and stores the refresh token.
func (s *AuthService) issue(db *gorm.DB, user *models.User) (*AuthResult, error) {
	access, err := s.Tokens.SignAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.Tokens.SignRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	row := models.RefreshToken{UserID: user.ID, Token: refresh, ExpiresAt: expiresAt}
	if err := db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &AuthResult{
		Tokens: utils.TokenPair{Access: access, Refresh: refresh},
		User:   summary(user),
	}, nil
}

// Login accepts an email (anything containing "@") or a username.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	db := s.DB.WithContext(ctx)

	var user models.User
	var err error
	if strings.Contains(identifier, "@") {
		err = db.Where("email = ?", normalizeEmail(identifier)).First(&user).Error
	} else {
		err = db.Where("username = ?", identifier).First(&user).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		compareDummy(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return s.issue(db, &user)
}

// Refresh exchanges a stored, unexpired refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.Tokens.Parse(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return "", ErrInvalidToken
	}

	var row models.RefreshToken
	err = s.DB.WithContext(ctx).
		Where("token = ? AND user_id = ? AND expires_at > ?", refreshToken, claims.UserID, time.Now()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	return s.Tokens.SignAccess(row.UserID)
}

// Logout revokes one of the caller's refresh tokens.
func (s *AuthService) Logout(ctx context.Context, userID uint, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return BadRequest("Refresh token is required.")
	}
	res := s.DB.WithContext(ctx).Where("token = ? AND user_id = ?", refreshToken, userID).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return fmt.Errorf("revoke refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return BadRequest("Invalid refresh token")
	}
	return nil
}

// PurgeExpired deletes refresh tokens past their expiry and reports how many went.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// GoogleSignIn signs in, or registers, the owner of a Google credential.
func (s *AuthService) GoogleSignIn(ctx context.Context, in GoogleInput) (*AuthResult, error) {
	if s.Google == nil {
		return nil, BadRequest("Google sign-in is not configured")
	}

	var info *config.GoogleUserInfo
	var err error
	switch {
	case in.IDToken != "":
		info, err = s.Google.VerifyIDToken(ctx, in.IDToken)
	case in.Code != "":
		info, err = s.Google.ExchangeCode(ctx, in.Code, in.RedirectURI)
	default:
		return nil, BadRequest("id_token or code is required")
	}
	if errors.Is(err, config.ErrGoogleDisabled) {
		return nil, BadRequest("Google sign-in is not configured")
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var result *AuthResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.googleUser(tx, info)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return ErrInvalidCredentials
		}
		result, err = s.issue(tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AuthService) googleUser(tx *gorm.DB, info *config.GoogleUserInfo) (*models.User, error) {
	subject := info.Subject()
	email := normalizeEmail(info.Email)

	var user models.User
	err := tx.Where("google_id = ?", subject).Or("email = ?", email).First(&user).Error
	if err == nil {
		if user.GoogleID == nil {
			if err := tx.Model(&user).Update("google_id", subject).Error; err != nil {
				return nil, fmt.Errorf("link google account: %w", err)
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	username, err := s.freeUsername(tx, email)
	if err != nil {
		return nil, err
	}
	// Google accounts get an unusable random password.
	hashed, err := hashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	user = models.User{
		Username: username,
		Email:    email,
		Password: hashed,
		Status:   models.UserStatusActive,
		IsActive: true,
		GoogleID: &subject,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}
	return &user, nil
}

// freeUsername derives an unused username from the local part of an email.
func (s *AuthService) freeUsername(tx *gorm.DB, email string) (string, error) {
	base := strings.ToLower(email)
	if at := strings.Index(base, "@"); at > 0 {
		base = base[:at]
	}
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '.' {
			return r
		}
		return -1
	}, base)
	if base == "" {
		base = "traveller"
	}
	if len(base) > 40 {
		base = base[:40]
	}

	candidate := base
	for i := 1; i <= 100; i++ {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", candidate).Count(&n).Error; err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return base + "_" + uuid.NewString()[:8], nil
}
