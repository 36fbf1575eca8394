package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email              string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password           string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role               string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status             string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	LoaderKeyHash      string         `gorm:"type:char(64);default:'';index" json:"-"`
	LoaderKeyPrefix    string         `gorm:"type:varchar(20);default:''" json:"loader_key_prefix"`
	LoaderKeyCreatedAt *time.Time     `json:"loader_key_created_at"`
	LoaderKeyLastUsed  *time.Time     `json:"loader_key_last_used_at"`
	LoaderKeyRevokedAt *time.Time     `json:"-"`
	LastLoginAt        *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

var loaderKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const loaderKeyPrefix = "kfg_"

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     username,
		Email:    email,
		Password: pw,
		Role:     ROLE_USER,
		Status:   STATUS_ACTIVE,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// HasActiveLoaderKey reports whether the user has an active loader key configured
func (u *User) HasActiveLoaderKey() bool {
	return u != nil && u.LoaderKeyHash != "" && u.LoaderKeyRevokedAt == nil
}

// IssueLoaderKey generates a new loader key, persists metadata on the struct, and returns the raw secret.
// Callers must persist the struct via the database after invoking this method.
func (u *User) IssueLoaderKey() (string, error) {
	rawKey, prefix, hash, err := generateLoaderKeyMaterial()
	if err != nil {
		return "", err
	}
	now := time.Now()
	u.LoaderKeyHash = hash
	u.LoaderKeyPrefix = prefix
	u.LoaderKeyCreatedAt = &now
	u.LoaderKeyRevokedAt = nil
	u.LoaderKeyLastUsed = nil
	return rawKey, nil
}

// RevokeLoaderKey clears the stored loader key metadata without deleting the record.
func (u *User) RevokeLoaderKey() {
	u.LoaderKeyHash = ""
	u.LoaderKeyPrefix = ""
	now := time.Now()
	u.LoaderKeyRevokedAt = &now
	u.LoaderKeyLastUsed = nil
}

// HashLoaderKey returns the SHA-256 hash for the provided loader key.
func HashLoaderKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func generateLoaderKeyMaterial() (string, string, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", err
	}
	encoded := loaderKeyEncoding.EncodeToString(b)
	encoded = strings.ToLower(encoded)
	rawKey := loaderKeyPrefix + encoded
	if len(rawKey) < 12 {
		return "", "", "", fmt.Errorf("loader key generation failed: key too short")
	}
	prefix := rawKey[:min(len(rawKey), 16)]
	hash := HashLoaderKey(rawKey)
	return rawKey, prefix, hash, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
