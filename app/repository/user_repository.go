package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/keyforgehq/keyforge/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by its ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByLoaderKeyHash resolves a hashed loader key to its owning user
func (r *userRepository) GetByLoaderKeyHash(hash string) (*models.User, error) {
	var user models.User
	err := r.db.Where("loader_key_hash = ? AND loader_key_hash <> ''", hash).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// TouchLoaderKeyUsage updates the loader key last-used timestamp best-effort
func (r *userRepository) TouchLoaderKeyUsage(userID uint) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("loader_key_last_used", time.Now()).Error
}

// TouchLastLogin updates the last-login timestamp
func (r *userRepository) TouchLastLogin(userID uint) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now()).Error
}
