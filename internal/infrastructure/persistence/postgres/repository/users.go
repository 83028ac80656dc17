package repository

import (
	"context"
	"errors"

	"github.com/ahmedelhadi17776/streaky/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	row := UserRow{
		ID:           uuid.New(),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		TokenVersion: u.TokenVersion,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user.ErrEmailTaken
		}
		return err
	}
	*u = *row.toDomain()
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, user.ErrUserNotFound
	}
	var row UserRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var row UserRow
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return row.toDomain(), nil
}

func (r *UserRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return user.ErrUserNotFound
	}
	result := r.db.WithContext(ctx).Model(&UserRow{}).
		Where("id = ?", uid).
		Update("token_version", gorm.Expr("token_version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}
