package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/clock"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/models"
)

// Burned on the unknown-email path so lookup failures cost the same as a
// wrong password. bcrypt hash of an unused filler value.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// GormDirectory is the MySQL-backed Directory.
type GormDirectory struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewGormDirectory(db *gorm.DB, clk clock.Clock) *GormDirectory {
	return &GormDirectory{db: db, clock: clk}
}

func (d *GormDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (d *GormDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (d *GormDirectory) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := d.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Keep the cost of this path equal to the wrong-password path.
			_ = bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(password))
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrBadPassword
	}
	return user, nil
}

func (d *GormDirectory) Register(ctx context.Context, user *models.User, password string) error {
	user.Email = normalizeEmail(user.Email)
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	models.StampCreate(&user.AuditStamp, d.clock.Now(), models.SystemActor)

	var existing models.User
	err := d.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return ErrDuplicate
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return mapErr(err)
	}
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		return mapErr(err)
	}
	return nil
}

func (d *GormDirectory) ConfirmEmail(ctx context.Context, userID string) error {
	return d.update(ctx, userID, map[string]interface{}{"email_confirmed": true})
}

func (d *GormDirectory) SetPassword(ctx context.Context, userID, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return d.update(ctx, userID, map[string]interface{}{"password": string(hashed)})
}

func (d *GormDirectory) update(ctx context.Context, userID string, fields map[string]interface{}) error {
	now := d.clock.Now()
	fields["modified_at"] = now
	fields["modified_by"] = models.SystemActor
	result := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(fields)
	if result.Error != nil {
		return mapErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
