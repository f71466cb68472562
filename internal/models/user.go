package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStaff   UserRole = "STAFF"
	RoleStudent UserRole = "STUDENT"
)

type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password string   `json:"-" gorm:"not null;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Phone    *string  `json:"phone" gorm:"size:20"`
	Role     UserRole `json:"role" gorm:"type:varchar(20);not null;default:'STUDENT'"`

	// Status
	IsActive bool `json:"is_active" gorm:"not null;default:true"`

	// Password reset state: both null or both set, token valid only
	// while reset_token_expiry > now.
	ResetToken       *string    `json:"-" gorm:"size:64;index"`
	ResetTokenExpiry *time.Time `json:"-"`

	// Profile info
	AvatarID *uint `json:"-"`
	Avatar   *File `json:"avatar,omitempty" gorm:"foreignKey:AvatarID"`

	// Role-specific profiles: at most one is populated per user.
	StudentProfile *StudentProfile `json:"student_profile,omitempty" gorm:"foreignKey:UserID"`
	StaffProfile   *StaffProfile   `json:"staff_profile,omitempty" gorm:"foreignKey:UserID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// Profile returns the populated role-specific profile, student first.
// The application invariant guarantees at most one is non-nil, so this
// is a coalesce rather than a tie-break.
func (u *User) Profile() interface{} {
	if u.StudentProfile != nil {
		return u.StudentProfile
	}
	if u.StaffProfile != nil {
		return u.StaffProfile
	}
	return nil
}

// HasResetToken reports whether an unconsumed token is stored on the
// row, regardless of expiry.
func (u *User) HasResetToken() bool {
	return u.ResetToken != nil && u.ResetTokenExpiry != nil
}
