package models

import (
	"time"

	"gorm.io/gorm"
)

// StudentProfile belongs to exactly one User and optionally references
// the room the student lives in.
type StudentProfile struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	UserID      uint    `json:"user_id" gorm:"uniqueIndex;not null"`
	StudentCode string  `json:"student_code" gorm:"uniqueIndex;not null;size:20"`
	University  *string `json:"university" gorm:"size:200"`
	Major       *string `json:"major" gorm:"size:100"`

	RoomID *uint `json:"room_id"`
	Room   *Room `json:"room,omitempty"`

	CheckInDate *time.Time `json:"check_in_date"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

// StaffProfile belongs to exactly one User and optionally references
// the building the staff member manages.
type StaffProfile struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	UserID    uint    `json:"user_id" gorm:"uniqueIndex;not null"`
	StaffCode string  `json:"staff_code" gorm:"uniqueIndex;not null;size:20"`
	Position  *string `json:"position" gorm:"size:100"`

	ManagedBuildingID *uint     `json:"managed_building_id"`
	ManagedBuilding   *Building `json:"managed_building,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (StaffProfile) TableName() string {
	return "staff_profiles"
}
