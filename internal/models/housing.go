package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Building struct {
	ID      uint    `json:"id" gorm:"primaryKey"`
	Name    string  `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Address *string `json:"address" gorm:"size:255"`
	Floors  int     `json:"floors" gorm:"not null;default:1"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Building) TableName() string {
	return "buildings"
}

type Room struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Number     string    `json:"number" gorm:"not null;size:20;uniqueIndex:idx_rooms_building_number"`
	BuildingID uint      `json:"building_id" gorm:"not null;uniqueIndex:idx_rooms_building_number"`
	Building   *Building `json:"building,omitempty"`
	Floor      int       `json:"floor" gorm:"not null;default:1"`
	Capacity   int       `json:"capacity" gorm:"not null;default:4"`

	// Free-form amenity list, e.g. ["air_conditioner","private_bathroom"]
	Amenities datatypes.JSON `json:"amenities"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Room) TableName() string {
	return "rooms"
}
