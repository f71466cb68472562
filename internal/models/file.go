package models

import "time"

// File is a stored upload reference, currently used for user avatars.
type File struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	URL      string `json:"url" gorm:"not null;size:500"`
	FileName string `json:"file_name" gorm:"size:255"`
	MimeType string `json:"mime_type" gorm:"size:100"`
	Size     int64  `json:"size"`

	CreatedAt time.Time `json:"created_at"`
}

func (File) TableName() string {
	return "files"
}
