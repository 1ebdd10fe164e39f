package models

import "time"

// Software is one purchasable listing: a title, a demo video, a downloadable
// ZIP archive and a price. UploadedBy is set from the uploader's token at
// creation and never changes afterwards.
type Software struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	VideoURL   string    `gorm:"size:512;not null" json:"video_url"`
	ZipURL     string    `gorm:"size:512;not null" json:"zip_url"`
	Price      float64   `gorm:"not null" json:"price"`
	UploadedBy string    `gorm:"size:64;index;not null" json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
