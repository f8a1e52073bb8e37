package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InquiryStatus is the visibility status of an inquiry in the admin console.
type InquiryStatus string

const (
	StatusUnread InquiryStatus = "unread"
	StatusRead   InquiryStatus = "read"
)

// ParseInquiryStatus accepts the canonical values case-insensitively.
func ParseInquiryStatus(s string) (InquiryStatus, bool) {
	switch InquiryStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusUnread:
		return StatusUnread, true
	case StatusRead:
		return StatusRead, true
	}
	return "", false
}

// Inquiry represents a contact form submission
type Inquiry struct {
	ID                string        `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	AdvertisingState  string        `gorm:"not null" json:"advertisingState" bson:"advertisingState"`
	AdvertisingMarket string        `gorm:"not null" json:"advertisingMarket" bson:"advertisingMarket"`
	Topic             string        `gorm:"not null" json:"topic" bson:"topic"`
	Media             string        `gorm:"not null" json:"media" bson:"media"`
	FirstName         string        `gorm:"not null" json:"firstName" bson:"firstName"`
	LastName          string        `gorm:"not null" json:"lastName" bson:"lastName"`
	Phone             string        `gorm:"not null" json:"phone" bson:"phone"`
	Email             string        `gorm:"not null;index" json:"email" bson:"email"`
	City              string        `gorm:"not null" json:"city" bson:"city"`
	Message           string        `gorm:"type:text;not null" json:"message" bson:"message"`
	Status            InquiryStatus `gorm:"size:16;not null;default:'unread';index" json:"status" bson:"status"`
	IsForwarded       bool          `gorm:"not null;default:false" json:"isForwarded" bson:"isForwarded"`
	Notes             []Note        `gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE" json:"notes" bson:"notes"`
	CreatedAt         time.Time     `gorm:"index" json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Note is an admin remark appended to an inquiry. Notes are never edited.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"-" bson:"-"`
	InquiryID string    `gorm:"size:36;not null;index" json:"-" bson:"-"`
	Content   string    `gorm:"type:text;not null" json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// TableName specifies the table name for Inquiry
func (Inquiry) TableName() string {
	return "inquiries"
}

// TableName specifies the table name for Note
func (Note) TableName() string {
	return "inquiry_notes"
}

// Init assigns identity, default status and timestamps to a new inquiry.
func (i *Inquiry) Init(now time.Time) {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = StatusUnread
	}
	if i.Notes == nil {
		i.Notes = []Note{}
	}
	i.CreatedAt = now
	i.UpdatedAt = now
}

// FullName joins first and last name.
func (i *Inquiry) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// MarkViewed applies the view action and reports whether the status changed.
func (i *Inquiry) MarkViewed() bool {
	if i.Status == StatusRead {
		return false
	}
	i.Status = StatusRead
	return true
}

// BeforeCreate hook
func (i *Inquiry) BeforeCreate(tx *gorm.DB) error {
	i.Init(tx.NowFunc())
	return nil
}

// BeforeCreate hook
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = tx.NowFunc()
	}
	return nil
}
