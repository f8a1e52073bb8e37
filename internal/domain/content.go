package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entity is implemented by the pointer types of the site's content models so
// that blogs, jobs and reels can share one repository and service.
type Entity[T any] interface {
	*T
	Key() string
	Init(now time.Time)
	Inherit(prev *T)
	Touch(now time.Time)
	Headline() string
	Created() time.Time
	MediaRefs() []string
}

// Blog is a blog post shown on the marketing site
type Blog struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Title     string    `gorm:"not null" json:"title" bson:"title" validate:"required,max=200"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug" bson:"slug" validate:"omitempty,max=220"`
	Summary   string    `json:"summary" bson:"summary" validate:"max=500"`
	Content   string    `gorm:"type:text;not null" json:"content" bson:"content" validate:"required"`
	Author    string    `json:"author" bson:"author" validate:"max=120"`
	ImageURL  string    `json:"imageUrl" bson:"imageUrl" validate:"omitempty,url"`
	ImageRef  string    `json:"imageRef" bson:"imageRef"`
	Published bool      `gorm:"not null;default:false" json:"published" bson:"published"`
	CreatedAt time.Time `gorm:"index" json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Job is an open position listed on the careers page
type Job struct {
	ID             string                      `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Title          string                      `gorm:"not null" json:"title" bson:"title" validate:"required,max=200"`
	Department     string                      `json:"department" bson:"department" validate:"max=120"`
	Location       string                      `gorm:"not null" json:"location" bson:"location" validate:"required,max=120"`
	EmploymentType string                      `json:"employmentType" bson:"employmentType" validate:"omitempty,oneof=full-time part-time contract internship"`
	Description    string                      `gorm:"type:text;not null" json:"description" bson:"description" validate:"required"`
	Requirements   datatypes.JSONSlice[string] `json:"requirements" bson:"requirements" validate:"dive,required"`
	IsActive       bool                        `gorm:"not null;default:true" json:"isActive" bson:"isActive"`
	CreatedAt      time.Time                   `gorm:"index" json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt" bson:"updatedAt"`
}

// Reel is a short showcase video
type Reel struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Title        string    `gorm:"not null" json:"title" bson:"title" validate:"required,max=200"`
	VideoURL     string    `gorm:"not null" json:"videoUrl" bson:"videoUrl" validate:"required,url"`
	ThumbnailURL string    `json:"thumbnailUrl" bson:"thumbnailUrl" validate:"omitempty,url"`
	ThumbnailRef string    `json:"thumbnailRef" bson:"thumbnailRef"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (Blog) TableName() string { return "blogs" }
func (Job) TableName() string  { return "jobs" }
func (Reel) TableName() string { return "reels" }

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (b *Blog) Key() string         { return b.ID }
func (b *Blog) Headline() string    { return b.Title }
func (b *Blog) Created() time.Time  { return b.CreatedAt }
func (b *Blog) MediaRefs() []string { return nonEmpty(b.ImageRef) }

func (b *Blog) Init(now time.Time) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Slug == "" {
		b.Slug = Slugify(b.Title)
	}
	b.CreatedAt = now
	b.UpdatedAt = now
}

func (b *Blog) Touch(now time.Time) { b.UpdatedAt = now }

func (b *Blog) Inherit(prev *Blog) {
	b.ID = prev.ID
	b.CreatedAt = prev.CreatedAt
	if b.Slug == "" {
		b.Slug = prev.Slug
	}
}

func (j *Job) Key() string         { return j.ID }
func (j *Job) Headline() string    { return j.Title }
func (j *Job) Created() time.Time  { return j.CreatedAt }
func (j *Job) MediaRefs() []string { return nil }

func (j *Job) Init(now time.Time) {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Requirements == nil {
		j.Requirements = datatypes.JSONSlice[string]{}
	}
	j.CreatedAt = now
	j.UpdatedAt = now
}

func (j *Job) Touch(now time.Time) { j.UpdatedAt = now }

func (j *Job) Inherit(prev *Job) {
	j.ID = prev.ID
	j.CreatedAt = prev.CreatedAt
	if j.Requirements == nil {
		j.Requirements = datatypes.JSONSlice[string]{}
	}
}

func (r *Reel) Key() string         { return r.ID }
func (r *Reel) Headline() string    { return r.Title }
func (r *Reel) Created() time.Time  { return r.CreatedAt }
func (r *Reel) MediaRefs() []string { return nonEmpty(r.ThumbnailRef) }

func (r *Reel) Init(now time.Time) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = now
	r.UpdatedAt = now
}

func (r *Reel) Touch(now time.Time) { r.UpdatedAt = now }

func (r *Reel) Inherit(prev *Reel) {
	r.ID = prev.ID
	r.CreatedAt = prev.CreatedAt
}

// BeforeCreate hook
func (b *Blog) BeforeCreate(tx *gorm.DB) error {
	b.Init(tx.NowFunc())
	return nil
}

// BeforeCreate hook
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	j.Init(tx.NowFunc())
	return nil
}

// BeforeCreate hook
func (r *Reel) BeforeCreate(tx *gorm.DB) error {
	r.Init(tx.NowFunc())
	return nil
}

func nonEmpty(refs ...string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref != "" {
			out = append(out, ref)
		}
	}
	return out
}
