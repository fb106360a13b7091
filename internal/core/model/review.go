package model

import (
	"strings"
	"time"

	"sainmakosam/internal/core/util"
)

// DefaultImage is used when a review is saved without an uploaded poster.
const DefaultImage = "https://placehold.co/800x400/1C1C1C/FFFFFF?text=Poster+Image"

const (
	MaxTitleLength   = 100
	MaxExcerptLength = 250
)

type Review struct {
	ID         string    `bson:"_id" json:"id"`
	Title      string    `bson:"title" json:"title"`
	Excerpt    string    `bson:"excerpt" json:"excerpt"`
	Content    string    `bson:"content" json:"content"`
	Author     Author    `bson:"author" json:"author"`
	Image      string    `bson:"image" json:"image"`
	DatePosted time.Time `bson:"datePosted" json:"datePosted"`
	Slug       string    `bson:"slug" json:"slug"`
}

func NewReview(title, excerpt, content string, author Author, image string) *Review {
	return &Review{
		Title:   title,
		Excerpt: excerpt,
		Content: content,
		Author:  author,
		Image:   image,
	}
}

// PrepareForInsert fills defaults and derives the slug. Call it right
// before the first write.
func (r *Review) PrepareForInsert() {
	if r.ID == "" {
		r.ID = util.GenerateID()
	}
	if r.DatePosted.IsZero() {
		r.DatePosted = time.Now()
	}
	if strings.TrimSpace(r.Image) == "" {
		r.Image = DefaultImage
	}
	r.Slug = Slugify(r.Title)
}

// PrepareForUpdate regenerates the slug when the title changed since
// previousTitle or when no slug is stored yet.
func (r *Review) PrepareForUpdate(previousTitle string) {
	if r.Title != previousTitle || r.Slug == "" {
		r.Slug = Slugify(r.Title)
	}
	if strings.TrimSpace(r.Image) == "" {
		r.Image = DefaultImage
	}
}

func (r *Review) HasDefaultImage() bool {
	return r.Image == "" || r.Image == DefaultImage
}
