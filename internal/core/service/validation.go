package service

import (
	"errors"
	"fmt"
	"strings"

	"sainmakosam/internal/core/model"

	"github.com/go-playground/validator/v10"
)

const (
	msgSlugTaken   = "A review with this title already exists."
	msgSlugEmpty   = "Title must contain at least one letter or number."
	msgImageFormat = "Poster must be a JPG, PNG, GIF, WebP or AVIF image."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("author", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseAuthor(fl.Field().String())
		return ok
	})
	return v
}

// reviewFields is the validated shape of a submitted review.
type reviewFields struct {
	Title   string `validate:"required,max=100"`
	Excerpt string `validate:"required,max=250"`
	Content string `validate:"required"`
	Author  string `validate:"required,author"`
}

var fieldMessages = map[string]map[string]string{
	"Title": {
		"required": "Every review needs a title!",
		"max":      fmt.Sprintf("Title is too long, keep it under %d characters.", model.MaxTitleLength),
	},
	"Excerpt": {
		"required": "An excerpt is required for the main page display.",
		"max":      fmt.Sprintf("Excerpt should be short and punchy (max %d chars).", model.MaxExcerptLength),
	},
	"Content": {
		"required": "The review body cannot be empty.",
	},
	"Author": {
		"required": "We gotta know who wrote this chaos!",
	},
}

// validateReview checks r and returns a *ValidationError listing every
// failed field, or nil.
func validateReview(r *model.Review) error {
	fields := reviewFields{
		Title:   r.Title,
		Excerpt: r.Excerpt,
		Content: r.Content,
		Author:  string(r.Author),
	}

	var msgs []string
	if err := validate.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
	}
	if r.Title != "" && model.Slugify(r.Title) == "" {
		msgs = append(msgs, msgSlugEmpty)
	}
	if len(msgs) > 0 {
		return newValidationError(msgs...)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Field() == "Author" && fe.Tag() == "author" {
		return fmt.Sprintf("%q is not a valid author.", fe.Value())
	}
	if msg, ok := fieldMessages[fe.Field()][fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid.", fe.Field())
}

func normalize(r *model.Review) {
	r.Title = strings.TrimSpace(r.Title)
	r.Excerpt = strings.TrimSpace(r.Excerpt)
	r.Content = strings.TrimSpace(r.Content)
	r.Author = model.Author(strings.TrimSpace(string(r.Author)))
}
