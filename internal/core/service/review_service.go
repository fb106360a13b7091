package service

import (
	"context"
	"errors"
	"fmt"

	"sainmakosam/internal/core/model"
	"sainmakosam/internal/core/repository"
	"sainmakosam/internal/upload"

	"github.com/sirupsen/logrus"
)

// PublicFeedLimit caps the public review list.
const PublicFeedLimit = 10

// ImageStore is the part of the upload store the review service needs.
type ImageStore interface {
	Save(f *upload.File) (string, error)
	Replace(oldRef string, f *upload.File) (string, error)
	Delete(ref string) error
}

// ReviewInput is a complete review submission.
type ReviewInput struct {
	Title   string
	Excerpt string
	Content string
	Author  string
}

// ReviewUpdate holds the fields an edit supplies; nil fields keep their
// stored value.
type ReviewUpdate struct {
	Title   *string
	Excerpt *string
	Content *string
	Author  *string
}

type ReviewService interface {
	List(ctx context.Context, opts repository.ListOptions) ([]*model.Review, error)
	GetBySlug(ctx context.Context, slug string) (*model.Review, error)
	GetByID(ctx context.Context, id string) (*model.Review, error)
	Create(ctx context.Context, in ReviewInput, image *upload.File) (*model.Review, error)
	Update(ctx context.Context, id string, patch ReviewUpdate, image *upload.File) (*model.Review, error)
	Delete(ctx context.Context, id string) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	images     ImageStore
}

func NewReviewService(reviewRepo repository.ReviewRepository, images ImageStore) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		images:     images,
	}
}

func (s *reviewService) List(ctx context.Context, opts repository.ListOptions) ([]*model.Review, error) {
	reviews, err := s.reviewRepo.FindAll(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list reviews: %w", ErrStorage, err)
	}
	return reviews, nil
}

func (s *reviewService) GetBySlug(ctx context.Context, slug string) (*model.Review, error) {
	review, err := s.reviewRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%w: find review by slug: %w", ErrStorage, err)
	}
	if review == nil {
		return nil, ErrNotFound
	}
	return review, nil
}

func (s *reviewService) GetByID(ctx context.Context, id string) (*model.Review, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: find review: %w", ErrStorage, err)
	}
	if review == nil {
		return nil, ErrNotFound
	}
	return review, nil
}

func (s *reviewService) Create(ctx context.Context, in ReviewInput, image *upload.File) (*model.Review, error) {
	review := model.NewReview(in.Title, in.Excerpt, in.Content, model.Author(in.Author), "")
	normalize(review)
	if err := validateReview(review); err != nil {
		return nil, err
	}
	review.PrepareForInsert()
	if err := s.checkSlugFree(ctx, review); err != nil {
		return nil, err
	}

	if image != nil {
		ref, err := s.images.Save(image)
		if err != nil {
			return nil, imageError(err)
		}
		review.Image = ref
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if !review.HasDefaultImage() {
			if derr := s.images.Delete(review.Image); derr != nil {
				logrus.WithError(derr).WithField("image", review.Image).Warn("Failed to remove upload of unsaved review")
			}
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, newValidationError(msgSlugTaken)
		}
		return nil, fmt.Errorf("%w: create review: %w", ErrStorage, err)
	}

	logrus.WithFields(logrus.Fields{"review_id": review.ID, "slug": review.Slug}).Info("Review created")
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, id string, patch ReviewUpdate, image *upload.File) (*model.Review, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	review := *existing
	applyUpdate(&review, patch)
	normalize(&review)
	if err := validateReview(&review); err != nil {
		return nil, err
	}
	review.PrepareForUpdate(existing.Title)
	if review.Slug != existing.Slug {
		if err := s.checkSlugFree(ctx, &review); err != nil {
			return nil, err
		}
	}

	if image != nil {
		ref, err := s.images.Replace(existing.Image, image)
		if err != nil {
			return nil, imageError(err)
		}
		review.Image = ref
	}

	if err := s.reviewRepo.Update(ctx, &review); err != nil {
		if image != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"review_id": id,
				"image":     review.Image,
			}).Error("Review update failed after its image was replaced")
		}
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrDuplicateEntry):
			return nil, newValidationError(msgSlugTaken)
		}
		return nil, fmt.Errorf("%w: update review: %w", ErrStorage, err)
	}

	logrus.WithFields(logrus.Fields{"review_id": review.ID, "slug": review.Slug}).Info("Review updated")
	return &review, nil
}

// Delete removes the review and its uploaded image. A missing review is
// not an error.
func (s *reviewService) Delete(ctx context.Context, id string) error {
	review, err := s.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !review.HasDefaultImage() {
		if err := s.images.Delete(review.Image); err != nil {
			logrus.WithError(err).WithField("image", review.Image).Warn("Failed to delete review image")
		}
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete review: %w", ErrStorage, err)
	}

	logrus.WithField("review_id", id).Info("Review deleted")
	return nil
}

func (s *reviewService) checkSlugFree(ctx context.Context, review *model.Review) error {
	other, err := s.reviewRepo.FindBySlug(ctx, review.Slug)
	if err != nil {
		return fmt.Errorf("%w: check slug: %w", ErrStorage, err)
	}
	if other != nil && other.ID != review.ID {
		return newValidationError(msgSlugTaken)
	}
	return nil
}

func applyUpdate(r *model.Review, patch ReviewUpdate) {
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Excerpt != nil {
		r.Excerpt = *patch.Excerpt
	}
	if patch.Content != nil {
		r.Content = *patch.Content
	}
	if patch.Author != nil {
		r.Author = model.Author(*patch.Author)
	}
}

func imageError(err error) error {
	if errors.Is(err, upload.ErrUnsupportedType) {
		return newValidationError(msgImageFormat)
	}
	return fmt.Errorf("%w: store image: %w", ErrFileIO, err)
}
