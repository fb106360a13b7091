package repository

import (
	"context"
	"sort"
	"sync"

	"sainmakosam/internal/core/model"
)

type inMemoryReviewRepository struct {
	reviews map[string]model.Review
	mutex   sync.RWMutex
}

// NewInMemoryReviewRepository returns a process-local ReviewRepository that
// enforces slug uniqueness the way the Mongo index does.
func NewInMemoryReviewRepository() ReviewRepository {
	return &inMemoryReviewRepository{
		reviews: make(map[string]model.Review),
	}
}

func (r *inMemoryReviewRepository) Create(_ context.Context, review *model.Review) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.reviews[review.ID]; exists {
		return ErrDuplicateEntry
	}
	if r.slugTaken(review.Slug, review.ID) {
		return ErrDuplicateEntry
	}
	r.reviews[review.ID] = *review
	return nil
}

func (r *inMemoryReviewRepository) Update(_ context.Context, review *model.Review) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.reviews[review.ID]; !exists {
		return ErrNotFound
	}
	if r.slugTaken(review.Slug, review.ID) {
		return ErrDuplicateEntry
	}
	r.reviews[review.ID] = *review
	return nil
}

func (r *inMemoryReviewRepository) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.reviews, id)
	return nil
}

func (r *inMemoryReviewRepository) FindByID(_ context.Context, id string) (*model.Review, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if review, exists := r.reviews[id]; exists {
		return &review, nil
	}
	return nil, nil
}

func (r *inMemoryReviewRepository) FindBySlug(_ context.Context, slug string) (*model.Review, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, review := range r.reviews {
		if review.Slug == slug {
			return &review, nil
		}
	}
	return nil, nil
}

func (r *inMemoryReviewRepository) FindAll(_ context.Context, opts ListOptions) ([]*model.Review, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	reviews := make([]*model.Review, 0, len(r.reviews))
	for _, review := range r.reviews {
		review := review
		reviews = append(reviews, &review)
	}
	if opts.Newest {
		sort.SliceStable(reviews, func(i, j int) bool {
			if reviews[i].DatePosted.Equal(reviews[j].DatePosted) {
				return reviews[i].ID > reviews[j].ID
			}
			return reviews[i].DatePosted.After(reviews[j].DatePosted)
		})
	}
	if opts.Limit > 0 && int64(len(reviews)) > opts.Limit {
		reviews = reviews[:opts.Limit]
	}
	return reviews, nil
}

// slugTaken must be called with the lock held.
func (r *inMemoryReviewRepository) slugTaken(slug, exceptID string) bool {
	for id, existing := range r.reviews {
		if id != exceptID && existing.Slug == slug {
			return true
		}
	}
	return false
}
