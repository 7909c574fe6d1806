package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"foodapp/internal/domain/model"
	repo "foodapp/internal/repository"
)

type ReviewUsecase struct {
	tx      repo.TransactionManager
	reviews repo.ReviewRepository
}

// DI
func NewReviewUsecase(tx repo.TransactionManager, reviews repo.ReviewRepository) *ReviewUsecase {
	return &ReviewUsecase{tx: tx, reviews: reviews}
}

type CreateReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=1000"`
}

func (u *ReviewUsecase) List(ctx context.Context, vendorID int64) ([]model.Review, error) {
	if vendorID <= 0 {
		return []model.Review{}, NewHTTPError(http.StatusBadRequest, "Invalid Vendor ID")
	}
	rs, err := u.reviews.ListByVendorID(ctx, vendorID)
	if err != nil {
		return []model.Review{}, persistenceError(err)
	}
	return rs, nil
}

// 投稿と同じトランザクションでベンダーの平均評価と件数を更新する
func (u *ReviewUsecase) Create(ctx context.Context, userID, vendorID int64, in CreateReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if vendorID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "Invalid Vendor ID")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if err := inputValidator.StructCtx(ctx, in); err != nil {
		return model.Review{}, reviewInputError(err)
	}

	var created model.Review
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Users().FindVendorByID(ctx, vendorID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "Vendor not found")
			}
			return persistenceError(err)
		}

		user, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if err != nil {
			return persistenceError(err)
		}

		created, err = r.Reviews().Create(ctx, model.Review{
			UserID:   userID,
			VendorID: vendorID,
			Name:     user.Username,
			Rating:   in.Rating,
			Comment:  in.Comment,
		})
		if err != nil {
			return persistenceError(err)
		}

		avg, count, err := r.Reviews().Aggregate(ctx, vendorID)
		if err != nil {
			return persistenceError(err)
		}
		if err := r.Users().UpdateVendorRating(ctx, vendorID, avg, count); err != nil {
			return persistenceError(err)
		}
		return nil
	})
	if err != nil {
		return model.Review{}, asUsecaseError(err)
	}
	return created, nil
}

func reviewInputError(err error) error {
	fe, ok := firstFieldError(err)
	switch {
	case !ok:
		return NewHTTPError(http.StatusBadRequest, "invalid review")
	case fe.Tag() == "required":
		return NewHTTPError(http.StatusBadRequest, "Rating and comment are required")
	case fe.Field() == "Rating":
		return NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	return NewHTTPError(http.StatusBadRequest, "comment must be at most 1000 characters")
}
