package utils

import (
	"context"
	"errors"
	"math"

	"github.com/chatdesk/pkg/constant"
	"github.com/joho/godotenv"

	"gorm.io/gorm"
)

const PageSize = 20

// LoadEnv loads .env when present. A missing file is not an error:
// Docker Compose and systemd provide the variables directly.
func LoadEnv() bool {
	return godotenv.Load() == nil
}

// Page describes one page of a listing.
type Page struct {
	Number     int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
}

// Pagination fills items with the requested page of rows matching query,
// ordered by order. Page 1 of an empty result is valid.
func Pagination(c context.Context, db *gorm.DB, items interface{}, pageNumber int, order string, query interface{}, args ...interface{}) (Page, error) {
	if pageNumber <= 0 {
		return Page{}, errors.New(constant.INVALID_PAGE_NUMBER)
	}

	var totalCount int64
	if err := db.WithContext(c).Model(items).Where(query, args...).Count(&totalCount).Error; err != nil {
		return Page{}, err
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(PageSize)))
	if totalPages == 0 {
		totalPages = 1
	}
	if pageNumber > totalPages {
		return Page{}, errors.New(constant.PAGE_NUMBER_OUT_OF_RANGE)
	}

	offset := (pageNumber - 1) * PageSize
	q := db.WithContext(c).Where(query, args...)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Limit(PageSize).Offset(offset).Find(items).Error; err != nil {
		return Page{}, err
	}
	return Page{Number: pageNumber, TotalPages: totalPages, TotalItems: totalCount}, nil
}
