package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/fieldkit/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 20
	MaxSize     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// Offset is the number of rows before the requested page.
func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// FromContext reads ?page= and ?size=, clamping both into range.
func FromContext(c *gin.Context) Query {
	return Normalize(Query{
		Page: parseIntOr(c.Query("page"), DefaultPage),
		Size: parseIntOr(c.Query("size"), DefaultSize),
	})
}

// Normalize clamps q into the accepted range.
func Normalize(q Query) Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Size < 1 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	return q
}

// Paginate counts the rows matched by db, loads the requested page into
// dest and returns the pagination envelope.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	q = Normalize(q)

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}
	if err := db.Offset(q.Offset()).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}, nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
