package handlers

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"scoreledger/internal/common"
)

// Paging holds the page size limits applied to list endpoints
type Paging struct {
	DefaultSize int
	MaxSize     int
}

// parsePage reads page and page_size. Missing values take the defaults,
// present values must be integers within range.
func (p Paging) parsePage(c *fiber.Ctx) (int, int, error) {
	verr := common.NewValidationError()

	page, ok := queryInt(c, "page", 1)
	if !ok || page < 1 {
		verr.Add("page", "must be a positive integer")
	}

	size, ok := queryInt(c, "page_size", p.DefaultSize)
	if !ok || size < 1 || size > p.MaxSize {
		verr.Add("page_size", fmt.Sprintf("must be an integer between 1 and %d", p.MaxSize))
	}

	if err := verr.Err(); err != nil {
		return 0, 0, err
	}

	// The row offset (page-1)*size must stay representable
	if page-1 > math.MaxInt32/size {
		return 0, 0, common.FieldError("page", "must be a positive integer")
	}
	return page, size, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
