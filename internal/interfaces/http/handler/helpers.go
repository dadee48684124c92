package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lending/backend/internal/domain/shared"
	"github.com/lending/backend/internal/interfaces/http/dto"
)

// bindListFilter binds pagination and ordering query parameters into a
// repository filter, applying defaults for anything not supplied.
func bindListFilter(c *gin.Context) (shared.Filter, error) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		return shared.Filter{}, err
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	filter := shared.DefaultFilter()
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	return filter, nil
}
