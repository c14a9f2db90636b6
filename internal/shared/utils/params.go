package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dinnerd/internal/shared/constants"
	"dinnerd/internal/shared/errors"
)

// ParseIDParam parses a positive numeric path parameter.
func ParseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, errors.NewBadRequestError("invalid identifier", name)
	}
	return uint(value), nil
}

// RequesterID returns the authenticated principal's identity as propagated by
// the authentication gate. Zero means the request reached the handler without
// a resolved identity (a bypassed route).
func RequesterID(c *gin.Context) uint {
	raw := c.GetHeader(constants.HeaderRequesterIdentity)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(value)
}

// Paging holds offset/limit query parameters. Nil fields mean undefined.
type Paging struct {
	Offset *int
	Limit  *int
}

// ParsePaging parses the paging-offset and paging-limit query parameters.
func ParsePaging(c *gin.Context) (Paging, error) {
	var paging Paging

	if raw := c.Query("paging-offset"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return paging, errors.NewBadRequestError("invalid paging-offset")
		}
		paging.Offset = &value
	}

	if raw := c.Query("paging-limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			return paging, errors.NewBadRequestError("invalid paging-limit")
		}
		paging.Limit = &value
	}

	return paging, nil
}

// QueryString returns a pointer to the query value, or nil when absent.
func QueryString(c *gin.Context, key string) *string {
	if value := c.Query(key); value != "" {
		return &value
	}
	return nil
}

// QueryInt64 parses an optional int64 query parameter.
func QueryInt64(c *gin.Context, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.NewBadRequestError("invalid numeric parameter", key)
	}
	return &value, nil
}

// QueryEnum parses an optional enum query parameter against the allowed set.
func QueryEnum(c *gin.Context, key string, allowed ...string) (*string, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, candidate := range allowed {
		if strings.EqualFold(raw, candidate) {
			value := candidate
			return &value, nil
		}
	}
	return nil, errors.NewBadRequestError("invalid enum parameter", key)
}
