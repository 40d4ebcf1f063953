package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// userID extracts the required user_id query parameter. Authentication is
// handled upstream; the API trusts the caller-supplied id.
func userID(c *gin.Context) (int64, error) {
	raw := c.Query("user_id")
	if raw == "" {
		return 0, fmt.Errorf("user_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("user_id must be an integer")
	}
	return id, nil
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return id, nil
}

func limitQuery(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
