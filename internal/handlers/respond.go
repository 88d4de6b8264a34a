package handlers

import (
	"github.com/gin-gonic/gin"

	"machinery-marketplace/internal/apperr"
)

// respondError maps a tagged domain error onto its HTTP shape. Quota
// errors include the current count and limit so the UI can render an
// actionable message; server errors stay opaque.
func respondError(c *gin.Context, err error) {
	ae := apperr.From(err)

	body := gin.H{
		"code":  ae.Code,
		"error": ae.Message,
	}
	if ae.Code == apperr.CodePlanLimitReached {
		body["current_count"] = ae.CurrentCount
		body["limit"] = ae.Limit
	}

	c.JSON(apperr.HTTPStatus(ae.Code), body)
}
