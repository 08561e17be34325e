package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/middleware"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
)

func claimsFromContext(c *gin.Context) *auth.Claims {
	return middleware.ClaimsFromContext(c)
}
