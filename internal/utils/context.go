package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (*models.User, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return nil, fmt.Errorf("user not authenticated")
	}

	authenticatedUser, ok := user.(*models.User)

	if !ok || authenticatedUser == nil {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return authenticatedUser, nil
}

// OptionalUser returns the signed-in user or nil for anonymous requests.
func OptionalUser(ctx *gin.Context) *models.User {
	user, err := GetCurrentUser(ctx)
	if err != nil {
		return nil
	}
	return user
}
