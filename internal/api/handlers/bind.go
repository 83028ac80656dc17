package handlers

import (
	"net/http"

	"github.com/ahmedelhadi17776/streaky/internal/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// bind prefers the body decoded by the validation middleware and falls back to
// plain JSON binding when the route has none. It writes the 400 itself.
func bind[T any](c *gin.Context) (*T, bool) {
	if model, ok := middleware.Validated[T](c); ok {
		return model, true
	}
	if _, exists := c.Get("validated_model"); exists {
		log.Errorf("Invalid model type for %s, expected %T", c.FullPath(), new(T))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid model type from validation"})
		return nil, false
	}
	var input T
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return &input, true
}

func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
	}
	return userID, ok
}
