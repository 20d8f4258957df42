package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// userPattern matches AtCoder user names.
var userPattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// userParam returns the :user path parameter, or writes a 400 and reports
// false when it is not a valid user name.
func userParam(c *gin.Context) (string, bool) {
	user := c.Param("user")
	if !userPattern.MatchString(user) {
		respondError(c, http.StatusBadRequest, "INVALID_USER", "User name must be 3 to 16 letters, digits or underscores")
		return "", false
	}
	return user, true
}
