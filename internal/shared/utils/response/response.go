package response

import "github.com/gin-gonic/gin"

// Error writes the common error body: {"error": "<message>"}.
// No store internals are ever placed in <message>.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// Success writes {"success": true} merged with any extra fields.
func Success(c *gin.Context, code int, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(code, body)
}

// Failure writes {"success": false, "message": "<message>"}.
func Failure(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "message": message})
}
