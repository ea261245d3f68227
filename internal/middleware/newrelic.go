package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributesMiddleware tags the New Relic transaction started by
// nrgin with the acting admin and reports handler errors. It must run
// after AdminAuthMiddleware.
func NewRelicAttributesMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if adminID := c.GetString(ContextKeyAdminID); adminID != "" {
			txn.AddAttribute("admin_user_id", adminID)
		}

		c.Next()

		// Record error if present.
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
