// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-ledger/internal/i18n"
	"github.com/javajoker/imi-ledger/internal/utils"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextKeyLang, preferredLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// preferredLanguage picks the first supported entry of an Accept-Language
// header such as "zh-TW,zh;q=0.9,en;q=0.8".
func preferredLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])

		// Convert common language codes
		switch tag {
		case "zh-TW", "zh-Hant", "zh_TW", "zh":
			tag = "zh_TW"
		case "en-US", "en-GB":
			tag = "en"
		}

		if i18n.Supports(tag) {
			return tag
		}
	}
	return i18n.DefaultLanguage()
}
