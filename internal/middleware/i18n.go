// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/rifas-backend/internal/i18n"
)

// I18nMiddleware picks the response language from the lang query parameter
// or the Accept-Language header.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := resolveLanguage(c.Query("lang"))
		if lang == "" {
			lang = parseAcceptLanguage(c.GetHeader("Accept-Language"))
		}
		if lang == "" {
			lang = i18n.DefaultLanguage()
		}

		// Set language in context
		c.Set("lang", lang)
		c.Next()
	}
}

// parseAcceptLanguage returns the first supported language of a header such
// as "es-PE,es;q=0.9,en;q=0.8".
func parseAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if lang := resolveLanguage(tag); lang != "" {
			return lang
		}
	}
	return ""
}

func resolveLanguage(tag string) string {
	parts := strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return ""
	}
	base := strings.ToLower(parts[0])
	if i18n.IsSupported(base) {
		return base
	}
	return ""
}
