package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxAnswerChars      int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware enforces content types and bounds answer payloads before they
// reach the handlers. Oversized answers are rejected here so they never get
// forwarded to the AI provider.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxAnswerChars == 0 {
		cfg.MaxAnswerChars = 5000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
			contentType := c.Get("Content-Type")
			if contentType != "" && !contentTypeAllowed(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		if strings.HasSuffix(c.Path(), "/answers") && c.Method() == fiber.MethodPost {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			answer, _ := req["answer"].(string)

			if !utf8.ValidString(answer) {
				cfg.Logger.Warn("Answer rejected: invalid encoding",
					zap.String("ip", c.IP()),
					zap.String("path", c.Path()),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Answer must be valid UTF-8 text",
				})
			}

			if utf8.RuneCountInString(answer) > cfg.MaxAnswerChars {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Answer exceeds maximum length",
				})
			}

			req["answer"] = sanitizeAnswer(answer)
			c.Locals("sanitized_body", req)
		}

		return c.Next()
	}
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}

func sanitizeAnswer(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
