package web

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Success wraps a payload in the standard envelope.
func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"statusCode": status,
		"message":    "Success",
		"data":       data,
	})
}

// ErrorHandler renders every error a handler returns as a structured
// envelope with the request path and a timestamp. Unknown errors are
// logged and masked as 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		log.Println("unexpected error:", err)
	}

	return c.Status(code).JSON(fiber.Map{
		"statusCode": code,
		"message":    message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"path":       c.Path(),
	})
}
