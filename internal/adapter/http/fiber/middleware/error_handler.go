package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/domain"
)

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindConflict:
		return fiber.StatusConflict
	case domain.KindInsufficientPayment:
		return fiber.StatusPaymentRequired
	case domain.KindLedger:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders domain errors with their taxonomy: stable code,
// message, and for payment errors the required/provided figures.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var de *domain.Error
		if errors.As(err, &de) {
			body := fiber.Map{
				"code":  de.Code,
				"error": de.Message,
			}
			if de.Kind == domain.KindInsufficientPayment {
				body["required"] = de.Required.String()
				body["provided"] = de.Provided.String()
			}
			status := statusFor(de.Kind)
			if status == fiber.StatusBadGateway {
				log.Error("Ledger failure", zap.Error(err), zap.String("path", c.Path()))
			}
			return c.Status(status).JSON(body)
		}

		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
