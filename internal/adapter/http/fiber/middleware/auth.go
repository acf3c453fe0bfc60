package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/chargechain/internal/ports"
)

// WalletLocal is the fiber locals key carrying the authenticated wallet
// address.
const WalletLocal = "wallet"

func AuthRequired(service ports.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization header format"})
		}

		wallet, err := service.ValidateToken(c.Context(), parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals(WalletLocal, wallet)

		return c.Next()
	}
}

// Wallet returns the authenticated wallet address set by AuthRequired.
func Wallet(c *fiber.Ctx) string {
	wallet, _ := c.Locals(WalletLocal).(string)
	return wallet
}
