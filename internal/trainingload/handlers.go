package trainingload

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		days, err := strconv.Atoi(c.Query("days", "90"))
		if err != nil || days <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "days must be a positive integer")
		}
		load, err := svc.CurrentLoad(c.Context(), userID, days)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(load)
	})
}
