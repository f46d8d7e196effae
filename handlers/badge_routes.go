// handlers/badge_routes.go
package handlers

import (
	"collabdev/middleware"
	"collabdev/models"
	"collabdev/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBadgeRoutes(app *fiber.App, badgeService *services.BadgeService, coinRuleService *services.CoinRuleService) {
	// 🔓 Public catalog — gateway auth only
	app.Get("/badges", func(c *fiber.Ctx) error {
		badges, err := badgeService.ListOrderedByThreshold()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch badges"})
		}
		return c.JSON(badges)
	})

	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/participants/:id/badges", func(c *fiber.Ctx) error {
		granted, err := badgeService.GrantsFor(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(granted)
	})

	secured.Get("/participants/:id/badges/progression", func(c *fiber.Ctx) error {
		progression, err := badgeService.Progression(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(progression)
	})

	secured.Post("/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var body struct {
			Type                  string `json:"type"`
			Description           string `json:"description"`
			ContributionThreshold int    `json:"contribution_threshold"`
			CoinReward            int    `json:"coin_reward"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if body.ContributionThreshold <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "contribution_threshold must be positive"})
		}

		badge, err := badgeService.Create(userID, &models.Badge{
			Type:                  models.BadgeType(body.Type),
			Description:           body.Description,
			ContributionThreshold: body.ContributionThreshold,
			CoinReward:            body.CoinReward,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(badge)
	})

	secured.Post("/badges/resync", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := badgeService.ResyncDefaults(userID); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"status": "defaults resynced"})
	})

	// Coin rule administration. Reads are open to any authenticated user;
	// writes are restricted to administrators inside the service.
	secured.Get("/coin-rules", func(c *fiber.Ctx) error {
		rules, err := coinRuleService.List()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch coin rules"})
		}
		return c.JSON(rules)
	})

	secured.Post("/coin-rules", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			EventType   string `json:"event_type"`
			Value       int    `json:"value"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if body.EventType == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "event_type is required"})
		}

		rule, err := coinRuleService.Create(userID, &models.CoinRule{
			Name:        body.Name,
			Description: body.Description,
			EventType:   body.EventType,
			Value:       body.Value,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rule)
	})

	secured.Put("/coin-rules/:id", func(c *fiber.Ctx) error {
		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Value       int    `json:"value"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		rule, err := coinRuleService.Update(c.Params("id"), body.Name, body.Description, body.Value)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(rule)
	})

	secured.Delete("/coin-rules/:id", func(c *fiber.Ctx) error {
		if err := coinRuleService.Delete(c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})
}
