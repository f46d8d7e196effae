// handlers/contribution_routes.go
package handlers

import (
	"collabdev/middleware"
	"collabdev/models"
	"collabdev/services"
	"collabdev/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupContributionRoutes(app *fiber.App, contributionService *services.ContributionService) {
	// 🔐 All contribution routes require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Submit accepts multipart form data so a file attachment can ride along
	// with the link. Either a link or a file must be present.
	secured.Post("/features/:feature_id/contributions", func(c *fiber.Ctx) error {
		participantID := c.FormValue("participant_id")
		linkURL := c.FormValue("link_url")
		if participantID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "participant_id is required"})
		}

		fileURL := ""
		if fileHeader, err := c.FormFile("attachment"); err == nil && fileHeader != nil {
			url, upErr := utils.StoreAttachment(fileHeader, uuid.NewString())
			if upErr != nil {
				return c.Status(fiber.StatusInternalServerError).
					JSON(fiber.Map{"error": "failed to store attachment"})
			}
			fileURL = url
		}

		if linkURL == "" && fileURL == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a link_url or an attachment is required"})
		}

		contribution, err := contributionService.Submit(c.Params("feature_id"), participantID, linkURL, fileURL)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(contribution)
	})

	secured.Get("/contributions", func(c *fiber.Ctx) error {
		status := models.ContributionStatus(c.Query("status"))
		contributions, err := contributionService.List(status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch contributions"})
		}
		return c.JSON(contributions)
	})

	secured.Get("/contributions/:id", func(c *fiber.Ctx) error {
		contribution, err := contributionService.Get(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(contribution)
	})

	secured.Get("/features/:feature_id/contributions", func(c *fiber.Ctx) error {
		contributions, err := contributionService.ListByFeature(c.Params("feature_id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch contributions"})
		}
		return c.JSON(contributions)
	})

	secured.Get("/participants/:id/contributions", func(c *fiber.Ctx) error {
		status := models.ContributionStatus(c.Query("status"))
		contributions, err := contributionService.ListByParticipant(c.Params("id"), status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch contributions"})
		}
		return c.JSON(contributions)
	})

	// The gateway forwards a user identity; the service resolves that user's
	// participant record on the contribution's project before deciding.
	secured.Patch("/contributions/:id/validate", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		contribution, err := contributionService.DecideAsUser(c.Params("id"), models.ContributionStatusValidated, userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(contribution)
	})

	secured.Patch("/contributions/:id/reject", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		contribution, err := contributionService.DecideAsUser(c.Params("id"), models.ContributionStatusRejected, userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(contribution)
	})
}
