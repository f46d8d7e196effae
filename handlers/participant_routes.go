// handlers/participant_routes.go
package handlers

import (
	"collabdev/middleware"
	"collabdev/models"
	"collabdev/services"

	"github.com/gofiber/fiber/v2"
)

func SetupParticipantRoutes(app *fiber.App, participantService *services.ParticipantService) {
	// 🔐 All participant routes require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/projects/:id/participants", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var body struct {
			Profile   string `json:"profile"`
			QuizScore int    `json:"quiz_score"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		participant, err := participantService.Apply(c.Params("id"), userID, models.ParticipantProfile(body.Profile), body.QuizScore)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(participant)
	})

	secured.Get("/projects/:id/participants", func(c *fiber.Ctx) error {
		participants, err := participantService.ListByProject(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch participants"})
		}
		return c.JSON(participants)
	})

	secured.Get("/participants/:id", func(c *fiber.Ctx) error {
		participant, err := participantService.Get(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(participant)
	})

	secured.Patch("/participants/:id/accept", func(c *fiber.Ctx) error {
		participant, err := participantService.Accept(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(participant)
	})

	secured.Patch("/participants/:id/refuse", func(c *fiber.Ctx) error {
		participant, err := participantService.Refuse(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(participant)
	})

	// Coin-funded unlock of the project workspace. The cost depends on the
	// project level; the debit and the unlocked flag flip in one transaction.
	secured.Patch("/participants/:id/unlock", func(c *fiber.Ctx) error {
		participant, err := participantService.Unlock(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(participant)
	})

	secured.Patch("/participants/:id/features/:feature_id/reserve", func(c *fiber.Ctx) error {
		feature, err := participantService.ReserveFeature(c.Params("id"), c.Params("feature_id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(feature)
	})

	secured.Patch("/participants/:id/features/:feature_id/assign", func(c *fiber.Ctx) error {
		feature, err := participantService.AssignFeature(c.Params("id"), c.Params("feature_id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(feature)
	})

	secured.Get("/participants/:id/history", func(c *fiber.Ctx) error {
		history, err := participantService.History(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(history)
	})
}
