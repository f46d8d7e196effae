// handlers/project_routes.go
package handlers

import (
	"collabdev/middleware"
	"collabdev/models"
	"collabdev/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProjectRoutes(app *fiber.App, projectService *services.ProjectService) {
	// 🔓 Public listing — gateway auth only
	app.Get("/projects", func(c *fiber.Ctx) error {
		status := models.ProjectStatus(c.Query("status"))
		projects, err := projectService.List(status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch projects"})
		}
		return c.JSON(projects)
	})

	app.Get("/projects/:id", func(c *fiber.Ctx) error {
		project, err := projectService.Get(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(project)
	})

	app.Get("/projects/:id/features", func(c *fiber.Ctx) error {
		features, err := projectService.ListFeatures(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(features)
	})

	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/projects", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Domain      string `json:"domain"`
			SpecURL     string `json:"spec_url"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if body.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
		}

		project, err := projectService.Create(userID, body.Title, body.Description, body.Domain, body.SpecURL)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(project)
	})

	secured.Patch("/projects/:id/level", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var body struct {
			Level string `json:"level"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		project, err := projectService.AssignLevel(c.Params("id"), userID, models.ProjectLevel(body.Level))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(project)
	})

	secured.Patch("/projects/:id/open", func(c *fiber.Ctx) error {
		project, err := projectService.Open(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(project)
	})

	secured.Patch("/projects/:id/start", func(c *fiber.Ctx) error {
		project, err := projectService.Start(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(project)
	})

	secured.Post("/projects/:id/features", func(c *fiber.Ctx) error {
		var body struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if body.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
		}

		feature, err := projectService.AddFeature(c.Params("id"), body.Title, body.Content)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(feature)
	})
}
