// handlers/user_routes.go
package handlers

import (
	"collabdev/middleware"
	"collabdev/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService, notificationService *services.NotificationService) {
	// 🔓 Public routes — no user context, but still require Gateway auth
	app.Post("/users/register", func(c *fiber.Ctx) error {
		var in services.RegisterInput
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if in.Email == "" || in.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
		}

		user, err := userService.Register(in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	})

	app.Post("/users/login", func(c *fiber.Ctx) error {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		user, err := userService.Login(body.Email, body.Password)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(user)
	})

	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/users/me", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		user, err := userService.Get(userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(user)
	})

	secured.Get("/users/:id", func(c *fiber.Ctx) error {
		user, err := userService.Get(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(user)
	})

	secured.Get("/users", func(c *fiber.Ctx) error {
		contributors, err := userService.ListContributors()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch contributors"})
		}
		return c.JSON(contributors)
	})

	secured.Put("/users/me", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var body struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Phone     string `json:"phone"`
			Email     string `json:"email"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		user, err := userService.UpdateProfile(userID, body.FirstName, body.LastName, body.Phone, body.Email)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(user)
	})

	secured.Patch("/users/:id/active", func(c *fiber.Ctx) error {
		var body struct {
			Active bool `json:"active"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		user, err := userService.SetActive(c.Params("id"), body.Active)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(user)
	})

	secured.Get("/users/me/notifications", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		notifications, err := notificationService.ListForUser(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch notifications"})
		}
		return c.JSON(notifications)
	})
}
