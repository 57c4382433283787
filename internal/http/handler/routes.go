package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"stackapi/internal/auth"
	"stackapi/internal/http/middleware"
	"stackapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers stay
// thin; authorization predicates run in the handlers and entity resolution in
// the route-level middleware.
func RegisterRoutes(app *fiber.App, db *sql.DB, users service.UserService, items service.ItemService, tokens *auth.TokenManager) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoints: readiness checks DB connectivity, liveness does not
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Open endpoints. Signup must be registered ahead of the /users group so
	// it is reachable without a token.
	app.Post("/auth/login", Login(users, tokens))
	app.Post("/users/signup", Signup(users))

	authed := middleware.Auth(tokens, users)

	me := app.Group("/users/me", authed)
	me.Get("/", Me())
	me.Patch("/", UpdateMe(users))
	me.Put("/password", UpdateMyPassword(users))

	usersGroup := app.Group("/users", authed)
	usersGroup.Get("/", ListUsers(users))
	usersGroup.Post("/", CreateUser(users))
	usersGroup.Get("/:id", ResolveUser(users), GetUser())
	usersGroup.Patch("/:id", ResolveUser(users), UpdateUser(users))
	usersGroup.Delete("/:id", ResolveUser(users), DeleteUser(users))

	itemsGroup := app.Group("/items", authed)
	itemsGroup.Get("/", ListItems(items))
	itemsGroup.Post("/", CreateItem(items))
	itemsGroup.Get("/:id", ResolveItem(items), GetItem())
	itemsGroup.Patch("/:id", ResolveItem(items), UpdateItem(items))
	itemsGroup.Delete("/:id", ResolveItem(items), DeleteItem(items))
	itemsGroup.Post("/:id/attachment", ResolveItem(items), UploadAttachment(items))
	itemsGroup.Get("/:id/attachment", ResolveItem(items), GetAttachmentURL(items))
}
