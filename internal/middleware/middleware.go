package middleware

import (
	"strings"

	"Cooki-Backend/domain"
	"Cooki-Backend/internal/api/presenters"
	"Cooki-Backend/pkg/jwt"
	"Cooki-Backend/pkg/pantry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	LocalUserID  = "user_id"
	LocalSession = "session"
)

type (
	Middleware interface {
		AuthMiddleware(jwtService jwt.JWTService) fiber.Handler
		SessionMiddleware(pantryService pantry.PantryService) fiber.Handler
		CORSMiddleware() fiber.Handler
	}

	middleware struct{}
)

func NewMiddleware() Middleware {
	return &middleware{}
}

// AuthMiddleware accepts the access token as a bearer header, or as the
// "token" query parameter for websocket upgrades.
func (m *middleware) AuthMiddleware(jwtService jwt.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if header := c.Get(fiber.HeaderAuthorization); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, domain.ErrTokenInvalid)
			}
			token = strings.TrimPrefix(header, "Bearer ")
		}
		if token == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedGetToken, domain.ErrTokenNotFound)
		}

		userID, err := jwtService.GetUserIDByToken(token)
		if err != nil {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, err)
		}

		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

// SessionMiddleware resolves the pantry the request acts on. It must run
// after AuthMiddleware.
func (m *middleware) SessionMiddleware(pantryService pantry.PantryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(LocalUserID).(string)
		session, err := pantryService.ResolveSession(c.UserContext(), userID, c.Get(domain.PantryHeader))
		if err != nil {
			return presenters.ServiceError(c, domain.MessageFailedProcessRequest, err)
		}
		c.Locals(LocalSession, session)
		return c.Next()
	}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + domain.PantryHeader,
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	})
}

// Session returns the session stored by SessionMiddleware.
func Session(c *fiber.Ctx) domain.Session {
	session, _ := c.Locals(LocalSession).(domain.Session)
	return session
}
