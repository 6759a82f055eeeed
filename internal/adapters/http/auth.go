package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/usecases"
)

const userLocalsKey = "user"

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup, login and the auth check.
type AuthResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Token   string         `json:"token,omitempty"`
	User    domain.Profile `json:"user"`
}

// SignupHandler creates an account and starts a session.
func SignupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signupRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		session, err := deps.Auth.Signup(c.UserContext(), req.Username, req.Email, req.Password)
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			return errBadRequest(c, "All fields are required")
		case errors.Is(err, domain.ErrUserExists):
			return errConflict(c, "User already exists")
		case err != nil:
			LoggerFromCtx(c.UserContext()).Error("signup failed", "error", err)
			return errInternal(c, "Internal server error")
		}

		setSessionCookie(c, deps, session)
		return c.Status(201).JSON(AuthResponse{
			Success: true,
			Message: "User created successfully",
			Token:   session.Token,
			User:    session.User,
		})
	}
}

// LoginHandler verifies credentials and starts a session.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			return errBadRequest(c, "All fields are required")
		}

		session, err := deps.Auth.Login(c.UserContext(), req.Email, req.Password)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return errBadRequest(c, "User not found")
		case errors.Is(err, domain.ErrInvalidPassword):
			return errBadRequest(c, "Invalid password")
		case errors.Is(err, domain.ErrCredentialsUnavailable):
			LoggerFromCtx(c.UserContext()).Error("login credentials fetch failed", "error", err)
			return errInternal(c, "Error retrieving user data from IPFS")
		case err != nil:
			LoggerFromCtx(c.UserContext()).Error("login failed", "error", err)
			return errInternal(c, "Internal server error")
		}

		setSessionCookie(c, deps, session)
		return c.JSON(AuthResponse{
			Success: true,
			Message: "User logged in successfully",
			Token:   session.Token,
			User:    session.User,
		})
	}
}

// LogoutHandler clears the session cookie.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     deps.cookieName(),
			Value:    "",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteStrictMode,
			Secure:   deps.SecureCookie,
		})
		return c.JSON(fiber.Map{"success": true, "message": "Logged out successfully"})
	}
}

// RequireAuth resolves the session token from the cookie or a Bearer header
// and stores the user profile in the request locals.
func RequireAuth(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(deps.cookieName())
		if token == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			}
		}
		if token == "" {
			return errUnauthorized(c, "Unauthorized: No token")
		}

		profile, err := deps.Auth.Authenticate(c.UserContext(), token)
		switch {
		case errors.Is(err, domain.ErrInvalidToken):
			return errUnauthorized(c, "Unauthorized: Invalid or expired token")
		case errors.Is(err, domain.ErrUserNotFound):
			return errUnauthorized(c, "Unauthorized: User not found")
		case errors.Is(err, domain.ErrCredentialsUnavailable):
			LoggerFromCtx(c.UserContext()).Error("auth credentials fetch failed", "error", err)
			return errInternal(c, "Error retrieving user data from IPFS")
		case err != nil:
			return errInternal(c, "Internal server error")
		}

		c.Locals(userLocalsKey, profile)
		return c.Next()
	}
}

// CheckAuthHandler returns the authenticated user.
func CheckAuthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, ok := c.Locals(userLocalsKey).(*domain.Profile)
		if !ok {
			return errUnauthorized(c, "Unauthorized: User not found")
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(AuthResponse{
			Success: true,
			Message: "User is authenticated",
			User:    *profile,
		})
	}
}

func setSessionCookie(c *fiber.Ctx, deps *Dependencies, s *usecases.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     deps.cookieName(),
		Value:    s.Token,
		Expires:  s.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Secure:   deps.SecureCookie,
	})
}
