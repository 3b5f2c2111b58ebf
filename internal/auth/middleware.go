package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian138/th-academy/pkg/apperrors"
	"github.com/cristian138/th-academy/pkg/config"
	"github.com/cristian138/th-academy/pkg/models"
)

/* ============================== JWT Claims ============================== */

// Claims represents the JWT payload we issue and expect.
type Claims struct {
	Sub   string `json:"sub"` // user ID
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

/* ============================== JWT Helpers ============================= */

// IssueToken signs a JWT for the given user.
func IssueToken(cfg *config.Config, u *models.User) (string, error) {
	ttl := time.Duration(cfg.Auth.TokenExpireHours) * time.Hour
	claims := &Claims{
		Sub:   u.ID.String(),
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(cfg.Auth.JWTSecret))
}

/* ============================== Middleware ============================== */

// RequireAuth validates a Bearer JWT, loads the account and injects it into
// the request context. Deactivated accounts are rejected even when their
// token is still valid.
func RequireAuth(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			return fiber.ErrUnauthorized
		}
		tokenStr := strings.TrimPrefix(h, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
			return []byte(cfg.Auth.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.ErrUnauthorized
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return fiber.ErrUnauthorized
		}
		userID, err := uuid.Parse(claims.Sub)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		var u models.User
		if err := db.WithContext(c.UserContext()).First(&u, "id = ?", userID).Error; err != nil {
			return fiber.ErrUnauthorized
		}
		if !u.IsActive {
			return fiber.ErrUnauthorized
		}

		c.Locals("user", &u)
		return c.Next()
	}
}

// CurrentUser reads the authenticated user from context.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	u, ok := c.Locals("user").(*models.User)
	return u, ok
}

// MustUser reads the authenticated user or panics (programming error).
func MustUser(c *fiber.Ctx) *models.User {
	u, ok := CurrentUser(c)
	if !ok {
		panic(errors.New("user not in context"))
	}
	return u
}

// RequireMinRole ensures the authenticated user holds at least the given
// role in the hierarchy.
func RequireMinRole(min models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !MustUser(c).Role.AtLeast(min) {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}

/* =========================== Error Formatting =========================== */

// httpCodeToString converts an HTTP status code to a short, stable string.
func httpCodeToString(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusBadGateway:
		return "BAD_GATEWAY"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// kindToStatus maps a workflow error kind to the HTTP status this API
// responds with. The mapping lives here so the engine packages stay free of
// transport concerns.
func kindToStatus(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindUnauthorized:
		return fiber.StatusForbidden
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindInvalidState, apperrors.KindConflict:
		return fiber.StatusConflict
	case apperrors.KindValidationFailed:
		return fiber.StatusBadRequest
	case apperrors.KindStorageFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the global Fiber error handler. Workflow errors carry a
// kind that maps to a status code and a stable code string; Fiber errors
// pass through; anything else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return c.Status(kindToStatus(appErr.Kind)).JSON(models.ErrorResponse{
			Error:   true,
			Message: appErr.Message,
			Code:    string(appErr.Kind),
		})
	}

	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if strings.TrimSpace(e.Message) != "" {
			msg = e.Message
		}
	}
	return c.Status(code).JSON(models.ErrorResponse{
		Error:   true,
		Message: msg,
		Code:    httpCodeToString(code),
	})
}
