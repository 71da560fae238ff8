package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/roster-service/pkg/util"
)

// Roles recognized by this service. The authentication collaborator owns the
// full role catalog; only these grant access to roster mutation.
const (
	RoleHRAdmin   = "HR_ADMIN"
	RoleHRManager = "HR_MANAGER"
)

// RequireRole ensures the principal carries one of the allowed roles.
func RequireRole(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
