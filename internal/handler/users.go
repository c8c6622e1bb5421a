package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/movigo/movie-catalog/internal/repository"
)

// UserAdminHandler serves the admin-only account collection view.
// There is no self-service profile update or delete in this API;
// administrative inspection is the only way to enumerate accounts.
type UserAdminHandler struct {
	Users *repository.UserRepo
}

func NewUserAdminHandler(u *repository.UserRepo) *UserAdminHandler {
	return &UserAdminHandler{Users: u}
}

// List handles GET /v1/users.  The route sits behind JWTAuth and
// RequireAdmin.  Accounts are returned as public projections only.
func (h *UserAdminHandler) List(c echo.Context) error {
	limit, err := parseLimit(c, -1)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Limit must be an integer."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, userPart{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin})
	}
	return c.JSON(http.StatusOK, out)
}
