package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/movigo/movie-catalog/internal/model"
)

// Genres handles GET /v1/genres.  The catalog of recognized genre
// labels is fixed at build time; clients use it to populate choice
// lists, and movie writes are validated against the same set.
func Genres(c echo.Context) error {
    return c.JSON(http.StatusOK, model.Genres())
}
