package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/movigo/movie-catalog/internal/model"
	"github.com/movigo/movie-catalog/internal/queue"
	"github.com/movigo/movie-catalog/internal/repository"
	queue_publisher "github.com/movigo/movie-catalog/internal/service"
)

// defaultMovieLimit bounds a movie listing when the request carries no
// limit parameter.
const defaultMovieLimit = 10

// MovieHandler serves movie CRUD and the filtered listing.  Publish
// emits catalog change events; broker failures are logged by the
// publisher and never fail the request.
type MovieHandler struct {
	Repo    *repository.MovieRepo
	Publish func(context.Context, queue.CatalogChangedEvent) error
}

func NewMovieHandler(r *repository.MovieRepo) *MovieHandler {
	return &MovieHandler{Repo: r, Publish: queue_publisher.PublishCatalogChanged}
}

// movieReq is the create/update request body.  Identifier references
// are strings, matching how the API serializes them in responses.
// Pointer fields distinguish absent from empty so PUT behaves as a
// partial update; an explicit empty actors list clears the set.
type movieReq struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Director    *string   `json:"director"`
	Actors      *[]string `json:"actors"`
	Genres      *[]string `json:"genres"`
	IsAvailable *bool     `json:"isAvailable"`
}

// apply validates the supplied fields and merges them into m.  When
// requireAll is set (create), name, year, director and genres must be
// present; actors defaults to an empty set and isAvailable to true.
func (req *movieReq) apply(m *model.Movie, requireAll bool) fieldErrors {
	errs := fieldErrors{}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			errs.add("name", "must not be blank")
		} else {
			m.Name = strings.TrimSpace(*req.Name)
		}
	} else if requireAll {
		errs.add("name", "required")
	}

	if req.Year != nil {
		m.Year = *req.Year
	} else if requireAll {
		errs.add("year", "required")
	}

	if req.Director != nil {
		id, err := parseWireID(*req.Director)
		if err != nil || id == 0 {
			errs.add("director", "must be a person id")
		} else {
			m.DirectorID = id
		}
	} else if requireAll {
		errs.add("director", "required")
	}

	if req.Actors != nil {
		ids := make([]uint64, 0, len(*req.Actors))
		for _, s := range *req.Actors {
			id, err := parseWireID(s)
			if err != nil || id == 0 {
				errs.add("actors", "must be a list of person ids")
				break
			}
			ids = append(ids, id)
		}
		if _, bad := errs["actors"]; !bad {
			m.ActorIDs = ids
		}
	}

	if req.Genres != nil {
		for _, g := range *req.Genres {
			if !model.KnownGenre(g) {
				errs.add("genres", "unknown genre: "+g)
				break
			}
		}
		if _, bad := errs["genres"]; !bad {
			m.Genres = append([]string{}, *req.Genres...)
		}
	} else if requireAll {
		errs.add("genres", "required")
	}

	if req.IsAvailable != nil {
		m.IsAvailable = *req.IsAvailable
	}

	return errs
}

// refErrorResponse translates a failed director/actor reference into
// the 404 response reporting the offending id.
func refErrorResponse(c echo.Context, err error) error {
	var ref *repository.RefError
	if errors.Is(err, repository.ErrDirectorNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Director not found."})
	}
	if errors.Is(err, repository.ErrActorNotFound) {
		msg := "Actor not found."
		if errors.As(err, &ref) {
			msg = "Actor with ID " + fmtID(ref.ID) + " not found."
		}
		return c.JSON(http.StatusNotFound, echo.Map{"detail": msg})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// Create handles POST /v1/movies.  The director and every actor are
// resolved and role-checked before the row is written; the response
// uses the legacy schema.
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m := model.Movie{IsAvailable: true}
	if errs := req.apply(&m, true); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Repo.Create(ctx, &m); err != nil {
		return refErrorResponse(c, err)
	}

	_ = h.Publish(context.Background(), queue.CatalogChangedEvent{
		Type:       queue.EventMovieCreated,
		MovieID:    m.ID,
		Name:       m.Name,
		Year:       m.Year,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, toMovieLegacyWire(&m))
}

// movieFilterFrom parses the listing query parameters.  Every present
// parameter must parse cleanly; the first offending one aborts with a
// field error.
func movieFilterFrom(c echo.Context) (repository.MovieFilter, fieldErrors) {
	errs := fieldErrors{}
	f := repository.MovieFilter{Limit: defaultMovieLimit}

	if raw := c.QueryParam("directorID"); raw != "" {
		id, err := parseWireID(raw)
		if err != nil {
			errs.add("directorID", "must be an integer")
		} else {
			f.DirectorID = id
		}
	}
	if raw := c.QueryParam("actorID"); raw != "" {
		id, err := parseWireID(raw)
		if err != nil {
			errs.add("actorID", "must be an integer")
		} else {
			f.ActorID = id
		}
	}
	f.Genre = c.QueryParam("genre")
	if raw := c.QueryParam("fromYear"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			errs.add("fromYear", "must be an integer")
		} else {
			f.FromYear = y
		}
	}
	if raw := c.QueryParam("toYear"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			errs.add("toYear", "must be an integer")
		} else {
			f.ToYear = y
		}
	}
	limit, err := parseLimit(c, defaultMovieLimit)
	if err != nil {
		errs.add("limit", "must be an integer")
	} else {
		f.Limit = limit
	}
	return f, errs
}

// List handles GET /v1/movies with the optional directorID, actorID,
// genre, fromYear, toYear and limit parameters, combined with AND.
func (h *MovieHandler) List(c echo.Context) error {
	f, errs := movieFilterFrom(c)
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	movies, err := h.Repo.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]movieWire, 0, len(movies))
	for i := range movies {
		out = append(out, toMovieWire(&movies[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/movies/:id, returning the canonical record with
// the director and actors expanded to {_id, name} references.
func (h *MovieHandler) Get(c echo.Context) error {
	id, err := parseWireID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Movie not found."})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "Movie not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	names, err := h.Repo.NamesByIDs(ctx, append([]uint64{m.DirectorID}, m.ActorIDs...))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toMovieDetailWire(m, names))
}

// Update handles PUT /v1/movies/:id.  Fields omitted from the request
// keep their stored value; a supplied actors list fully replaces the
// stored set.  Reference resolution happens before any mutation, so a
// bad actor id in the middle of the list leaves the stored record
// untouched.
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := parseWireID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Movie not found."})
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	m, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "Movie not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if errs := req.apply(m, false); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	if err := h.Repo.Update(ctx, m); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "Movie not found."})
		}
		return refErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toMovieWire(m))
}

// Delete handles DELETE /v1/movies/:id, returning the pre-deletion
// snapshot in the legacy shape.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := parseWireID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Movie not found."})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m, err := h.Repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "Movie not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete movie failed"})
	}

	_ = h.Publish(context.Background(), queue.CatalogChangedEvent{
		Type:       queue.EventMovieDeleted,
		MovieID:    m.ID,
		Name:       m.Name,
		Year:       m.Year,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, toMovieLegacyWire(m))
}
