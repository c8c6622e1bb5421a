package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/movigo/movie-catalog/internal/model"
	"github.com/movigo/movie-catalog/internal/queue"
	"github.com/movigo/movie-catalog/internal/repository"
	queue_publisher "github.com/movigo/movie-catalog/internal/service"
)

// PersonHandler serves the people endpoints: the combined listing, the
// role-filtered director/actor listings and single-person CRUD.
// Publish emits catalog change events; broker failures are logged by
// the publisher and never fail the request.
type PersonHandler struct {
	Repo    *repository.PersonRepo
	Publish func(context.Context, queue.CatalogChangedEvent) error
}

func NewPersonHandler(r *repository.PersonRepo) *PersonHandler {
	return &PersonHandler{Repo: r, Publish: queue_publisher.PublishCatalogChanged}
}

// personReq is the create/update request body.  Pointer fields
// distinguish "absent" from "present but empty" so PUT can behave as a
// partial update: omitted fields keep their stored value, supplied
// fields are validated like on create.
type personReq struct {
	Name      *string `json:"name"`
	BirthDate *string `json:"birthDate"`
	Country   *string `json:"country"`
	Biography *string `json:"biography"`
	Role      *string `json:"role"`
}

// apply validates the supplied fields and merges them into p.  When
// requireAll is set (create), every field must be present.
func (req *personReq) apply(p *model.Person, requireAll bool) fieldErrors {
	errs := fieldErrors{}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			errs.add("name", "must not be blank")
		} else {
			p.Name = strings.TrimSpace(*req.Name)
		}
	} else if requireAll {
		errs.add("name", "required")
	}

	if req.BirthDate != nil {
		t, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil {
			errs.add("birthDate", "must be a date in YYYY-MM-DD format")
		} else {
			p.BirthDate = t
		}
	} else if requireAll {
		errs.add("birthDate", "required")
	}

	if req.Country != nil {
		if strings.TrimSpace(*req.Country) == "" {
			errs.add("country", "must not be blank")
		} else {
			p.Country = strings.TrimSpace(*req.Country)
		}
	} else if requireAll {
		errs.add("country", "required")
	}

	if req.Biography != nil {
		if strings.TrimSpace(*req.Biography) == "" {
			errs.add("biography", "must not be blank")
		} else {
			p.Biography = *req.Biography
		}
	} else if requireAll {
		errs.add("biography", "required")
	}

	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			errs.add("role", "must be either director or actor")
		} else {
			p.Role = *req.Role
		}
	} else if requireAll {
		errs.add("role", "required")
	}

	return errs
}

// Create handles POST /v1/people.
func (h *PersonHandler) Create(c echo.Context) error {
	var req personReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var p model.Person
	if errs := req.apply(&p, true); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Repo.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create person failed"})
	}
	return c.JSON(http.StatusCreated, toPersonWire(&p))
}

// List handles GET /v1/people.  The optional limit parameter bounds the
// result; without it the full collection is returned.
func (h *PersonHandler) List(c echo.Context) error {
	return h.listByRole(c, "")
}

// ListDirectors handles GET /v1/directors.
func (h *PersonHandler) ListDirectors(c echo.Context) error {
	return h.listByRole(c, model.RoleDirector)
}

// ListActors handles GET /v1/actors.
func (h *PersonHandler) ListActors(c echo.Context) error {
	return h.listByRole(c, model.RoleActor)
}

func (h *PersonHandler) listByRole(c echo.Context, role string) error {
	limit, err := parseLimit(c, -1)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Limit must be an integer."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	people, err := h.Repo.List(ctx, role, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]personWire, 0, len(people))
	for i := range people {
		out = append(out, toPersonWire(&people[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/people/:id.
func (h *PersonHandler) Get(c echo.Context) error {
	id, err := parseWireID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Person not found."})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	p, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Person not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toPersonWire(p))
}

// Update handles PUT /v1/people/:id.  Fields omitted from the request
// keep their stored value; supplied fields are validated against the
// same constraints as on create.
func (h *PersonHandler) Update(c echo.Context) error {
	id, err := parseWireID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Person not found."})
	}
	var req personReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	p, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Person not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if errs := req.apply(p, false); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	if err := h.Repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Person not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update person failed"})
	}
	return c.JSON(http.StatusOK, toPersonWire(p))
}

// Delete handles DELETE /v1/people/:id.  Movies directed by the person
// are cascade-deleted and the person is retracted from remaining actor
// sets; the response carries the pre-deletion snapshot in the legacy
// shape.
func (h *PersonHandler) Delete(c echo.Context) error {
	id, err := parseWireID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Person not found."})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	p, cascaded, err := h.Repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Person not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete person failed"})
	}

	// Broker failures must not fail the delete; the publisher logs them.
	_ = h.Publish(context.Background(), queue.CatalogChangedEvent{
		Type:            queue.EventPersonDeleted,
		PersonID:        p.ID,
		Name:            p.Name,
		DeletedMovieIDs: cascaded,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, toPersonLegacyWire(p))
}
