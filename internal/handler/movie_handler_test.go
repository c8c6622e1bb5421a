package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movigo/movie-catalog/internal/queue"
	"github.com/movigo/movie-catalog/internal/repository"
)

// newCtx builds an echo context around a recorded request.  A non-empty
// body is sent as JSON.
func newCtx(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func newMovieHandlerMock(t *testing.T) (*MovieHandler, sqlmock.Sqlmock, *[]queue.CatalogChangedEvent) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	var events []queue.CatalogChangedEvent
	h := &MovieHandler{
		Repo: repository.NewMovieRepo(db),
		Publish: func(_ context.Context, ev queue.CatalogChangedEvent) error {
			events = append(events, ev)
			return nil
		},
	}
	return h, mock, &events
}

func TestMovieCreateMissingFields(t *testing.T) {
	h, _, _ := newMovieHandlerMock(t)

	c, rec := newCtx(http.MethodPost, "/v1/movies", `{}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]any)
	assert.Equal(t, "required", errs["name"])
	assert.Equal(t, "required", errs["year"])
	assert.Equal(t, "required", errs["director"])
	assert.Equal(t, "required", errs["genres"])
	// actors and isAvailable are optional on create
	assert.NotContains(t, errs, "actors")
	assert.NotContains(t, errs, "isAvailable")
}

func TestMovieCreateUnknownGenre(t *testing.T) {
	h, _, _ := newMovieHandlerMock(t)

	body := `{"name":"Dune","year":2021,"director":"1","genres":["western"]}`
	c, rec := newCtx(http.MethodPost, "/v1/movies", body)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]any)
	assert.Equal(t, "unknown genre: western", errs["genres"])
}

func TestMovieCreateBadDirectorRef(t *testing.T) {
	h, _, _ := newMovieHandlerMock(t)

	body := `{"name":"Dune","year":2021,"director":"abc","genres":["sci-fi"]}`
	c, rec := newCtx(http.MethodPost, "/v1/movies", body)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]any)
	assert.Equal(t, "must be a person id", errs["director"])
}

func TestMovieCreateLegacyResponseAndEvent(t *testing.T) {
	h, mock, events := newMovieHandlerMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT role FROM people").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("director"))
	mock.ExpectQuery("SELECT role FROM people").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("actor"))
	mock.ExpectExec("INSERT INTO movies").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO movie_actors").
		WithArgs(7, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"name":"Dune","year":2021,"director":"1","actors":["2"],"genres":["sci-fi"]}`
	c, rec := newCtx(http.MethodPost, "/v1/movies", body)
	require.NoError(t, h.Create(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, "7", got["_id"])
	assert.Equal(t, "Dune", got["name"])
	assert.Equal(t, "1", got["directorID"])
	assert.Equal(t, []any{"2"}, got["actorIDs"])
	assert.Equal(t, []any{"sci-fi"}, got["genres"])
	assert.Equal(t, true, got["isAvailable"]) // defaults on omission
	assert.Equal(t, float64(0), got["__v"])
	assert.NotEmpty(t, got["dateAdded"])

	require.Len(t, *events, 1)
	ev := (*events)[0]
	assert.Equal(t, queue.EventMovieCreated, ev.Type)
	assert.Equal(t, uint64(7), ev.MovieID)
	assert.Equal(t, "Dune", ev.Name)
}

func TestMovieCreateWrongRoleDirector(t *testing.T) {
	h, mock, events := newMovieHandlerMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT role FROM people").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("actor"))
	mock.ExpectRollback()

	body := `{"name":"X","year":2000,"director":"5","genres":["action"]}`
	c, rec := newCtx(http.MethodPost, "/v1/movies", body)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Director not found.", decodeBody(t, rec)["detail"])
	assert.Empty(t, *events)
}

func TestMovieListBadLimit(t *testing.T) {
	h, _, _ := newMovieHandlerMock(t)

	c, rec := newCtx(http.MethodGet, "/v1/movies?limit=abc", "")
	require.NoError(t, h.List(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]any)
	assert.Equal(t, "must be an integer", errs["limit"])
}

func TestMovieListBadYearParam(t *testing.T) {
	h, _, _ := newMovieHandlerMock(t)

	c, rec := newCtx(http.MethodGet, "/v1/movies?fromYear=x", "")
	require.NoError(t, h.List(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]any)
	assert.Equal(t, "must be an integer", errs["fromYear"])
}

func TestMovieListLimitZero(t *testing.T) {
	h, mock, _ := newMovieHandlerMock(t)

	cols := []string{"id", "name", "year", "director_id", "genres", "is_available", "date_added"}
	mock.ExpectQuery("SELECT m.id, m.name").
		WithArgs(0).
		WillReturnRows(sqlmock.NewRows(cols))

	c, rec := newCtx(http.MethodGet, "/v1/movies?limit=0", "")
	require.NoError(t, h.List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMovieGetNotFound(t *testing.T) {
	h, mock, _ := newMovieHandlerMock(t)

	mock.ExpectQuery("SELECT id, name, year").
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	c, rec := newCtx(http.MethodGet, "/v1/movies/42", "")
	c.SetPath("/v1/movies/:id")
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Movie not found.", decodeBody(t, rec)["detail"])
}

func TestMovieGetMalformedID(t *testing.T) {
	h, _, _ := newMovieHandlerMock(t)

	c, rec := newCtx(http.MethodGet, "/v1/movies/abc", "")
	c.SetPath("/v1/movies/:id")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Movie not found.", decodeBody(t, rec)["detail"])
}

func TestMovieUpdateUnresolvedActorLeavesRecord(t *testing.T) {
	h, mock, _ := newMovieHandlerMock(t)

	cols := []string{"id", "name", "year", "director_id", "genres", "is_available", "date_added"}
	mock.ExpectQuery("SELECT id, name, year").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(7, "Dune", 2021, 1, []byte(`["sci-fi"]`), true, sampleTime(t)))
	mock.ExpectQuery("SELECT movie_id, person_id FROM movie_actors").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id", "person_id"}).AddRow(7, 2))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM movies").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT role FROM people").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("director"))
	mock.ExpectQuery("SELECT role FROM people").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("director")) // wrong role
	mock.ExpectRollback()

	c, rec := newCtx(http.MethodPut, "/v1/movies/7", `{"actors":["99"]}`)
	c.SetPath("/v1/movies/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Actor with ID 99 not found.", decodeBody(t, rec)["detail"])
	// The UPDATE and the actor-set rewrite never ran.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieUpdatePartialKeepsStoredFields(t *testing.T) {
	h, mock, _ := newMovieHandlerMock(t)

	cols := []string{"id", "name", "year", "director_id", "genres", "is_available", "date_added"}
	mock.ExpectQuery("SELECT id, name, year").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(7, "Dune", 2021, 1, []byte(`["sci-fi"]`), true, sampleTime(t)))
	mock.ExpectQuery("SELECT movie_id, person_id FROM movie_actors").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"movie_id", "person_id"}).AddRow(7, 2))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM movies").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT role FROM people").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("director"))
	mock.ExpectQuery("SELECT role FROM people").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("actor"))
	mock.ExpectExec("UPDATE movies SET").
		WithArgs("Dune", 2021, 1, sqlmock.AnyArg(), false, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM movie_actors").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO movie_actors").
		WithArgs(7, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newCtx(http.MethodPut, "/v1/movies/7", `{"isAvailable":false}`)
	c.SetPath("/v1/movies/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Update(c))

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	// Canonical schema on update responses.
	assert.Equal(t, "7", got["id"])
	assert.NotContains(t, got, "_id")
	assert.Equal(t, "Dune", got["name"])
	assert.Equal(t, "1", got["director"])
	assert.Equal(t, []any{"2"}, got["actors"])
	assert.Equal(t, false, got["isAvailable"])
}

func TestMovieDeleteReturnsLegacySnapshot(t *testing.T) {
	h, mock, events := newMovieHandlerMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, year").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "year", "director_id", "genres", "is_available", "date_added"}).
			AddRow(7, "Dune", 2021, 1, []byte(`["sci-fi"]`), true, sampleTime(t)))
	mock.ExpectQuery("SELECT person_id FROM movie_actors").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"person_id"}).AddRow(2))
	mock.ExpectExec("DELETE FROM movie_actors").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM movies").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newCtx(http.MethodDelete, "/v1/movies/7", "")
	c.SetPath("/v1/movies/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Delete(c))

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, "7", got["_id"])
	assert.Equal(t, float64(0), got["__v"])
	assert.Equal(t, []any{"2"}, got["actorIDs"])

	require.Len(t, *events, 1)
	assert.Equal(t, queue.EventMovieDeleted, (*events)[0].Type)
}
