// Package repository contains data access logic for the movie catalog.
// This file defines the Movie repository. Movies reference people in
// two ways: a required director (movies.director_id) and a set of
// actors held in the movie_actors join table. Every write resolves
// those references first and asserts the role of each person before
// touching any row, so a bad id can never leave a partially applied
// actor set behind.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/movigo/movie-catalog/internal/model"
)

// MovieRepo manages persistence for movies and their person references.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// DB exposes the underlying sql.DB for callers that need to compose
// transactions across repositories.
func (r *MovieRepo) DB() *sql.DB {
	return r.db
}

// MovieFilter defines the optional predicates and the result bound for
// listing movies.  Zero values mean "absent": a zero DirectorID or
// ActorID, an empty Genre and a zero FromYear/ToYear disable the
// corresponding predicate.  All present predicates combine with AND.
// Limit is always applied; callers default it to 10 when the request
// carries no limit parameter.
type MovieFilter struct {
	DirectorID uint64
	ActorID    uint64
	Genre      string
	FromYear   int
	ToYear     int
	Limit      int
}

// buildMovieListQuery assembles the SELECT for a filtered movie listing.
// Results are ordered by id ascending so repeated calls with the same
// filter return rows in a stable order.
func buildMovieListQuery(f MovieFilter) (string, []any) {
	where := []string{}
	args := []any{}

	if f.DirectorID != 0 {
		where = append(where, "m.director_id = ?")
		args = append(args, f.DirectorID)
	}
	if f.ActorID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM movie_actors ma WHERE ma.movie_id = m.id AND ma.person_id = ?)")
		args = append(args, f.ActorID)
	}
	if f.Genre != "" {
		where = append(where, "JSON_CONTAINS(m.genres, JSON_QUOTE(?))")
		args = append(args, f.Genre)
	}
	if f.FromYear != 0 {
		where = append(where, "m.year >= ?")
		args = append(args, f.FromYear)
	}
	if f.ToYear != 0 {
		where = append(where, "m.year <= ?")
		args = append(args, f.ToYear)
	}

	q := `SELECT m.id, m.name, m.year, m.director_id, m.genres, m.is_available, m.date_added FROM movies m`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY m.id ASC LIMIT ?`
	args = append(args, f.Limit)
	return q, args
}

// List returns the movies matching the filter, bounded by f.Limit.
// A limit of zero yields an empty slice without touching the join
// table.  Actor sets are loaded in one extra query for the whole page.
func (r *MovieRepo) List(ctx context.Context, f MovieFilter) ([]model.Movie, error) {
	q, args := buildMovieListQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Movie
	for rows.Next() {
		var (
			m         model.Movie
			genresRaw []byte
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Year, &m.DirectorID, &genresRaw, &m.IsAvailable, &m.DateAdded); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(genresRaw, &m.Genres); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]uint64, len(result))
	for i, m := range result {
		ids[i] = m.ID
	}
	actorsByMovie, err := r.actorSets(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].ActorIDs = actorsByMovie[result[i].ID]
	}
	return result, nil
}

// actorSets loads the actor id sets for the given movies in a single
// query, keyed by movie id.  Rows come back ordered so the sets are
// deterministic.
func (r *MovieRepo) actorSets(ctx context.Context, movieIDs []uint64) (map[uint64][]uint64, error) {
	q := `SELECT movie_id, person_id FROM movie_actors WHERE movie_id IN (`
	args := make([]any, 0, len(movieIDs))
	for i, id := range movieIDs {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += `) ORDER BY movie_id ASC, person_id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]uint64, len(movieIDs))
	for rows.Next() {
		var movieID, personID uint64
		if err := rows.Scan(&movieID, &personID); err != nil {
			return nil, err
		}
		out[movieID] = append(out[movieID], personID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID retrieves a movie with its actor set.  It returns
// ErrMovieNotFound when no matching row exists.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT id, name, year, director_id, genres, is_available, date_added FROM movies WHERE id = ?`
	var (
		m         model.Movie
		genresRaw []byte
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Name, &m.Year, &m.DirectorID, &genresRaw, &m.IsAvailable, &m.DateAdded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(genresRaw, &m.Genres); err != nil {
		return nil, err
	}
	sets, err := r.actorSets(ctx, []uint64{m.ID})
	if err != nil {
		return nil, err
	}
	m.ActorIDs = sets[m.ID]
	return &m, nil
}

// assertRole verifies inside the transaction that the person exists and
// holds the expected role.  It returns notFound (ErrDirectorNotFound or
// ErrActorNotFound) both for a missing row and for a wrong role, so a
// role=actor person can never be referenced as a director and vice
// versa.
func assertRole(ctx context.Context, tx *sql.Tx, personID uint64, role string, notFound error) error {
	var got string
	err := tx.QueryRowContext(ctx, `SELECT role FROM people WHERE id = ?`, personID).Scan(&got)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &RefError{ID: personID, kind: notFound}
		}
		return err
	}
	if got != role {
		return &RefError{ID: personID, kind: notFound}
	}
	return nil
}

// dedupe returns ids with duplicates removed, first occurrence wins.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// insertActorsTx bulk-inserts the actor links for a movie in a single
// statement.  Passing an empty slice has no effect and returns nil.
func insertActorsTx(ctx context.Context, tx *sql.Tx, movieID uint64, actorIDs []uint64) error {
	if len(actorIDs) == 0 {
		return nil
	}
	q := `INSERT INTO movie_actors (movie_id, person_id) VALUES `
	args := make([]any, 0, len(actorIDs)*2)
	for i, id := range actorIDs {
		if i > 0 {
			q += ","
		}
		q += "(?, ?)"
		args = append(args, movieID, id)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// Create inserts a new movie together with its actor links in one
// transaction.  The director reference must resolve to a person with
// role "director" and every actor reference to a person with role
// "actor"; the first failing reference aborts the whole operation
// before any row is written.  DateAdded is assigned here and the
// generated ID and de-duplicated actor set are stored back on m.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	if err = assertRole(ctx, tx, m.DirectorID, model.RoleDirector, ErrDirectorNotFound); err != nil {
		return err
	}
	m.ActorIDs = dedupe(m.ActorIDs)
	for _, id := range m.ActorIDs {
		if err = assertRole(ctx, tx, id, model.RoleActor, ErrActorNotFound); err != nil {
			return err
		}
	}

	genresRaw, err := json.Marshal(m.Genres)
	if err != nil {
		return err
	}
	m.DateAdded = time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO movies (name, year, director_id, genres, is_available, date_added) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, m.Name, m.Year, m.DirectorID, genresRaw, m.IsAvailable, m.DateAdded)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	err = insertActorsTx(ctx, tx, m.ID, m.ActorIDs)
	return err
}

// Update replaces the stored attributes and actor set of a movie in one
// transaction.  The handler merges fields omitted from the request with
// the stored row before calling Update, so this method always receives
// the full target state.  References are resolved and role-checked
// before any mutation; the actor set is cleared and rewritten only
// after every id has passed, which keeps a mid-list failure from
// committing a partial set.  DateAdded is never touched.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ? LIMIT 1`, m.ID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrMovieNotFound
		}
		return err
	}

	if err = assertRole(ctx, tx, m.DirectorID, model.RoleDirector, ErrDirectorNotFound); err != nil {
		return err
	}
	m.ActorIDs = dedupe(m.ActorIDs)
	for _, id := range m.ActorIDs {
		if err = assertRole(ctx, tx, id, model.RoleActor, ErrActorNotFound); err != nil {
			return err
		}
	}

	genresRaw, err := json.Marshal(m.Genres)
	if err != nil {
		return err
	}
	const q = `UPDATE movies SET name = ?, year = ?, director_id = ?, genres = ?, is_available = ? WHERE id = ?`
	if _, err = tx.ExecContext(ctx, q, m.Name, m.Year, m.DirectorID, genresRaw, m.IsAvailable, m.ID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_actors WHERE movie_id = ?`, m.ID); err != nil {
		return err
	}
	err = insertActorsTx(ctx, tx, m.ID, m.ActorIDs)
	return err
}

// Delete removes a movie and its actor links, returning the
// pre-deletion snapshot.  ErrMovieNotFound is returned when the id
// matches no row.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) (*model.Movie, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var (
		m         model.Movie
		genresRaw []byte
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, year, director_id, genres, is_available, date_added FROM movies WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Year, &m.DirectorID, &genresRaw, &m.IsAvailable, &m.DateAdded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrMovieNotFound
		}
		return nil, err
	}
	if err = json.Unmarshal(genresRaw, &m.Genres); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT person_id FROM movie_actors WHERE movie_id = ? ORDER BY person_id ASC`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var pid uint64
		if err = rows.Scan(&pid); err != nil {
			rows.Close()
			return nil, err
		}
		m.ActorIDs = append(m.ActorIDs, pid)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_actors WHERE movie_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// NamesByIDs returns a map of person id to name for the given ids.  It
// backs the expanded director/actor objects in movie detail responses.
func (r *MovieRepo) NamesByIDs(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	if len(ids) == 0 {
		return map[uint64]string{}, nil
	}
	q := `SELECT id, name FROM people WHERE id IN (`
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]string, len(ids))
	for rows.Next() {
		var (
			id   uint64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
