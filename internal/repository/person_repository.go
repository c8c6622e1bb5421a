// Package repository contains data access logic for the movie catalog.
// This file defines persistence for people. Directors and actors share
// the `people` table and are told apart by the role column. Deleting a
// person carries referential consequences for movies: movies directed
// by the person are removed outright, while actor links are merely
// retracted. Both happen inside one transaction so a failure never
// leaves the catalog half cleaned up.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/movigo/movie-catalog/internal/model"
)

// PersonRepo manages persistence for people.
type PersonRepo struct {
	db *sql.DB
}

// NewPersonRepo constructs a PersonRepo with the given DB handle.
func NewPersonRepo(db *sql.DB) *PersonRepo {
	return &PersonRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *PersonRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new person and assigns the generated ID back to the
// struct.  All fields must be populated by the caller; validation of
// role values and required fields happens in the handler layer.
func (r *PersonRepo) Create(ctx context.Context, p *model.Person) error {
	const q = `INSERT INTO people (name, birth_date, country, biography, role) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.BirthDate, p.Country, p.Biography, p.Role)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID retrieves a person by ID.  It returns ErrPersonNotFound when
// no matching row exists.
func (r *PersonRepo) GetByID(ctx context.Context, id uint64) (*model.Person, error) {
	const q = `SELECT id, name, birth_date, country, biography, role FROM people WHERE id = ?`
	var p model.Person
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.BirthDate, &p.Country, &p.Biography, &p.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns people ordered by id ascending.  When role is non-empty
// only people holding that role are returned.  A negative limit means
// unbounded; limit 0 yields an empty result.
func (r *PersonRepo) List(ctx context.Context, role string, limit int) ([]model.Person, error) {
	q := `SELECT id, name, birth_date, country, biography, role FROM people`
	args := []any{}
	if role != "" {
		q += ` WHERE role = ?`
		args = append(args, role)
	}
	q += ` ORDER BY id ASC`
	if limit >= 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Person
	for rows.Next() {
		var p model.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.BirthDate, &p.Country, &p.Biography, &p.Role); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update replaces every attribute of a person row.  Partial update
// semantics live in the handler, which merges omitted fields from the
// stored row before calling Update.  When the row does not exist,
// ErrPersonNotFound is returned.  An update that changes nothing is
// treated as success.
func (r *PersonRepo) Update(ctx context.Context, p *model.Person) error {
	const q = `UPDATE people SET name = ?, birth_date = ?, country = ?, biography = ?, role = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.BirthDate, p.Country, p.Biography, p.Role, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// RowsAffected is zero both for a missing row and for an update that
	// sets identical values; distinguish the two with an existence probe.
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM people WHERE id = ? LIMIT 1`, p.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPersonNotFound
		}
		return err
	}
	return nil
}

// Delete removes a person and applies the referential rules in a single
// transaction: movies directed by the person are deleted (together with
// their actor links), and the person is retracted from the actor sets
// of any other movies.  It returns the pre-deletion snapshot of the
// person and the ids of the movies that were cascade-deleted.  When the
// person does not exist, ErrPersonNotFound is returned.
func (r *PersonRepo) Delete(ctx context.Context, id uint64) (*model.Person, []uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var p model.Person
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, birth_date, country, biography, role FROM people WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.BirthDate, &p.Country, &p.Biography, &p.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrPersonNotFound
		}
		return nil, nil, err
	}

	// Collect the movies this person directs; they go away with the
	// person because a movie without a director would violate the
	// "director required" invariant.
	rows, err := tx.QueryContext(ctx, `SELECT id FROM movies WHERE director_id = ?`, id)
	if err != nil {
		return nil, nil, err
	}
	var directed []uint64
	for rows.Next() {
		var mid uint64
		if err = rows.Scan(&mid); err != nil {
			rows.Close()
			return nil, nil, err
		}
		directed = append(directed, mid)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM movie_actors WHERE movie_id IN (SELECT id FROM movies WHERE director_id = ?)`, id); err != nil {
		return nil, nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM movies WHERE director_id = ?`, id); err != nil {
		return nil, nil, err
	}
	// Retract the person from actor sets of movies that survive.
	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_actors WHERE person_id = ?`, id); err != nil {
		return nil, nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id); err != nil {
		return nil, nil, err
	}
	return &p, directed, nil
}
