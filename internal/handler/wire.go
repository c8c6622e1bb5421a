// Package handler exposes the HTTP handlers of the movie catalog API.
// This file is the wire-mapping layer: it converts stored entities into
// their JSON representations and back. Two movie schemas exist. The
// canonical schema names fields id/director/actors and is used by get,
// list and update responses. The legacy schema (_id/directorID/actorIDs
// plus an always-zero __v counter) is kept for older clients and is
// emitted by create and delete responses. Identifiers are serialized as
// strings in both schemas, dates as ISO-8601.
package handler

import (
	"strconv"
	"time"

	"github.com/movigo/movie-catalog/internal/model"
)

const birthDateLayout = "2006-01-02"

func fmtID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func fmtIDs(ids []uint64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmtID(id)
	}
	return out
}

// parseWireID parses a string identifier from a path parameter or a
// request body reference field.
func parseWireID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// personWire is the canonical person representation.
type personWire struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	Country   string `json:"country"`
	Biography string `json:"biography"`
	Role      string `json:"role"`
}

func toPersonWire(p *model.Person) personWire {
	return personWire{
		ID:        fmtID(p.ID),
		Name:      p.Name,
		BirthDate: p.BirthDate.Format(birthDateLayout),
		Country:   p.Country,
		Biography: p.Biography,
		Role:      p.Role,
	}
}

// personLegacyWire is the legacy person shape returned by delete
// responses: underscore id plus the __v compatibility counter.
type personLegacyWire struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	Country   string `json:"country"`
	Biography string `json:"biography"`
	Role      string `json:"role"`
	V         int    `json:"__v"`
}

func toPersonLegacyWire(p *model.Person) personLegacyWire {
	return personLegacyWire{
		ID:        fmtID(p.ID),
		Name:      p.Name,
		BirthDate: p.BirthDate.Format(birthDateLayout),
		Country:   p.Country,
		Biography: p.Biography,
		Role:      p.Role,
	}
}

// movieWire is the canonical movie representation.
type movieWire struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Director    string   `json:"director"`
	Actors      []string `json:"actors"`
	Genres      []string `json:"genres"`
	IsAvailable bool     `json:"isAvailable"`
	DateAdded   string   `json:"dateAdded"`
}

func toMovieWire(m *model.Movie) movieWire {
	return movieWire{
		ID:          fmtID(m.ID),
		Name:        m.Name,
		Year:        m.Year,
		Director:    fmtID(m.DirectorID),
		Actors:      fmtIDs(m.ActorIDs),
		Genres:      append([]string{}, m.Genres...),
		IsAvailable: m.IsAvailable,
		DateAdded:   m.DateAdded.UTC().Format(time.RFC3339),
	}
}

// movieLegacyWire is the legacy movie shape used on create and delete.
type movieLegacyWire struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	DirectorID  string   `json:"directorID"`
	ActorIDs    []string `json:"actorIDs"`
	Genres      []string `json:"genres"`
	IsAvailable bool     `json:"isAvailable"`
	DateAdded   string   `json:"dateAdded"`
	V           int      `json:"__v"`
}

func toMovieLegacyWire(m *model.Movie) movieLegacyWire {
	return movieLegacyWire{
		ID:          fmtID(m.ID),
		Name:        m.Name,
		Year:        m.Year,
		DirectorID:  fmtID(m.DirectorID),
		ActorIDs:    fmtIDs(m.ActorIDs),
		Genres:      append([]string{}, m.Genres...),
		IsAvailable: m.IsAvailable,
		DateAdded:   m.DateAdded.UTC().Format(time.RFC3339),
	}
}

// personRef is the embedded {_id, name} object used when a movie detail
// response expands its director and actors.
type personRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// movieDetailWire is the canonical movie shape plus expanded person
// references, returned by GET /movies/:id.
type movieDetailWire struct {
	movieWire
	DirectorRef personRef   `json:"directorRef"`
	ActorRefs   []personRef `json:"actorRefs"`
}

func toMovieDetailWire(m *model.Movie, names map[uint64]string) movieDetailWire {
	refs := make([]personRef, len(m.ActorIDs))
	for i, id := range m.ActorIDs {
		refs[i] = personRef{ID: fmtID(id), Name: names[id]}
	}
	return movieDetailWire{
		movieWire:   toMovieWire(m),
		DirectorRef: personRef{ID: fmtID(m.DirectorID), Name: names[m.DirectorID]},
		ActorRefs:   refs,
	}
}
