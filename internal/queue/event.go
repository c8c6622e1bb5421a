// Package queue defines message payloads exchanged over the message broker.
package queue

// Catalog event types carried in CatalogChangedEvent.Type.
const (
    EventMovieCreated  = "movie.created"
    EventMovieDeleted  = "movie.deleted"
    EventPersonDeleted = "person.deleted"
)

// CatalogChangedEvent is published whenever the catalog mutates in a
// way downstream systems care about: a movie appears or disappears, or
// a person is deleted (which can cascade into movie deletions).  It
// carries enough information for consumers to log or trigger analytics
// without querying the primary database.
type CatalogChangedEvent struct {
    Type            string   `json:"type"`
    MovieID         uint64   `json:"movie_id,omitempty"`
    PersonID        uint64   `json:"person_id,omitempty"`
    Name            string   `json:"name"`
    Year            int      `json:"year,omitempty"`
    DeletedMovieIDs []uint64 `json:"deleted_movie_ids,omitempty"`
    OccurredAt      string   `json:"occurred_at"`
}
