package model

import "time"

// Movie represents a row in the `movies` table together with the
// actor references held in the `movie_actors` join table.  The
// director is a required single reference to a Person with role
// "director"; ActorIDs is an unordered, de-duplicated set of
// references to Persons with role "actor".  Genres are stored as a
// JSON array in the movies.genres column so their order survives a
// round trip.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – movie title.
//  Year        – release year (plain integer, no range enforced).
//  DirectorID  – references people.id; the person must be a director.
//  ActorIDs    – references into people; each person must be an actor.
//  Genres      – ordered list of genre labels from the fixed catalog.
//  IsAvailable – availability flag, defaults to true on creation.
//  DateAdded   – set once when the row is inserted, never updated.
type Movie struct {
    ID          uint64    // movies.id
    Name        string    // movies.name
    Year        int       // movies.year
    DirectorID  uint64    // movies.director_id (FK people.id)
    ActorIDs    []uint64  // movie_actors.person_id set
    Genres      []string  // movies.genres (JSON array)
    IsAvailable bool      // movies.is_available
    DateAdded   time.Time // movies.date_added (immutable)
}
