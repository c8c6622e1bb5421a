package model

import "time"

// Person roles.  A person is either a director or an actor; the role
// decides which relationship slot of a movie they may occupy.
const (
    RoleDirector = "director"
    RoleActor    = "actor"
)

// ValidRole reports whether s is one of the recognized person roles.
func ValidRole(s string) bool {
    return s == RoleDirector || s == RoleActor
}

// Person represents a row in the `people` table.  Directors and actors
// share the same table and are distinguished by the Role column.
//
// Fields:
//  ID        – primary key identifier of the person.
//  Name      – full name.
//  BirthDate – date of birth (date only, no time component).
//  Country   – country of origin.
//  Biography – free-form biography text.
//  Role      – either "director" or "actor".
type Person struct {
    ID        uint64    // people.id
    Name      string    // people.name
    BirthDate time.Time // people.birth_date (DATE)
    Country   string    // people.country
    Biography string    // people.biography
    Role      string    // people.role
}
