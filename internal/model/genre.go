package model

// genres is the fixed catalog of recognized genre labels.  It is
// unexported so no other package can mutate it at runtime; use
// Genres() to obtain a copy and KnownGenre() for membership tests.
var genres = [...]string{
    "sci-fi",
    "adventure",
    "action",
    "romantic",
    "animated",
    "comedy",
}

// Genres returns a fresh copy of the genre catalog in its canonical order.
func Genres() []string {
    out := make([]string, len(genres))
    copy(out, genres[:])
    return out
}

// KnownGenre reports whether g is part of the fixed genre catalog.
// Movie writes are validated against this set.
func KnownGenre(g string) bool {
    for _, k := range genres {
        if k == g {
            return true
        }
    }
    return false
}
