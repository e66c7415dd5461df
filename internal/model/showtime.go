package model

import "time"

// Showtime is a scheduled screening of a movie with a fixed start time and
// seat capacity.  Its seat set lives in the seats table and is created in
// bulk when the showtime is scheduled.
type Showtime struct {
    ID        uint64    // showtimes.id
    MovieID   uint64    // showtimes.movie_id
    StartsAt  time.Time // showtimes.starts_at (UTC)
    Capacity  uint32    // showtimes.capacity
    CreatedAt time.Time // showtimes.created_at
}

// Movie is a catalog entry.  Catalog data is read-mostly and carries no
// concurrency risk; it exists so showtimes have something to point at.
type Movie struct {
    ID          uint64 // movies.id
    Title       string // movies.title
    Description string // movies.description
    Theatre     string // movies.theatre
}
