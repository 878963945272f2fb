package server

type Config struct {
	// Prefix is the URL prefix the CRUD API is mounted under.
	Prefix string
	// Debug serves plain-text error traces instead of the structured
	// JSON error body on server failures.
	Debug bool
}
