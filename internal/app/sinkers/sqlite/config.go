package sqlite

// Configuration settings for SQLite sinking
type Configuration struct {
	Path string `toml:"path" default:"tracks.db" comment:"SQLite database file"`
}
