package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	specFile string
	logOut   io.Writer
	version  string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSpecFile restricts Build to the documents listed in a course spec CSV.
func WithSpecFile(path string) Option {
	return func(a *application) {
		a.specFile = path
	}
}

// WithLogOutput redirects the structured log. The MCP server needs this
// because stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}
