package config

import "errors"

// Configuration errors are fatal: they indicate a broken rules file or flag
// set, not a transient condition, so nothing in this package retries or
// degrades around them.
var (
	// ErrBadPattern marks a pattern node that is neither a valid glob string
	// nor a {regex: "..."} mapping.
	ErrBadPattern = errors.New("config: malformed pattern")

	// ErrBadFilterShape marks a filter node outside the accepted shapes: a
	// single pattern, a bare pattern list, or an {include, exclude} mapping.
	ErrBadFilterShape = errors.New("config: unrecognized filter shape")

	// ErrBadCategoryShape marks a category filter that is not a tag list or
	// an {include: [...]} mapping.
	ErrBadCategoryShape = errors.New("config: unrecognized category filter shape")

	// ErrBadRule marks a rule entry without a name.
	ErrBadRule = errors.New("config: rule without a name")

	// ErrBadDuration marks a duration value that time.ParseDuration rejects.
	ErrBadDuration = errors.New("config: malformed duration")

	// ErrNoCommand is returned when files must be compiled but no compiler
	// command is configured and the run is not a dry run.
	ErrNoCommand = errors.New("config: no compiler command configured")
)
