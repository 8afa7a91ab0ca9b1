package config

import "time"

const (
	// DefaultUserAgent identifies the service to the remote directory.
	// Upstream throttles anonymous clients, so always send one.
	DefaultUserAgent = "radiodir/1.0"

	// DefaultFetchTimeout bounds a single remote directory request,
	// including retries handled inside the HTTP client.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultNoDataTimeout is how long a page with an empty cache may wait
	// for a first successful sync before subscribers get the no-data signal.
	// Long enough for one slow fetch plus a retry round.
	DefaultNoDataTimeout = 12 * time.Second

	// DefaultUndoWindow is how long a favorite removal stays undoable.
	// Matches the typical snackbar display duration on clients.
	DefaultUndoWindow = 5 * time.Second

	// MaxRemoveBatch caps the number of IDs a single favorites removal
	// request may carry.
	MaxRemoveBatch = 200

	// MaxPageKeyLength caps page keys accepted by the API. Directory URLs
	// are short; anything longer is garbage input.
	MaxPageKeyLength = 2048
)
