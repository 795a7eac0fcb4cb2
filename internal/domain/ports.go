package domain

import "context"

// TokenStore owns the session token's lifecycle. It is the sole source of
// truth for whether a user is authenticated; other components read the
// token through it per call and never hold a copy longer than one call.
type TokenStore interface {
	// Load returns the stored token, or "" if no session exists. Storage
	// failures are treated as an absent session, never surfaced as errors.
	Load(ctx context.Context) string

	// Save overwrites the stored token. Idempotent.
	Save(ctx context.Context, token string) error

	// Clear removes the stored token.
	Clear(ctx context.Context) error
}

// PostRepository performs authorized CRUD against the remote content API.
// Every operation reads the current token fresh before the call and fails
// with ErrUnauthenticated, without touching the network, when it is absent.
type PostRepository interface {
	// ListPosts fetches all posts in server order.
	ListPosts(ctx context.Context) ([]Post, error)

	// GetPost fetches a single post by id.
	GetPost(ctx context.Context, id string) (*Post, error)

	// CreatePost validates the draft locally, then submits it as a
	// multipart request. Returns the server-assigned post, including its
	// remote image URL.
	CreatePost(ctx context.Context, draft Draft) (*Post, error)

	// UpdatePost edits a post's title and description. A nil attachment
	// keeps the existing server-side image; no placeholder image part is
	// sent in that case.
	UpdatePost(ctx context.Context, id, title, description string, attachment *Attachment) error

	// DeletePost removes a post by id.
	DeletePost(ctx context.Context, id string) error
}

// LocationProvider captures the device's current position. Implementations
// perform a single read per call, never a continuous watch, and return
// ErrPermissionDenied when the user refuses location access.
type LocationProvider interface {
	Current(ctx context.Context) (Geotag, error)
}

// Sharer hands a locally cached file to the platform's native share
// facility.
type Sharer interface {
	// Available reports whether sharing is possible on this device.
	Available() bool

	// Share presents the file with the given MIME type and an accompanying
	// human-readable message.
	Share(ctx context.Context, path, mimeType, message string) error
}
