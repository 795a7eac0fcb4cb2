package domain

// Post represents one location-tagged blog post as stored by the remote
// service. The client never persists posts; a slice of them is a cache of
// the last successful fetch.
type Post struct {
	// ID is the server-assigned stable identifier (the API's `_id`).
	ID string

	// Title is the post headline.
	Title string

	// Description is the post body text.
	Description string

	// ImageURL points at the server-hosted photo for this post.
	ImageURL string

	// Location is where the post was written, captured at creation time.
	Location Geotag

	// Owner is the user id of the author as reported by the server.
	Owner string
}

// Geotag is a single coordinate pair captured from the device once per
// create flow. The wire format is a GeoJSON Point, which orders
// coordinates longitude-first.
type Geotag struct {
	Longitude float64
	Latitude  float64
}

// Attachment is a locally selected image on its way to the server. It
// lives for the duration of one create or update call.
type Attachment struct {
	// Path is the local filesystem path of the image.
	Path string

	// MIMEType is inferred from the file extension before any I/O.
	MIMEType string
}

// Draft carries everything needed to create a new post. The repository
// validates it locally before issuing any network call.
type Draft struct {
	Title       string
	Description string
	Attachment  *Attachment
	Geotag      *Geotag
}
