// Package api implements the client for the remote blog service. All post
// operations attach the current bearer token and go through one shared
// response classifier.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"time"

	"tourblog/internal/domain"
	"tourblog/internal/media"
)

// Client talks to the blog backend. It reads the token from the injected
// store fresh before every authorized call, so a logout or re-login
// between calls is always observed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     domain.TokenStore
}

// NewClient creates a blog API client rooted at baseURL.
func NewClient(baseURL string, tokens domain.TokenStore) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
	}
}

// Login exchanges credentials for a session token. The caller is
// responsible for persisting it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	token, err := c.authenticate(ctx, "/auth/login", username, password)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return token, nil
}

// Signup registers a new account and returns its session token.
func (c *Client) Signup(ctx context.Context, username, password string) (string, error) {
	token, err := c.authenticate(ctx, "/auth/signup", username, password)
	if err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}
	return token, nil
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("server response carried no token")
	}
	return resp.Token, nil
}

// ListPosts fetches all posts in the order the server returns them.
func (c *Client) ListPosts(ctx context.Context) ([]domain.Post, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/blog", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var wire []wirePost
	if err := c.send(req, token, &wire); err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	posts := make([]domain.Post, len(wire))
	for i, w := range wire {
		posts[i] = w.toDomain()
	}
	return posts, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/blog/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var wire wirePost
	if err := c.send(req, token, &wire); err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", id, err)
	}
	post := wire.toDomain()
	return &post, nil
}

// CreatePost validates the draft locally and submits it as a multipart
// request. A draft missing any of title, description, attachment, or
// geotag never reaches the network.
func (c *Client) CreatePost(ctx context.Context, draft domain.Draft) (*domain.Post, error) {
	var missing []string
	if draft.Title == "" {
		missing = append(missing, "title")
	}
	if draft.Description == "" {
		missing = append(missing, "description")
	}
	if draft.Attachment == nil {
		missing = append(missing, "image")
	}
	if draft.Geotag == nil {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Missing: missing}
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipart(draft.Title, draft.Description, draft.Attachment, draft.Geotag)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/blog", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var wire wirePost
	if err := c.send(req, token, &wire); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post := wire.toDomain()
	return &post, nil
}

// UpdatePost edits a post. A nil attachment keeps the existing image: the
// request then carries no image part at all.
func (c *Client) UpdatePost(ctx context.Context, id, title, description string, attachment *domain.Attachment) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	body, contentType, err := encodeMultipart(title, description, attachment, nil)
	if err != nil {
		return fmt.Errorf("update post %s: %w", id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/blog/"+url.PathEscape(id), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	if err := c.send(req, token, nil); err != nil {
		return fmt.Errorf("update post %s: %w", id, err)
	}
	return nil
}

// DeletePost removes a post by id.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/blog/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if err := c.send(req, token, nil); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return nil
}

// bearer reads the current token fresh from the store. An absent token
// fails the call before anything touches the network.
func (c *Client) bearer(ctx context.Context) (string, error) {
	token := c.tokens.Load(ctx)
	if token == "" {
		return "", domain.ErrUnauthenticated
	}
	return token, nil
}

// send attaches the bearer token, sends the request, classifies the
// response status, and decodes the body into result when one is wanted.
// Every authorized operation goes through here; the Authorization header
// is built in exactly one place.
func (c *Client) send(req *http.Request, token string, result any) error {
	req.Header.Set("Authorization", "Bearer "+token)
	return c.do(req, result)
}

// do sends the request, classifies the response status, and decodes the
// body into result when one is wanted.
func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := classify(resp.StatusCode, respBody); err != nil {
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// classify maps a response status to the error taxonomy by status class:
// 4xx is a business rejection carrying the server's message, everything
// else non-2xx is a transient server failure. Message text is never
// inspected to decide the class.
func classify(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if status >= 400 && status < 500 {
		return &domain.RejectedError{Status: status, Message: serverMessage(body)}
	}
	return &domain.ServerError{Status: status}
}

func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// encodeMultipart builds the multipart body shared by create and update.
// The image part carries the MIME type inferred from the file extension;
// an unrecognized extension fails before the file is even opened. The
// geotag, when present, is sent as a JSON GeoJSON Point.
func encodeMultipart(title, description string, attachment *domain.Attachment, geotag *domain.Geotag) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("title", title); err != nil {
		return nil, "", fmt.Errorf("write title field: %w", err)
	}
	if err := writer.WriteField("description", description); err != nil {
		return nil, "", fmt.Errorf("write description field: %w", err)
	}

	if geotag != nil {
		location, err := json.Marshal(map[string]any{
			"type":        "Point",
			"coordinates": []float64{geotag.Longitude, geotag.Latitude},
		})
		if err != nil {
			return nil, "", fmt.Errorf("marshal location: %w", err)
		}
		if err := writer.WriteField("location", string(location)); err != nil {
			return nil, "", fmt.Errorf("write location field: %w", err)
		}
	}

	if attachment != nil {
		mimeType := attachment.MIMEType
		if mimeType == "" {
			var err error
			mimeType, err = media.MIMEType(media.Extension(attachment.Path))
			if err != nil {
				return nil, "", err
			}
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="photo.%s"`, media.Extension(attachment.Path)))
		header.Set("Content-Type", mimeType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}

		file, err := os.Open(attachment.Path)
		if err != nil {
			return nil, "", fmt.Errorf("open image: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			file.Close()
			return nil, "", fmt.Errorf("read image: %w", err)
		}
		file.Close()
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// wirePost is a post as the API serializes it.
type wirePost struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ImageURL    string       `json:"imageUrl"`
	Location    wireLocation `json:"location"`
	User        wireID       `json:"user"`
}

type wireLocation struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func (w wirePost) toDomain() domain.Post {
	post := domain.Post{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		ImageURL:    w.ImageURL,
		Owner:       string(w.User),
	}
	if len(w.Location.Coordinates) == 2 {
		post.Location = domain.Geotag{
			Longitude: w.Location.Coordinates[0],
			Latitude:  w.Location.Coordinates[1],
		}
	}
	return post
}

// wireID tolerates user ids serialized as either JSON strings or numbers.
type wireID string

func (w *wireID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*w = wireID(n.String())
	return nil
}
