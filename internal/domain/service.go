package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrPasswordMismatch is returned by Signup when the confirmation does
// not match the password. Checked locally, before any network call.
var ErrPasswordMismatch = errors.New("passwords do not match")

// Authenticator exchanges credentials for a session token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Signup(ctx context.Context, username, password string) (string, error)
}

// SharePipeline hands a post's photo to the native share facility.
type SharePipeline interface {
	Share(ctx context.Context, post Post) error
}

// IdentityFunc projects a display-only user id out of a token. It must
// never be used as a trust boundary.
type IdentityFunc func(token string) (string, bool)

// BlogService is the core session service. It owns the in-memory post
// cache, decides per-post ownership from the decoded token, and applies
// local mutations only after the server has confirmed the corresponding
// call.
type BlogService struct {
	repo     PostRepository
	auth     Authenticator
	tokens   TokenStore
	location LocationProvider
	sharing  SharePipeline
	identify IdentityFunc
	logger   *slog.Logger

	posts  []Post
	userID string
}

// NewBlogService wires the service. identify is the token-to-user-id
// projection used for ownership display.
func NewBlogService(repo PostRepository, auth Authenticator, tokens TokenStore, location LocationProvider, sharing SharePipeline, identify IdentityFunc, logger *slog.Logger) *BlogService {
	return &BlogService{
		repo:     repo,
		auth:     auth,
		tokens:   tokens,
		location: location,
		sharing:  sharing,
		identify: identify,
		logger:   logger,
	}
}

// Authenticated reports whether a session token is present. Used to pick
// the initial view at process start.
func (s *BlogService) Authenticated(ctx context.Context) bool {
	return s.tokens.Load(ctx) != ""
}

// Login authenticates and persists the resulting token.
func (s *BlogService) Login(ctx context.Context, username, password string) error {
	token, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.logger.Info("logged in", "username", username)
	return nil
}

// Signup registers a new account and persists its token. The password
// confirmation is checked locally first.
func (s *BlogService) Signup(ctx context.Context, username, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	token, err := s.auth.Signup(ctx, username, password)
	if err != nil {
		return err
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.logger.Info("signed up", "username", username)
	return nil
}

// Logout destroys the stored session.
func (s *BlogService) Logout(ctx context.Context) error {
	return s.tokens.Clear(ctx)
}

// UserID returns the display-only user id decoded from the current
// token, or "" when signed out or the token carries no id claim.
func (s *BlogService) UserID(ctx context.Context) string {
	token := s.tokens.Load(ctx)
	if token == "" {
		return ""
	}
	id, ok := s.identify(token)
	if !ok {
		return ""
	}
	return id
}

// Refresh fetches the post list. On failure the previously held list is
// kept untouched; the cache only ever advances on a confirmed fetch.
func (s *BlogService) Refresh(ctx context.Context) error {
	s.userID = s.UserID(ctx)

	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return err
	}
	s.posts = posts
	return nil
}

// Posts returns the cached list in server order. Valid until the next
// Refresh; never re-sorted client-side.
func (s *BlogService) Posts() []Post {
	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// IsMine reports whether a post belongs to the current user, per the
// decoded token. A missing or undecodable token makes nothing editable.
func (s *BlogService) IsMine(post Post) bool {
	return s.userID != "" && post.Owner == s.userID
}

// Post fetches one post by id, for the edit flow's prefill.
func (s *BlogService) Post(ctx context.Context, id string) (*Post, error) {
	return s.repo.GetPost(ctx, id)
}

// Create captures the device position once, then submits the draft. A
// denied location permission blocks the flow; a create is never sent
// without a geotag.
func (s *BlogService) Create(ctx context.Context, title, description, imagePath string) (*Post, error) {
	draft := Draft{
		Title:       title,
		Description: description,
	}
	if imagePath != "" {
		draft.Attachment = &Attachment{Path: imagePath}
	}

	position, err := s.location.Current(ctx)
	if err != nil {
		return nil, err
	}
	draft.Geotag = &position

	post, err := s.repo.CreatePost(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.posts = append(s.posts, *post)
	s.logger.Info("post created", "id", post.ID, "title", post.Title)
	return post, nil
}

// Update edits a post. An empty imagePath keeps the server-side image
// unchanged. The cached entry is only touched after the server confirms.
func (s *BlogService) Update(ctx context.Context, id, title, description, imagePath string) error {
	var attachment *Attachment
	if imagePath != "" {
		attachment = &Attachment{Path: imagePath}
	}

	if err := s.repo.UpdatePost(ctx, id, title, description, attachment); err != nil {
		return err
	}

	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts[i].Title = title
			s.posts[i].Description = description
			break
		}
	}
	return nil
}

// Delete removes a post. The cached entry is dropped only after the
// server confirms, and removal touches exactly the one matching id,
// leaving the order of everything else alone.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return err
	}

	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			break
		}
	}
	s.logger.Info("post deleted", "id", id)
	return nil
}

// SharePost fetches the post and runs the download-and-share pipeline
// on its photo.
func (s *BlogService) SharePost(ctx context.Context, id string) error {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	return s.sharing.Share(ctx, *post)
}
