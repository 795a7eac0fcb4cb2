package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"tourblog/internal/domain"
)

// memoryTokens is an in-memory TokenStore for tests.
type memoryTokens struct {
	token string
}

func (m *memoryTokens) Load(ctx context.Context) string { return m.token }

func (m *memoryTokens) Save(ctx context.Context, token string) error {
	m.token = token
	return nil
}

func (m *memoryTokens) Clear(ctx context.Context) error {
	m.token = ""
	return nil
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake image bytes"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoginReturnsToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		if creds["username"] != "alice" || creds["password"] != "hunter2" {
			t.Errorf("unexpected credentials: %v", creds)
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "issued-token"})
	}))
	defer server.Close()

	client := NewClient(server.URL, &memoryTokens{})
	token, err := client.Login(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if token != "issued-token" {
		t.Errorf("Login() = %q, want %q", token, "issued-token")
	}
}

func TestSignupErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "duplicate user is a rejection with the server message",
			status: http.StatusBadRequest,
			body:   `{"message":"User already exists"}`,
			check: func(t *testing.T, err error) {
				var rejected *domain.RejectedError
				if !errors.As(err, &rejected) {
					t.Fatalf("Signup() error = %v, want RejectedError", err)
				}
				if rejected.Message != "User already exists" {
					t.Errorf("rejection message = %q, want %q", rejected.Message, "User already exists")
				}
			},
		},
		{
			name:   "gateway timeout is a server failure",
			status: http.StatusGatewayTimeout,
			body:   `{"message":"upstream timed out"}`,
			check: func(t *testing.T, err error) {
				var serverErr *domain.ServerError
				if !errors.As(err, &serverErr) {
					t.Fatalf("Signup() error = %v, want ServerError", err)
				}
				if serverErr.Status != http.StatusGatewayTimeout {
					t.Errorf("server failure status = %d, want %d", serverErr.Status, http.StatusGatewayTimeout)
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, &memoryTokens{})
			_, err := client.Signup(context.Background(), "alice", "hunter2")
			if err == nil {
				t.Fatal("Signup() succeeded, want error")
			}
			tt.check(t, err)
		})
	}
}

func TestListPostsSendsBearerToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer session-token")
		}
		w.Write([]byte(`[
			{"_id":"p1","title":"Lake View","description":"calm","imageUrl":"https://img/p1.jpg",
			 "location":{"type":"Point","coordinates":[12.34,56.78]},"user":"u1"},
			{"_id":"p2","title":"Summit","description":"windy","imageUrl":"https://img/p2.png",
			 "location":{"type":"Point","coordinates":[1.5,2.5]},"user":7}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &memoryTokens{token: "session-token"})
	posts, err := client.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("ListPosts() error: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("ListPosts() returned %d posts, want 2", len(posts))
	}
	first := posts[0]
	if first.ID != "p1" || first.Title != "Lake View" || first.Owner != "u1" {
		t.Errorf("unexpected first post: %+v", first)
	}
	if first.Location.Longitude != 12.34 || first.Location.Latitude != 56.78 {
		t.Errorf("first post location = %+v, want lon 12.34 lat 56.78", first.Location)
	}
	// Numeric user ids normalize to their decimal string.
	if posts[1].Owner != "7" {
		t.Errorf("second post owner = %q, want %q", posts[1].Owner, "7")
	}
}

func TestAuthorizedCallsFailWithoutToken(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, &memoryTokens{})
	ctx := context.Background()
	image := writeImage(t, "photo.jpg")

	calls := []struct {
		name string
		call func() error
	}{
		{"ListPosts", func() error { _, err := client.ListPosts(ctx); return err }},
		{"GetPost", func() error { _, err := client.GetPost(ctx, "p1"); return err }},
		{"CreatePost", func() error {
			_, err := client.CreatePost(ctx, domain.Draft{
				Title:       "t",
				Description: "d",
				Attachment:  &domain.Attachment{Path: image},
				Geotag:      &domain.Geotag{Longitude: 1, Latitude: 2},
			})
			return err
		}},
		{"UpdatePost", func() error { return client.UpdatePost(ctx, "p1", "t", "d", nil) }},
		{"DeletePost", func() error { return client.DeletePost(ctx, "p1") }},
	}

	for _, c := range calls {
		if err := c.call(); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("%s without token: error = %v, want ErrUnauthenticated", c.name, err)
		}
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

func TestCreatePostValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, &memoryTokens{token: "tok"})
	image := writeImage(t, "photo.jpg")
	geotag := &domain.Geotag{Longitude: 1, Latitude: 2}

	tests := []struct {
		name    string
		draft   domain.Draft
		missing string
	}{
		{"no title", domain.Draft{Description: "d", Attachment: &domain.Attachment{Path: image}, Geotag: geotag}, "title"},
		{"no description", domain.Draft{Title: "t", Attachment: &domain.Attachment{Path: image}, Geotag: geotag}, "description"},
		{"no image", domain.Draft{Title: "t", Description: "d", Geotag: geotag}, "image"},
		{"no geotag", domain.Draft{Title: "t", Description: "d", Attachment: &domain.Attachment{Path: image}}, "location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreatePost(context.Background(), tt.draft)
			var validation *domain.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("CreatePost() error = %v, want ValidationError", err)
			}
			found := false
			for _, field := range validation.Missing {
				if field == tt.missing {
					found = true
				}
			}
			if !found {
				t.Errorf("ValidationError.Missing = %v, want to include %q", validation.Missing, tt.missing)
			}
		})
	}

	if n := requests.Load(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

func TestCreatePostMultipart(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/blog" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("title"); got != "Lake View" {
			t.Errorf("title field = %q, want %q", got, "Lake View")
		}
		if got := r.FormValue("description"); got != "so calm" {
			t.Errorf("description field = %q, want %q", got, "so calm")
		}

		var location struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"`
		}
		if err := json.Unmarshal([]byte(r.FormValue("location")), &location); err != nil {
			t.Errorf("location field is not JSON: %v", err)
		} else if location.Type != "Point" || len(location.Coordinates) != 2 ||
			location.Coordinates[0] != 12.34 || location.Coordinates[1] != 56.78 {
			t.Errorf("location field = %+v, want Point [12.34 56.78]", location)
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("image part missing: %v", err)
		} else {
			file.Close()
			if got := header.Header.Get("Content-Type"); got != "image/png" {
				t.Errorf("image part Content-Type = %q, want %q", got, "image/png")
			}
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"p9","title":"Lake View","description":"so calm",
			"imageUrl":"https://img.example.com/p9.png",
			"location":{"type":"Point","coordinates":[12.34,56.78]},"user":"u1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &memoryTokens{token: "tok"})
	post, err := client.CreatePost(context.Background(), domain.Draft{
		Title:       "Lake View",
		Description: "so calm",
		Attachment:  &domain.Attachment{Path: writeImage(t, "photo.png")},
		Geotag:      &domain.Geotag{Longitude: 12.34, Latitude: 56.78},
	})
	if err != nil {
		t.Fatalf("CreatePost() error: %v", err)
	}

	if post.ID != "p9" {
		t.Errorf("created post id = %q, want %q", post.ID, "p9")
	}
	if post.ImageURL == "" {
		t.Error("created post has empty imageUrl")
	}
	if post.Location.Longitude != 12.34 || post.Location.Latitude != 56.78 {
		t.Errorf("created post location = %+v, want the submitted coordinates", post.Location)
	}
}

func TestCreatePostUnknownExtensionFailsBeforeIO(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, &memoryTokens{token: "tok"})
	// The path deliberately does not exist: the extension check must fire
	// before the file is opened.
	_, err := client.CreatePost(context.Background(), domain.Draft{
		Title:       "t",
		Description: "d",
		Attachment:  &domain.Attachment{Path: "/nonexistent/photo.tiff"},
		Geotag:      &domain.Geotag{Longitude: 1, Latitude: 2},
	})
	if err == nil {
		t.Fatal("CreatePost() succeeded with an unsupported extension")
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

func TestUpdatePostOmitsImageWhenUnchanged(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/blog/p1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("title"); got != "New Title" {
			t.Errorf("title field = %q, want %q", got, "New Title")
		}
		if _, _, err := r.FormFile("image"); err == nil {
			t.Error("request carried an image part, want none")
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, &memoryTokens{token: "tok"})
	if err := client.UpdatePost(context.Background(), "p1", "New Title", "New body", nil); err != nil {
		t.Fatalf("UpdatePost() error: %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/blog/p1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, &memoryTokens{token: "tok"})
	if err := client.DeletePost(context.Background(), "p1"); err != nil {
		t.Fatalf("DeletePost() error: %v", err)
	}
}

func TestGetPost(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blog/p1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"_id":"p1","title":"Lake View","description":"calm",
			"imageUrl":"https://img/p1.jpg","location":{"type":"Point","coordinates":[1,2]},"user":"u1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &memoryTokens{token: "tok"})
	post, err := client.GetPost(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPost() error: %v", err)
	}
	if post.ID != "p1" || post.Title != "Lake View" {
		t.Errorf("GetPost() = %+v, want p1 / Lake View", post)
	}
}
