package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"tourblog/internal/api"
	"tourblog/internal/config"
	"tourblog/internal/domain"
	"tourblog/internal/geo"
	"tourblog/internal/session"
	"tourblog/internal/share"
)

const usage = `usage: tourblog <command> [flags]

commands:
  login    -username -password
  signup   -username -password -confirm
  logout
  whoami
  list
  show     -id
  create   -title -description -image [-coords lon,lat]
  edit     -id -title -description [-image]
  delete   -id
  share    -id
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("a command is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := session.NewStore(cfg.SessionPath(), logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	client := api.NewClient(cfg.BackendURL, store)
	pipeline := share.NewPipeline(cfg.CacheDir, &share.CommandSharer{Command: cfg.ShareCommand}, logger)

	newService := func(locator domain.LocationProvider) *domain.BlogService {
		return domain.NewBlogService(client, client, store, locator, pipeline, session.UserID, logger)
	}

	ctx := context.Background()
	command, args := os.Args[1], os.Args[2:]

	switch command {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		username := fs.String("username", envOrDefault("TOURBLOG_USERNAME", ""), "account username")
		password := fs.String("password", envOrDefault("TOURBLOG_PASSWORD", ""), "account password")
		fs.Parse(args)
		if *username == "" || *password == "" {
			return fmt.Errorf("-username and -password are required")
		}
		svc := newService(nil)
		if err := svc.Login(ctx, *username, *password); err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", *username)
		return nil

	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		username := fs.String("username", "", "account username")
		password := fs.String("password", "", "account password")
		confirm := fs.String("confirm", "", "password confirmation")
		fs.Parse(args)
		if *username == "" || *password == "" {
			return fmt.Errorf("-username and -password are required")
		}
		svc := newService(nil)
		if err := svc.Signup(ctx, *username, *password, *confirm); err != nil {
			return err
		}
		fmt.Printf("Account created, logged in as %s\n", *username)
		return nil

	case "logout":
		svc := newService(nil)
		if err := svc.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil

	case "whoami":
		svc := newService(nil)
		if !svc.Authenticated(ctx) {
			fmt.Println("Not logged in")
			return nil
		}
		if id := svc.UserID(ctx); id != "" {
			fmt.Printf("Logged in (user id %s)\n", id)
		} else {
			fmt.Println("Logged in")
		}
		return nil

	case "list":
		svc := newService(nil)
		if err := svc.Refresh(ctx); err != nil {
			return err
		}
		for _, post := range svc.Posts() {
			marker := " "
			if svc.IsMine(post) {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  (%s)\n", marker, post.ID, post.Title, formatCoords(post.Location))
		}
		return nil

	case "show":
		fs := flag.NewFlagSet("show", flag.ExitOnError)
		id := fs.String("id", "", "post id")
		fs.Parse(args)
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		svc := newService(nil)
		post, err := svc.Post(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n%s\nLocation: %s\nImage: %s\n", post.Title, post.Description, formatCoords(post.Location), post.ImageURL)
		return nil

	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		title := fs.String("title", "", "post title")
		description := fs.String("description", "", "post body")
		image := fs.String("image", "", "path to the photo")
		coords := fs.String("coords", "", "explicit lon,lat instead of reading the device position")
		fs.Parse(args)

		locator, err := chooseLocator(*coords, cfg.LocationCommand)
		if err != nil {
			return err
		}
		svc := newService(locator)
		post, err := svc.Create(ctx, *title, *description, *image)
		if err != nil {
			return err
		}
		fmt.Printf("Post created: %s\nImage uploaded: %s\n", post.ID, post.ImageURL)
		return nil

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ExitOnError)
		id := fs.String("id", "", "post id")
		title := fs.String("title", "", "new title")
		description := fs.String("description", "", "new body")
		image := fs.String("image", "", "replacement photo (omit to keep the current one)")
		fs.Parse(args)
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		svc := newService(nil)
		if err := svc.Update(ctx, *id, *title, *description, *image); err != nil {
			return err
		}
		fmt.Println("Post updated")
		return nil

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		id := fs.String("id", "", "post id")
		fs.Parse(args)
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		svc := newService(nil)
		if err := svc.Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Println("Post deleted")
		return nil

	case "share":
		fs := flag.NewFlagSet("share", flag.ExitOnError)
		id := fs.String("id", "", "post id")
		fs.Parse(args)
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		svc := newService(nil)
		if err := svc.SharePost(ctx, *id); err != nil {
			return err
		}
		fmt.Println("Shared")
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// chooseLocator picks the explicit-coordinate provider when -coords is
// given, otherwise the device helper command.
func chooseLocator(coords, locationCommand string) (domain.LocationProvider, error) {
	if coords == "" {
		return &geo.CommandProvider{Command: locationCommand}, nil
	}

	parts := strings.SplitN(coords, ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("-coords must be lon,lat")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", parts[1], err)
	}
	return &geo.FixedProvider{Position: domain.Geotag{Longitude: lon, Latitude: lat}}, nil
}

func formatCoords(g domain.Geotag) string {
	return strconv.FormatFloat(g.Longitude, 'f', -1, 64) + ", " + strconv.FormatFloat(g.Latitude, 'f', -1, 64)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
