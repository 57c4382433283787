// Command stackctl is a CLI client for the stackapi service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"stackapi/internal/client"
	"stackapi/internal/model"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "stackctl")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stackctl")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

// ---- utils ----

type stderrNotifier struct{}

func (stderrNotifier) Success(msg string) { fmt.Fprintln(os.Stderr, msg) }
func (stderrNotifier) Error(msg string)   { fmt.Fprintln(os.Stderr, "error:", msg) }

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		fail(fmt.Errorf("invalid id %q: %w", s, err))
	}
	return id
}

func openFile(p string) io.ReadCloser {
	if p == "-" {
		return os.Stdin
	}
	f, err := os.Open(p)
	if err != nil {
		fail(err)
	}
	return f
}

func usage() {
	fmt.Fprintf(os.Stderr, `stackctl
Usage:
  stackctl -url http://HOST:PORT <cmd> [args]

Commands:
  signup          -email <email> -password <pw> [-name <full name>]
  login           -email <email> -password <pw>      (saves token)
  me
  items list      [-skip n] [-limit n]
  items get       -id <uuid>
  items add       -title <t> [-desc <d>]
  items edit      -id <uuid> [-title <t>] [-desc <d>]
  items rm        -id <uuid>
  items attach    -id <uuid> -file <path|->
  items url       -id <uuid>
  users list      [-skip n] [-limit n]               (superuser)
  users rm        -id <uuid>                         (superuser)
`)
	os.Exit(2)
}

func newClient(url string, withToken bool) *client.Client {
	opts := []client.Option{client.WithNotifier(stderrNotifier{})}
	if withToken {
		tok, err := loadToken()
		if err != nil {
			fail(err)
		}
		opts = append(opts, client.WithToken(tok))
	}
	return client.New(url, opts...)
}

func itemsBinding(c *client.Client) *client.Resource[model.Item, model.ItemCreate, model.ItemUpdate] {
	return client.NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items", client.WithName("Item"))
}

func usersBinding(c *client.Client) *client.Resource[model.User, model.UserCreate, model.UserUpdate] {
	// Deleting a user cascades into that user's items, so drop everything.
	return client.NewResource[model.User, model.UserCreate, model.UserUpdate](c, "/users",
		client.WithName("User"), client.DeleteInvalidatesAll())
}

// main dispatches subcommands against the HTTP API.
func main() {
	url := flag.String("url", "http://localhost:8080", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		name := fs.String("name", "", "full name")
		_ = fs.Parse(rest)
		if *email == "" || *password == "" {
			fail(errors.New("need -email and -password"))
		}

		c := newClient(*url, false)
		u, err := c.Signup(ctx, model.UserRegister{Email: *email, Password: *password, FullName: *name})
		if err != nil {
			fail(err)
		}
		printJSON(u)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		_ = fs.Parse(rest)
		if *email == "" || *password == "" {
			fail(errors.New("need -email and -password"))
		}

		c := newClient(*url, false)
		tok, err := c.Login(ctx, *email, *password)
		if err != nil {
			fail(err)
		}
		if err := saveToken(tok.AccessToken, tok.ExpiresAt); err != nil {
			fail(err)
		}
		fmt.Fprintln(os.Stderr, "logged in, token valid until", tok.ExpiresAt.Format(time.RFC3339))

	case "me":
		c := newClient(*url, true)
		u, err := c.Me(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(u)

	case "items":
		if len(rest) < 1 {
			usage()
		}
		c := newClient(*url, true)
		items := itemsBinding(c)
		sub := rest[0]
		args := rest[1:]

		switch sub {
		case "list":
			fs := flag.NewFlagSet("items list", flag.ExitOnError)
			skip := fs.Int("skip", 0, "offset")
			limit := fs.Int("limit", 100, "page size")
			_ = fs.Parse(args)
			page, err := items.List(ctx, *skip, *limit)
			if err != nil {
				fail(err)
			}
			printJSON(page)

		case "get":
			fs := flag.NewFlagSet("items get", flag.ExitOnError)
			id := fs.String("id", "", "item id")
			_ = fs.Parse(args)
			it, err := items.Get(ctx, parseID(*id))
			if err != nil {
				fail(err)
			}
			printJSON(it)

		case "add":
			fs := flag.NewFlagSet("items add", flag.ExitOnError)
			title := fs.String("title", "", "title")
			desc := fs.String("desc", "", "description")
			_ = fs.Parse(args)
			it, err := items.Create(ctx, model.ItemCreate{Title: *title, Description: *desc})
			if err != nil {
				os.Exit(1)
			}
			printJSON(it)

		case "edit":
			fs := flag.NewFlagSet("items edit", flag.ExitOnError)
			id := fs.String("id", "", "item id")
			title := fs.String("title", "", "title")
			desc := fs.String("desc", "", "description")
			_ = fs.Parse(args)
			in := model.ItemUpdate{}
			if *title != "" {
				in.Title = title
			}
			if *desc != "" {
				in.Description = desc
			}
			it, err := items.Update(ctx, parseID(*id), in)
			if err != nil {
				os.Exit(1)
			}
			printJSON(it)

		case "rm":
			fs := flag.NewFlagSet("items rm", flag.ExitOnError)
			id := fs.String("id", "", "item id")
			_ = fs.Parse(args)
			if err := items.Delete(ctx, parseID(*id)); err != nil {
				os.Exit(1)
			}

		case "attach":
			fs := flag.NewFlagSet("items attach", flag.ExitOnError)
			id := fs.String("id", "", "item id")
			file := fs.String("file", "", "file path or - for stdin")
			_ = fs.Parse(args)
			if *file == "" {
				fail(errors.New("need -file"))
			}
			f := openFile(*file)
			defer f.Close()
			name := *file
			if name == "-" {
				name = "stdin"
			}
			it, err := c.UploadItemAttachment(ctx, parseID(*id), filepath.Base(name), f)
			if err != nil {
				fail(err)
			}
			printJSON(it)

		case "url":
			fs := flag.NewFlagSet("items url", flag.ExitOnError)
			id := fs.String("id", "", "item id")
			_ = fs.Parse(args)
			link, err := c.ItemAttachmentURL(ctx, parseID(*id))
			if err != nil {
				fail(err)
			}
			fmt.Println(link)

		default:
			usage()
		}

	case "users":
		if len(rest) < 1 {
			usage()
		}
		c := newClient(*url, true)
		users := usersBinding(c)
		sub := rest[0]
		args := rest[1:]

		switch sub {
		case "list":
			fs := flag.NewFlagSet("users list", flag.ExitOnError)
			skip := fs.Int("skip", 0, "offset")
			limit := fs.Int("limit", 100, "page size")
			_ = fs.Parse(args)
			page, err := users.List(ctx, *skip, *limit)
			if err != nil {
				fail(err)
			}
			printJSON(page)

		case "rm":
			fs := flag.NewFlagSet("users rm", flag.ExitOnError)
			id := fs.String("id", "", "user id")
			_ = fs.Parse(args)
			if err := users.Delete(ctx, parseID(*id)); err != nil {
				os.Exit(1)
			}

		default:
			usage()
		}

	default:
		usage()
	}
}
