// Command seed-admin creates an admin-realm account. Run it once against
// a fresh deployment so the admin login endpoint has a credential to probe.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/zonemap/zonemap/internal/auth"
	"github.com/zonemap/zonemap/internal/model"
	"github.com/zonemap/zonemap/internal/repository"
)

type output struct {
	AdminID  int64  `json:"admin_id"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "admin@zonemap.local", "Admin email")
		password    = flag.String("password", "", "Admin password (generated when empty)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	generated := false
	if *password == "" {
		// A ULID gives 26 chars of entropy, plenty for a bootstrap credential.
		*password = strings.ToLower(ulid.Make().String())
		generated = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	admin := &model.Admin{
		Email:        *email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := repo.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			fmt.Fprintf(os.Stderr, "admin %s already exists\n", *email)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "create admin:", err)
		os.Exit(1)
	}

	out := output{AdminID: admin.ID, Email: admin.Email}
	if generated {
		out.Password = *password
	}

	switch strings.ToLower(*format) {
	case "plain":
		if generated {
			fmt.Println(out.Password)
		} else {
			fmt.Println(out.AdminID)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
