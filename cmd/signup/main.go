package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"task-manager/internal/api"
	"task-manager/internal/models"
	"task-manager/internal/session"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name (optional)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	apiURL := fs.String("api", api.DefaultBaseURL, "Backend base URL")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: signup -email <email> [-name <name>] [-password <password>] [-api <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	// Allow overriding the backend URL via env var if the flag default is used
	if url := os.Getenv("API_URL"); url != "" && *apiURL == api.DefaultBaseURL {
		*apiURL = url
	}

	// Throwaway session store: the tool creates the account and exits
	// without keeping a session.
	store, err := session.NewStore(":memory:", false)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	client := api.NewClient(*apiURL, store)
	resp, err := client.Signup(context.Background(), discardResponse{}, models.SignupRequest{
		Email:    strings.TrimSpace(*email),
		Password: password,
		Name:     strings.TrimSpace(*name),
	})
	if err != nil {
		return fmt.Errorf("signup failed: %s", api.ErrorMessage(err))
	}

	fmt.Fprintf(stdout, "Account created for %s with ID %s\n", resp.User.Email, resp.User.ID)
	return nil
}

// discardResponse absorbs the session cookie the client sets on signup.
type discardResponse struct{}

func (discardResponse) Header() http.Header       { return http.Header{} }
func (discardResponse) Write(b []byte) (int, error) { return len(b), nil }
func (discardResponse) WriteHeader(int)           {}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
