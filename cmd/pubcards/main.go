package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eringen/pubcards"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "cards":
		err = runCards(os.Args[2:], os.Stdout)
	case "config":
		err = runConfig(os.Args[2:], os.Stdout)
	case "version":
		fmt.Printf("pubcards %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runCards prints the meta tags the server would emit for a published post.
func runCards(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("cards", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	dbPath := fs.String("db", "", "SQLite database (overrides the config)")
	unlocked := fs.Bool("unlocked", false, "render a protected post as if unlocked")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: pubcards cards [-config file] [-db path] [-unlocked] <slug>")
	}
	slug := fs.Arg(0)

	cfg, err := pubcards.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	app := pubcards.New(cfg, pubcards.ViewFuncs{})
	if err := app.Open(); err != nil {
		return err
	}
	defer app.Close()

	post, err := app.Cache.GetPost(slug)
	if err != nil {
		if errors.Is(err, pubcards.ErrNotFound) {
			return fmt.Errorf("no published post %q", slug)
		}
		return err
	}
	meta := app.PostMeta(post, *unlocked)
	out, err := pubcards.RenderString(context.Background(), meta.Head())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// runConfig prints the effective configuration with secrets redacted.
func runConfig(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := pubcards.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.AdminPassword != "" {
		cfg.AdminPassword = "[redacted]"
	}
	if cfg.SessionSecret != "" {
		cfg.SessionSecret = "[redacted]"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func printUsage() {
	fmt.Println(`pubcards - A blog engine with Open Graph and Twitter Card tags

Usage:
  pubcards <command> [arguments]

Commands:
  cards <slug>  Print the meta tags of a published post
  config        Print the effective configuration
  version       Print the pubcards version
  help          Show this help message

Examples:
  pubcards cards -db data/blog.db hello-world
  SITE_URL=https://example.com pubcards config -config site.yaml`)
}
