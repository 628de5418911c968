package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gerunddev/notematrix/internal/commands"
	"github.com/gerunddev/notematrix/internal/config"
	"github.com/gerunddev/notematrix/internal/styles"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var run func(context.Context, *commands.Env, []string) int
	switch command {
	case "open", "edit":
		run = commands.Open
	case "show":
		run = commands.Show
	case "fmt":
		run = commands.Fmt
	case "add":
		run = commands.Add
	case "move", "mv":
		run = commands.Move
	case "remove", "rm":
		run = commands.Remove
	case "scan":
		run = commands.Scan
	case "list", "ls":
		run = commands.List
	case "init":
		run = commands.Init
	case "version", "-v", "--version":
		fmt.Printf("notematrix v%s\n", version)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	env, cleanup, err := commands.Setup(os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("✗ Error: "+err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, env, args)
	stop()
	cleanup()
	os.Exit(code)
}

func printUsage() {
	usage := fmt.Sprintf(`notematrix - Eisenhower matrix notes for a markdown vault

Usage:
  notematrix <command> <note> [options]

Commands:
  open        Edit a matrix note in the terminal, following outside changes
  show        Print a matrix note (--ids to show item ids)
  fmt         Rewrite a note in canonical form (--check, --diff, --plain)
  add         Add an item (--section todo|q1-q4|done, --index n)
  move        Move an item to a section (--index n)
  remove      Remove an item
  scan        List notes tagged for the matrix (--import, --pick)
  list        List matrix notes in the vault
  init        Create an empty matrix note (--tag, --include, --force)
  version     Show version information
  help        Show this help message

Every command accepts --vault <dir> to override the configured vault.

Examples:
  notematrix init weekly
  notematrix scan weekly --import
  notematrix open weekly
  notematrix add weekly --section q2 "Plan the quarter"
  notematrix move weekly "Plan the quarter" done
  notematrix fmt weekly --diff

Configuration:
  Config file: %s

For more information, visit: https://github.com/gerunddev/notematrix
`, config.ConfigPath())
	fmt.Print(usage)
}
