// persona-tui - A terminal client for chatting with AI characters.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/persona-tui/internal/config"
	"github.com/jeranaias/persona-tui/internal/model"
	"github.com/jeranaias/persona-tui/internal/offline"
	"github.com/jeranaias/persona-tui/internal/provider"
	"github.com/jeranaias/persona-tui/internal/render"
	"github.com/jeranaias/persona-tui/internal/storage"
	"github.com/jeranaias/persona-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		askFlag       = flag.String("ask", "", "ask one question and print the reply to stdout")
		characterFlag = flag.String("character", "", "character to use, by name or roster index")
		versionFlag   = flag.Bool("version", false, "print version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("persona-tui %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging()

	store, err := storage.NewStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}

	if *askFlag != "" {
		runAsk(cfg, store, *characterFlag, *askFlag)
		return
	}

	runTUI(cfg, store, *characterFlag)
}

// setupLogging routes the standard logger to a file under the app home
// dir. Stdout belongs to the interface, and API request logging must
// not corrupt it. Logging is silenced when the file cannot be opened.
func setupLogging() {
	dir, err := config.ConfigDir()
	if err != nil || config.EnsureConfigDir() != nil {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
}

// runTUI starts the interactive interface.
func runTUI(cfg *config.Config, store *storage.Store, characterRef string) {
	runner := chat.NewStreamRunner()

	m, err := chat.New(cfg, store, runner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	runner.SetProgram(p)

	// Live config reload: edits to ~/.persona/config.toml apply without a
	// restart. Watcher failures are not fatal, the session just runs with
	// the config it started with.
	if path, err := config.ConfigPath(); err == nil {
		watcher, err := config.NewWatcher(path,
			func(updated *config.Config) {
				p.Send(chat.ConfigReloadedMsg{Config: updated})
			},
			func(err error) {
				p.Send(chat.ConfigReloadErrorMsg{Err: err})
			},
		)
		if err == nil && watcher.Watch() == nil {
			defer watcher.Close()
		}
	}

	// A character named on the command line overrides the default
	// selection once the program is up.
	if characterRef != "" {
		if ch, err := store.FindCharacter(characterRef); err == nil {
			if conv, err := store.LoadConversation(ch); err == nil {
				go p.Send(chat.CharacterSwitchedMsg{Character: ch, Conversation: conv})
			}
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running persona-tui: %v\n", err)
		os.Exit(1)
	}
}

// runAsk answers a single question and prints the rendered reply.
// Nothing is persisted.
func runAsk(cfg *config.Config, store *storage.Store, characterRef, question string) {
	roster, err := store.LoadCharacters()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading characters: %v\n", err)
		os.Exit(1)
	}
	if len(roster) == 0 {
		fmt.Fprintln(os.Stderr, "No characters available.")
		os.Exit(1)
	}

	ch := roster[0]
	if characterRef != "" {
		found, err := store.FindCharacter(characterRef)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unknown character: %s\n", characterRef)
			os.Exit(1)
		}
		ch = found
	}

	reply, err := fetchReply(cfg, ch, question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	renderer := render.NewIncremental(render.DefaultWidth)
	fmt.Println(renderer.Render(reply))
}

// fetchReply gets one answer from the provider, or from the canned
// tables when no provider is configured.
func fetchReply(cfg *config.Config, ch *model.Character, question string) (string, error) {
	if !cfg.IsProviderConfigured() {
		return offline.NewPicker().Pick(ch.Name), nil
	}

	client := provider.NewClient(cfg.ToProviderConfig().Normalize())
	messages := []provider.ChatMessage{
		provider.NewSystemMessage(ch.SystemPrompt()),
		provider.NewUserMessage(question),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp, err := client.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.GetContent(), nil
}
