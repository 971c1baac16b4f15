// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - the interactive chat loop.
//
// Interactive commands:
//   /help, /h           Show available commands
//   /clear, /c          Clear the conversation
//   /model [name]       Show or switch the model
//   /models [provider]  List known models
//   /attach <path>      Stage a file for the next message
//   /attachments        List staged attachments
//   /detach             Drop all staged attachments
//   /history            Show the conversation
//   /settings           Show current settings
//   /quit, /q           Exit
//   Ctrl+C              Cancel the current response
//   Ctrl+D              Exit

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/breathai/breath/internal/chat"
	"github.com/breathai/breath/internal/files"
	"github.com/breathai/breath/internal/model"
)

// =============================================================================
// SESSION
// =============================================================================

// Session holds the state of one interactive run. Settings are read
// through the store so live config reloads show up here too.
type Session struct {
	store  *chat.Store
	input  *InputReader
	logger *zap.Logger

	// Files staged for the next message.
	pending []*files.Attachment

	startTime time.Time
	sends     int
}

// NewSession creates an interactive session over a conversation store.
func NewSession(store *chat.Store, logger *zap.Logger) *Session {
	return &Session{
		store:     store,
		input:     NewInputReader(),
		logger:    logger,
		startTime: time.Now(),
	}
}

// Run drives the REPL until the user exits.
func (s *Session) Run(ctx context.Context) error {
	defer s.input.Close()

	s.printWelcome()

	// First Ctrl+C during a response cancels it; at the prompt, liner
	// reports it as ErrPromptAborted.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			s.store.Cancel()
		}
	}()

	for {
		input, err := s.input.ReadInput(promptStyle.Render("breath> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println()
				continue
			}
			// Ctrl+D or a closed terminal ends the session.
			fmt.Println()
			s.printGoodbye()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			keepGoing, err := s.handleCommand(input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				s.printGoodbye()
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			s.printGoodbye()
			return nil
		}

		if err := s.send(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// SENDING
// =============================================================================

// send dispatches one user turn and streams the reply to stdout.
func (s *Session) send(ctx context.Context, text string) error {
	atts := s.pending
	s.pending = nil

	fmt.Println()
	start := time.Now()
	err := s.store.SendMessage(ctx, text, atts, func(delta string) {
		fmt.Print(delta)
	})
	fmt.Println()
	fmt.Println()

	if err != nil {
		// Restage the files so a transient failure doesn't lose them.
		s.pending = atts
		return err
	}

	s.sends++
	if s.store.Settings().ShowTimestamps {
		fmt.Fprintln(os.Stderr, infoStyle.Render(
			fmt.Sprintf("[%s | %s]", s.store.CurrentModel(), time.Since(start).Round(time.Millisecond))))
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand processes a slash command. A false result exits.
func (s *Session) handleCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		s.printHelp()
		return true, nil

	case "/clear", "/c":
		s.store.ClearMessages()
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/model", "/m":
		return true, s.handleModel(args)

	case "/models":
		s.printModels(args)
		return true, nil

	case "/attach", "/a":
		if len(args) == 0 {
			return true, fmt.Errorf("usage: /attach <path>")
		}
		return true, s.attach(strings.Join(args, " "))

	case "/attachments":
		s.printAttachments()
		return true, nil

	case "/detach":
		n := len(s.pending)
		s.pending = nil
		fmt.Println(commandStyle.Render(fmt.Sprintf("[Dropped %d staged file(s)]", n)))
		return true, nil

	case "/history":
		s.printHistory()
		return true, nil

	case "/settings":
		s.printSettings()
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleModel shows or switches the current model.
func (s *Session) handleModel(args []string) error {
	if len(args) == 0 {
		current := s.store.CurrentModel()
		fmt.Printf("%s %s (%s)\n",
			infoStyle.Render("[Model]"),
			commandStyle.Render(current),
			model.DisplayName(current))
		return nil
	}

	name := args[0]
	if _, known := model.Lookup(name); !known {
		fmt.Fprintf(os.Stderr, "%s model %q is not in the catalog, sending it verbatim\n",
			warningStyle.Render("[Warning]"), name)
	}
	s.store.SetCurrentModel(name)
	fmt.Printf("%s Switched to model: %s\n", commandStyle.Render("[OK]"), name)
	return nil
}

// attach stages a file for the next message.
func (s *Session) attach(path string) error {
	att, err := files.Open(path)
	if err != nil {
		return err
	}
	s.pending = append(s.pending, att)
	fmt.Printf("%s %s\n", commandStyle.Render("[Attached]"), att.Describe())
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (s *Session) printWelcome() {
	cfg := s.store.Settings()

	fmt.Println()
	fmt.Println(welcomeStyle.Render("breath interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(s.store.CurrentModel()))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Endpoint:"),
		commandStyle.Render(cfg.APIEndpoint))
	if cfg.APIKey == "" {
		fmt.Printf("%s %s\n",
			infoStyle.Render("API key:"),
			warningStyle.Render("not set (export BREATH_API_KEY or edit ~/.breath/config.toml)"))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func (s *Session) printHelp() {
	fmt.Println()
	fmt.Println(headerStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear the conversation"},
		{"/model [name]", "Show or switch the model"},
		{"/models [provider]", "List known models"},
		{"/attach <path>", "Stage a file for the next message"},
		{"/attachments", "List staged attachments"},
		{"/detach", "Drop all staged attachments"},
		{"/history", "Show the conversation"},
		{"/settings", "Show current settings"},
		{"/quit, /q", "Exit"},
	}
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-20s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels the current response, Ctrl+D exits"))
	fmt.Println()
}

// printModels lists the catalog, optionally for one provider.
func (s *Session) printModels(args []string) {
	providers := model.Providers()
	if len(args) > 0 {
		providers = []string{args[0]}
	}

	fmt.Println()
	for _, p := range providers {
		entries := model.ByProvider(p)
		if len(entries) == 0 {
			fmt.Fprintf(os.Stderr, "%s no models for provider %q\n", warningStyle.Render("[Warning]"), p)
			continue
		}
		fmt.Println(headerStyle.Render(entries[0].Provider))
		for _, m := range entries {
			marker := "  "
			if m.ID == s.store.CurrentModel() {
				marker = commandStyle.Render("* ")
			}
			fmt.Printf("%s%-40s %s\n", marker, m.ID, infoStyle.Render(m.Description))
		}
		fmt.Println()
	}
}

func (s *Session) printAttachments() {
	if len(s.pending) == 0 {
		fmt.Println(infoStyle.Render("[No files staged]"))
		return
	}
	fmt.Println()
	for i, att := range s.pending {
		fmt.Printf("  %d. %s\n", i+1, att.Describe())
	}
	fmt.Println()
}

func (s *Session) printHistory() {
	msgs := s.store.Messages()
	if len(msgs) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	showTimestamps := s.store.Settings().ShowTimestamps

	fmt.Println()
	fmt.Println(headerStyle.Render("Conversation History"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, msg := range msgs {
		role := msg.Role.DisplayName()
		switch msg.Role {
		case model.RoleUser:
			role = promptStyle.Render(role)
		case model.RoleAssistant:
			role = welcomeStyle.Render(role)
		default:
			role = warningStyle.Render(role)
		}

		content := strings.ReplaceAll(msg.Preview(100), "\n", " ")
		if showTimestamps {
			fmt.Printf("  %d. [%s] %s: %s\n", i+1, msg.Timestamp.Format("15:04:05"), role, content)
		} else {
			fmt.Printf("  %d. %s: %s\n", i+1, role, content)
		}
		for _, att := range msg.Attachments {
			fmt.Printf("       %s %s (%s)\n", infoStyle.Render("+"), att.Name, files.FormatSize(att.Size))
		}
	}
	fmt.Println()
}

func (s *Session) printSettings() {
	cfg := s.store.Settings()

	masked := "[not set]"
	if cfg.APIKey != "" {
		masked = fmt.Sprintf("[set, length=%d]", len(cfg.APIKey))
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Settings"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))
	fmt.Printf("  %s %s\n", infoStyle.Render("API key:"), masked)
	fmt.Printf("  %s %s\n", infoStyle.Render("Endpoint:"), cfg.APIEndpoint)
	fmt.Printf("  %s %.2f\n", infoStyle.Render("Temperature:"), cfg.Temperature)
	fmt.Printf("  %s %d\n", infoStyle.Render("Max tokens:"), cfg.MaxTokens)
	fmt.Printf("  %s %v\n", infoStyle.Render("Auto-save:"), cfg.AutoSave)
	fmt.Printf("  %s %v\n", infoStyle.Render("Timestamps:"), cfg.ShowTimestamps)
	if cfg.SystemPrompt != "" {
		fmt.Printf("  %s %s\n", infoStyle.Render("System prompt:"), cfg.SystemPrompt)
	}
	fmt.Println()
}

func (s *Session) printGoodbye() {
	if s.sends > 0 {
		elapsed := time.Since(s.startTime).Round(time.Second)
		fmt.Println(infoStyle.Render(
			fmt.Sprintf("%d message(s) in %s.", s.sends, elapsed)))
	}
	fmt.Println(infoStyle.Render("Goodbye!"))
}
