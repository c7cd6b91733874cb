package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/specsprite/internal/engine"
	"github.com/ziadkadry99/specsprite/internal/prd"
	"github.com/ziadkadry99/specsprite/internal/progress"
)

var chatOut string

var (
	replyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF"))
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
)

var chatCmd = &cobra.Command{
	Use:   "chat [idea]",
	Short: "Describe a project interactively in the terminal",
	Long: `Starts a conversation in the terminal. Answer the follow-up questions
until the document is ready; it is then printed and, with --out, written to
a file (.md, .json or .html). Type /info for the session summary or /quit
to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(true)
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		rt, err := buildRuntime(cfg, nil)
		if err != nil {
			return err
		}
		defer rt.Close()

		return runChat(cmd.Context(), rt.engine, os.Stdout, strings.Join(args, " "))
	},
}

func runChat(ctx context.Context, eng *engine.Engine, w io.Writer, first string) error {
	gauge := progress.NewGauge(w)
	sessionID := ""
	input := first

	for {
		if input == "" {
			line, err := (&promptui.Prompt{Label: "You"}).Run()
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			input = strings.TrimSpace(line)
		}

		switch input {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/info":
			if info, err := eng.SessionInfo(sessionID); err == nil {
				fmt.Fprintln(w, hintStyle.Render(info.String()))
			} else {
				fmt.Fprintln(w, hintStyle.Render("No conversation yet."))
			}
			input = ""
			continue
		}

		out, err := eng.Process(ctx, engine.Input{UserInput: input, SessionID: sessionID})
		input = ""
		if errors.Is(err, engine.ErrInvalidInput) {
			fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("Please keep each message between 1 and %d characters.", engine.MaxInputRunes)))
			continue
		}
		if err != nil {
			fmt.Fprintln(w, errorStyle.Render(err.Error()))
			continue
		}
		sessionID = out.SessionID

		renderOutput(w, out)
		if info, err := eng.SessionInfo(sessionID); err == nil {
			gauge.Update(info.ReadinessScore, "Readiness")
		}

		if out.Type == engine.TypePRD {
			if chatOut != "" {
				if err := writeDocument(chatOut, out.Content.PRD); err != nil {
					return err
				}
				fmt.Fprintln(w, doneStyle.Render("Document written to "+chatOut))
			}
			return nil
		}
	}
}

// renderOutput prints one engine reply.
func renderOutput(w io.Writer, out *engine.Output) {
	fmt.Fprintln(w, replyStyle.Render(out.Content.Message))
	for i, q := range out.Content.Questions {
		fmt.Fprintln(w, questionStyle.Render(fmt.Sprintf("  %d. %s", i+1, q)))
	}

	if out.Type == engine.TypePRD && out.Content.PRD != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, prd.Markdown(out.Content.PRD))
		return
	}
	for _, s := range out.Content.Suggestions {
		fmt.Fprintln(w, hintStyle.Render("  - "+s))
	}
	if d := out.Content.DebugInfo; d != nil && verbose {
		fmt.Fprintln(w, hintStyle.Render(fmt.Sprintf("[%s | %s]", d.Persona, d.Reasoning)))
	}
}

// writeDocument saves the document in the format implied by the file
// extension. Anything other than .json or .html is written as Markdown.
func writeDocument(path string, doc *prd.Document) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(doc, "", "  ")
	case ".html", ".htm":
		data, err = prd.HTML(doc)
	default:
		data = []byte(prd.Markdown(doc))
	}
	if err != nil {
		return fmt.Errorf("rendering document: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func init() {
	chatCmd.Flags().StringVarP(&chatOut, "out", "o", "", "write the finished document to this file")
	rootCmd.AddCommand(chatCmd)
}
