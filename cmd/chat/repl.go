package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"einvoice-assistant-be/internal/bootstrap"
	"einvoice-assistant-be/internal/config"
	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/ai/pipeline"
	"einvoice-assistant-be/pkg/ai/response"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var modelFlag string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive chat session",
	Long: `Starts a chat session against the configured generation backend.

Commands inside the session:
  /lang en|ar     switch language
  /model NAME     switch model (e.g. canned, ollama:llama3, gemini:gemini-2.0-flash)
  /temp VALUE     set sampling temperature
  /filter T [D]   pin table and optional domain, "/filter" alone clears
  /reset          clear the conversation
  /examples       show example questions
  /quit           leave`,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "model name (defaults to LLM_MODEL)")
}

var (
	userColor      = color.New(color.FgCyan, color.Bold)
	assistantColor = color.New(color.FgGreen)
	noticeColor    = color.New(color.FgYellow)
	chartColor     = color.New(color.FgMagenta)
)

func loadConfig() *config.Config {
	cfg := config.Load()
	if dataDirFlag != "" {
		cfg.Data.Dir = dataDirFlag
	}
	return cfg
}

func runRepl(cmd *cobra.Command, _ []string) error {
	code, err := lang.Parse(languageFlag)
	if err != nil {
		return err
	}
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	engine, err := bootstrap.NewEngine(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer engine.Close()

	model := store.ModelConfig{ModelName: cfg.Ai.LLMModel, Temperature: cfg.Ai.Temperature}
	if modelFlag != "" {
		model.ModelName = modelFlag
	}
	session := engine.State.NewSession(uuid.NewString(), code, model)
	assistantColor.Println(session.Turns[0].Text)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		userColor.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, handled := command(engine, session, line)
			if quit {
				return nil
			}
			if handled {
				continue
			}
		}

		result, err := engine.Pipeline.Submit(ctx, session, line)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			noticeColor.Println(err)
			continue
		}
		printResult(result)
	}
}

// command runs a slash command. Lines that look like routing directives
// ("/table:items ...") are not handled here and go to the pipeline.
func command(engine *bootstrap.Engine, s *store.ChatSession, line string) (quit, handled bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, true
	case "/reset":
		engine.State.Reset(s)
		assistantColor.Println(s.Turns[0].Text)
	case "/examples":
		for _, ex := range response.Examples(s.Language) {
			fmt.Println("  -", ex)
		}
	case "/lang":
		if len(fields) < 2 {
			noticeColor.Println("usage: /lang en|ar")
			return false, true
		}
		code, err := lang.Parse(fields[1])
		if err != nil {
			noticeColor.Println(err)
			return false, true
		}
		engine.State.SetLanguage(s, code)
		noticeColor.Printf("language: %s\n", code)
	case "/model":
		if len(fields) < 2 {
			noticeColor.Printf("model: %s\n", s.ModelConfig.ModelName)
			return false, true
		}
		cfg := s.ModelConfig
		cfg.ModelName = fields[1]
		engine.State.SetModelConfig(s, cfg)
		noticeColor.Printf("model: %s\n", cfg.ModelName)
	case "/temp":
		if len(fields) < 2 {
			noticeColor.Println("usage: /temp 0.3")
			return false, true
		}
		t, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || t < 0 || t > 2 {
			noticeColor.Println("temperature must be between 0 and 2")
			return false, true
		}
		cfg := s.ModelConfig
		cfg.Temperature = t
		engine.State.SetModelConfig(s, cfg)
	case "/filter":
		f := store.Filters{}
		if len(fields) > 1 {
			if _, ok := engine.Taxonomy.Table(fields[1]); !ok {
				noticeColor.Printf("unknown table %q\n", fields[1])
				return false, true
			}
			f.TableID = fields[1]
		}
		if len(fields) > 2 {
			if _, ok := engine.Taxonomy.Domain(fields[2]); !ok {
				noticeColor.Printf("unknown domain %q\n", fields[2])
				return false, true
			}
			f.DomainID = fields[2]
		}
		engine.State.SetFilters(s, f)
	default:
		return false, false
	}
	return false, true
}

func printResult(r *pipeline.TurnResult) {
	if r.Outcome == pipeline.OutcomeAnswered || r.Outcome == pipeline.OutcomeClarify {
		assistantColor.Println(r.Reply)
	} else {
		noticeColor.Println(r.Reply)
	}
	if r.Route != nil {
		color.New(color.Faint).Printf("[%s/%s via %s]\n", r.Route.TableID, r.Route.DomainID, r.Via)
	}
	if r.Chart != nil {
		printChart(r.Chart)
	}
}

func printChart(c *store.VisualizationSpec) {
	chartColor.Printf("%s (%s)\n", c.Title, c.ChartFamily)
	top := 0.0
	for _, p := range c.Series {
		if p.Value > top {
			top = p.Value
		}
	}
	for _, p := range c.Series {
		width := 0
		if top > 0 {
			width = int(p.Value / top * 30)
		}
		label := p.Label
		if p.RegionCode != "" {
			label = p.RegionCode + " " + label
		}
		fmt.Printf("  %-24s %s %.2f\n", label, strings.Repeat("█", width), p.Value)
	}
}
