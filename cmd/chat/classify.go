package main

import (
	"fmt"
	"strings"

	"einvoice-assistant-be/internal/bootstrap"
	"einvoice-assistant-be/pkg/ai/classifier"
	"einvoice-assistant-be/pkg/ai/router"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify QUERY",
	Short: "Show the candidates and routing decision for a query",
	Long:  `Runs the classifier and ambiguity resolver on a query without calling any generation backend.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	code, err := lang.Parse(languageFlag)
	if err != nil {
		return err
	}
	cfg := loadConfig()
	tx, err := bootstrap.LoadTaxonomy(cfg)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	cls := classifier.New(tx, classifier.Config{
		FollowUpConfidence: cfg.Routing.FollowUpConfidence,
		FollowUpBoost:      cfg.Routing.FollowUpBoost,
	})
	resolver := router.NewResolver(tx, cls, router.Config{
		Threshold:   cfg.Routing.Threshold,
		Margin:      cfg.Routing.Margin,
		TopN:        cfg.Routing.TopN,
		MaxAttempts: cfg.Routing.MaxAttempts,
		TTL:         cfg.Routing.ClarificationTTL,
	})

	session := &store.ChatSession{Language: code}
	candidates := cls.Classify(query, classifier.ContextOf(session))
	if len(candidates) == 0 {
		color.Yellow("no candidates")
	}
	for i, c := range candidates {
		fmt.Printf("%d. %-12s %-20s %.2f  %s\n", i+1, c.TableID, c.DomainID, c.Confidence, strings.Join(c.MatchedTerms, ", "))
	}

	switch d := resolver.Route(query, session).(type) {
	case router.Proceed:
		color.Green("proceed: %s/%s via %s", d.Candidate.TableID, d.Candidate.DomainID, d.Via)
	case router.Clarify:
		color.Yellow("clarify between %d candidates", len(d.Candidates))
	case router.NoMatch:
		color.Red("no match")
	}
	return nil
}
