// Command lore is the CLI for the persistent knowledge store: it stores
// topic-scoped entries, queries them by relevance, corrects or deletes them,
// and assembles session-start briefings.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/entrhq/lore/pkg/config"
	"github.com/entrhq/lore/pkg/knowledge"
	"github.com/entrhq/lore/pkg/logging"
)

const version = "0.1.0"

const usage = `lore %s — persistent knowledge store for coding agents

Usage:
  lore store    -topic <topic> -title <title> -content <text> [flags]
  lore query    [-scope <scope>] [-filter <expr>] [-branch <name|*>] [-detail]
  lore correct  -id <id> -action <delete|append|replace> [-text <correction>]
  lore stats
  lore briefing [-budget <tokens>] [-precise-tokens]
  lore search   -context <text> [-max <n>] [-branch <name|*>] [-min-ratio <r>]
  lore version

Common flags (every subcommand):
  -repo <path>    repository root (default ".")
  -config <path>  config file (default <repo>/.lore.yaml)
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, usage, version)
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Println("lore " + version)
		return 0
	case "help", "-h", "--help":
		fmt.Printf(usage, version)
		return 0
	case "store", "query", "correct", "stats", "briefing", "search":
		return runOperation(cmd, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprintf(os.Stderr, usage, version)
		return 2
	}
}

func runOperation(cmd string, args []string) int {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	repo := fs.String("repo", ".", "repository root")
	configPath := fs.String("config", "", "config file path (default <repo>/.lore.yaml)")

	topic := fs.String("topic", "", "entry topic")
	title := fs.String("title", "", "entry title")
	content := fs.String("content", "", "entry content")
	trust := fs.String("trust", "agent-inferred", "trust level: user, agent-confirmed, agent-inferred")
	sources := fs.String("sources", "", "comma-separated provenance file paths")
	refs := fs.String("refs", "", "comma-separated file/symbol references")
	tags := fs.String("tags", "", "comma-separated tags")

	scope := fs.String("scope", "*", "topic scope (*, a topic, or a modules/* pattern)")
	filterExpr := fs.String("filter", "", "filter expression")
	branch := fs.String("branch", "", "branch filter for recent-work (empty = current, * = all)")
	detail := fs.Bool("detail", false, "print entry content under each match")

	id := fs.String("id", "", "entry id")
	action := fs.String("action", "", "correction action: delete, append, replace")
	text := fs.String("text", "", "correction text")

	budget := fs.Int("budget", 2000, "briefing token budget")
	preciseTokens := fs.Bool("precise-tokens", false, "use a real BPE token count for the briefing budget")

	contextText := fs.String("context", "", "free-text context to match against")
	maxResults := fs.Int("max", 10, "maximum results")
	minRatio := fs.Float64("min-ratio", 0.2, "minimum keyword match ratio")

	_ = fs.Parse(args)

	logger, _ := logging.New("cli")
	defer logger.Close()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = *repo + "/.lore.yaml"
	}
	file, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	cfg, warnings := file.Resolve(*repo)
	for _, w := range warnings {
		logger.Warnf("config: %s", w)
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	if *preciseTokens {
		if est, err := knowledge.NewTiktokenEstimator(); err == nil {
			cfg.Tokens = est
		} else {
			logger.Warnf("tiktoken unavailable, using heuristic estimator: %v", err)
		}
	}

	store := knowledge.NewStore(cfg)
	defer store.Flush()
	ctx := context.Background()

	switch cmd {
	case "store":
		return cmdStore(ctx, store, logger, *topic, *title, *content, *trust, *sources, *refs, *tags)
	case "query":
		renderQuery(store.Query(ctx, *scope, *filterExpr, *branch), *detail)
		return 0
	case "correct":
		return cmdCorrect(ctx, store, *id, *action, *text)
	case "stats":
		renderStats(store.Stats(ctx))
		return 0
	case "briefing":
		renderBriefing(store.Briefing(ctx, *budget))
		return 0
	case "search":
		renderSearch(store.ContextSearch(ctx, *contextText, *maxResults, *branch, *minRatio))
		return 0
	}
	return 2
}

func cmdStore(ctx context.Context, store *knowledge.Store, logger *logging.Logger,
	rawTopic, title, content, rawTrust, sources, refs, tags string) int {
	topic, ok := knowledge.ParseTopic(rawTopic)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: invalid topic %q\n", rawTopic)
		return 2
	}
	trust, ok := knowledge.ParseTrust(rawTrust)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: invalid trust %q\n", rawTrust)
		return 2
	}
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(os.Stderr, "error: -title is required")
		return 2
	}

	result := store.Store(ctx, knowledge.StoreParams{
		Topic:      topic,
		Title:      title,
		Content:    content,
		Trust:      trust,
		Sources:    splitCSV(sources),
		References: splitCSV(refs),
		Tags:       splitCSV(tags),
	})
	logger.Infof("store topic=%s stored=%v id=%s", topic, result.Stored, result.ID)
	renderStore(result)
	if !result.Stored {
		return 1
	}
	return 0
}

func cmdCorrect(ctx context.Context, store *knowledge.Store, id, rawAction, text string) int {
	action, ok := knowledge.ParseCorrectionAction(rawAction)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: invalid action %q\n", rawAction)
		return 2
	}
	result := store.Correct(ctx, id, text, action)
	renderCorrect(result)
	if !result.Corrected {
		return 1
	}
	return 0
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
