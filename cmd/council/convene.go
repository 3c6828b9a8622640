package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coreason/council/archive"
	"github.com/coreason/council/core/ballot"
	"github.com/coreason/council/council"
	"github.com/coreason/council/invoker"
	"github.com/coreason/council/persona"
)

var (
	convenePersonas  []string
	conveneModel     string
	conveneRounds    int
	conveneThreshold float64
	conveneArchive   string
	conveneTrace     bool
	conveneOffline   bool
)

var conveneCmd = &cobra.Command{
	Use:   "convene [topic]",
	Short: "Run a deliberation on a topic",
	Long: `Convene a persona panel on the given topic and print the verdict.

The panel comes from --personas, then the config, then keyword matching
on the topic.

Examples:
  council convene "Should we adopt GraphQL?" --personas Architect,Security,QA
  council convene "Is the new dose safe for patients?" --config council.json
  council convene "Ship the release?" --max-rounds 5 --threshold 0.8
  council convene "Smoke test" --offline --show-trace`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvene,
}

func init() {
	conveneCmd.Flags().StringSliceVar(&convenePersonas, "personas", nil, "Panel members (comma-separated)")
	conveneCmd.Flags().StringVar(&conveneModel, "model", "", "Backend model (overrides config)")
	conveneCmd.Flags().IntVar(&conveneRounds, "max-rounds", 0, "Maximum debate rounds (overrides config)")
	conveneCmd.Flags().Float64Var(&conveneThreshold, "threshold", 0, "Consensus threshold in [0,1] (overrides config)")
	conveneCmd.Flags().StringVar(&conveneArchive, "archive", "", "Directory for session traces")
	conveneCmd.Flags().BoolVar(&conveneTrace, "show-trace", false, "Print the full session transcript")
	conveneCmd.Flags().BoolVar(&conveneOffline, "offline", false, "Run without a backend; every persona concurs")
}

func runConvene(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	runCfg := *cfg
	if len(convenePersonas) > 0 {
		runCfg.Personas = convenePersonas
	}
	if len(runCfg.Personas) == 0 {
		runCfg.Personas = persona.SelectPanel(topic)
	}
	if conveneModel != "" {
		runCfg.Gateway.Model = conveneModel
	}
	if conveneRounds > 0 {
		runCfg.MaxRounds = conveneRounds
	}
	if cmd.Flags().Changed("threshold") {
		runCfg.ConsensusThresholdNil = &conveneThreshold
	}

	var opts []council.Option
	if conveneOffline {
		opts = append(opts, council.WithInvoker(offlineInvoker()))
	} else if runCfg.Gateway.BaseURL == "" {
		return errors.New("no gateway configured: set gateway.base_url in the config or pass --offline")
	}
	if conveneArchive != "" {
		opts = append(opts, council.WithArchive(archive.NewFileStore(conveneArchive)))
	}

	engine, err := council.New(&runCfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Convening %s on: %s\n\n", strings.Join(runCfg.Personas, ", "), topic)

	session, err := engine.Deliberate(ctx, topic)
	if session != nil {
		printOutcome(session)
		if conveneTrace {
			printTranscript(session)
		}
		if conveneArchive != "" {
			fmt.Printf("\nTrace archived to %s\n", conveneArchive)
		}
	}
	return err
}

func printOutcome(session *ballot.Session) {
	fmt.Printf("Status: %s\n", session.Status())
	for _, r := range session.Rounds() {
		fmt.Printf("Round %d: %d votes, %d failures, entropy %.2f\n",
			r.Index+1, len(r.Votes), len(r.Failures), r.Entropy)
	}

	verdict := session.Verdict()
	if verdict == nil {
		return
	}

	fmt.Printf("\nVerdict: %s\n", verdict.Text)
	fmt.Printf("Confidence score: %.3f\n", verdict.Confidence)
	if verdict.Dissent != "" {
		fmt.Printf("Dissent: %s\n", verdict.Dissent)
	}

	fmt.Println("\nVotes:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROPOSER\tCONFIDENCE\tPOSITION")
	for _, v := range verdict.Votes {
		fmt.Fprintf(w, "%s\t%.2f\t%s\n", v.Proposer, v.Confidence, truncate(v.Content, 60))
	}
	w.Flush()
}

func printTranscript(session *ballot.Session) {
	fmt.Println("\nTranscript:")
	for _, entry := range session.Transcript() {
		fmt.Printf("[%s] %s %s: %s\n",
			entry.Timestamp.Format("15:04:05.000"), entry.Actor, entry.Action, truncate(entry.Content, 120))
	}
}

// offlineInvoker answers every persona locally so the debate machinery
// can run without a configured backend.
func offlineInvoker() invoker.Invoker {
	return &invoker.StaticInvoker{
		Respond: func(p persona.Persona, topic, roundContext string) ballot.Vote {
			return ballot.Vote{
				Proposer:   p.Name,
				Content:    "No objection raised in offline mode.",
				Confidence: 0.9,
			}
		},
	}
}
