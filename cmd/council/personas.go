package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coreason/council/persona"
)

var personasAll bool

var personasCmd = &cobra.Command{
	Use:   "personas [topic]",
	Short: "Show the panel a topic would convene",
	Long: `Show which personas would deliberate a topic. With --all, list the
entire roster instead.`,
	Args: cobra.ArbitraryArgs,
	RunE: runPersonas,
}

func init() {
	personasCmd.Flags().BoolVar(&personasAll, "all", false, "List the full persona roster")
}

func runPersonas(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	if personasAll {
		printPersonas(registry.List())
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("provide a topic, or --all for the full roster")
	}

	topic := strings.Join(args, " ")
	names := cfg.Personas
	if len(names) == 0 {
		names = persona.SelectPanel(topic)
	}

	panel := make([]persona.Persona, len(names))
	for i, name := range names {
		panel[i] = registry.Get(name)
	}

	fmt.Printf("Panel for %q:\n\n", topic)
	printPersonas(panel)
	return nil
}

func loadRegistry() (*persona.Registry, error) {
	if cfg.PresetsPath != "" {
		return persona.LoadPresets(cfg.PresetsPath)
	}
	return persona.DefaultRegistry(), nil
}

func printPersonas(personas []persona.Persona) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSYSTEM PROMPT")
	for _, p := range personas {
		fmt.Fprintf(w, "%s\t%s\n", p.Name, truncate(p.SystemPrompt, 70))
	}
	w.Flush()
}
