package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/flowrun/internal/presentation/tui"
	"github.com/aretw0/flowrun/internal/validator"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <graph-file|graph-id>",
		Short: "Execute a graph once and print the result",
		Long: `Runs a graph file (yaml, json or hcl) or a registered graph id against an initial state.
The state is a JSON object given inline or as @path. Output is a markdown report on a
terminal and JSON otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			stateFlag, _ := cmd.Flags().GetString("state")
			initial, err := parseStateFlag(stateFlag)
			if err != nil {
				return err
			}

			g, err := a.resolveGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.cfg.Strict {
				if err := validator.ValidateGraph(g, a.engine.Registry()).Err(); err != nil {
					return err
				}
			}
			res, err := a.engine.Execute(cmd.Context(), g, initial)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			return printRun(cmd, res, initial, asJSON)
		},
	}
	cmd.Flags().StringP("state", "s", "", "Initial state as a JSON object, or @file")
	cmd.Flags().Bool("json", false, "Print the run result as JSON")
	return cmd
}

// parseStateFlag decodes an inline JSON object or the contents of @path.
func parseStateFlag(v string) (domain.State, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return domain.State{}, nil
	}
	data := []byte(v)
	if strings.HasPrefix(v, "@") {
		var err error
		data, err = os.ReadFile(v[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read state file: %w", err)
		}
	}

	var s domain.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid --state: %w", err)
	}
	if s == nil {
		s = domain.State{}
	}
	return s, nil
}

func printRun(cmd *cobra.Command, res *domain.RunResult, initial domain.State, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON || out != os.Stdout || !tui.IsTerminal(os.Stdout) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	rendered, err := tui.NewRenderer()(tui.RunReport(res, initial))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
