package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/loosed/pkg/cli/internal/output"
	"github.com/getmockd/loosed/pkg/logging"
	"github.com/getmockd/loosed/pkg/server"
)

type seededRule struct {
	RuleID      string `json:"ruleID"`
	Kind        string `json:"kind"`
	HasResponse bool   `json:"hasResponse"`
}

var validateFlagVals serveFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration and its seed rules without serving",
	Long: `Resolve the configuration the same way serve does, then create every
seed rule and response in a throwaway server that never listens.`,
	Example: `  loosed validate --config loosed.yaml`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig(cmd.Flags(), &validateFlagVals)
		if err != nil {
			return err
		}

		srv, err := server.New(cfg, server.WithLogger(logging.Nop()))
		if err != nil {
			return err
		}
		if err := srv.Seed(); err != nil {
			return err
		}

		manager := srv.Manager()
		seeded := make([]seededRule, 0, manager.Len())
		for _, ruleID := range manager.RulesOrder() {
			rule, err := manager.GetRule(ruleID)
			if err != nil {
				continue
			}
			_, respErr := manager.GetResponse(ruleID)
			seeded = append(seeded, seededRule{RuleID: ruleID, Kind: rule.Kind(), HasResponse: respErr == nil})
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return output.JSON(out, map[string]any{
				"valid": true,
				"rules": seeded,
			})
		}

		fmt.Fprintf(out, "Configuration is valid: %d seed rule(s)\n", len(seeded))
		if len(seeded) == 0 {
			return nil
		}
		tw := output.Table(out)
		output.Row(tw, "ID", "KIND", "RESPONSE")
		for _, r := range seeded {
			response := "no"
			if r.HasResponse {
				response = "yes"
			}
			output.Row(tw, r.RuleID, r.Kind, response)
		}
		return tw.Flush()
	},
}

func init() {
	bindConfigFlags(validateCmd.Flags(), &validateFlagVals)
	rootCmd.AddCommand(validateCmd)
}
