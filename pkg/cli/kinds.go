package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/loosed/pkg/cli/internal/output"
	"github.com/getmockd/loosed/pkg/config"
	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
	"github.com/getmockd/loosed/pkg/responses"
	"github.com/getmockd/loosed/pkg/rules"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the built-in rule and response kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ruleReg := registry.New[engine.Rule]("rule")
		rules.RegisterDefaults(ruleReg, config.DefaultBaseEndpoint)
		responseReg := registry.New[engine.Response]("response")
		responses.RegisterDefaults(responseReg)

		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), map[string][]string{
				"rules":     ruleReg.Kinds(),
				"responses": responseReg.Kinds(),
			})
		}

		title := cases.Title(language.English)
		out := cmd.OutOrStdout()
		for i, group := range []struct {
			name  string
			kinds []string
		}{
			{ruleReg.Name() + " kinds", ruleReg.Kinds()},
			{responseReg.Name() + " kinds", responseReg.Kinds()},
		} {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s:\n", title.String(group.name))
			for _, kind := range group.kinds {
				fmt.Fprintf(out, "  %s\n", kind)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
