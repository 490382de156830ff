package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/recastbind/internal/execx"
	"github.com/goplus/recastbind/internal/link"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the commands a build would run",
	Long: `Plan resolves the profile and the selection like build does, then prints
every external command instead of running it, followed by the directives.`,
	RunE: runPlan,
}

func init() {
	addProfileFlags(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	p, in, err := prepare(cfg, &execx.DryRun{W: out}, newLogger(), false)
	if err != nil {
		return err
	}
	p.DryRun = true

	fmt.Fprintf(out, "# profile %s (%s)\n", in.Profile.Key(), in.Profile.Target)
	res, err := p.Run(in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# modules %v, shim %t\n", res.Selection.Libraries(), res.ShimBuilt)
	return link.Emit(out, res.Directives, cfg.Link.Format, cfg.Link.CgoPackage)
}
