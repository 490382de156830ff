package internal

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goplus/recastbind/internal/bindgen"
	"github.com/goplus/recastbind/internal/capability"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List capabilities, modules and binding headers",
	Args:  cobra.NoArgs,
	RunE:  runModules,
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}

func runModules(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CAPABILITY\tMODULE\tMARKER\tSHIM\tHEADERS\tOUTPUT")
	for _, m := range capability.Modules {
		d, _ := bindgen.Lookup(m.Capability)
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			m.Capability, m.Name, m.Marker, m.NeedsShim, strings.Join(d.Headers, ","), d.Output)
	}
	fmt.Fprintf(w, "%s\t-\t%s\t-\t-\t-\n", capability.WideReferenceMode, capability.WideRefDefine)
	return w.Flush()
}
