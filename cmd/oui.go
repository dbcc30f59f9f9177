package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/pdukit/internal/address"
)

var ouiCmd = &cobra.Command{
	Use:   "oui <mac>...",
	Short: "Look up the manufacturer of MAC addresses",
	Example: `  pdukit oui 00:00:0c:ab:cd:ef
  pdukit oui 3c-22-fb-01-02-03 00:00:00:12:34:56`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOUI(cmd.OutOrStdout(), args)
	},
}

func runOUI(w io.Writer, args []string) error {
	for _, arg := range args {
		mac, err := address.ParseMAC(arg)
		if err != nil {
			return err
		}
		a, ok := address.Lookup(mac)
		if !ok {
			fmt.Fprintf(w, "%s\tunknown\n", mac)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mac, address.FormatWith(mac, a), a.Range, a.Name)
	}
	return nil
}
