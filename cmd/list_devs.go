package cmd

import (
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/spf13/cobra"

	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/device"
)

var listDevsCmd = &cobra.Command{
	Use:   "list-devs",
	Short: "List interfaces available for capture",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devs, err := device.List()
		if err != nil {
			return err
		}
		return printDevices(cmd.OutOrStdout(), devs)
	},
}

func printDevices(w io.Writer, devs []core.Device) error {
	for _, d := range devs {
		if _, err := fmt.Fprintln(w, deviceHeader(d)); err != nil {
			return err
		}
		for _, mac := range d.MACs {
			fmt.Fprintf(w, "\tether %s\n", mac)
		}
		for _, a := range d.IPv4 {
			line := "\tinet " + a.Addr.String()
			if a.Netmask != nil {
				line += fmt.Sprintf("/%d", bits.OnesCount32(a.Netmask.Uint32()))
			}
			if a.Broadcast != nil {
				line += " brd " + a.Broadcast.String()
			}
			if a.Destination != nil {
				line += " peer " + a.Destination.String()
			}
			fmt.Fprintln(w, line)
		}
		for _, a := range d.IPv6 {
			if a.PrefixLen >= 0 {
				fmt.Fprintf(w, "\tinet6 %s/%d\n", a.Addr, a.PrefixLen)
			} else {
				fmt.Fprintf(w, "\tinet6 %s\n", a.Addr)
			}
		}
	}
	return nil
}

func deviceHeader(d core.Device) string {
	var flags []string
	if d.Up {
		flags = append(flags, "up")
	}
	if d.Running {
		flags = append(flags, "running")
	}
	if d.Loopback {
		flags = append(flags, "loopback")
	}
	h := d.Name
	if d.Description != "" {
		h += " (" + d.Description + ")"
	}
	if len(flags) > 0 {
		h += " [" + strings.Join(flags, ",") + "]"
	}
	return h
}
