package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/pdukit/internal/capfile"
	"firestige.xyz/pdukit/internal/config"
	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/device"
	"firestige.xyz/pdukit/internal/dump"
	"firestige.xyz/pdukit/internal/log"
	_ "firestige.xyz/pdukit/internal/protos"
)

var pktDumpCmd = &cobra.Command{
	Use:   "pkt-dump <interface|capture-file>",
	Short: "Dissect and print packets from an interface or capture file",
	Long: `Dissect packets and print them with the configured dump back-end.

The source is a capture file when a file of that name exists, otherwise a
network interface. Capture files may be compressed with gzip, zstd or lz4.`,
	Example: `  pdukit pkt-dump eth0 -n 10
  pdukit pkt-dump trace.pcapng.zst --format yaml --filter "tcp port 80"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPktDump(cmd, args[0])
	},
}

var (
	dumpCount  int
	dumpFormat string
	dumpFilter string
)

func init() {
	pktDumpCmd.Flags().IntVarP(&dumpCount, "count", "n", 0,
		"stop after this many packets (0 = unlimited)")
	pktDumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "",
		"override dump.format (text, tree, yaml)")
	pktDumpCmd.Flags().StringVar(&dumpFilter, "filter", "",
		"override capture.filter (tcpdump syntax)")
}

func runPktDump(cmd *cobra.Command, source string) error {
	format := cfg.Dump.Format
	if dumpFormat != "" {
		format = dumpFormat
	}
	capCfg := cfg.Capture
	if dumpFilter != "" {
		capCfg.Filter = dumpFilter
	}

	sn, err := openSniffer(source, capCfg)
	if err != nil {
		return err
	}
	defer sn.Close()

	d, err := dump.New(format, cmd.OutOrStdout(), dump.Options{OUINames: cfg.Dump.OUINames})
	if err != nil {
		return err
	}
	if _, err := dumpPackets(cmd.Context(), sn, d, dumpCount); err != nil {
		d.Close()
		return err
	}
	return d.Close()
}

// openSniffer picks a capture file or a live interface. Live captures
// filter in the kernel, files through the sniffer's BPF VM.
func openSniffer(source string, c config.CaptureConfig) (*core.Sniffer, error) {
	if st, err := os.Stat(source); err == nil && st.Mode().IsRegular() {
		src, err := capfile.Open(source)
		if err != nil {
			return nil, err
		}
		opts := []core.SnifferOption{core.WithMetricsLabel("file")}
		if c.Filter != "" {
			prog, err := device.CompileFilter(core.LinkTypeEthernet, c.SnapLen, c.Filter)
			if err != nil {
				src.Close()
				return nil, err
			}
			opts = append(opts, core.WithFilter(prog))
		}
		sn, err := core.NewSniffer(src, opts...)
		if err != nil {
			src.Close()
			return nil, err
		}
		return sn, nil
	}

	src, err := device.Open(source, c)
	if err != nil {
		return nil, err
	}
	sn, err := core.NewSniffer(src, core.WithMetricsLabel(source))
	if err != nil {
		src.Close()
		return nil, err
	}
	return sn, nil
}

// dumpPackets renders up to limit packets, or all of them when limit is
// zero. Frames a decoder rejected are logged and skipped.
func dumpPackets(ctx context.Context, sn *core.Sniffer, d core.Dumper, limit int) (int, error) {
	logger := log.GetLogger()
	n := 0
	for pkt, err := range sn.Packets(ctx) {
		if err != nil {
			var ue *core.UserError
			if errors.As(err, &ue) {
				logger.WithError(err).Warn("skipping packet")
				continue
			}
			return n, err
		}
		if err := core.DumpPacket(d, pkt); err != nil {
			return n, err
		}
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return n, nil
}
