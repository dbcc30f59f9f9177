package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/pdukit/internal/capfile"
	"firestige.xyz/pdukit/internal/core"
	"firestige.xyz/pdukit/internal/ende"
	"firestige.xyz/pdukit/internal/log"
	_ "firestige.xyz/pdukit/internal/protos"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Re-encode a capture file",
	Long: `Read every packet of the input capture, dissect it and write it back
out through the transmit path.

The output format comes from --format, then from the output file suffix,
then from record.format. A .gz, .zst or .lz4 suffix compresses the output.`,
	Example: `  pdukit convert in.pcap out.pcapng
  pdukit convert in.pcapng.gz out.pcap --nano`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args[0], args[1])
	},
}

var (
	convertFormat string
	convertNano   bool
)

func init() {
	convertCmd.Flags().StringVar(&convertFormat, "format", "",
		"output format (pcap, pcapng)")
	convertCmd.Flags().BoolVar(&convertNano, "nano", false,
		"nanosecond timestamps in pcap output (overrides record.precision)")
}

func recordOptions(out string) (capfile.RecordOptions, error) {
	opts := capfile.RecordOptions{
		Nano:   convertNano || cfg.Record.Precision == "ns",
		Endian: ende.LittleEndian,
	}
	switch f, ok := capfile.FormatFromPath(out); {
	case convertFormat != "":
		format, err := capfile.ParseFormat(convertFormat)
		if err != nil {
			return opts, err
		}
		opts.Format = format
	case ok:
		opts.Format = f
	default:
		format, err := capfile.ParseFormat(cfg.Record.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = format
	}
	return opts, nil
}

func runConvert(cmd *cobra.Command, in, out string) error {
	opts, err := recordOptions(out)
	if err != nil {
		return err
	}
	src, err := capfile.Open(in)
	if err != nil {
		return err
	}
	sn, err := core.NewSniffer(src, core.WithMetricsLabel("convert"))
	if err != nil {
		src.Close()
		return err
	}
	defer sn.Close()

	rec, err := capfile.Create(out, opts)
	if err != nil {
		return err
	}
	n, err := convertPackets(cmd.Context(), sn, rec)
	if cerr := rec.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d packets written to %s (%s)\n", n, out, opts.Format)
	return nil
}

// convertPackets transmits every packet of sn into sink. Packets whose root
// has no link type, such as undecodable frames, are skipped.
func convertPackets(ctx context.Context, sn *core.Sniffer, sink core.RawSink) (int, error) {
	logger := log.GetLogger().WithField("command", "convert")
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
		if err := core.Transmit(sink, pkt); err != nil {
			if errors.Is(err, core.ErrUnknownLinkType) {
				logger.WithError(err).Warn("skipping packet")
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}
