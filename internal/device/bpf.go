package device

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"

	"firestige.xyz/pdukit/internal/core"
)

// CompileFilter compiles a tcpdump filter expression for frames of the
// given link type. The result runs in the sniffer's BPF VM, so it also
// applies to capture files.
func CompileFilter(lt core.LinkType, snapLen int, expr string) ([]bpf.Instruction, error) {
	if lt > 0xff {
		return nil, &core.UserError{Err: fmt.Errorf("cannot compile filters for %s", lt)}
	}
	if snapLen <= 0 {
		snapLen = core.DefaultSnapLen
	}
	prog, err := pcap.CompileBPFFilter(layers.LinkType(lt), snapLen, expr)
	if err != nil {
		return nil, &core.UserError{Err: fmt.Errorf("compiling filter %q: %w", expr, err)}
	}
	return disassemble(prog), nil
}

func disassemble(prog []pcap.BPFInstruction) []bpf.Instruction {
	out := make([]bpf.Instruction, len(prog))
	for i, ins := range prog {
		out[i] = bpf.RawInstruction{Op: ins.Code, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}.Disassemble()
	}
	return out
}
