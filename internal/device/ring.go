package device

import "fmt"

const (
	tpacketAlignment = 16
	tpacketHdrLen    = 52
	maxRingBlock     = 4 << 20
)

// ringGeometry sizes a TPACKET_V3 ring of roughly bufferMB megabytes. Frames
// hold a header plus snapLen bytes rounded up to the tpacket alignment; a
// block is a whole number of pages holding at least one frame.
func ringGeometry(bufferMB, snapLen, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	if bufferMB <= 0 {
		return 0, 0, 0, fmt.Errorf("ring buffer must be positive, got %d MB", bufferMB)
	}
	if snapLen <= 0 {
		return 0, 0, 0, fmt.Errorf("snaplen must be positive, got %d", snapLen)
	}
	if pageSize <= 0 || pageSize%tpacketAlignment != 0 {
		return 0, 0, 0, fmt.Errorf("page size must be a positive multiple of %d, got %d", tpacketAlignment, pageSize)
	}

	frameSize = alignUp(tpacketHdrLen+snapLen, tpacketAlignment)
	blockSize = lcm(pageSize, frameSize)
	if blockSize > maxRingBlock {
		// whole frames in at most maxRingBlock, padded to pages
		frames := max(maxRingBlock/frameSize, 1)
		blockSize = alignUp(frames*frameSize, pageSize)
	}
	numBlocks = max(bufferMB<<20/blockSize, 1)
	return frameSize, blockSize, numBlocks, nil
}

func alignUp(n, to int) int { return (n + to - 1) / to * to }

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int { return a / gcd(a, b) * b }
