package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `Registry,Assignment,Organization Name,Organization Address
MA-L,00000C,"Cisco Systems, Inc",170 WEST TASMAN DRIVE SAN JOSE CA US 95134
MA-M,70B3D50,Example Medium Ltd,Somewhere
MA-S,70B3D5111,EXAMPLE SMALL GMBH,Elsewhere
`

func TestParse(t *testing.T) {
	recs, err := parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, uint64(0x00000C000000), recs[0].base)
	assert.Equal(t, 24, recs[0].prefix)
	assert.Equal(t, "Cisco Systems, Inc", recs[0].name)

	assert.Equal(t, uint64(0x70B3D5000000), recs[1].base)
	assert.Equal(t, 28, recs[1].prefix)

	assert.Equal(t, uint64(0x70B3D5111000), recs[2].base)
	assert.Equal(t, 36, recs[2].prefix)
}

func TestRender(t *testing.T) {
	recs, err := parse(strings.NewReader(sample))
	require.NoError(t, err)

	src, err := render(recs)
	require.NoError(t, err)
	out := string(src)
	assert.Contains(t, out, "package address")
	assert.Contains(t, out, `Abbrv: "Cisco"`)
	assert.Contains(t, out, `Abbrv: "ExampleS"`)
	assert.Contains(t, out, "prefix: 36")
}
