package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseSortedAndDisjoint(t *testing.T) {
	db := Database()
	require.NotEmpty(t, db)
	for i := 1; i < len(db); i++ {
		prev, cur := db[i-1].Range, db[i].Range
		assert.Less(t, prev.Base().Uint64(), cur.Base().Uint64(), "entry %d out of order", i)
		assert.Less(t, prev.Last().Uint64(), cur.Base().Uint64(), "entry %d overlaps %d", i, i-1)
	}
}

func TestDatabaseAbbreviations(t *testing.T) {
	for _, e := range Database() {
		assert.Equal(t, Abbreviate(e.Name), e.Abbrv, e.Name)
		assert.LessOrEqual(t, len([]rune(e.Abbrv)), 8)
	}
}

func TestLookupTotality(t *testing.T) {
	db := Database()
	for i := range db {
		e := &db[i]
		for _, m := range []MAC{e.Range.First(), e.Range.Last()} {
			got, ok := Lookup(m)
			require.True(t, ok, m.String())
			assert.Same(t, e, got)
		}
	}

	for _, m := range []MAC{
		MustParseMAC("00:00:01:00:00:00"),
		MustParseMAC("02:00:00:00:00:00"),
		MustParseMAC("ff:ff:ff:ff:ff:ff"),
	} {
		_, ok := Lookup(m)
		assert.False(t, ok, m.String())
	}
}

func TestFormatOUI(t *testing.T) {
	assert.Equal(t, "Xerox_12:34:56", FormatOUI(MustParseMAC("00:00:00:12:34:56")))
	assert.Equal(t, "Cisco_ab:cd:ef", FormatOUI(MustParseMAC("00:00:0c:ab:cd:ef")))
	assert.Equal(t, "02:00:00:00:00:01", FormatOUI(MustParseMAC("02:00:00:00:00:01")))
}

func TestFormatPrefixLengths(t *testing.T) {
	table := []Assignment{
		{Range: MustSubnet(MustParseMAC("70:b3:d5:00:00:00"), 28), Abbrv: "Medium"},
		{Range: MustSubnet(MustParseMAC("70:b3:d5:10:00:00"), 32), Abbrv: "Iab"},
		{Range: MustSubnet(MustParseMAC("70:b3:d5:11:10:00"), 36), Abbrv: "Small"},
	}
	SortAssignments(table)

	tests := []struct {
		mac  string
		want string
	}{
		{"70:b3:d5:0a:bc:de", "Medium_a:bc:de"},
		{"70:b3:d5:10:bc:de", "Iab_bc:de"},
		{"70:b3:d5:11:1c:de", "Small_c:de"},
		{"70:b3:d5:11:2c:de", "70:b3:d5:11:2c:de"},
	}
	for _, tt := range tests {
		m := MustParseMAC(tt.mac)
		a, _ := lookupIn(table, m)
		assert.Equal(t, tt.want, FormatWith(m, a), tt.mac)
	}
}

func TestAbbreviate(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Cisco Systems, Inc.", "Cisco"},
		{"Xerox Corporation", "Xerox"},
		{"XEROX CORPORATION", "Xerox"},
		{"Raspberry Pi Trading Ltd", "Raspberr"},
		{"The Company", "Company"},
		{"AB & C Co", "C"},
		{"ACME  Widgets GmbH & Co. KG", "AcmeWidg"},
		{"Inc.", "Inc."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Abbreviate(tt.name), tt.name)
	}
}
