package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScan_DefaultsWhenAbsent(t *testing.T) {
	d := Scan("# Title\n\nSome prose with no directives.\n")
	assert.True(t, d.SortSourceOrder)
	assert.True(t, d.FixedDir)
	assert.False(t, d.ImportAll)
}

func TestScan_ExplicitFalseSort(t *testing.T) {
	d := Scan("inkjet_sort: false\n# Title\n")
	assert.False(t, d.SortSourceOrder)
}

func TestScan_ExplicitTrueSortMatchesDefault(t *testing.T) {
	d := Scan("inkjet_sort: true\n")
	assert.True(t, d.SortSourceOrder)
}

func TestScan_FixedDirFalse(t *testing.T) {
	d := Scan("inkjet_fixed_dir: false\n")
	assert.False(t, d.FixedDir)
}

func TestScan_ImportAll(t *testing.T) {
	d := Scan("inkjet_import: all\n")
	assert.True(t, d.ImportAll)
}

func TestScan_RecognisesDirectiveInsideCodeSpan(t *testing.T) {
	d := Scan("Set `inkjet_sort: false` at the top.\n")
	assert.False(t, d.SortSourceOrder)
}

func TestScan_UnknownDirectiveIgnored(t *testing.T) {
	d := Scan("inkjet_mystery: true\n")
	assert.True(t, d.SortSourceOrder)
	assert.True(t, d.FixedDir)
}

func TestScan_LastOccurrenceWins(t *testing.T) {
	d := Scan("inkjet_sort: false\ninkjet_sort: true\n")
	assert.True(t, d.SortSourceOrder)
}
