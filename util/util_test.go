package util_test

import (
	"strings"
	"testing"

	"github.com/wildobs/submission-services/util"
	"github.com/stretchr/testify/assert"
)

func TestStringListContains(t *testing.T) {
	list := []string{"apple", "orange", "banana"}
	assert.True(t, util.StringListContains(list, "orange"))
	assert.False(t, util.StringListContains(list, "wedgie"))
	// Don't crash on nil list
	assert.False(t, util.StringListContains(nil, "mars"))
}

func TestExpandTilde(t *testing.T) {
	expanded, err := util.ExpandTilde("~/tmp")
	assert.Nil(t, err)
	assert.True(t, len(expanded) > 6)
	assert.True(t, strings.HasSuffix(expanded, "tmp"))

	expanded, err = util.ExpandTilde("/nothing/to/expand")
	assert.Nil(t, err)
	assert.Equal(t, "/nothing/to/expand", expanded)
}

func TestIsZipData(t *testing.T) {
	assert.True(t, util.IsZipData([]byte{0x50, 0x4b, 0x03, 0x04, 0x00}))
	assert.False(t, util.IsZipData([]byte("event_id,taxon_id\n")))
	assert.False(t, util.IsZipData([]byte{0x50}))
	assert.False(t, util.IsZipData(nil))
}

func TestLooksLikeCSV(t *testing.T) {
	assert.True(t, util.LooksLikeCSV("moose_survey.csv"))
	assert.True(t, util.LooksLikeCSV("MOOSE_SURVEY.CSV"))
	assert.False(t, util.LooksLikeCSV("moose_survey.xlsx"))
}
