package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

const lookerBundle = `var x=1;window.gallery={featured:[],reportsList:[` +
	`{reportId:"abc-123",reportTitle:"Ads \"Overview\" [beta]",reportUrl:'https://lookerstudio.google.com/reporting/abc-123',` +
	`category:"Marketing",authorName:"Ann é 😀",nested:{a:[1,2]}},` +
	`{reportId:"no-title",reportUrl:"https://x"},` +
	`{myreportId:"shadow",reportId:"def",reportTitle:"Line\nTwo \x41",reportUrl:"https:\/\/x\/def"}` +
	`],other:[]};`

func TestParseLookerBundle(t *testing.T) {
	reports, err := ParseLookerBundle(lookerBundle)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, LookerReport{
		ID:       "abc-123",
		Title:    `Ads "Overview" [beta]`,
		URL:      "https://lookerstudio.google.com/reporting/abc-123",
		Category: "Marketing",
		Author:   "Ann é 😀",
	}, reports[0])

	assert.Equal(t, "def", reports[1].ID)
	assert.Equal(t, "Line\nTwo A", reports[1].Title)
	assert.Equal(t, "https://x/def", reports[1].URL)
}

func TestLookerRecord(t *testing.T) {
	records, err := NewLooker().Extract(lookerBundle, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, entity.OriginCard, records[0].Origin)
	assert.Equal(t, "https://datastudio.google.com/reporting/abc-123/thumbnail?sz=w320-h240-p-k-nu", records[0].Thumbnail)
	assert.Equal(t, "Marketing", records[0].ExtraText)
}

func TestParseLookerBundleMissingMarker(t *testing.T) {
	_, err := ParseLookerBundle("var nothing = [];")
	assert.ErrorIs(t, err, ErrReportsListMissing)
	assert.ErrorIs(t, err, repository.ErrExtractionFailed)

	_, err = ParseLookerBundle(`reportsList:[{reportId:"a"`)
	assert.ErrorIs(t, err, ErrReportsListMissing)
}

func TestParseLookerBundleSkipsTemplatesAndComments(t *testing.T) {
	src := "window.gallery={reportsList:[\n" +
		"// featured [first] {\n" +
		"{reportId:\"t1\",reportTitle:`Q4 ] wrap {up}`,reportUrl:\"https://x/t1\"},\n" +
		"/* removed: {reportId:\"gone\"}, ] */\n" +
		"{reportId:\"t2\",reportTitle:\"Half / half\",reportUrl:\"https://x/t2\",note:`it's`}\n" +
		"],after:[]};"

	reports, err := ParseLookerBundle(src)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "t1", reports[0].ID)
	assert.Equal(t, "Q4 ] wrap {up}", reports[0].Title)
	assert.Equal(t, "t2", reports[1].ID)
	assert.Equal(t, "Half / half", reports[1].Title)
	assert.Equal(t, "https://x/t2", reports[1].URL)
}
