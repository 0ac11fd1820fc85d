package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccod-search/internal/search"
)

func sampleResults() []search.Result {
	return []search.Result{
		{
			TitleNumber:           "TGL50538",
			Tenure:                "Freehold",
			PropertyAddress:       "10 Downing Street, London",
			Postcode:              "SW1A 2AA",
			ProprietorName:        "ACME HOLDINGS LIMITED",
			CompanyRegistrationNo: "AB123456",
		},
		{
			TitleNumber:           "NGL90210",
			Tenure:                "Leasehold",
			PropertyAddress:       "22 Acacia Avenue, Leeds",
			Postcode:              "LS1 1AA",
			ProprietorName:        "TESCO STORES LIMITED",
			CompanyRegistrationNo: "00445790",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, "TGL50538", records[1][0])
	assert.Equal(t, "00445790", records[2][9])
}

func TestWriteCSVZeroResultsIsHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "zero-result export must still produce the header row")
	assert.Equal(t, Columns, records[0])
}

func TestMarshalJSON(t *testing.T) {
	body, err := MarshalJSON("number", "AB123456", sampleResults())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "number", doc.SearchType)
	assert.Equal(t, 2, doc.Count)
	assert.Len(t, doc.Properties, 2)

	// Pretty-printed output.
	assert.True(t, strings.Contains(string(body), "\n  "))
}

func TestMarshalJSONZeroResultsIsEmptyArray(t *testing.T) {
	body, err := MarshalJSON("name", "NOBODY", nil)
	require.NoError(t, err)

	assert.Contains(t, string(body), `"properties": []`)
	assert.NotContains(t, string(body), "null")
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name       string
		searchType string
		value      string
		ext        string
		want       string
	}{
		{
			name:       "simple number",
			searchType: "number",
			value:      "AB123456",
			ext:        "csv",
			want:       "properties_number_AB123456.csv",
		},
		{
			name:       "spaces become underscores",
			searchType: "name",
			value:      "ACME HOLDINGS",
			ext:        "json",
			want:       "properties_name_ACME_HOLDINGS.json",
		},
		{
			name:       "unsafe characters dropped and value truncated",
			searchType: "address",
			value:      `10 Downing/“Street”, London SW1A 2AA`,
			ext:        "csv",
			want:       "properties_address_10_DowningStreet_Lon.csv",
		},
		{
			name:       "all-unsafe value falls back",
			searchType: "name",
			value:      "///",
			ext:        "csv",
			want:       "properties_name_query.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.searchType, tt.value, tt.ext))
		})
	}
}
