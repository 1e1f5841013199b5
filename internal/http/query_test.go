package http

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/docconv/internal/database/documents"
	"github.com/mrlokans/docconv/internal/document"
)

func TestParseFindQuery(t *testing.T) {
	values, err := url.ParseQuery("eq.name=Grand+Plaza&eq.reviewer.nationality=null&ref.hotel_id=abc" +
		"&min.reviewer_score=7&max.reviewer_score=9.5&q=trip&in=tags,+negative_review&sort=-reviewer_score&limit=5&skip=10&page=2")
	require.NoError(t, err)

	filter, opts, err := parseFindQuery(values)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"name": "Grand Plaza"}, filter.Text)
	assert.Equal(t, map[string]any{"reviewer.nationality": nil, "hotel_id": document.Ref("abc")}, filter.Equals)
	assert.Equal(t, map[string]float64{"reviewer_score": 7}, filter.Min)
	assert.Equal(t, map[string]float64{"reviewer_score": 9.5}, filter.Max)
	assert.Equal(t, "trip", filter.Search)
	assert.Equal(t, []string{"tags", "negative_review"}, filter.SearchFields)

	assert.Equal(t, documents.FindOptions{Sort: "reviewer_score", Descending: true, Limit: 5, Skip: 10}, opts)
}

func TestParseFindQuery_Defaults(t *testing.T) {
	filter, opts, err := parseFindQuery(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, documents.Filter{}, filter)
	assert.Equal(t, documents.FindOptions{Limit: defaultPageLimit}, opts)
}

func TestParseFindQuery_Invalid(t *testing.T) {
	for _, raw := range []string{
		"min.score=high",
		"max.score=",
		"eq.=x",
		"limit=-1",
		"skip=abc",
	} {
		t.Run(raw, func(t *testing.T) {
			values, err := url.ParseQuery(raw)
			require.NoError(t, err)

			_, _, err = parseFindQuery(values)
			assert.Error(t, err)
		})
	}
}
