package converter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/docconv/internal/document"
	"github.com/mrlokans/docconv/internal/identity"
	"github.com/mrlokans/docconv/internal/tabular"
)

const hotelHeader = "Hotel_Name,Hotel_Address,Average_Score,Total_Number_of_Reviews,lat,lng,Review_Date,Positive_Review,Negative_Review,Review_Total_Positive_Word_Counts,Review_Total_Negative_Word_Counts,Reviewer_Score,Tags,days_since_review,Reviewer_Nationality,Total_Number_of_Reviews_Reviewer_Has_Given,Additional_Number_of_Scoring"

func loadFixture(t *testing.T, name string, def Definition) *tabular.Table {
	t.Helper()
	table, err := tabular.Load("testdata/"+name, def.Columns())
	require.NoError(t, err)
	return table
}

func readCSV(t *testing.T, data string, def Definition) *tabular.Table {
	t.Helper()
	table, err := tabular.Read(strings.NewReader(data), def.Columns())
	require.NoError(t, err)
	return table
}

func TestConvert_GrandPlazaExample(t *testing.T) {
	data := hotelHeader + "\n" +
		"Grand Plaza,1 Main St,8.4,800,51.5,-0.12,7/31/2017, Great location,Noisy,3,1,9.2,\"[' Business trip ']\",3 days, United Kingdom ,3,12\n"

	result, err := New(DuplicateFirst).Convert(Hotels(), readCSV(t, data, Hotels()))
	require.NoError(t, err)

	require.Len(t, result.Parents, 1)
	require.Len(t, result.Children, 1)
	assert.Equal(t, 1, result.RowsRead)

	hotel := result.Parents[0]
	assert.Equal(t, []string{"_id", "name", "address", "average_score", "total_number_of_reviews", "lat", "lng"}, hotel.Keys())

	id, ok := hotel.ID()
	require.True(t, ok)
	assert.Equal(t, document.Ref("2a3cd942bf99b273e5cd4832"), id)

	name, _ := hotel.Get("name")
	assert.Equal(t, "Grand Plaza", name)
	score, _ := hotel.Get("average_score")
	assert.Equal(t, 8.4, score)
	total, _ := hotel.Get("total_number_of_reviews")
	assert.Equal(t, int64(800), total)

	review := result.Children[0]
	assert.Equal(t, []string{
		"_id", "hotel_id", "review_date", "positive_review", "negative_review",
		"review_total_positive_word_counts", "review_total_negative_word_counts",
		"reviewer_score", "tags", "days_since_review", "reviewer",
	}, review.Keys())

	hotelRef, _ := review.Get("hotel_id")
	assert.Equal(t, id, hotelRef)

	reviewer, ok := review.Get("reviewer")
	require.True(t, ok)
	assert.Equal(t, document.New(
		"nationality", " United Kingdom ",
		"total_number_of_reviews_by_reviewer", int64(3),
	), reviewer)

	expectedChildID := identity.ChildID("2a3cd942bf99b273e5cd4832", []string{
		"7/31/2017", " Great location", "Noisy", "3", "1", "9.2", "[' Business trip ']", "3 days", " United Kingdom ", "3",
	})
	childID, _ := review.ID()
	assert.Equal(t, document.Ref(expectedChildID), childID)

	b, err := json.Marshal(hotel)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), `{"_id":{"$oid":"2a3cd942bf99b273e5cd4832"},"name":"Grand Plaza","address":"1 Main St"`))

	b, err = json.Marshal(review)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"hotel_id":{"$oid":"2a3cd942bf99b273e5cd4832"}`)
	assert.NotContains(t, string(b), "Additional_Number_of_Scoring")
}

func TestConvert_HotelsFixture(t *testing.T) {
	def := Hotels()
	table := loadFixture(t, "hotels_sample.csv", def)

	result, err := New(DuplicateFirst).Convert(def, table)
	require.NoError(t, err)

	assert.Equal(t, 4, result.RowsRead)
	assert.Len(t, result.Parents, 2, "duplicate hotel rows must collapse")
	assert.Len(t, result.Children, 4)

	names := []any{}
	for _, p := range result.Parents {
		n, _ := p.Get("name")
		names = append(names, n)
	}
	assert.Equal(t, []any{"Hotel Arena", "Grand Plaza"}, names, "parents keep first-seen order")
}

func TestConvert_ReferentialConsistency(t *testing.T) {
	def := Hotels()
	table := loadFixture(t, "hotels_sample.csv", def)

	result, err := New(DuplicateFirst).Convert(def, table)
	require.NoError(t, err)

	parentIDs := make(map[document.Ref]bool)
	for _, p := range result.Parents {
		id, _ := p.ID()
		parentIDs[id] = true
	}

	for i, child := range result.Children {
		row := table.Rows[i]
		name, _ := row.Value("Hotel_Name")
		addr, _ := row.Value("Hotel_Address")
		expected := document.Ref(identity.ParentID([]string{name, addr}))

		ref, ok := child.Get("hotel_id")
		require.True(t, ok)
		assert.Equal(t, expected, ref)
		assert.True(t, parentIDs[expected], "child %d references a parent that was not emitted", i)
	}
}

func TestConvert_Deterministic(t *testing.T) {
	def := Hotels()

	first, err := New(DuplicateFirst).Convert(def, loadFixture(t, "hotels_sample.csv", def))
	require.NoError(t, err)
	second, err := New(DuplicateFirst).Convert(def, loadFixture(t, "hotels_sample.csv", def))
	require.NoError(t, err)

	a, err := json.Marshal(append(first.Parents, first.Children...))
	require.NoError(t, err)
	b, err := json.Marshal(append(second.Parents, second.Children...))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestConvert_ChildIDFieldSelection(t *testing.T) {
	def := Hotels()
	base := "Grand Plaza,1 Main St,8.4,800,51.5,-0.12,7/31/2017,Good,Bad,1,1,9.2,tags,3 days,UK,3,12"

	convertLine := func(line string) document.Ref {
		result, err := New(DuplicateFirst).Convert(def, readCSV(t, hotelHeader+"\n"+line+"\n", def))
		require.NoError(t, err)
		id, _ := result.Children[0].ID()
		return id
	}

	baseID := convertLine(base)
	cells := strings.Split(base, ",")

	// Columns 6..15 are declared id columns; 16 is not read at all.
	for i := 6; i <= 15; i++ {
		changed := append([]string(nil), cells...)
		changed[i] = changed[i] + "1"
		assert.NotEqual(t, baseID, convertLine(strings.Join(changed, ",")), "column %d should affect the child id", i)
	}

	changed := append([]string(nil), cells...)
	changed[16] = "999"
	assert.Equal(t, baseID, convertLine(strings.Join(changed, ",")), "undeclared column must not affect the child id")

	// Parent attributes that are not part of the key do not feed the child id either.
	changed = append([]string(nil), cells...)
	changed[2] = "9.9"
	assert.Equal(t, baseID, convertLine(strings.Join(changed, ",")))
}

func TestConvert_NullsBecomeJSONNull(t *testing.T) {
	def := Bank()
	table := loadFixture(t, "bank_sample.csv", def)

	result, err := New(DuplicateFirst).Convert(def, table)
	require.NoError(t, err)

	require.Len(t, result.Parents, 3)
	balance, ok := result.Parents[2].Get("account_balance")
	assert.True(t, ok)
	assert.Nil(t, balance)

	b, err := json.Marshal(result.Parents[2])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"account_balance":null`)
}

func TestConvert_BankFixture(t *testing.T) {
	def := Bank()
	result, err := New(DuplicateFirst).Convert(def, loadFixture(t, "bank_sample.csv", def))
	require.NoError(t, err)

	assert.Len(t, result.Parents, 3)
	require.Len(t, result.Children, 4)

	tx := result.Children[0]
	assert.Equal(t, []string{
		"_id", "customer_id", "transaction_code", "transaction_date",
		"transaction_time", "transaction_amount", "customer",
	}, tx.Keys())

	parentID := identity.ParentID([]string{"C5841053", "F", "JAMSHEDPUR"})
	ref, _ := tx.Get("customer_id")
	assert.Equal(t, document.Ref(parentID), ref)

	ref3, _ := result.Children[2].Get("customer_id")
	assert.Equal(t, ref, ref3, "transactions of the same customer share the reference")

	amount, _ := tx.Get("transaction_amount")
	assert.Equal(t, 25.0, amount)
	tm, _ := tx.Get("transaction_time")
	assert.Equal(t, int64(143207), tm)

	expected := identity.ChildID(parentID, []string{"T1", "2/8/16", "143207", "25"})
	id, _ := tx.ID()
	assert.Equal(t, document.Ref(expected), id)
}

func TestConvert_TypeErrorIsLoadError(t *testing.T) {
	def := Hotels()
	data := hotelHeader + "\n" +
		"Grand Plaza,1 Main St,high,800,51.5,-0.12,7/31/2017,Good,Bad,1,1,9.2,tags,3 days,UK,3,12\n"

	_, err := New(DuplicateFirst).Convert(def, readCSV(t, data, def))
	require.Error(t, err)

	var le *tabular.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "Average_Score", le.Column)
	assert.Equal(t, 2, le.Line)
}

func TestConvert_NATokensBecomeNull(t *testing.T) {
	def := Hotels()
	data := hotelHeader + "\n" +
		"Grand Plaza,1 Main St,8.4,800,NA,NA,7/31/2017,Good,Bad,1,1,9.2,tags,3 days,UK,3,12\n" +
		"Grand Plaza,1 Main St,8.4,800,NA,NA,8/1/2017,Fine,NA,1,1,8.0,tags,2 days,UK,3,12\n"

	result, err := New(DuplicateStrict).Convert(def, readCSV(t, data, def))
	require.NoError(t, err)
	require.Len(t, result.Parents, 1)

	for _, field := range []string{"lat", "lng"} {
		v, ok := result.Parents[0].Get(field)
		assert.True(t, ok)
		assert.Nil(t, v, field)
	}

	negative, _ := result.Children[1].Get("negative_review")
	assert.Nil(t, negative)

	b, err := json.Marshal(result.Parents[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"lat":null,"lng":null`)

	// A null token hashes like an empty cell.
	empty := strings.Replace(data, ",Fine,NA,", ",Fine,,", 1)
	other, err := New(DuplicateStrict).Convert(def, readCSV(t, empty, def))
	require.NoError(t, err)
	a, _ := result.Children[1].ID()
	c, _ := other.Children[1].ID()
	assert.Equal(t, a, c)
}

func TestConvert_NonFiniteNumberIsLoadError(t *testing.T) {
	def := Hotels()
	for _, token := range []string{"Inf", "-Infinity", "NAN"} {
		t.Run(token, func(t *testing.T) {
			data := hotelHeader + "\n" +
				"Grand Plaza,1 Main St,8.4,800," + token + ",-0.12,7/31/2017,Good,Bad,1,1,9.2,tags,3 days,UK,3,12\n"

			_, err := New(DuplicateFirst).Convert(def, readCSV(t, data, def))
			require.Error(t, err)

			var le *tabular.LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, "lat", le.Column)
		})
	}

	data := hotelHeader + "\n" +
		"Grand Plaza,1 Main St,8.4,Inf,51.5,-0.12,7/31/2017,Good,Bad,1,1,9.2,tags,3 days,UK,3,12\n"
	_, err := New(DuplicateFirst).Convert(def, readCSV(t, data, def))
	var le *tabular.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "Total_Number_of_Reviews", le.Column)
}

func TestConvert_IntegralFloatAcceptedForInt(t *testing.T) {
	def := Hotels()
	data := hotelHeader + "\n" +
		"Grand Plaza,1 Main St,8.4,800.0,51.5,-0.12,7/31/2017,Good,Bad,1,1,9.2,tags,3 days,UK,3,12\n"

	result, err := New(DuplicateFirst).Convert(def, readCSV(t, data, def))
	require.NoError(t, err)

	v, _ := result.Parents[0].Get("total_number_of_reviews")
	assert.Equal(t, int64(800), v)
}

func TestConvert_EmptyTable(t *testing.T) {
	def := Hotels()
	result, err := New(DuplicateFirst).Convert(def, readCSV(t, hotelHeader+"\n", def))
	require.NoError(t, err)

	assert.Empty(t, result.Parents)
	assert.Empty(t, result.Children)
	assert.NotNil(t, result.Parents)
}

func TestAssembleChild_ReferentialIntegrityError(t *testing.T) {
	def := Hotels()
	parentsTable := readCSV(t, hotelHeader+"\nGrand Plaza,1 Main St,8.4,800,51.5,-0.12,7/31/2017,Good,Bad,1,1,9.2,tags,3 days,UK,3,12\n", def)
	otherTable := readCSV(t, hotelHeader+"\nOther Hotel,9 Elm St,8.4,800,51.5,-0.12,7/31/2017,Good,Bad,1,1,9.2,tags,3 days,UK,3,12\n", def)

	set, err := DeriveEntities(parentsTable, def.Parent, DuplicateFirst)
	require.NoError(t, err)

	_, err = AssembleChildren(def.Child, set, otherTable)
	require.Error(t, err)

	var rie *ReferentialIntegrityError
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, []string{"Other Hotel", "9 Elm St"}, rie.Key)
	assert.Equal(t, 2, rie.Line)
}
