package converter

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/docconv/internal/identity"
	"github.com/mrlokans/docconv/internal/tabular"
)

var customerSpec = ParentSpec{
	Collection: "customers",
	Key:        []string{"id", "city"},
	Fields: []FieldMapping{
		{Column: "id", Field: "code"},
		{Column: "balance", Field: "balance", Type: FieldFloat},
	},
}

func customerTable(t *testing.T, rows ...string) *tabular.Table {
	t.Helper()
	data := "id,city,balance\n" + strings.Join(rows, "\n") + "\n"
	table, err := tabular.Read(strings.NewReader(data), []string{"id", "city", "balance"})
	require.NoError(t, err)
	return table
}

func TestDeriveEntities_CollapsesDuplicates(t *testing.T) {
	table := customerTable(t, "c1,Pune,10", "c2,Pune,20", "c1,Pune,10", "c1,Delhi,30")

	set, err := DeriveEntities(table, customerSpec, DuplicateFirst)
	require.NoError(t, err)

	require.Equal(t, 3, set.Len())
	entities := set.Entities()
	assert.Equal(t, []string{"c1", "Pune"}, entities[0].Key)
	assert.Equal(t, 2, entities[0].Rows)
	assert.Equal(t, []string{"c2", "Pune"}, entities[1].Key)
	assert.Equal(t, []string{"c1", "Delhi"}, entities[2].Key)

	assert.Equal(t, identity.ParentID([]string{"c1", "Pune"}), entities[0].ID)
	assert.Len(t, set.IDs(), 3)
}

func TestDeriveEntities_SingleRow(t *testing.T) {
	set, err := DeriveEntities(customerTable(t, "c1,Pune,10"), customerSpec, DuplicateFirst)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestDeriveEntities_NoRowsNoEntities(t *testing.T) {
	table, err := tabular.Read(strings.NewReader("id,city,balance\n"), nil)
	require.NoError(t, err)

	set, err := DeriveEntities(table, customerSpec, DuplicateStrict)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestDeriveEntities_FirstWins(t *testing.T) {
	table := customerTable(t, "c1,Pune,10", "c1,Pune,99")

	set, err := DeriveEntities(table, customerSpec, DuplicateFirst)
	require.NoError(t, err)

	e := set.Entities()[0]
	balance, _ := e.Row.Value("balance")
	assert.Equal(t, "10", balance)
	assert.Equal(t, 2, e.Line)
}

func TestDeriveEntities_LastWins(t *testing.T) {
	table := customerTable(t, "c1,Pune,10", "c2,Pune,5", "c1,Pune,99")

	set, err := DeriveEntities(table, customerSpec, DuplicateLast)
	require.NoError(t, err)

	entities := set.Entities()
	balance, _ := entities[0].Row.Value("balance")
	assert.Equal(t, "99", balance)
	assert.Equal(t, []string{"c1", "Pune"}, entities[0].Key, "position stays first-seen")
	assert.Equal(t, 2, entities[0].Line)
}

func TestDeriveEntities_StrictConflict(t *testing.T) {
	table := customerTable(t, "c1,Pune,10", "c1,Pune,10", "c1,Pune,99")

	_, err := DeriveEntities(table, customerSpec, DuplicateStrict)
	require.Error(t, err)

	var conflict *DuplicateConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "balance", conflict.Column)
	assert.Equal(t, "10", conflict.First)
	assert.Equal(t, "99", conflict.Other)
	assert.Equal(t, 2, conflict.FirstLine)
	assert.Equal(t, 4, conflict.Line)
}

func TestDeriveEntities_StrictNullVersusValue(t *testing.T) {
	table := customerTable(t, "c1,Pune,", "c1,Pune,0")

	_, err := DeriveEntities(table, customerSpec, DuplicateStrict)

	var conflict *DuplicateConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestDeriveEntities_StrictAgreement(t *testing.T) {
	table := customerTable(t, "c1,Pune,10", "c1,Pune,10")

	set, err := DeriveEntities(table, customerSpec, DuplicateStrict)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestDeriveEntities_NullKeyPart(t *testing.T) {
	table := customerTable(t, "c1,,10", "c1,,20")

	set, err := DeriveEntities(table, customerSpec, DuplicateFirst)
	require.NoError(t, err)

	require.Equal(t, 1, set.Len())
	assert.Equal(t, identity.ParentID([]string{"c1", identity.NullToken}), set.Entities()[0].ID)
}

func TestDeriveEntities_IdentifierCollision(t *testing.T) {
	// Distinct tuples whose "_" joins are equal hash to the same id.
	table := customerTable(t, "a_b,c,1", "a,b_c,2")

	_, err := DeriveEntities(table, customerSpec, DuplicateFirst)
	require.Error(t, err)

	var collision *IdentifierCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, []string{"a", "b_c"}, collision.Key)
	assert.Equal(t, []string{"a_b", "c"}, collision.Other)
	assert.Equal(t, identity.ParentID([]string{"a_b", "c"}), collision.ID)
}

func TestEntitySet_Lookup(t *testing.T) {
	table := customerTable(t, "c1,Pune,10", "c2,Delhi,20")

	set, err := DeriveEntities(table, customerSpec, DuplicateFirst)
	require.NoError(t, err)

	e, ok := set.Lookup(table.Rows[1])
	require.True(t, ok)
	assert.Equal(t, []string{"c2", "Delhi"}, e.Key)

	other := customerTable(t, "c3,Goa,1")
	_, ok = set.Lookup(other.Rows[0])
	assert.False(t, ok)
}

func TestParseDuplicatePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    DuplicatePolicy
		wantErr bool
	}{
		{"", DuplicateFirst, false},
		{"first", DuplicateFirst, false},
		{"LAST", DuplicateLast, false},
		{" strict ", DuplicateStrict, false},
		{"random", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuplicatePolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
