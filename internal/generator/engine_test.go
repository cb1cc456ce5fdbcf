package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/disfake/internal/schema"
)

// fixedRand always picks the last alternative and never omits.
type fixedRand struct{}

func (fixedRand) Number(_, max int) int { return max }
func (fixedRand) Bool() bool            { return false }

var profile = schema.NewStruct("Profile",
	schema.F("id", schema.String),
	schema.F("bio", schema.NewNotRequired(schema.String)),
	schema.F("avatar", schema.NewOptional(schema.String)),
	schema.F("badges", schema.NewSequence(schema.Int)),
	schema.F("flags", schema.NewLiteral(int64(0), int64(1), int64(64))),
	schema.F("settings", schema.Map),
	schema.F("nested", schema.NewStruct("Nested", schema.F("ok", schema.Bool))),
	schema.F("score", schema.NewUnion(schema.Int, schema.Float)),
)

func TestSparse(t *testing.T) {
	e := NewSeeded(7)

	rec, err := e.GenerateRecord(profile, Sparse)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "avatar", "badges", "flags", "settings", "nested", "score"}, rec.Keys())
	assert.False(t, rec.Has("bio"))
	assert.Equal(t, "", rec.Str("id"))

	avatar, ok := rec.Get("avatar")
	assert.True(t, ok)
	assert.Nil(t, avatar)

	assert.Equal(t, []any{}, rec.List("badges"))

	flags, _ := rec.Get("flags")
	assert.Contains(t, []any{int64(0), int64(1), int64(64)}, flags)

	settings, _ := rec.Get("settings")
	assert.Equal(t, map[string]any{}, settings)

	ok2, _ := rec.Record("nested").Get("ok")
	assert.Equal(t, false, ok2)

	score, _ := rec.Get("score")
	assert.Contains(t, []any{int64(0), float64(0)}, score)
}

func TestDense(t *testing.T) {
	e := NewSeeded(11)

	sawBio := false
	for range 50 {
		rec, err := e.GenerateRecord(profile, Dense)
		require.NoError(t, err)

		badges := rec.List("badges")
		assert.GreaterOrEqual(t, len(badges), 1)
		assert.LessOrEqual(t, len(badges), 5)
		for _, b := range badges {
			assert.Equal(t, int64(0), b)
		}
		if rec.Has("bio") {
			sawBio = true
		}
		assert.True(t, rec.Has("avatar"))
	}
	assert.True(t, sawBio, "dense output includes not-required fields some of the time")
}

func TestDenseDeterministicRand(t *testing.T) {
	e := New(fixedRand{})

	rec, err := e.GenerateRecord(profile, Dense)
	require.NoError(t, err)

	bio, ok := rec.Get("bio")
	require.True(t, ok)
	assert.Equal(t, "", bio)

	avatar, _ := rec.Get("avatar")
	assert.Nil(t, avatar, "the last optional variant is null")

	assert.Len(t, rec.List("badges"), 5)

	flags, _ := rec.Get("flags")
	assert.Equal(t, int64(64), flags)

	score, _ := rec.Get("score")
	assert.Equal(t, float64(0), score)
}

func TestSequenceOfNotRequired(t *testing.T) {
	v, err := New(fixedRand{}).Generate(schema.NewSequence(schema.NewNotRequired(schema.Bool)), Dense)
	require.NoError(t, err)
	assert.Equal(t, []any{false, false, false, false, false}, v)
}

func TestGenerateTopLevel(t *testing.T) {
	e := NewSeeded(3)

	v, err := e.Generate(schema.NewNotRequired(schema.Int), Sparse)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = e.Generate(schema.NewOptional(schema.Int), Sparse)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = e.Generate(schema.String, Dense)
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestMalformedDescriptors(t *testing.T) {
	paramT := schema.NewParam("T")
	box := schema.NewGeneric(schema.NewStruct("Box", schema.F("value", paramT)), paramT)

	tests := []struct {
		name string
		d    schema.Descriptor
	}{
		{"nil", nil},
		{"param", paramT},
		{"generic", box},
		{"instance", schema.Apply(box, schema.Int)},
		{"param in sequence", schema.NewStruct("Holder", schema.F("items", schema.NewSequence(paramT)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(fixedRand{}).Generate(tt.d, Dense)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedDescriptor)

			var de *DescriptorError
			require.ErrorAs(t, err, &de)
			assert.NotEmpty(t, de.Reason)
		})
	}
}

func TestMalformedPath(t *testing.T) {
	s := schema.NewStruct("Outer", schema.F("inner", schema.NewStruct("Inner", schema.F("x", schema.NewParam("T")))))

	_, err := NewSeeded(1).GenerateRecord(s, Sparse)
	var de *DescriptorError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Outer.inner.x", de.Path)
}

func TestCheckRecord(t *testing.T) {
	rec := NewRecord(1)
	rec.Set("id", "1")

	err := checkRecord(profile, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteRecord)

	var ie *IncompleteRecordError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Profile", ie.Struct)
	assert.Equal(t, []string{"avatar", "badges", "flags", "settings", "nested", "score"}, ie.Missing)

	full, err := NewSeeded(1).GenerateRecord(profile, Sparse)
	require.NoError(t, err)
	assert.NoError(t, checkRecord(profile, full))
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": Sparse, "sparse": Sparse, " Dense ": Dense} {
		got, err := ParsePolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePolicy("full")
	assert.Error(t, err)
	assert.Equal(t, "dense", Dense.String())
}

func TestGenerateNestedGenericArgument(t *testing.T) {
	paramT := schema.NewParam("T")
	inner := schema.NewGeneric(schema.NewStruct("Inner", schema.F("value", paramT)), paramT)
	outer := schema.NewGeneric(schema.NewStruct("Outer", schema.F("payload", paramT)), paramT)

	s, err := schema.NewResolver().Resolve(outer, schema.Apply(inner, schema.String))
	require.NoError(t, err)

	rec, err := NewSeeded(5).GenerateRecord(s, Sparse)
	require.NoError(t, err)
	assert.Equal(t, "", rec.Record("payload").Str("value"))
}
