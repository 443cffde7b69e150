package attribute

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuilder_BuildFromDatabase(t *testing.T) {
	attrs := intFloatBuilder().BuildFromDatabase(map[string]interface{}{"foo": "1.1", "bar": "2.2"})

	foo, ok := attrs.Get("foo")
	require.True(t, ok)
	bar, ok := attrs.Get("bar")
	require.True(t, ok)

	fooValue, err := foo.Value()
	require.NoError(t, err)
	barValue, err := bar.Value()
	require.NoError(t, err)

	assert.Equal(t, int64(1), fooValue)
	assert.Equal(t, 2.2, barValue)
	assert.Equal(t, "foo", foo.Name())
	assert.Equal(t, "bar", bar.Name())
}

func TestBuilder_MaterializeKeepsDeclarationOrder(t *testing.T) {
	attrs := intFloatBuilder().BuildFromDatabase(map[string]interface{}{"bar": "3.3", "foo": "2.2"})

	_, err := attrs.FetchValue("bar")
	require.NoError(t, err)

	assert.Equal(t, []string{"foo", "bar"}, attrs.Keys())
}

func TestBuilder_AdditionalTypes(t *testing.T) {
	builder := NewBuilder([]Column{{Name: "foo", Type: floatType{}}}, nil, DefaultBuilderConfig())
	attrs := builder.BuildFromDatabase(
		map[string]interface{}{"foo": "3.3", "bar": "4.4"},
		Column{Name: "bar", Type: intType{}},
	)

	foo, err := attrs.FetchValue("foo")
	require.NoError(t, err)
	bar, err := attrs.FetchValue("bar")
	require.NoError(t, err)

	assert.Equal(t, 3.3, foo)
	assert.Equal(t, int64(4), bar)

	// additional columns do not leak into the template
	assert.Equal(t, []string{"foo"}, builder.Names())
}

func TestBuilder_UndeclaredColumnsUseDefaultType(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	config := BuilderConfig{DefaultType: intType{}, Logger: zap.New(core)}
	builder := NewBuilder([]Column{{Name: "foo", Type: floatType{}}}, nil, config)

	attrs := builder.BuildFromDatabase(map[string]interface{}{"foo": "1.5", "zed": "9", "baz": "8"})

	assert.Equal(t, []string{"foo", "baz", "zed"}, attrs.Keys())
	baz, ok := attrs.Get("baz")
	require.True(t, ok)
	assert.Equal(t, SourceFromDatabase, baz.Source())
	value, err := baz.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(8), value)

	assert.Equal(t, 2, logs.FilterMessage("undeclared column, using default type").Len())
}

func TestBuilder_UndeclaredColumnsWithoutDefaultType(t *testing.T) {
	builder := NewBuilder(nil, nil, BuilderConfig{})
	attrs := builder.BuildFromDatabase(map[string]interface{}{"wibble": "raw"})

	value, err := attrs.FetchValue("wibble")
	require.NoError(t, err)
	assert.Equal(t, "raw", value)
}

func TestBuilder_BuildFromRow(t *testing.T) {
	builder := NewBuilder([]Column{{Name: "foo", Type: intType{}}}, nil, DefaultBuilderConfig())

	attrs, err := builder.BuildFromRow([]string{"zed", "foo", "alpha"}, []interface{}{"z", "2", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "zed", "alpha"}, attrs.Keys())

	_, err = builder.BuildFromRow([]string{"foo"}, nil)
	assert.Error(t, err)
}

func TestBuilder_DefaultsAreAlwaysInitialized(t *testing.T) {
	builder := NewBuilder(
		[]Column{{Name: "foo", Type: intType{}}},
		[]*Attribute{FromDatabase("foo", nil, nil)},
		DefaultBuilderConfig(),
	)
	attrs := builder.BuildFromDatabase(nil)

	assert.True(t, attrs.Has("foo"))
	assert.Equal(t, []string{"foo"}, attrs.Keys())
}

func TestBuilder_DefaultsAreRecomputedPerRecord(t *testing.T) {
	calls := 0
	typ := &fakeType{}
	defaultAttr := UserProvidedDefaultFunc("tags", func() interface{} {
		calls++
		return []interface{}{"new"}
	}, typ, nil)

	// a memo on the source attribute must not leak into the template
	_, err := defaultAttr.Value()
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	builder := NewBuilder([]Column{{Name: "tags", Type: typ}}, []*Attribute{defaultAttr}, DefaultBuilderConfig())

	first := builder.Build()
	second := builder.Build()

	firstTags, err := first.FetchValue("tags")
	require.NoError(t, err)
	secondTags, err := second.FetchValue("tags")
	require.NoError(t, err)

	firstTags.([]interface{})[0] = "changed"
	assert.Equal(t, []interface{}{"new"}, secondTags)
	assert.Equal(t, 3, calls)
}

func TestBuilder_ConcurrentHydration(t *testing.T) {
	builder := intFloatBuilder()

	var wg sync.WaitGroup
	results := make([]*Set, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attrs := builder.BuildFromDatabase(map[string]interface{}{"foo": i})
			_ = attrs.WriteFromUser("bar", "1.5")
			results[i] = attrs
		}(i)
	}
	wg.Wait()

	for i, attrs := range results {
		foo, err := attrs.FetchValue("foo")
		require.NoError(t, err)
		assert.Equal(t, int64(i), foo)
	}

	template := builder.Build()
	assert.Empty(t, template.Keys(), "template stays uninitialized")
}
