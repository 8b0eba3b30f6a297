package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFieldKind(t *testing.T) {
	tests := map[string]FieldKind{
		"":         KindUnknown,
		"text":     KindText,
		"String":   KindText,
		"keyword":  KindKeyword,
		"int":      KindLong,
		"number":   KindDouble,
		"boolean":  KindBool,
		"datetime": KindDate,
		"object":   KindObject,
	}
	for in, want := range tests {
		got, err := ParseFieldKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFieldKind("geo_point")
	assert.Error(t, err)
}

func TestFieldKindYAML(t *testing.T) {
	var doc struct {
		Kind FieldKind `yaml:"kind"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("kind: date\n"), &doc))
	assert.Equal(t, KindDate, doc.Kind)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "kind: date\n", string(out))
}

func TestExactField(t *testing.T) {
	assert.Equal(t, "name.keyword", ExactField("name", KindText))
	assert.Equal(t, "name.keyword", ExactField("name.keyword", KindText))
	assert.Equal(t, "age", ExactField("age", KindLong))
	assert.Equal(t, "code", ExactField("code", KindKeyword))
}
