package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValueJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   FieldValue
		want string
	}{
		{"string", StringValue("osprey"), `"osprey"`},
		{"number", NumberValue(42.5), `42.5`},
		{"bool", BoolValue(true), `true`},
		{"null", NullValue(), `null`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.in)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))

			var out FieldValue
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, tc.in, out)
		})
	}
}

func TestFieldValueRejectsCompositeJSON(t *testing.T) {
	var v FieldValue
	require.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &v))
}

func TestFieldValueAccessors(t *testing.T) {
	s, ok := StringValue("x").String()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = StringValue("x").Number()
	assert.False(t, ok)

	n, ok := NumberValue(3).Number()
	assert.True(t, ok)
	assert.Equal(t, float64(3), n)

	b, ok := BoolValue(true).Bool()
	assert.True(t, ok)
	assert.True(t, b)

	assert.True(t, NullValue().IsNull())
	assert.False(t, StringValue("").IsNull())
}

func TestMediaTypeExt(t *testing.T) {
	assert.Equal(t, "jpg", MediaTypeJPEG.Ext())
	assert.Equal(t, "png", MediaTypePNG.Ext())
	assert.Equal(t, "gif", MediaTypeGIF.Ext())
	assert.Equal(t, "mp4", MediaTypeMP4.Ext())
	assert.Equal(t, "webp", MediaType("image/webp").Ext())
	assert.Equal(t, "bin", MediaType("garbage").Ext())
}

func validPackage() *EventPackage {
	return &EventPackage{
		ID:      uuid.New(),
		Version: "1.0",
		Annotations: []EventAnnotation{
			{LabelID: "species", Value: StringValue("osprey"), Timestamp: time.Now()},
		},
		Metadata: EventMetadata{CreatedAt: time.Now(), Source: EventSourceWeb},
	}
}

func TestEventPackageValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		result := validPackage().Validate()
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
	})

	t.Run("no annotations", func(t *testing.T) {
		p := validPackage()
		p.Annotations = nil
		result := p.Validate()
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Errors[0], "at least one annotation")
	})

	t.Run("missing version", func(t *testing.T) {
		p := validPackage()
		p.Version = ""
		assert.False(t, p.Validate().IsValid)
	})

	t.Run("annotation without label", func(t *testing.T) {
		p := validPackage()
		p.Annotations[0].LabelID = ""
		assert.False(t, p.Validate().IsValid)
	})

	t.Run("incomplete media", func(t *testing.T) {
		p := validPackage()
		p.Media = &EventMedia{Type: MediaTypeJPEG}
		result := p.Validate()
		assert.False(t, result.IsValid)
		assert.Len(t, result.Errors, 3)
	})
}

func TestEventPackageWireFormat(t *testing.T) {
	p := validPackage()
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "annotations")
	assert.Contains(t, raw, "metadata")

	var annotations []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["annotations"], &annotations))
	assert.Contains(t, annotations[0], "labelId")
}
