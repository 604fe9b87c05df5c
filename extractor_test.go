package toolbake

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resizeArgs struct {
	Width   float64 `json:"width" description:"target width in pixels"`
	Format  string  `json:"format,omitempty" enum:"png,webp"`
	Sharpen bool    `json:"sharpen,omitempty"`
}

type boundedArgs struct {
	Width float64 `json:"width"`
}

func (a boundedArgs) Validate() error {
	if a.Width <= 0 {
		return errors.New("width must be positive")
	}
	return nil
}

func TestInputDecoder_Decode(t *testing.T) {
	dec, err := NewInputDecoder[resizeArgs]()
	require.NoError(t, err)

	args, err := dec.Decode(Values{
		"width":   NumberValue(640),
		"format":  SelectValue("webp"),
		"sharpen": BoolValue(true),
	})
	require.NoError(t, err)
	assert.Equal(t, resizeArgs{Width: 640, Format: "webp", Sharpen: true}, args)
}

func TestInputDecoder_SkipsNonScalarValues(t *testing.T) {
	dec, err := NewInputDecoder[resizeArgs]()
	require.NoError(t, err)

	args, err := dec.Decode(Values{
		"width": NumberValue(10),
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, args.Width)
}

func TestInputDecoder_EnumViolation(t *testing.T) {
	dec, err := NewInputDecoder[resizeArgs]()
	require.NoError(t, err)

	_, err = dec.Decode(Values{
		"width":  NumberValue(10),
		"format": SelectValue("gif"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWidgetValue)
	assert.True(t, IsValueError(err))
}

func TestInputDecoder_CustomValidation(t *testing.T) {
	dec, err := NewInputDecoder[boundedArgs]()
	require.NoError(t, err)

	_, err = dec.Decode(Values{"width": NumberValue(-4)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWidgetValue)
	assert.Contains(t, err.Error(), "width must be positive")

	args, err := dec.Decode(Values{"width": NumberValue(4)})
	require.NoError(t, err)
	assert.Equal(t, 4.0, args.Width)
}

func TestInputDecoder_SchemaHasFields(t *testing.T) {
	dec, err := NewInputDecoder[resizeArgs]()
	require.NoError(t, err)

	schema := dec.Schema()
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "width")
	assert.Contains(t, props, "format")
	width, ok := props["width"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "target width in pixels", width["description"])
}
