package daily

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	v, err := Convert(0, "c", "f")
	require.NoError(t, err)
	assert.Equal(t, 32.0, v)

	v, err = Convert(32, "f", "c")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = Convert(100, "Celsius", "°F")
	require.NoError(t, err)
	assert.Equal(t, 212.0, v)

	v, err = Convert(1, "mi", "km")
	require.NoError(t, err)
	assert.InDelta(t, 1.609344, v, 1e-12)

	v, err = Convert(10, "kg", "lbs")
	require.NoError(t, err)
	assert.InDelta(t, 22.0462, v, 1e-4)

	v, err = Convert(5, "km", "kilometres")
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
}

func TestConvert_Unsupported(t *testing.T) {
	for _, pair := range [][2]string{{"kg", "miles"}, {"c", "km"}, {"stone", "kg"}, {"f", "kelvin"}} {
		v, err := Convert(1, pair[0], pair[1])
		assert.ErrorIs(t, err, ErrUnsupportedConversion, pair)
		assert.Zero(t, v)
	}
}

func TestConvertReply(t *testing.T) {
	assert.Equal(t, "🔄 10 km = 6.21 mi", ConvertReply("10 km mi"))
	assert.Equal(t, "🔄 98.6 F = 37 C", ConvertReply("98.6 F to C"))

	unsupported := ConvertReply("5 kg miles")
	assert.Equal(t, "Sorry, I can't convert kg to miles. Supported conversions: °C ↔ °F, kg ↔ lb, km ↔ mi.", unsupported)
	assert.NotContains(t, unsupported, "=")

	assert.Equal(t, convertUsage, ConvertReply("ten km mi"))
	assert.Equal(t, convertUsage, ConvertReply("10 km"))

	assert.Equal(t, convertUsage, ConversionReply(1e300, "km", "mi"))
	assert.Equal(t, convertUsage, ConvertReply("1e400 kg lb"))
	assert.Equal(t, convertUsage, ConvertReply("NaN c f"))
	assert.Equal(t, "🔄 -40 C = -40 F", ConvertReply("-40 C F"))
}
