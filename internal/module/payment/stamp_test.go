package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStamp(t *testing.T) {
	id := uuid.MustParse("a2e63d87-6a6e-4f42-9b19-4ac5b0cf1582")

	t.Run("full stamp", func(t *testing.T) {
		got, err := ParseStamp("a2e63d87-6a6e-4f42-9b19-4ac5b0cf1582_at_1735725600")
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("bare uuid", func(t *testing.T) {
		got, err := ParseStamp("a2e63d87-6a6e-4f42-9b19-4ac5b0cf1582")
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("everything after the first underscore is ignored", func(t *testing.T) {
		got, err := ParseStamp("a2e63d87-6a6e-4f42-9b19-4ac5b0cf1582_at_x_y_z")
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		for _, stamp := range []string{"", "_at_1735725600", "not-a-uuid_at_1", "12345"} {
			_, err := ParseStamp(stamp)
			assert.ErrorIs(t, err, ErrInvalidStamp, "stamp %q", stamp)
		}
	})
}
