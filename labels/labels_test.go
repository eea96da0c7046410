package labels

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    SetName
		classes int
		first   string
	}{
		{SetVOC, 21, "background"},
		{SetCamVid, 11, "Sky"},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			set, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.classes, set.Len())

			name, err := set.NameOf(0)
			require.NoError(t, err)
			assert.Equal(t, tt.first, name)
		})
	}

	_, err := Lookup("ade20k")
	assert.True(t, errors.Is(err, ErrUnknownSet))
}

func TestSetIndex(t *testing.T) {
	idx, err := VOC.Index("person")
	require.NoError(t, err)
	assert.Equal(t, 15, idx)

	_, err = VOC.Index("unicorn")
	assert.Error(t, err)

	_, err = VOC.NameOf(21)
	assert.Error(t, err)
	_, err = VOC.NameOf(-1)
	assert.Error(t, err)
}
