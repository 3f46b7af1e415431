package memregion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMapsZeroedAndWritable(t *testing.T) {
	r, err := Create("juke-test", 4096)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 4096, r.Size())
	assert.Len(t, r.Data, 4096)
	for _, b := range r.Data {
		require.Equal(t, byte(0), b)
	}

	r.Data[0] = 0xAB
	assert.Equal(t, byte(0xAB), r.Data[0])
}

func TestFromFDMapsSameUnderlyingMemory(t *testing.T) {
	r, err := Create("juke-test", 4096)
	require.NoError(t, err)
	defer r.Close()

	r.Data[10] = 0x42

	second, err := FromFD(r.Fd, 4096)
	require.NoError(t, err)
	defer func() {
		second.Fd = -1 // avoid double-closing the fd owned by r
		second.Close()
	}()

	assert.Equal(t, byte(0x42), second.Data[10])
}

func TestCloseIsSafeToCallOnce(t *testing.T) {
	r, err := Create("juke-test", 4096)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Nil(t, r.Data)
}
