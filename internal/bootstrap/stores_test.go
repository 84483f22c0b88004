package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/partner-review/internal/config"
)

func TestOpenMemoryDriver(t *testing.T) {
	cfg, err := config.Parse([]byte("database:\n  driver: memory\nreview:\n  confidenceThreshold: 0.7\n"))
	require.NoError(t, err)

	st, err := OpenStores(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close()

	assert.Nil(t, st.DB)
	assert.Nil(t, st.MySQLSettings)
	v, err := st.Settings.ConfidenceThreshold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.7, v)

	blobs, err := OpenBlobs(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, blobs.Ping)
	require.NoError(t, blobs.Store.Put(context.Background(), "k", []byte("v"), "text/plain"))
}
