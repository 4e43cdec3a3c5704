package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/recallbot/internal/logger"
)

func TestNewDigestEmptyPatternDisabled(t *testing.T) {
	d, err := NewDigest(logger.Discard(), "  ", nil)
	require.NoError(t, err)
	assert.Nil(t, d)
	d.Start()
	require.NoError(t, d.Stop(context.Background()))
}

func TestNewDigestRejectsInvalidPattern(t *testing.T) {
	_, err := NewDigest(logger.Discard(), "every tuesday", nil)
	require.Error(t, err)
}

func TestDigestPublishesReport(t *testing.T) {
	pub := &fakePublisher{}
	b := newTestBot(pub, nil, nil)
	require.NoError(t, b.HandleMessage(context.Background(), msg("1", "Jam recalled due to mold")))

	d, err := NewDigest(logger.Discard(), "* * * * * *", b)
	require.NoError(t, err)
	d.Start()
	require.Eventually(t, func() bool {
		return len(pub.messages()) >= 2
	}, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	assert.Equal(t, "Top recall reasons:\n1. Mold (1)", pub.messages()[1])
}
