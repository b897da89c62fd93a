package write

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy(t *testing.T) {
	p := newRetryPolicy(fastSinkParams)
	log := logrus.WithField("component", "test")

	calls := 0
	attempts, err := p.do(context.Background(), log, func() error {
		calls++
		if calls < 2 {
			return transient("boom")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)

	permanent := errors.New("bad request")
	attempts, err = p.do(context.Background(), log, func() error { return permanent })
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)

	attempts, err = p.do(context.Background(), log, func() error { return transient("down") })
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicy_ContextCanceled(t *testing.T) {
	p := newRetryPolicy(api.Sink{MaxRetries: 5, MinBackoff: api.Duration{Duration: time.Hour}})
	ctx, cancel := context.WithCancel(context.Background())
	attempts, err := p.do(ctx, logrus.WithField("component", "test"), func() error {
		cancel()
		return transient("down")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicy_Defaults(t *testing.T) {
	p := newRetryPolicy(api.Sink{MaxRetries: -1})
	assert.Equal(t, 0, p.maxRetries)
	assert.Equal(t, time.Second, p.minBackoff)
	assert.Equal(t, time.Second, p.maxBackoff)
}
