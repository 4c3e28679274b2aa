package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeCache struct{ enabled, healthy bool }

func (f fakeCache) Enabled() bool { return f.enabled }
func (f fakeCache) IsHealthy(context.Context) bool { return f.healthy }

func TestCheckBasic(t *testing.T) {
	ctx := context.Background()

	st := NewHealthChecker(fakePinger{}, nil).CheckBasic(ctx)
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, "disabled", st.Cache.Status)

	st = NewHealthChecker(fakePinger{err: errors.New("refused")}, fakeCache{enabled: true, healthy: true}).CheckBasic(ctx)
	assert.Equal(t, "unhealthy", st.Status)
	assert.Equal(t, "healthy", st.Cache.Status)

	st = NewHealthChecker(fakePinger{}, fakeCache{enabled: true}).CheckBasic(ctx)
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, "degraded", st.Cache.Status)
}

func TestCheckDetailedIncludesHost(t *testing.T) {
	st := NewHealthChecker(fakePinger{}, nil).CheckDetailed(context.Background())
	require.NotNil(t, st.Host)
	assert.Greater(t, st.Host.Goroutines, 0)
}
