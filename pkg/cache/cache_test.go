package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	data    map[string]string
	getErr  error
	sets    int
	deletes []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: map[string]string{}}
}

func (f *fakeRemote) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.sets++
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeRemote) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
		f.deletes = append(f.deletes, k)
	}
	return nil
}

func (f *fakeRemote) CacheKey(kind string, parts ...string) string {
	return "test:" + kind + ":" + fmt.Sprint(parts)
}

type settings struct {
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

func TestGetOrLoadCachesLocally(t *testing.T) {
	c := New(nil, time.Minute, time.Minute, nil)
	calls := 0
	load := func(context.Context) (settings, error) {
		calls++
		return settings{Value: "0.01", Enabled: true}, nil
	}

	key := c.Key(PrefixSettings, "loyalty")
	assert.Equal(t, "settings:loyalty", key)

	for i := 0; i < 3; i++ {
		got, err := GetOrLoad(context.Background(), c, key, time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "0.01", got.Value)
	}
	assert.Equal(t, 1, calls)

	c.Invalidate(context.Background(), key)
	_, err := GetOrLoad(context.Background(), c, key, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetOrLoadReadsThroughRemote(t *testing.T) {
	remote := newFakeRemote()
	key := "test:settings:[fbr]"
	remote.data[key] = `{"value":"remote","enabled":true}`
	c := New(remote, time.Minute, time.Minute, nil)

	got, err := GetOrLoad(context.Background(), c, c.Key(PrefixSettings, "fbr"), time.Minute, func(context.Context) (settings, error) {
		t.Fatal("loader must not run on a remote hit")
		return settings{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "remote", got.Value)

	delete(remote.data, key)
	got, err = GetOrLoad(context.Background(), c, key, time.Minute, func(context.Context) (settings, error) {
		return settings{}, errors.New("should be served locally")
	})
	require.NoError(t, err)
	assert.Equal(t, "remote", got.Value)
}

func TestGetOrLoadStoresInBothTiers(t *testing.T) {
	remote := newFakeRemote()
	c := New(remote, time.Minute, time.Minute, nil)

	_, err := GetOrLoad(context.Background(), c, "k", time.Minute, func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, remote.sets)
	assert.JSONEq(t, `["a","b"]`, remote.data["k"])

	c.Invalidate(context.Background(), "k")
	assert.Equal(t, []string{"k"}, remote.deletes)
}

func TestGetOrLoadDegradesOnRemoteFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.getErr = errors.New("connection refused")
	c := New(remote, time.Minute, time.Minute, nil)

	got, err := GetOrLoad(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestGetOrLoadPropagatesLoaderErrors(t *testing.T) {
	c := New(nil, time.Minute, time.Minute, nil)
	boom := errors.New("upstream down")

	_, err := GetOrLoad(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	got, err := GetOrLoad(context.Background(), nil, "k", time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
