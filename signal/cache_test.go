package signal

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClassifier struct {
	inner Classifier
	calls atomic.Int64
}

func (c *countingClassifier) Extract(description string, flags Flags) Set {
	c.calls.Add(1)
	return c.inner.Extract(description, flags)
}

func TestCachingClassifierMatchesInner(t *testing.T) {
	inner := NewDefaultClassifier()
	cc, err := NewCachingClassifier(inner, 1<<20)
	require.NoError(t, err)
	defer cc.Close()

	descriptions := []string{
		"read config.json and print the port",
		"write unit tests for this module",
		"read the code and debug it",
		"do something with the thing",
		"",
	}
	for _, flags := range []Flags{{}, {RequiresVision: true}} {
		for _, desc := range descriptions {
			want := inner.Extract(desc, flags)
			assert.Equal(t, want, cc.Extract(desc, flags), desc)
			cc.Wait()
			assert.Equal(t, want, cc.Extract(desc, flags), desc)
		}
	}
}

func TestCachingClassifierHitsSkipInner(t *testing.T) {
	inner := &countingClassifier{inner: NewDefaultClassifier()}
	cc, err := NewCachingClassifier(inner, 1<<20)
	require.NoError(t, err)
	defer cc.Close()

	desc := "review this code for security vulnerabilities"
	first := cc.Extract(desc, Flags{})
	cc.Wait()

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, cc.Extract(desc, Flags{}))
	}
	// Vision is a flag, not part of the cache key.
	assert.True(t, cc.Extract(desc, Flags{RequiresVision: true}).RequiresVision)
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCachingClassifierConcurrent(t *testing.T) {
	cc, err := NewCachingClassifier(NewDefaultClassifier(), 1<<16)
	require.NoError(t, err)
	defer cc.Close()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := cc.Extract("debug the race condition", Flags{})
				assert.Equal(t, []Category{Complex}, s.Categories())
			}
		}()
	}
	wg.Wait()
}

func TestNewCachingClassifierValidation(t *testing.T) {
	_, err := NewCachingClassifier(nil, 1024)
	assert.Error(t, err)

	_, err = NewCachingClassifier(NewDefaultClassifier(), 0)
	assert.Error(t, err)
}
