// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamingBufferBatchFlush(t *testing.T) {
	sb := NewStreamingBufferWithConfig(3, 30)

	sb.Write("a")
	sb.Write("b")
	// Under batch size and under the frame interval: no flush yet.
	_, ok := sb.Flush()
	assert.False(t, ok)
	assert.Equal(t, 2, sb.Pending())

	sb.Write("c")
	content, ok := sb.Flush()
	require.True(t, ok)
	assert.Equal(t, "abc", content)
	assert.Equal(t, 0, sb.Pending())
}

func TestStreamingBufferTimeFlush(t *testing.T) {
	sb := NewStreamingBufferWithConfig(100, 60)

	sb.Write("slow token")
	time.Sleep(20 * time.Millisecond)

	content, ok := sb.Flush()
	require.True(t, ok)
	assert.Equal(t, "slow token", content)
}

func TestStreamingBufferForceFlush(t *testing.T) {
	sb := NewStreamingBuffer()

	_, ok := sb.ForceFlush()
	assert.False(t, ok)

	sb.Write("tail")
	content, ok := sb.ForceFlush()
	require.True(t, ok)
	assert.Equal(t, "tail", content)
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("discard me")
	sb.Reset()

	_, ok := sb.ForceFlush()
	assert.False(t, ok)
	assert.Equal(t, 0, sb.Pending())
}

func TestStreamingBufferConfigClamps(t *testing.T) {
	sb := NewStreamingBufferWithConfig(0, 0)
	assert.Equal(t, 15, sb.batchSize)
	assert.Equal(t, time.Duration(1000/30)*time.Millisecond, sb.minFlushWait)

	sb = NewStreamingBufferWithConfig(5, 500)
	assert.Equal(t, 5, sb.batchSize)
	assert.Equal(t, time.Duration(1000/30)*time.Millisecond, sb.minFlushWait)
}

func TestStreamingBufferConcurrentWrites(t *testing.T) {
	sb := NewStreamingBufferWithConfig(1000, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			sb.Write("x")
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		sb.Write("y")
	}
	<-done

	content, ok := sb.ForceFlush()
	require.True(t, ok)
	assert.Len(t, content, 200)
}
