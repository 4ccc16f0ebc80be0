package grabcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationLevelMasks(t *testing.T) {
	assert.True(t, Limited.mask()&AllocFailed != 0)
	assert.False(t, Limited.mask()&Hit != 0)

	assert.True(t, Moderate.mask()&Eviction != 0)
	assert.False(t, Moderate.mask()&Hit != 0)

	assert.True(t, Verbose.mask()&Hit != 0)
	assert.True(t, Verbose.mask()&Miss != 0)
}

func TestNotifierFiltersByMask(t *testing.T) {
	ch := make(chan *Notification, 4)
	n := newNotifier(ch, Limited)

	n.send(&Notification{Type: Hit})
	select {
	case <-ch:
		t.Fatal("Hit should not pass the Limited mask")
	default:
	}

	n.send(&Notification{Type: AllocFailed})
	select {
	case evt := <-ch:
		assert.Equal(t, AllocFailed, evt.Type)
	default:
		t.Fatal("AllocFailed should pass the Limited mask")
	}
}

func TestNotifierNilChannelIsNoop(t *testing.T) {
	n := newNotifier(nil, Verbose)
	assert.NotPanics(t, func() { n.send(&Notification{Type: Hit}) })
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "hit", Hit.String())
	assert.Equal(t, "allocfailed", AllocFailed.String())
}
