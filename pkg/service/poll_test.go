package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoll_ExpiredAt(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	tests := []struct {
		name    string
		endMs   int64
		expired bool
	}{
		{"past", now.UnixMilli() - 1, true},
		{"exactly now", now.UnixMilli(), true},
		{"future", now.UnixMilli() + 1, false},
		{"no end time", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Poll{IsActive: true, EndTimeMillis: tt.endMs}
			assert.Equal(t, tt.expired, p.ExpiredAt(now))
		})
	}
}

func TestPoll_EndTime(t *testing.T) {
	p := &Poll{EndTimeMillis: 1_700_000_000_123}
	assert.Equal(t, int64(1_700_000_000_123), p.EndTime().UnixMilli())
}
