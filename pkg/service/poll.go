package service

import (
	"context"
	"errors"
	"time"
)

const DefaultCollection = "polls"

var ErrPollNotFound = errors.New("poll not found")

// Poll is a time-bounded record. Once IsActive is false the sweeper never
// sets it back.
type Poll struct {
	ID            string `json:"id" firestore:"-"`
	Question      string `json:"question,omitempty" firestore:"question,omitempty"`
	IsActive      bool   `json:"isActive" firestore:"isActive"`
	EndTimeMillis int64  `json:"endTimeMillis" firestore:"endTimeMillis"`
}

// HasDeadline is false for records stored without an end time. Those never
// expire.
func (p *Poll) HasDeadline() bool {
	return p.EndTimeMillis != 0
}

// ExpiredAt reports whether the poll's window has closed at now.
func (p *Poll) ExpiredAt(now time.Time) bool {
	return p.HasDeadline() && p.EndTimeMillis <= now.UnixMilli()
}

func (p *Poll) EndTime() time.Time {
	return time.UnixMilli(p.EndTimeMillis)
}

func (p *Poll) clone() *Poll {
	c := *p
	return &c
}

type PollStore interface {
	FindActive(ctx context.Context) ([]*Poll, error)
	Deactivate(ctx context.Context, id string) error
	CreatePoll(ctx context.Context, p *Poll) (*Poll, error)
	GetPoll(ctx context.Context, id string) (*Poll, error)
	ListPolls(ctx context.Context) ([]*Poll, error)
	Close() error
}
