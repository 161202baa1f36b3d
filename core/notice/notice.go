// Package notice rotates the announcements shown on the dashboard banner.
package notice

import (
	"time"

	"github.com/carbonschool/dashboard/core"
)

type (
	Rotator struct {
		items    []string
		interval time.Duration
		epoch    time.Time
	}

	// Current is the notice on display and when the next one shows.
	Current struct {
		Index int      `json:"index"`
		Text  string   `json:"text"`
		Items []string `json:"items"`
		// NextAt is zero when the banner does not rotate.
		NextAt time.Time `json:"next_at"`
	}
)

func NewRotator(items []string, interval time.Duration, epoch time.Time) *Rotator {
	return &Rotator{
		items:    append([]string(nil), items...),
		interval: interval,
		epoch:    epoch,
	}
}

func NewRotatorFromConfig(conf *core.Config) *Rotator {
	return NewRotator(conf.Notice.Items, conf.Notice.Interval, conf.Notice.Epoch)
}

func (r *Rotator) Items() []string {
	return append([]string(nil), r.items...)
}

// Index is floor((now - epoch) / interval) mod len(items).
func (r *Rotator) Index(now time.Time) int {
	n := len(r.items)
	if n == 0 || r.interval <= 0 {
		return 0
	}
	ticks := int64(now.Sub(r.epoch) / r.interval)
	if now.Before(r.epoch) && now.Sub(r.epoch)%r.interval != 0 {
		ticks-- // floor
	}
	idx := int(ticks % int64(n))
	if idx < 0 {
		idx += n
	}
	return idx
}

func (r *Rotator) Current(now time.Time) Current {
	cur := Current{Items: r.Items()}
	if len(r.items) == 0 {
		return cur
	}
	cur.Index = r.Index(now)
	cur.Text = r.items[cur.Index]
	if r.interval > 0 && len(r.items) > 1 {
		elapsed := now.Sub(r.epoch) % r.interval
		if elapsed < 0 {
			elapsed += r.interval
		}
		cur.NextAt = now.Add(r.interval - elapsed)
	}
	return cur
}
