package audio

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/deskpet-app/deskpet/messages"
)

// RevealFunc shows a sentence's display text (and expressions) in the UI
type RevealFunc func(display *messages.DisplayText, actions *messages.Actions)

// playItem is one unit of serialized playback. clip may be nil for
// display-only payloads.
type playItem struct {
	clip    *Clip
	display *messages.DisplayText
	actions *messages.Actions
	merge   *messages.MergeInfo
	group   *mergeGroup // set on merged carriers
}

// mergeGroup tracks one merged message: the carrier clip plus the follower
// sentences revealed at offsets from its playback start. Several groups can
// be alive at once when the backend synthesizes faster than clips play.
type mergeGroup struct {
	total    int
	received int // members seen so far, carrier included
	started  bool
	startAt  time.Time
	timers   []*time.Timer
	pending  []pendingReveal // followers waiting for the carrier to start
	done     bool
}

// Queue serializes spoken responses: clips play one at a time in arrival
// order, merged groups stagger their text reveals along the carrier clip,
// and a drained queue after backend-synth-complete reports the turn as
// fully played back.
type Queue struct {
	player Player
	reveal RevealFunc

	// onPlaybackComplete fires once per turn when the queue drains after
	// the backend signalled synth completion
	onPlaybackComplete func()

	mu         sync.Mutex
	cond       *sync.Cond
	items      []*playItem
	open       *mergeGroup   // group still receiving followers
	groups     []*mergeGroup // live groups, for interrupt cancellation
	heard      []string
	playing    bool
	synthDone  bool
	reported   bool
	closed     bool
	cancelPlay context.CancelFunc
}

func NewQueue(player Player, reveal RevealFunc, onPlaybackComplete func()) *Queue {
	q := &Queue{
		player:             player,
		reveal:             reveal,
		onPlaybackComplete: onPlaybackComplete,
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Enqueue routes one backend audio message into the queue. Decode failures
// degrade to display-only so the conversation keeps moving.
func (q *Queue) Enqueue(msg *messages.ServerMessage) {
	if msg.MergeInfo != nil && msg.MergeInfo.IsMerged && msg.MergeInfo.SentenceIndex > 0 {
		q.attachFollower(msg)
		return
	}

	item := &playItem{display: msg.DisplayText, actions: msg.Actions, merge: msg.MergeInfo}
	if !msg.IsSilent() {
		clip, err := DecodeBase64Clip(msg.Audio)
		if err != nil {
			log.Printf("⚠️ audio decode failed, showing text only: %v", err)
		} else {
			item.clip = clip
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if item.merge != nil && item.merge.IsMerged {
		// carrier of a new merged group; earlier groups keep their reveals
		g := &mergeGroup{total: item.merge.TotalSentences, received: 1}
		item.group = g
		q.open = g
		q.groups = append(q.groups, g)
	}
	q.items = append(q.items, item)
	q.cond.Signal()
}

// attachFollower schedules a merged follower's reveal relative to the
// carrier clip's playback start. Followers whose offset already passed (or
// whose carrier is gone) are revealed immediately.
func (q *Queue) attachFollower(msg *messages.ServerMessage) {
	delay := time.Duration(msg.MergeInfo.DelayBeforeShow) * time.Millisecond

	q.mu.Lock()
	g := q.open
	if g == nil || g.done {
		q.mu.Unlock()
		q.doReveal(msg.DisplayText, msg.Actions)
		return
	}
	g.received++
	if g.received >= g.total {
		q.open = nil
	}
	if g.started {
		remaining := delay - time.Since(g.startAt)
		if remaining <= 0 {
			q.mu.Unlock()
			q.doReveal(msg.DisplayText, msg.Actions)
			return
		}
		g.timers = append(g.timers, q.revealTimerLocked(g, remaining, msg))
		q.mu.Unlock()
		return
	}
	// carrier not playing yet: start the timer when playback starts
	display, actions := msg.DisplayText, msg.Actions
	g.pending = append(g.pending, pendingReveal{delay: delay, display: display, actions: actions})
	q.mu.Unlock()
}

type pendingReveal struct {
	delay   time.Duration
	display *messages.DisplayText
	actions *messages.Actions
}

func (q *Queue) revealTimerLocked(g *mergeGroup, d time.Duration, msg *messages.ServerMessage) *time.Timer {
	display, actions := msg.DisplayText, msg.Actions
	return time.AfterFunc(d, func() {
		q.mu.Lock()
		cancelled := g.done
		q.mu.Unlock()
		if !cancelled {
			q.doReveal(display, actions)
		}
	})
}

// NotifySynthComplete records that the backend finished sending TTS for the
// current turn; the playback-complete callback fires when playback drains.
func (q *Queue) NotifySynthComplete() {
	q.mu.Lock()
	q.synthDone = true
	q.maybeReportLocked()
	q.mu.Unlock()
}

// NewTurn resets per-turn state at the start of a conversation chain. Any
// leftover group bookkeeping is stale by now: the previous turn only ended
// after its reveals all fired or were interrupted.
func (q *Queue) NewTurn() {
	q.mu.Lock()
	q.heard = nil
	q.synthDone = false
	q.reported = false
	q.finishGroupsLocked()
	q.mu.Unlock()
}

// Playing reports whether a clip is currently playing or queued
func (q *Queue) Playing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing || len(q.items) > 0
}

// HeardText returns the display text revealed so far this turn
func (q *Queue) HeardText() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return strings.Join(q.heard, "")
}

// Interrupt stops the current clip, drops everything pending and returns
// the text the user had already seen, for the interrupt-signal upstream.
func (q *Queue) Interrupt() string {
	q.mu.Lock()
	q.items = nil
	q.finishGroupsLocked()
	if q.cancelPlay != nil {
		q.cancelPlay()
	}
	heard := strings.Join(q.heard, "")
	q.heard = nil
	q.synthDone = false
	q.reported = false
	q.mu.Unlock()
	return heard
}

// Close stops the worker and interrupts any playback
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.finishGroupsLocked()
	if q.cancelPlay != nil {
		q.cancelPlay()
	}
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *Queue) run() {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.playing = true
		ctx, cancel := context.WithCancel(context.Background())
		q.cancelPlay = cancel

		// merged carrier starting: arm the followers queued so far for
		// this carrier's own group
		if g := item.group; g != nil && !g.started {
			g.started = true
			g.startAt = time.Now()
			for _, p := range g.pending {
				p := p
				g.timers = append(g.timers, time.AfterFunc(p.delay, func() {
					q.mu.Lock()
					cancelled := g.done
					q.mu.Unlock()
					if !cancelled {
						q.doReveal(p.display, p.actions)
					}
				}))
			}
			g.pending = nil
		}
		q.mu.Unlock()

		q.doReveal(item.display, item.actions)
		if item.clip != nil {
			if err := q.player.Play(ctx, item.clip); err != nil && ctx.Err() == nil {
				log.Printf("⚠️ playback error: %v", err)
			}
		}
		cancel()

		q.mu.Lock()
		q.playing = false
		q.cancelPlay = nil
		q.maybeReportLocked()
		q.mu.Unlock()
	}
}

func (q *Queue) doReveal(display *messages.DisplayText, actions *messages.Actions) {
	if display == nil {
		return
	}
	q.mu.Lock()
	q.heard = append(q.heard, display.Text)
	q.mu.Unlock()
	if q.reveal != nil {
		q.reveal(display, actions)
	}
}

func (q *Queue) finishGroupsLocked() {
	for _, g := range q.groups {
		g.done = true
		for _, t := range g.timers {
			t.Stop()
		}
	}
	q.groups = nil
	q.open = nil
}

func (q *Queue) maybeReportLocked() {
	if q.synthDone && !q.reported && !q.playing && len(q.items) == 0 {
		q.reported = true
		if q.onPlaybackComplete != nil {
			go q.onPlaybackComplete()
		}
	}
}
