package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"live-voting/internal/domain"
	"live-voting/internal/store"
)

// printer renders store changes as plain text lines.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

// attach subscribes to the views watch shows and returns a func that
// detaches all of them.
func (p *printer) attach(st *store.Store) func() {
	unsubscribers := []func(){
		st.ResultsWithPercentage.Subscribe(func([]domain.ResultWithPercentage) {
			p.results(st.Results.Get().TotalVotes, st.SortedResults.Get(), st.Winner.Get())
		}),
		st.Notification.Subscribe(func(n *domain.Notification) {
			if n != nil {
				p.linef("[%s] %s", n.Kind, n.Message)
			}
		}),
		st.Error.Subscribe(func(msg string) {
			if msg != "" {
				p.linef("[error] %s", msg)
			}
		}),
		st.VoteStatus.Subscribe(func(status domain.VoteStatus) {
			switch {
			case status.HasVoted && status.VotedCandidateID != nil:
				p.linef("You voted for candidate %d", *status.VotedCandidateID)
			case status.HasVoted:
				p.linef("You have voted in this round")
			}
		}),
	}

	return func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}
}

func (p *printer) state(state domain.ConnectionState) {
	p.linef("channel %s", state)
}

func (p *printer) results(total int, sorted []domain.VoteResult, winner *domain.VoteResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "Results (%d votes)\n", total)
	writeResults(&b, total, sorted)
	if winner != nil && total > 0 {
		fmt.Fprintf(&b, "Leading: %s\n", winner.CandidateName)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.out, b.String())
}

func (p *printer) linef(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func writeResults(w io.Writer, total int, sorted []domain.VoteResult) {
	for i, r := range sorted {
		fmt.Fprintf(w, "%3d. %-24s %5d  %5.1f%%\n", i+1, r.CandidateName, r.VoteCount,
			store.Percentage(r.VoteCount, total))
	}
}
