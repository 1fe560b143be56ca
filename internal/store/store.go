package store

import (
	"sync"
	"time"

	"live-voting/internal/config"
	"live-voting/internal/domain"
	"live-voting/pkg/logger"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultNotificationTTL = 3 * time.Second
	DefaultErrorTTL        = 5 * time.Second
)

// Store holds the client's shared state. Data cells are replaced wholesale;
// the derived views follow Results automatically.
type Store struct {
	Candidates   *Cell[[]domain.Candidate]
	Results      *Cell[domain.ResultSet]
	VoteStatus   *Cell[domain.VoteStatus]
	Loading      *Cell[bool]
	Error        *Cell[string]
	Notification *Cell[*domain.Notification]

	SortedResults         *Derived[domain.ResultSet, []domain.VoteResult]
	Winner                *Derived[[]domain.VoteResult, *domain.VoteResult]
	ResultsWithPercentage *Derived[domain.ResultSet, []domain.ResultWithPercentage]

	clock           clockwork.Clock
	notificationTTL time.Duration
	errorTTL        time.Duration
	log             logger.Logger

	mu                sync.Mutex
	notificationClear autoClear
	errorClear        autoClear
}

// autoClear is the pending clear for one cell and the version it clears.
type autoClear struct {
	timer   clockwork.Timer
	version uint64
}

func New(cfg config.StoreConfig, clock clockwork.Clock, log logger.Logger) *Store {
	if cfg.NotificationTTL <= 0 {
		cfg.NotificationTTL = DefaultNotificationTTL
	}
	if cfg.ErrorTTL <= 0 {
		cfg.ErrorTTL = DefaultErrorTTL
	}

	s := &Store{
		Candidates:   NewCell([]domain.Candidate{}),
		Results:      NewCell(domain.ResultSet{Results: []domain.VoteResult{}}),
		VoteStatus:   NewCell(domain.VoteStatus{}),
		Loading:      NewCell(false),
		Error:        NewCell(""),
		Notification: NewCell[*domain.Notification](nil),

		clock:           clock,
		notificationTTL: cfg.NotificationTTL,
		errorTTL:        cfg.ErrorTTL,
		log:             log,
	}

	s.SortedResults = NewDerived[domain.ResultSet, []domain.VoteResult](s.Results, SortResults)
	s.Winner = NewDerived[[]domain.VoteResult, *domain.VoteResult](s.SortedResults, Winner)
	s.ResultsWithPercentage = NewDerived[domain.ResultSet, []domain.ResultWithPercentage](s.Results, WithPercentage)

	return s
}

func (s *Store) SetCandidates(candidates []domain.Candidate) {
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	s.Candidates.Set(candidates)
}

func (s *Store) SetResults(results domain.ResultSet) {
	if results.Results == nil {
		results.Results = []domain.VoteResult{}
	}
	s.Results.Set(results)
}

// SetVoteStatus records whether this client has voted. The candidate is
// dropped when voted is false.
func (s *Store) SetVoteStatus(voted bool, candidateID *int) {
	status := domain.VoteStatus{HasVoted: voted}
	if voted && candidateID != nil {
		id := *candidateID
		status.VotedCandidateID = &id
	}
	s.VoteStatus.Set(status)
}

func (s *Store) SetLoading(loading bool) {
	s.Loading.Set(loading)
}

// ShowNotification displays message until the notification TTL elapses or
// another notification replaces it.
func (s *Store) ShowNotification(message string, kind domain.NotificationKind) {
	if kind == "" {
		kind = domain.NotificationInfo
	}
	version := s.Notification.set(&domain.Notification{Message: message, Kind: kind})

	s.mu.Lock()
	s.rearm(&s.notificationClear, version, s.notificationTTL, func() {
		s.Notification.resetIf(version, nil)
	})
	s.mu.Unlock()

	s.log.Debug("Notification shown", "type", kind, "message", message)
}

// SetError displays message until the error TTL elapses or another error
// replaces it.
func (s *Store) SetError(message string) {
	version := s.Error.set(message)

	s.mu.Lock()
	s.rearm(&s.errorClear, version, s.errorTTL, func() {
		s.Error.resetIf(version, "")
	})
	s.mu.Unlock()

	if message != "" {
		s.log.Warn("Error shown", "message", message)
	}
}

// Close stops the pending auto-clear timers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pending := range []*autoClear{&s.notificationClear, &s.errorClear} {
		if pending.timer != nil {
			pending.timer.Stop()
			pending.timer = nil
		}
	}
}

// rearm replaces the pending clear with one for version. A writer that lost
// the race to a newer write leaves the newer clear in place. Callers hold s.mu.
func (s *Store) rearm(pending *autoClear, version uint64, ttl time.Duration, clear func()) {
	if version < pending.version {
		return
	}
	if pending.timer != nil {
		pending.timer.Stop()
	}
	pending.timer = s.clock.AfterFunc(ttl, clear)
	pending.version = version
}
