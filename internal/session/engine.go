// Package session implements the Activity 1 state machine: it samples a
// bounded run of unseen words for a user, walks through them with
// listen/show/next actions and records completion when the run ends.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/example/ipabot/internal/speech"
	"github.com/google/uuid"
)

// VocabularySource provides the full word → transcription mapping.
type VocabularySource interface {
	Load() (map[string]string, error)
}

// ProgressStore persists the words a user has completed.
type ProgressStore interface {
	GetCompleted(ctx context.Context, userID int64) (map[string]struct{}, error)
	ListCompleted(ctx context.Context, userID int64) ([]string, error)
	MarkCompleted(ctx context.Context, userID int64, words []string) error
}

// AudioChannel delivers synthesized audio to a chat and removes it again.
type AudioChannel interface {
	SendAudio(ctx context.Context, chatID int64, word string, audio *speech.Audio) (AudioHandle, error)
	DeleteAudio(ctx context.Context, chatID int64, handle AudioHandle) error
}

// Option configures the engine.
type Option func(*Engine)

// WithSessionSize sets how many words a session holds, capped at MaxSessionSize.
func WithSessionSize(n int) Option {
	return func(e *Engine) {
		if n > 0 && n <= MaxSessionSize {
			e.size = n
		}
	}
}

// WithRand sets the random source used to sample sessions.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rnd = r
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine owns every user's session. Calls for one user are serialized;
// different users proceed independently.
type Engine struct {
	vocab    VocabularySource
	progress ProgressStore
	synth    speech.Synthesizer
	audio    AudioChannel
	log      *slog.Logger

	size  int
	now   func() time.Time
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu       sync.Mutex
	sessions map[int64]*State
	locks    map[int64]*userLock
}

// userLock serializes one user's calls. refs counts holders and waiters;
// the entry leaves Engine.locks when it drops to zero.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// New creates an engine with the given dependencies and options.
func New(vocab VocabularySource, progress ProgressStore, synth speech.Synthesizer, audio AudioChannel, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		vocab:    vocab,
		progress: progress,
		synth:    synth,
		audio:    audio,
		log:      log,
		size:     MaxSessionSize,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions: make(map[int64]*State),
		locks:    make(map[int64]*userLock),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a new session for the user. A user who has completed the
// whole vocabulary gets StatusComplete and no session. A running session
// is replaced without marking its words.
func (e *Engine) Start(ctx context.Context, userID, chatID int64) (Outcome, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	completed, err := e.progress.GetCompleted(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading completed words: %w", err)
	}
	all, err := e.vocab.Load()
	if err != nil {
		return Outcome{}, fmt.Errorf("loading vocabulary: %w", err)
	}

	if old := e.remove(userID); old != nil {
		e.log.Info("session replaced", "session", old.ID, "user", userID, "index", old.Index)
	}

	if covered(completed, all) >= len(all) {
		e.log.Info("activity already complete", "user", userID)
		return Outcome{Status: StatusComplete}, nil
	}

	unseen := make([]string, 0, len(all))
	for w := range all {
		if _, done := completed[w]; !done {
			unseen = append(unseen, w)
		}
	}
	// Map order is random but not uniform; sort first so only the shuffle decides.
	sort.Strings(unseen)
	e.shuffle(unseen)

	n := min(e.size, len(unseen))
	now := e.now()
	st := &State{
		ID:         uuid.NewString(),
		UserID:     userID,
		ChatID:     chatID,
		Words:      append([]string(nil), unseen[:n]...),
		Index:      0,
		Vocabulary: all,
		StartedAt:  now,
		UpdatedAt:  now,
	}

	e.mu.Lock()
	e.sessions[userID] = st
	e.mu.Unlock()

	e.log.Info("session started", "session", st.ID, "user", userID, "words", n, "unseen", len(unseen))
	return presenting(st, false), nil
}

// Show reveals the plain word of the current item.
func (e *Engine) Show(ctx context.Context, userID int64) (Outcome, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	st, err := e.active(userID)
	if err != nil {
		return Outcome{}, err
	}
	st.UpdatedAt = e.now()
	return presenting(st, true), nil
}

// Listen synthesizes the current word and delivers it to the chat. The
// session does not move; a failed synthesis leaves it untouched.
func (e *Engine) Listen(ctx context.Context, userID int64) (Outcome, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	st, err := e.active(userID)
	if err != nil {
		return Outcome{}, err
	}

	word := st.Words[st.Index]
	audio, err := e.synth.Synthesize(ctx, word)
	if err != nil {
		e.log.Warn("synthesis failed", "session", st.ID, "user", userID, "error", err)
		return Outcome{}, err
	}

	handle, err := e.audio.SendAudio(ctx, st.ChatID, word, audio)
	if err != nil {
		return Outcome{}, fmt.Errorf("delivering audio: %w", err)
	}

	st.Audio = append(st.Audio, handle)
	st.UpdatedAt = e.now()
	return presenting(st, false), nil
}

// Next clears the item's audio and moves on. After the last item the
// session's words are marked completed and the session ends with
// StatusComplete or StatusExhausted. If that write fails the session stays
// on its last item.
func (e *Engine) Next(ctx context.Context, userID int64) (Outcome, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	st, err := e.active(userID)
	if err != nil {
		return Outcome{}, err
	}

	e.discardAudio(ctx, st)
	st.UpdatedAt = e.now()

	if st.Index+1 < len(st.Words) {
		st.Index++
		return presenting(st, false), nil
	}

	outcome, err := e.finish(ctx, st)
	if err != nil {
		return Outcome{}, err
	}
	e.remove(userID)
	return outcome, nil
}

// Quit drops the user's session without marking anything.
func (e *Engine) Quit(ctx context.Context, userID int64) (Outcome, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	st := e.remove(userID)
	if st == nil {
		return Outcome{}, ErrNoActiveSession
	}

	e.log.Info("session quit", "session", st.ID, "user", userID, "index", st.Index)
	return Outcome{Status: StatusQuit}, nil
}

// Progress reports which vocabulary words the user has completed.
func (e *Engine) Progress(ctx context.Context, userID int64) (ProgressReport, error) {
	all, err := e.vocab.Load()
	if err != nil {
		return ProgressReport{}, fmt.Errorf("loading vocabulary: %w", err)
	}
	words, err := e.progress.ListCompleted(ctx, userID)
	if err != nil {
		return ProgressReport{}, fmt.Errorf("loading completed words: %w", err)
	}

	learned := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := all[w]; ok {
			learned = append(learned, w)
		}
	}

	return ProgressReport{
		Learned:  learned,
		Total:    len(all),
		Complete: len(learned) >= len(all),
	}, nil
}

// Active reports whether the user has a running session.
func (e *Engine) Active(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[userID]
	return ok
}

// ExpireIdle drops sessions not touched for longer than ttl and returns how
// many were dropped. Sessions busy with an event are left alone.
func (e *Engine) ExpireIdle(ttl time.Duration) int {
	now := e.now()
	cutoff := now.Add(-ttl)

	e.mu.Lock()
	defer e.mu.Unlock()

	expired := 0
	for userID, st := range e.sessions {
		// A lock entry means an event holds or waits for the session and may
		// be writing to it. Without one, nothing can start until e.mu is released.
		if _, busy := e.locks[userID]; busy {
			continue
		}
		if !st.UpdatedAt.Before(cutoff) {
			continue
		}
		delete(e.sessions, userID)

		expired++
		e.log.Info("session expired", "session", st.ID, "user", userID, "idle", now.Sub(st.UpdatedAt).Round(time.Second))
	}
	return expired
}

func (e *Engine) finish(ctx context.Context, st *State) (Outcome, error) {
	if err := e.progress.MarkCompleted(ctx, st.UserID, st.Words); err != nil {
		return Outcome{}, fmt.Errorf("marking session words: %w", err)
	}

	completed, err := e.progress.GetCompleted(ctx, st.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading completed words: %w", err)
	}

	status := StatusExhausted
	if covered(completed, st.Vocabulary) >= len(st.Vocabulary) {
		status = StatusComplete
	}

	e.log.Info("session finished", "session", st.ID, "user", st.UserID, "words", len(st.Words), "status", status)
	return Outcome{Status: status}, nil
}

// discardAudio removes delivered audio. Failures are logged and ignored.
func (e *Engine) discardAudio(ctx context.Context, st *State) {
	for _, h := range st.Audio {
		if err := e.audio.DeleteAudio(ctx, st.ChatID, h); err != nil {
			e.log.Debug("audio cleanup failed", "session", st.ID, "handle", h, "error", err)
		}
	}
	st.Audio = nil
}

func (e *Engine) active(userID int64) (*State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return st, nil
}

func (e *Engine) remove(userID int64) *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sessions[userID]
	if !ok {
		return nil
	}
	delete(e.sessions, userID)
	return st
}

// lockUser serializes calls for one user and returns the unlock function.
func (e *Engine) lockUser(userID int64) func() {
	e.mu.Lock()
	lock, ok := e.locks[userID]
	if !ok {
		lock = &userLock{}
		e.locks[userID] = lock
	}
	lock.refs++
	e.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		e.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(e.locks, userID)
		}
		e.mu.Unlock()
	}
}

func (e *Engine) shuffle(words []string) {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()
	e.rnd.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
}

func presenting(st *State, revealed bool) Outcome {
	return Outcome{Status: StatusPresenting, Item: st.item(), Revealed: revealed}
}

// covered counts completed words that are still part of the vocabulary.
func covered(completed map[string]struct{}, all map[string]string) int {
	n := 0
	for w := range completed {
		if _, ok := all[w]; ok {
			n++
		}
	}
	return n
}
