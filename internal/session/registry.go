package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/export"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/llm"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/metrics"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/storage/models"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

var ErrNotFound = errors.New("session not found")

// questionLoader is the slice of the question source the registry needs.
type questionLoader interface {
	Load(ctx context.Context, count int, mode llm.Mode) ([]interview.Question, error)
}

// archiver persists completed transcripts.
type archiver interface {
	ArchiveTranscript(record *models.TranscriptRecord) error
}

// View is a consistent snapshot of a session's observable state, taken under
// the session lock. Callers never touch the *interview.Session directly: the
// session itself is not safe for concurrent use, so every read goes through
// the registry.
type View struct {
	ID            string
	Phase         interview.Phase
	QuestionCount int
	Progress      float64
	Complete      bool
	StartedAt     time.Time
	Current       *interview.Question
	Summary       *interview.Summary
}

// managed pairs a session with its serialization lock and abandon hook. The
// lock guards every access to the session and lastActive; cancel lets an
// abandon interrupt an in-flight evaluation so its late result is discarded.
type managed struct {
	mu         sync.Mutex
	session    *interview.Session
	ctx        context.Context
	cancel     context.CancelFunc
	lastActive time.Time
}

// Registry owns every live session and serializes all access to each one
// through its per-session lock. It never shares state between sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*managed

	loader        questionLoader
	scorer        interview.Scorer
	summarizer    interview.Summarizer
	archive       archiver
	questionCount int
	mode          llm.Mode
	ttl           time.Duration
}

func NewRegistry(loader questionLoader, scorer interview.Scorer, summarizer interview.Summarizer, archive archiver, questionCount int, mode llm.Mode, ttl time.Duration) *Registry {
	if questionCount <= 0 {
		questionCount = 6
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	r := &Registry{
		sessions:      make(map[string]*managed),
		loader:        loader,
		scorer:        scorer,
		summarizer:    summarizer,
		archive:       archive,
		questionCount: questionCount,
		mode:          mode,
		ttl:           ttl,
	}

	go r.sweep()

	return r
}

// Create loads a question set and starts a new session.
func (r *Registry) Create(ctx context.Context) (View, error) {
	questions, err := r.loader.Load(ctx, r.questionCount, r.mode)
	if err != nil {
		return View{}, fmt.Errorf("failed to load questions: %w", err)
	}

	id := uuid.New().String()
	s := interview.NewSession(id, r.scorer, r.summarizer)
	if err := s.Start(questions); err != nil {
		return View{}, err
	}

	// The session is still exclusively owned here; snapshot before it
	// becomes reachable through the map.
	view := snapshot(s)

	sessionCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.sessions[id] = &managed{
		session:    s,
		ctx:        sessionCtx,
		cancel:     cancel,
		lastActive: time.Now(),
	}
	r.mu.Unlock()

	metrics.SessionsStarted.Inc()
	return view, nil
}

// Get returns a snapshot of the session's current state.
func (r *Registry) Get(id string) (View, error) {
	m, err := r.lookup(id)
	if err != nil {
		return View{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot(m.session), nil
}

// SubmitAnswer scores the current question's answer and returns the recorded
// entry with the post-submit state. The per-session lock guarantees at most
// one evaluation in flight; the session context lets an abandon discard a
// late result.
func (r *Registry) SubmitAnswer(id, answerText string) (*interview.TranscriptEntry, View, error) {
	m, err := r.lookup(id)
	if err != nil {
		return nil, View{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActive = time.Now()

	entry, err := m.session.SubmitAnswer(m.ctx, answerText)
	if err != nil {
		return nil, View{}, err
	}
	return entry, snapshot(m.session), nil
}

// Finish completes the session and archives its transcript.
func (r *Registry) Finish(id string) (*interview.Summary, error) {
	m, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActive = time.Now()

	alreadyCompleted := m.session.Phase() == interview.PhaseCompleted

	summary, err := m.session.Finish(m.ctx)
	if err != nil {
		return nil, err
	}

	if !alreadyCompleted {
		metrics.SessionsFinished.WithLabelValues("completed").Inc()
		if r.archive != nil {
			if archiveErr := r.archive.ArchiveTranscript(transcriptRecord(m.session)); archiveErr != nil {
				logger.Error("Failed to archive transcript",
					zap.String("session_id", id),
					zap.Error(archiveErr),
				)
			}
		}
	}

	return summary, nil
}

// Abandon retires an in-progress session. The context is cancelled before
// taking the lock so an in-flight evaluation unblocks and its result is
// dropped instead of recorded.
func (r *Registry) Abandon(id string) error {
	m, err := r.lookup(id)
	if err != nil {
		return err
	}

	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.session.Abandon(); err != nil {
		return err
	}

	metrics.SessionsFinished.WithLabelValues("abandoned").Inc()
	return nil
}

// ExportTranscript renders the completed session's transcript under the
// session lock.
func (r *Registry) ExportTranscript(id string) (*export.Record, error) {
	m, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return export.Export(m.session)
}

// Remove drops a session from the registry, typically after export.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.sessions[id]; ok {
		m.cancel()
		delete(r.sessions, id)
	}
}

func (r *Registry) lookup(id string) (*managed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m, nil
}

// sweep evicts sessions idle past the TTL. Stale in-progress sessions are
// abandoned first so no evaluation work happens after eviction. A session
// whose lock is held has an evaluation in flight and is skipped: it is
// active by definition.
func (r *Registry) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-r.ttl)

		r.mu.Lock()
		for id, m := range r.sessions {
			if !m.mu.TryLock() {
				continue
			}
			if m.lastActive.After(cutoff) {
				m.mu.Unlock()
				continue
			}
			m.cancel()
			if m.session.Phase() == interview.PhaseInProgress {
				if err := m.session.Abandon(); err == nil {
					metrics.SessionsFinished.WithLabelValues("expired").Inc()
				}
			}
			m.mu.Unlock()
			delete(r.sessions, id)
			logger.Info("Stale session evicted", zap.String("session_id", id))
		}
		r.mu.Unlock()
	}
}

// snapshot copies the session's observable state. Callers must hold the
// session lock (or own the session exclusively).
func snapshot(s *interview.Session) View {
	view := View{
		ID:            s.ID,
		Phase:         s.Phase(),
		QuestionCount: len(s.Questions()),
		Progress:      s.Progress(),
		Complete:      s.IsComplete(),
		StartedAt:     s.StartedAt(),
		Summary:       s.Summary(),
	}
	if current, ok := s.CurrentQuestion(); ok {
		view.Current = &current
	}
	return view
}

func transcriptRecord(s *interview.Session) *models.TranscriptRecord {
	summary := s.Summary()

	record := &models.TranscriptRecord{
		ID:          s.ID,
		StartedAt:   s.StartedAt(),
		CompletedAt: time.Now(),
	}
	if summary != nil {
		record.OverallScore = summary.OverallScore
		record.Level = summary.Level
		record.Narrative = summary.Narrative
	}

	for _, entry := range s.Transcript() {
		record.Entries = append(record.Entries, models.TranscriptEntryRow{
			Position:     entry.Position,
			QuestionText: entry.Question.Text,
			Difficulty:   entry.Question.Difficulty,
			Kind:         string(entry.Question.Kind),
			AnswerText:   entry.Answer.Text,
			Score:        entry.Evaluation.Score,
			Feedback:     entry.Evaluation.Feedback,
			Tip:          entry.Evaluation.Tip,
		})
	}

	return record
}
