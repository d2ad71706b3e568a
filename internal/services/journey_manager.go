package services

import (
	"sync"
	"time"

	"github.com/brightmind-edu/tutor-journey-service/internal/agent"
	"github.com/brightmind-edu/tutor-journey-service/internal/cache"
	"github.com/brightmind-edu/tutor-journey-service/internal/events"
	"github.com/brightmind-edu/tutor-journey-service/internal/repositories"
	"github.com/brightmind-edu/tutor-journey-service/internal/utils"
)

// JourneyManager hands out one Journey per authenticated student, creating it
// with fresh session and progress stores on first use. Journeys live for the
// process lifetime; persistence across restarts is the agent's job.
type JourneyManager struct {
	agent     agent.Client
	publisher events.EventPublisher
	results   repositories.ResultsRepository
	content   *cache.ContentCache
	logger    utils.Logger

	prefetchTimeout time.Duration

	mu       sync.Mutex
	journeys map[string]*Journey
}

type ManagerDeps struct {
	Agent     agent.Client
	Publisher events.EventPublisher
	Results   repositories.ResultsRepository
	Content   *cache.ContentCache
	Logger    utils.Logger

	PrefetchTimeout time.Duration
}

func NewJourneyManager(deps ManagerDeps) *JourneyManager {
	return &JourneyManager{
		agent:           deps.Agent,
		publisher:       deps.Publisher,
		results:         deps.Results,
		content:         deps.Content,
		logger:          deps.Logger,
		prefetchTimeout: deps.PrefetchTimeout,
		journeys:        make(map[string]*Journey),
	}
}

// Journey returns the student's journey, creating it on first access.
func (m *JourneyManager) Journey(studentID string) *Journey {
	m.mu.Lock()
	defer m.mu.Unlock()

	if journey, ok := m.journeys[studentID]; ok {
		return journey
	}

	journey := NewJourney(studentID, JourneyDeps{
		Session:         NewSessionState(),
		Progress:        NewProgressTracker(),
		Agent:           m.agent,
		Publisher:       m.publisher,
		Results:         m.results,
		Content:         m.content,
		Logger:          m.logger.With("student_id", studentID),
		PrefetchTimeout: m.prefetchTimeout,
	})
	m.journeys[studentID] = journey
	return journey
}
