package services

import (
	"sync"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
)

// MaxLevel caps the leveling table.
const MaxLevel = 30

// levelThresholds maps level L (1..30) to the minimum cumulative XP required
// to hold it. Strictly increasing; level 1 starts at 0.
var levelThresholds = [MaxLevel + 1]int{
	0, // unused; levels are 1-based
	0, 100, 250, 475, 813,
	1319, 2079, 3219, 4928, 7493,
	11339, 17109, 25763, 38745, 58217,
	87426, 131239, 196959, 295538, 443407,
	665211, 997916, 1496974, 2245561, 3368442,
	5052763, 7579245, 11368967, 17053551, 25580426,
}

// levelTitles is sparse; a student's title comes from the nearest milestone
// at or below their level.
var levelTitles = map[int]string{
	1:  "Beginner",
	5:  "Apprentice",
	10: "Scholar",
	15: "Expert",
	20: "Master",
	25: "Grandmaster",
	30: "Legend",
}

var titleMilestones = []int{30, 25, 20, 15, 10, 5, 1}

// ProgressTracker is the cumulative, process-lifetime reward state for one
// authenticated student: total XP, derived level, streak and completion
// counters, and the unlocked badge collection. Only the orchestrator writes
// to it. Achievement unlock decisions belong to the remote agent; the
// tracker just records what the agent awarded.
type ProgressTracker struct {
	mu sync.Mutex

	totalXP          int
	level            int
	streakDays       int
	lessonsCompleted int
	quizzesCompleted int

	badges []models.Achievement
	recent []models.Achievement
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{level: 1}
}

// AddXP adds reward points and re-derives the level. Negative amounts are
// ignored: total XP is monotonically non-decreasing within a session.
// Returns whether a level-up occurred and the resulting level.
func (p *ProgressTracker) AddXP(amount int) (leveledUp bool, newLevel int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount > 0 {
		p.totalXP += amount
	}
	before := p.level
	p.deriveLevelLocked()
	return p.level > before, p.level
}

// deriveLevelLocked scans upward while the next threshold is met. Calling it
// twice with the same total XP yields the same level.
func (p *ProgressTracker) deriveLevelLocked() {
	for p.level < MaxLevel && p.totalXP >= levelThresholds[p.level+1] {
		p.level++
	}
}

func (p *ProgressTracker) TotalXP() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalXP
}

func (p *ProgressTracker) Level() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// XPToNextLevel returns the XP still needed for the next level, 0 at cap.
func (p *ProgressTracker) XPToNextLevel() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.level >= MaxLevel {
		return 0
	}
	return levelThresholds[p.level+1] - p.totalXP
}

// Title maps the current level to the nearest lower milestone title.
func (p *ProgressTracker) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, milestone := range titleMilestones {
		if p.level >= milestone {
			return levelTitles[milestone]
		}
	}
	return levelTitles[1]
}

func (p *ProgressTracker) IncrementLessonsCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lessonsCompleted++
}

func (p *ProgressTracker) IncrementQuizzesCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quizzesCompleted++
}

// ApplyAchievement records a badge the agent awarded and flags it for
// one-time display. The badge's XP reward feeds the leveling derivation.
func (p *ProgressTracker) ApplyAchievement(achievement models.Achievement) {
	p.mu.Lock()
	p.badges = append(p.badges, achievement)
	p.recent = append(p.recent, achievement)
	if achievement.XPReward > 0 {
		p.totalXP += achievement.XPReward
		p.deriveLevelLocked()
	}
	p.mu.Unlock()
}

// TakeRecentAchievements returns badges not yet shown to the student and
// clears the pending list.
func (p *ProgressTracker) TakeRecentAchievements() []models.Achievement {
	p.mu.Lock()
	defer p.mu.Unlock()
	recent := p.recent
	p.recent = nil
	return recent
}

// PeekRecentAchievements returns the pending badges without consuming them.
// Response envelopes peek; the list clears only through
// TakeRecentAchievements, so a state poll never swallows a badge.
func (p *ProgressTracker) PeekRecentAchievements() []models.Achievement {
	p.mu.Lock()
	defer p.mu.Unlock()
	recent := make([]models.Achievement, len(p.recent))
	copy(recent, p.recent)
	return recent
}

func (p *ProgressTracker) Badges() []models.Achievement {
	p.mu.Lock()
	defer p.mu.Unlock()
	badges := make([]models.Achievement, len(p.badges))
	copy(badges, p.badges)
	return badges
}

// SyncFromAgent re-synchronizes cumulative state from the agent's persisted
// store. Sync never lowers XP or level: local state may be ahead of the
// store when a best-effort write has not landed yet.
func (p *ProgressTracker) SyncFromAgent(update models.ProgressUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if update.TotalXP > p.totalXP {
		p.totalXP = update.TotalXP
	}
	p.deriveLevelLocked()
	if update.CurrentStreakDays > 0 {
		p.streakDays = update.CurrentStreakDays
	}
	if update.TotalLessonsCompleted > p.lessonsCompleted {
		p.lessonsCompleted = update.TotalLessonsCompleted
	}
	if update.TotalQuizzesCompleted > p.quizzesCompleted {
		p.quizzesCompleted = update.TotalQuizzesCompleted
	}
}

// Snapshot returns the progress view handed to handlers and reports.
func (p *ProgressTracker) Snapshot() models.ProgressUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()

	recentIDs := make([]string, 0, len(p.recent))
	for _, a := range p.recent {
		recentIDs = append(recentIDs, a.ID)
	}

	xpToNext := 0
	if p.level < MaxLevel {
		xpToNext = levelThresholds[p.level+1] - p.totalXP
	}

	title := levelTitles[1]
	for _, milestone := range titleMilestones {
		if p.level >= milestone {
			title = levelTitles[milestone]
			break
		}
	}

	return models.ProgressUpdate{
		TotalXP:               p.totalXP,
		CurrentLevel:          p.level,
		XPToNextLevel:         xpToNext,
		CurrentStreakDays:     p.streakDays,
		TotalLessonsCompleted: p.lessonsCompleted,
		TotalQuizzesCompleted: p.quizzesCompleted,
		RecentAchievements:    recentIDs,
		LevelTitle:            title,
	}
}
