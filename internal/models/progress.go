package models

import "time"

type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityUncommon  BadgeRarity = "uncommon"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
)

// AchievementProgress is the optional "progress toward next" sub-record on a
// badge (e.g. 7/10 lessons toward the next reading badge).
type AchievementProgress struct {
	Current int    `json:"current"`
	Target  int    `json:"target"`
	NextID  string `json:"next_id,omitempty"`
}

// Achievement is an unlocked badge. Unlock decisions are made by the remote
// agent; the client only records the result.
type Achievement struct {
	ID          string               `json:"achievement_id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Icon        string               `json:"icon"`
	Color       string               `json:"color"`
	XPReward    int                  `json:"xp_reward"`
	Rarity      BadgeRarity          `json:"rarity"`
	Category    string               `json:"category"`
	UnlockedAt  time.Time            `json:"unlocked_at"`
	Progress    *AchievementProgress `json:"progress,omitempty"`
}

// ProgressUpdate is the cumulative progress snapshot the agent returns from
// its persisted store. It is the re-synchronization source after reloads.
type ProgressUpdate struct {
	TotalXP               int      `json:"total_xp"`
	CurrentLevel          int      `json:"current_level"`
	XPToNextLevel         int      `json:"xp_to_next_level"`
	CurrentStreakDays     int      `json:"current_streak_days"`
	TotalLessonsCompleted int      `json:"total_lessons_completed"`
	TotalQuizzesCompleted int      `json:"total_quizzes_completed"`
	RecentAchievements    []string `json:"recent_achievements,omitempty"`
	LevelTitle            string   `json:"level_title"`
}
