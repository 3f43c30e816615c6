package session

import "time"

// Turn is one completed user/assistant exchange.
type Turn struct {
	Seq       int64     `json:"seq" yaml:"seq"`
	ID        string    `json:"id" yaml:"id"`
	User      string    `json:"user" yaml:"user"`
	Bot       string    `json:"bot" yaml:"bot"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Stats is the aggregate view of a session. QuestionsAsked counts every turn
// ever added, including turns already evicted from the log.
type Stats struct {
	QuestionsAsked int       `json:"questionsAsked" yaml:"questionsAsked"`
	CommandsUsed   int       `json:"commandsUsed" yaml:"commandsUsed"`
	TopicsSeen     []string  `json:"topicsSeen" yaml:"topicsSeen"`
	SessionStart   time.Time `json:"sessionStart" yaml:"sessionStart"`
	StoredTurns    int       `json:"storedTurns" yaml:"storedTurns"`
}

// Snapshot is the export document for a session.
type Snapshot struct {
	ID            string              `json:"id" yaml:"id"`
	Date          time.Time           `json:"date" yaml:"date"`
	Conversations []Turn              `json:"conversations" yaml:"conversations"`
	Stats         Stats               `json:"stats" yaml:"stats"`
	Preferences   map[string][]string `json:"preferences" yaml:"preferences"`
}

// Preference categories produced by the extractor.
const (
	PreferenceLikes    = "likes"
	PreferenceDislikes = "dislikes"
)
