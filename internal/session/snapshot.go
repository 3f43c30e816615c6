package session

import (
	"github.com/google/uuid"
)

// Snapshot captures the complete state of the session for export.
func (m *Memory) Snapshot() Snapshot {
	return Snapshot{
		ID:            uuid.NewString(),
		Date:          m.now(),
		Conversations: m.History(0),
		Stats:         m.Stats(),
		Preferences:   m.Preferences(),
	}
}

// Restore rebuilds a Memory from an exported snapshot. Turns beyond the
// capacity in opts are dropped oldest first; aggregate stats are taken from
// the snapshot as-is, so turns evicted before export still count.
func Restore(s Snapshot, opts Options) (*Memory, error) {
	m, err := New(opts)
	if err != nil {
		return nil, err
	}

	turns := s.Conversations
	if len(turns) > m.capacity {
		turns = turns[len(turns)-m.capacity:]
	}
	m.turns = append(m.turns, turns...)
	for _, t := range s.Conversations {
		if t.Seq > m.nextSeq {
			m.nextSeq = t.Seq
		}
	}

	m.questions = s.Stats.QuestionsAsked
	m.commands = s.Stats.CommandsUsed
	for _, topic := range s.Stats.TopicsSeen {
		m.topics[topic] = struct{}{}
	}
	for category, values := range s.Preferences {
		m.prefs[category] = append([]string(nil), values...)
	}
	if !s.Stats.SessionStart.IsZero() {
		m.start = s.Stats.SessionStart
	}
	return m, nil
}
