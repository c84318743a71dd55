package entity

import (
	"strings"
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AgentErrorText is shown in place of a reply when a chat turn fails.
const AgentErrorText = "Error talking to agent"

type TranscriptMessage struct {
	Role      Role
	Text      string
	CreatedAt time.Time
	Failed    bool
}

// Transcript is the in-memory, append-only chat history of one process.
type Transcript struct {
	mu       sync.RWMutex
	messages []TranscriptMessage
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// AddUser appends a user message. Blank input is ignored and reported as false.
func (t *Transcript) AddUser(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	t.append(TranscriptMessage{Role: RoleUser, Text: text, CreatedAt: time.Now()})
	return true
}

func (t *Transcript) AddReply(text string) {
	t.append(TranscriptMessage{Role: RoleAssistant, Text: text, CreatedAt: time.Now()})
}

func (t *Transcript) AddFailure() {
	t.append(TranscriptMessage{Role: RoleAssistant, Text: AgentErrorText, CreatedAt: time.Now(), Failed: true})
}

// Messages returns a copy in insertion order.
func (t *Transcript) Messages() []TranscriptMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]TranscriptMessage(nil), t.messages...)
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

func (t *Transcript) Reset() {
	t.mu.Lock()
	t.messages = nil
	t.mu.Unlock()
}

func (t *Transcript) append(m TranscriptMessage) {
	t.mu.Lock()
	t.messages = append(t.messages, m)
	t.mu.Unlock()
}
