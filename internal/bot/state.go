package bot

import "sync"

// stateStore keeps per-chat conversation state with per-key serialization.
// Acquire hands out a per-conversation mutex so at most one transition runs
// per chat at a time while unrelated chats proceed concurrently. State lives
// in memory only; a restart drops in-flight flows.
type stateStore struct {
	mu    sync.Mutex
	convs map[int64]*Conversation
	locks map[int64]*sync.Mutex
}

func newStateStore() *stateStore {
	return &stateStore{
		convs: make(map[int64]*Conversation),
		locks: make(map[int64]*sync.Mutex),
	}
}

// Acquire locks the per-chat mutex and returns the unlock function.
func (s *stateStore) Acquire(chatID int64) func() {
	s.mu.Lock()
	lock, ok := s.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[chatID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Get returns the conversation for a chat, if any.
func (s *stateStore) Get(chatID int64) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[chatID]
	return conv, ok
}

// Set stores the conversation for a chat, replacing any stale one.
func (s *stateStore) Set(chatID int64, conv *Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[chatID] = conv
}

// Clear removes the conversation for a chat.
func (s *stateStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, chatID)
}
