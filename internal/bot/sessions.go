package bot

import (
	"sync"
	"time"

	"github.com/kenyap/quotabot/internal/config"
)

// Selection is a user's currently chosen provider and model.
type Selection struct {
	Provider    string
	ModelID     string
	LastUpdated time.Time
}

// SelectionStore keeps per-user model selections in memory. Selections are
// conversation state, not billing state, so they live outside the ledger and
// expire after a period of inactivity.
type SelectionStore struct {
	mu         sync.RWMutex
	selections map[int64]*Selection
}

// NewSelectionStore creates a store. Starts a background cleanup goroutine.
func NewSelectionStore() *SelectionStore {
	s := &SelectionStore{selections: make(map[int64]*Selection)}
	go s.cleanup()
	return s
}

// Set records the user's selection.
func (s *SelectionStore) Set(userID int64, provider, modelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[userID] = &Selection{
		Provider:    provider,
		ModelID:     modelID,
		LastUpdated: time.Now(),
	}
}

// Get returns the user's selection, refreshing its TTL.
func (s *SelectionStore) Get(userID int64) (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.selections[userID]
	if !ok {
		return Selection{}, false
	}
	sel.LastUpdated = time.Now()
	return *sel, true
}

func (s *SelectionStore) cleanup() {
	ticker := time.NewTicker(config.SelectionCleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for id, sel := range s.selections {
			if now.Sub(sel.LastUpdated) > config.SelectionTTL {
				delete(s.selections, id)
			}
		}
		s.mu.Unlock()
	}
}

// Admin conversation state machine. One pending conversation per admin.

type adminStage int

const (
	stageNone adminStage = iota
	stageAwaitRoleUserID
	stageAwaitAccessLevel
	stageAwaitCreditsUserID
	stageAwaitCreditsAmount
)

type adminConversation struct {
	stage        adminStage
	targetUserID int64
}

type adminStateStore struct {
	mu    sync.Mutex
	state map[int64]*adminConversation
}

func newAdminStateStore() *adminStateStore {
	return &adminStateStore{state: make(map[int64]*adminConversation)}
}

func (s *adminStateStore) get(adminID int64) (adminConversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.state[adminID]
	if !ok {
		return adminConversation{}, false
	}
	return *conv, true
}

func (s *adminStateStore) set(adminID int64, conv adminConversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[adminID] = &conv
}

func (s *adminStateStore) clear(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, adminID)
}
