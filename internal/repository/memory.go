package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

// MemoryDB is a process-local store used by tests and the "memory" storage
// driver. Returned values are copies; callers never alias stored state.
type MemoryDB struct {
	mu        sync.RWMutex
	seq       int64
	users     map[string]models.User
	threads   map[string]*models.Thread
	groups    map[string]*models.GroupChat
	notifs    map[string]*models.Notification
	notifSeqs map[string]int64
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:     map[string]models.User{},
		threads:   map[string]*models.Thread{},
		groups:    map[string]*models.GroupChat{},
		notifs:    map[string]*models.Notification{},
		notifSeqs: map[string]int64{},
	}
}

// NewMemoryStore wires every repository to a fresh MemoryDB.
func NewMemoryStore() (*Store, *MemoryDB) {
	db := NewMemoryDB()
	return &Store{
		Users:         &memoryUsers{db: db},
		Threads:       &memoryThreads{db: db},
		Groups:        &memoryGroups{db: db},
		Notifications: &memoryNotifications{db: db},
	}, db
}

// PutUser adds or replaces a user.
func (db *MemoryDB) PutUser(u models.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID] = u
}

func cloneMessages(in []models.Message) []models.Message {
	out := make([]models.Message, len(in))
	copy(out, in)
	return out
}

func cloneThread(t *models.Thread) *models.Thread {
	c := *t
	c.Participants = append([]string(nil), t.Participants...)
	c.Messages = cloneMessages(t.Messages)
	return &c
}

func cloneGroup(g *models.GroupChat, withMessages bool) *models.GroupChat {
	c := *g
	c.Members = append([]string(nil), g.Members...)
	if withMessages {
		c.Messages = cloneMessages(g.Messages)
	} else {
		c.Messages = nil
	}
	return &c
}

type memoryUsers struct{ db *MemoryDB }

func (r *memoryUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryUsers) GetUsers(_ context.Context, ids []string) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.User{}
	seen := map[string]bool{}
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryUsers) ListUsers(_ context.Context) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memoryThreads struct{ db *MemoryDB }

func (r *memoryThreads) GetOrCreate(_ context.Context, a, b string, now time.Time) (*models.Thread, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := models.PairKey(a, b)
	for _, t := range r.db.threads {
		if t.PairKey == key {
			return cloneThread(t), nil
		}
	}
	participants := []string{a, b}
	sort.Strings(participants)
	t := &models.Thread{
		ID:           primitive.NewObjectID().Hex(),
		Participants: participants,
		PairKey:      key,
		Messages:     []models.Message{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.db.threads[t.ID] = t
	return cloneThread(t), nil
}

func (r *memoryThreads) Get(_ context.Context, id string) (*models.Thread, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	t, ok := r.db.threads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneThread(t), nil
}

func (r *memoryThreads) ListForUser(_ context.Context, userID string) ([]models.Thread, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.Thread{}
	for _, t := range r.db.threads {
		if t.HasParticipant(userID) {
			out = append(out, *cloneThread(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryThreads) AppendMessage(_ context.Context, threadID string, m models.Message) (*models.Thread, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.threads[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	t.Messages = append(t.Messages, m)
	t.UpdatedAt = m.Timestamp
	return cloneThread(t), nil
}

func (r *memoryThreads) EditMessage(_ context.Context, threadID, messageID, content string, at time.Time) (*models.Thread, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.threads[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	m, ok := t.FindMessage(messageID)
	if !ok {
		return nil, ErrNotFound
	}
	m.Content = content
	m.EditedAt = &at
	return cloneThread(t), nil
}

func (r *memoryThreads) DeleteMessage(_ context.Context, threadID, messageID string) (*models.Thread, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.threads[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range t.Messages {
		if t.Messages[i].ID == messageID {
			t.Messages = append(t.Messages[:i], t.Messages[i+1:]...)
			return cloneThread(t), nil
		}
	}
	return nil, ErrNotFound
}

type memoryGroups struct{ db *MemoryDB }

func (r *memoryGroups) EnsureWorld(_ context.Context, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.groups[models.WorldGroupID]; ok {
		return nil
	}
	r.db.groups[models.WorldGroupID] = &models.GroupChat{
		ID:          models.WorldGroupID,
		Name:        "World",
		Description: "Open chat for everyone on campus",
		Type:        models.GroupWorld,
		Messages:    []models.Message{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}

func (r *memoryGroups) Create(_ context.Context, g *models.GroupChat) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.groups[g.ID]; ok {
		return ErrDuplicate
	}
	c := cloneGroup(g, true)
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
	r.db.groups[g.ID] = c
	return nil
}

func (r *memoryGroups) Get(_ context.Context, id string) (*models.GroupChat, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	g, ok := r.db.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneGroup(g, true), nil
}

func (r *memoryGroups) ListForUser(_ context.Context, userID string) ([]models.GroupChat, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.GroupChat{}
	for _, g := range r.db.groups {
		if g.IsMember(userID) {
			out = append(out, *cloneGroup(g, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryGroups) AppendMessage(_ context.Context, groupID string, m models.Message) (*models.GroupChat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.groups[groupID]
	if !ok {
		return nil, ErrNotFound
	}
	g.Messages = append(g.Messages, m)
	g.UpdatedAt = m.Timestamp
	return cloneGroup(g, true), nil
}

func (r *memoryGroups) AddMembers(_ context.Context, groupID string, userIDs []string) (*models.GroupChat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.groups[groupID]
	if !ok {
		return nil, ErrNotFound
	}
	for _, id := range userIDs {
		if !g.IsMember(id) {
			g.Members = append(g.Members, id)
		}
	}
	g.UpdatedAt = time.Now().UTC()
	return cloneGroup(g, true), nil
}

func (r *memoryGroups) RemoveMember(_ context.Context, groupID, userID string) (*models.GroupChat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.groups[groupID]
	if !ok {
		return nil, ErrNotFound
	}
	kept := g.Members[:0]
	for _, m := range g.Members {
		if m != userID {
			kept = append(kept, m)
		}
	}
	g.Members = kept
	g.UpdatedAt = time.Now().UTC()
	return cloneGroup(g, true), nil
}

type memoryNotifications struct{ db *MemoryDB }

func (r *memoryNotifications) Create(_ context.Context, n *models.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.notifs[n.ID]; ok {
		return ErrDuplicate
	}
	c := *n
	r.db.seq++
	r.db.notifs[n.ID] = &c
	r.db.notifSeqs[n.ID] = r.db.seq
	return nil
}

func (r *memoryNotifications) Get(_ context.Context, id string) (*models.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	n, ok := r.db.notifs[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *n
	return &c, nil
}

func (r *memoryNotifications) ListForUser(_ context.Context, userID string) ([]models.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range r.db.notifs {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.db.notifSeqs[out[i].ID] > r.db.notifSeqs[out[j].ID]
	})
	return out, nil
}

func (r *memoryNotifications) MarkRead(_ context.Context, id string) (*models.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.db.notifs[id]
	if !ok {
		return nil, ErrNotFound
	}
	n.Read = true
	c := *n
	return &c, nil
}

func (r *memoryNotifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var changed int64
	for _, n := range r.db.notifs {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (r *memoryNotifications) CountUnread(_ context.Context, userID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var count int64
	for _, n := range r.db.notifs {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}
