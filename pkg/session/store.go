package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ritzau/binview/pkg/logging"
	"github.com/ritzau/binview/pkg/pubsub"
)

var log = logging.New("session")

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when no session has the given id or key.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidPayload is returned for module results that are not JSON.
	ErrInvalidPayload = errors.New("invalid result payload")
)

// Store holds the open sessions, at most one per key.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*Session
	byKey map[Key]*Session
	pub   pubsub.Publisher
}

// NewStore creates a store. Lifecycle and selection events go to pub when it
// is non-nil.
func NewStore(pub pubsub.Publisher) *Store {
	return &Store{
		byID:  make(map[string]*Session),
		byKey: make(map[Key]*Session),
		pub:   pub,
	}
}

// Open builds a fresh session for key from raw module results. A session
// already open for the same key is discarded.
func (st *Store) Open(key Key, raw []byte) (*Session, error) {
	result, ok := parse(raw)
	if !ok {
		return nil, fmt.Errorf("open %s/%s: %w", key.Module, key.OID, ErrInvalidPayload)
	}

	sess := newSession(uuid.NewString(), key, result)

	st.mu.Lock()
	old := st.byKey[key]
	if old != nil {
		delete(st.byID, old.ID)
	}
	st.byID[sess.ID] = sess
	st.byKey[key] = sess
	st.mu.Unlock()

	if old != nil {
		log.Debug("replaced session", "old", old.ID, "new", sess.ID, "module", key.Module)
		st.publishClosed(old)
	}
	log.Info("opened view", "session", sess.ID, "module", key.Module, "oid", key.OID)

	view := sess.View()
	st.publish(sess, pubsub.EventOpened, view)
	return sess, nil
}

// Reload replaces the payload of the session open for key, keeping its id
// and re-resolving its selection.
func (st *Store) Reload(key Key, raw []byte) (*Session, error) {
	st.mu.RLock()
	sess := st.byKey[key]
	st.mu.RUnlock()
	if sess == nil {
		return nil, fmt.Errorf("reload %s/%s: %w", key.Module, key.OID, ErrNotFound)
	}

	result, ok := parse(raw)
	if !ok {
		return nil, fmt.Errorf("reload %s/%s: %w", key.Module, key.OID, ErrInvalidPayload)
	}

	view := sess.reload(result)
	log.Info("reloaded view", "session", sess.ID, "module", key.Module, "revision", view.Revision)
	st.publish(sess, pubsub.EventReloaded, view)
	return sess, nil
}

// Get returns the session with the given id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.byID[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, nil
}

// Lookup returns the session open for key.
func (st *Store) Lookup(key Key) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.byKey[key]
	return sess, ok
}

// Sessions returns the open sessions, oldest first.
func (st *Store) Sessions() []*Session {
	st.mu.RLock()
	list := make([]*Session, 0, len(st.byID))
	for _, sess := range st.byID {
		list = append(list, sess)
	}
	st.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].Created.Equal(list[j].Created) {
			return list[i].Created.Before(list[j].Created)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// Close discards a session.
func (st *Store) Close(id string) error {
	st.mu.Lock()
	sess, ok := st.byID[id]
	if ok {
		delete(st.byID, id)
		if st.byKey[sess.Key] == sess {
			delete(st.byKey, sess.Key)
		}
	}
	st.mu.Unlock()

	if !ok {
		return fmt.Errorf("close %s: %w", id, ErrNotFound)
	}
	log.Info("closed view", "session", id)
	st.publishClosed(sess)
	return nil
}

// SelectNode selects a node in the session and publishes the new view.
func (st *Store) SelectNode(id, node string) (*View, error) {
	return st.selectWith(id, func(s *Session) *View { return s.SelectNode(node) })
}

// SelectFunction selects a function in the session and publishes the new view.
func (st *Store) SelectFunction(id, function string) (*View, error) {
	return st.selectWith(id, func(s *Session) *View { return s.SelectFunction(function) })
}

// SelectBlock selects a block in the session and publishes the new view.
func (st *Store) SelectBlock(id, block string) (*View, error) {
	return st.selectWith(id, func(s *Session) *View { return s.SelectBlock(block) })
}

func (st *Store) selectWith(id string, fn func(*Session) *View) (*View, error) {
	sess, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	view := fn(sess)
	st.publish(sess, pubsub.EventSelection, view)
	return view, nil
}

func (st *Store) publish(sess *Session, eventType string, view *View) {
	if st.pub == nil {
		return
	}
	if err := st.pub.Publish(pubsub.ViewTopic(sess.ID), eventType, view); err != nil {
		log.Warn("publish view event failed", "session", sess.ID, "type", eventType, "error", err)
	}
	if eventType == pubsub.EventSelection {
		return
	}
	if err := st.pub.Publish(pubsub.TopicViewStatus, eventType, status(sess, eventType, view)); err != nil {
		log.Warn("publish view status failed", "session", sess.ID, "type", eventType, "error", err)
	}
}

func (st *Store) publishClosed(sess *Session) {
	if st.pub == nil {
		return
	}
	data := map[string]string{"id": sess.ID}
	if err := st.pub.Publish(pubsub.ViewTopic(sess.ID), pubsub.EventClosed, data); err != nil {
		log.Warn("publish close failed", "session", sess.ID, "error", err)
	}
	if err := st.pub.Publish(pubsub.TopicViewStatus, pubsub.EventClosed, status(sess, pubsub.EventClosed, nil)); err != nil {
		log.Warn("publish view status failed", "session", sess.ID, "error", err)
	}
	if f, ok := st.pub.(interface{ Forget(string) }); ok {
		f.Forget(pubsub.ViewTopic(sess.ID))
	}
}

func status(sess *Session, state string, view *View) pubsub.ViewStatus {
	vs := pubsub.ViewStatus{
		SessionID:  sess.ID,
		Collection: sess.Key.Collection,
		OID:        sess.Key.OID,
		Module:     sess.Key.Module,
		State:      state,
	}
	if view != nil && view.Graph != nil {
		vs.Nodes = len(view.Graph.Elements.Nodes)
		vs.Edges = len(view.Graph.Elements.Edges)
	}
	if view != nil && view.ControlFlow != nil {
		vs.Nodes = len(view.ControlFlow.Elements.Nodes)
		vs.Edges = len(view.ControlFlow.Elements.Edges)
	}
	return vs
}
