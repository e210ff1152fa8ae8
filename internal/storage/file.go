package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/richdownie/healthme/internal"
)

type FileStorage struct {
	activities        map[string]*internal.Activity   // id -> Activity
	userActivityIndex map[string][]*internal.Activity // userID -> activities (sorted ascending)
	users             map[string]*internal.User       // id -> User
	mu                sync.RWMutex
	activitiesFile    string
	usersFile         string
	saveActsChan      chan struct{}
	saveUsersChan     chan struct{}
	shutdownChan      chan struct{}
	closeOnce         sync.Once
	saveDelay         time.Duration
	logger            internal.Logger
}

func NewFileStorage(activitiesFile, usersFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		activities:        make(map[string]*internal.Activity),
		userActivityIndex: make(map[string][]*internal.Activity),
		users:             make(map[string]*internal.User),
		activitiesFile:    activitiesFile,
		usersFile:         usersFile,
		saveActsChan:      make(chan struct{}, 1),
		saveUsersChan:     make(chan struct{}, 1),
		shutdownChan:      make(chan struct{}),
		saveDelay:         500 * time.Millisecond,
		logger:            logger,
	}

	if err := s.loadActivities(); err != nil {
		logger.Errorf("storage: failed to load activities: %v", err)
		return nil, err
	}
	if err := s.loadUsers(); err != nil {
		logger.Errorf("storage: failed to load users: %v", err)
		return nil, err
	}

	go s.saveWorker(s.saveActsChan, "activities", s.saveActivities)
	go s.saveWorker(s.saveUsersChan, "users", s.saveUsers)

	return s, nil
}

func readJSONFile(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FileStorage) loadActivities() error {
	var acts []*internal.Activity
	if err := readJSONFile(s.activitiesFile, &acts); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range acts {
		s.activities[a.ID] = a
		s.userActivityIndex[a.UserID] = append(s.userActivityIndex[a.UserID], a)
	}
	for userID := range s.userActivityIndex {
		sortActivities(s.userActivityIndex[userID])
	}
	return nil
}

func (s *FileStorage) loadUsers() error {
	var users []*internal.User
	if err := readJSONFile(s.usersFile, &users); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
	return nil
}

func activityLess(a, b *internal.Activity) bool {
	if a.PerformedOn != b.PerformedOn {
		return a.PerformedOn < b.PerformedOn
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func sortActivities(acts []*internal.Activity) {
	sort.Slice(acts, func(i, j int) bool { return activityLess(acts[i], acts[j]) })
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveActivities() error {
	s.mu.RLock()
	acts := make([]*internal.Activity, 0, len(s.activities))
	for _, a := range s.activities {
		acts = append(acts, a.Clone())
	}
	s.mu.RUnlock()

	sortActivities(acts)
	return atomicWriteFileJSON(s.activitiesFile, acts)
}

func (s *FileStorage) saveUsers() error {
	s.mu.RLock()
	users := make([]internal.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return atomicWriteFileJSON(s.usersFile, users)
}

func (s *FileStorage) saveWorker(trigger <-chan struct{}, name string, save func() error) {
	timer := time.NewTimer(s.saveDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-trigger:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", name, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)

		// flush pending writes synchronously
		if err = s.saveActivities(); err != nil {
			return
		}
		err = s.saveUsers()
	})
	return err
}

// --- ActivityRepository ---
func (s *FileStorage) SaveActivity(ctx context.Context, a *internal.Activity) error {
	stored := a.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.activities[a.ID]; ok {
		s.removeFromIndex(prev)
	}
	s.activities[a.ID] = stored
	acts := s.userActivityIndex[a.UserID]
	i := sort.Search(len(acts), func(i int) bool { return activityLess(stored, acts[i]) })
	acts = append(acts, nil)
	copy(acts[i+1:], acts[i:])
	acts[i] = stored
	s.userActivityIndex[a.UserID] = acts

	notify(s.saveActsChan)
	return nil
}

func (s *FileStorage) removeFromIndex(a *internal.Activity) {
	acts := s.userActivityIndex[a.UserID]
	for i, existing := range acts {
		if existing.ID == a.ID {
			s.userActivityIndex[a.UserID] = append(acts[:i], acts[i+1:]...)
			return
		}
	}
}

func (s *FileStorage) GetActivity(ctx context.Context, id string) (*internal.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, fmt.Errorf("storage: activity %s: %w", id, internal.ErrNotFound)
	}
	return a.Clone(), nil
}

func (s *FileStorage) DeleteActivity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok {
		return fmt.Errorf("storage: activity %s: %w", id, internal.ErrNotFound)
	}
	delete(s.activities, id)
	s.removeFromIndex(a)
	notify(s.saveActsChan)
	return nil
}

func (s *FileStorage) ListActivitiesByDate(ctx context.Context, userID, date string) ([]internal.Activity, error) {
	return s.ListActivitiesInRange(ctx, userID, date, date)
}

func (s *FileStorage) ListActivitiesInRange(ctx context.Context, userID, from, to string) ([]internal.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.Activity{}
	for _, a := range s.userActivityIndex[userID] {
		if a.PerformedOn < from {
			continue
		}
		if a.PerformedOn > to {
			break
		}
		out = append(out, *a.Clone())
	}
	return out, nil
}

func (s *FileStorage) LatestActivity(ctx context.Context, userID string, categories []internal.Category) (*internal.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *internal.Activity
	for _, a := range s.userActivityIndex[userID] {
		if !containsCategory(categories, a.Category) {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("storage: latest activity: %w", internal.ErrNotFound)
	}
	return latest.Clone(), nil
}

func containsCategory(cs []internal.Category, c internal.Category) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}

// --- UserRepository ---
func (s *FileStorage) SaveUser(ctx context.Context, u *internal.User) error {
	c := *u
	s.mu.Lock()
	s.users[u.ID] = &c
	s.mu.Unlock()
	notify(s.saveUsersChan)
	return nil
}

func (s *FileStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("storage: user %s: %w", id, internal.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (s *FileStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token != "" {
		for _, u := range s.users {
			if u.Token == token {
				c := *u
				return &c, nil
			}
		}
	}
	return nil, fmt.Errorf("storage: user token: %w", internal.ErrNotFound)
}

// --- Compile-time assertions ---
var _ Store = (*FileStorage)(nil)
