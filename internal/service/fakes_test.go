package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository/sqlite"
)

// fakeEventRepo is an in-memory EventRepository. The recording worker writes
// from its own goroutine, so access is locked.
type fakeEventRepo struct {
	mu     sync.Mutex
	views  []models.PageView
	events []models.SecurityEvent
}

func (f *fakeEventRepo) InsertPageView(_ context.Context, view *models.PageView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, *view)
	return nil
}

func (f *fakeEventRepo) InsertSecurityEvent(_ context.Context, event *models.SecurityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventRepo) PageViewsSince(_ context.Context, since time.Time) ([]models.PageView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PageView
	for _, v := range f.views {
		if !v.CreatedAt.Before(since) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeEventRepo) SecurityEventsSince(_ context.Context, since time.Time) ([]models.SecurityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SecurityEvent
	for _, e := range f.events {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeEventRepo) DeletePageViewsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.PageView
	var deleted int64
	for _, v := range f.views {
		if v.CreatedAt.Before(cutoff) {
			deleted++
		} else {
			kept = append(kept, v)
		}
	}
	f.views = kept
	return deleted, nil
}

func (f *fakeEventRepo) DeleteSecurityEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.SecurityEvent
	var deleted int64
	for _, e := range f.events {
		if e.CreatedAt.Before(cutoff) {
			deleted++
		} else {
			kept = append(kept, e)
		}
	}
	f.events = kept
	return deleted, nil
}

func (f *fakeEventRepo) pageViews() []models.PageView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PageView(nil), f.views...)
}

func (f *fakeEventRepo) securityEvents() []models.SecurityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SecurityEvent(nil), f.events...)
}

// captureRecorder records security events synchronously for assertions.
type captureRecorder struct {
	mu     sync.Mutex
	events []models.SecurityEvent
}

func (c *captureRecorder) RecordSecurityEvent(eventType, ip, detail, userAgent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, models.SecurityEvent{
		Type:      eventType,
		IP:        ip,
		Detail:    detail,
		UserAgent: userAgent,
	})
}

func (c *captureRecorder) recorded() []models.SecurityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.SecurityEvent(nil), c.events...)
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := f.users[email]; ok {
		u := *user
		return &u, nil
	}
	return nil, sqlite.ErrNotFound
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *models.User) error {
	if f.users == nil {
		f.users = make(map[string]*models.User)
	}
	u := *user
	f.users[user.Email] = &u
	return nil
}

type fakeMessageRepo struct {
	messages []models.Message
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *models.Message) error {
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) List(_ context.Context) ([]models.Message, error) {
	out := append([]models.Message(nil), f.messages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMessageRepo) SetRead(_ context.Context, id string, read bool) (*models.Message, error) {
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages[i].Read = read
			msg := f.messages[i]
			return &msg, nil
		}
	}
	return nil, sqlite.ErrNotFound
}

func (f *fakeMessageRepo) Delete(_ context.Context, id string) error {
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return sqlite.ErrNotFound
}

type fakeSettingRepo struct {
	settings map[string]string
}

func (f *fakeSettingRepo) Upsert(_ context.Context, key, value string) (*models.Setting, error) {
	if f.settings == nil {
		f.settings = make(map[string]string)
	}
	f.settings[key] = value
	return &models.Setting{Key: key, Value: value}, nil
}

func (f *fakeSettingRepo) Get(_ context.Context, key string) (*models.Setting, error) {
	if value, ok := f.settings[key]; ok {
		return &models.Setting{Key: key, Value: value}, nil
	}
	return nil, sqlite.ErrNotFound
}

func (f *fakeSettingRepo) List(_ context.Context) ([]models.Setting, error) {
	keys := make([]string, 0, len(f.settings))
	for k := range f.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.Setting, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.Setting{Key: k, Value: f.settings[k]})
	}
	return out, nil
}
