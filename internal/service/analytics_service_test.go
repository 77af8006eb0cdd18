package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio-backend/internal/models"
)

func newTestAnalytics(repo *fakeEventRepo, now time.Time) *AnalyticsService {
	s := NewAnalyticsService(repo, zap.NewNop(), 16)
	s.now = func() time.Time { return now }
	return s
}

func TestIsBot(t *testing.T) {
	cases := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0", false},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true},
		{"Mozilla/5.0 (compatible; YandexBot/3.0)", true},
		{"crawler-test/1.0", true},
		{"Screaming Frog SEO Spider/19.0", true},
		{"Mozilla/5.0 AppleWebKit (compatible; Mediapartners-Google)", true},
		{"Slurp/3.0", true},
		{"", false},
		{"curl/8.4.0", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsBot(tc.ua), "ua=%q", tc.ua)
	}
}

func TestHashIPRotatesDaily(t *testing.T) {
	day1 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	h1 := HashIP("203.0.113.7", day1)
	h2 := HashIP("203.0.113.7", day2)

	assert.Len(t, h1, 16)
	assert.NotEqual(t, h1, h2)

	// Same IP and day always hash alike, even at a different hour.
	assert.Equal(t, h1, HashIP("203.0.113.7", day1.Add(5*time.Hour)))
	assert.NotEqual(t, h1, HashIP("203.0.113.8", day1))
	assert.NotContains(t, h1, "203.0.113.7")
}

func TestRecordPageViewDropsBots(t *testing.T) {
	repo := &fakeEventRepo{}
	s := newTestAnalytics(repo, time.Now())

	s.RecordPageView("/", "", "Googlebot/2.1", "203.0.113.7")
	s.Close()

	assert.Empty(t, repo.pageViews())
}

func TestRecordPageViewStoresParsedView(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{}
	s := newTestAnalytics(repo, now)

	const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	s.RecordPageView("/projects", "https://news.ycombinator.com/", iphoneUA, "203.0.113.7")
	s.Close()

	views := repo.pageViews()
	require.Len(t, views, 1)
	v := views[0]
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "/projects", v.Path)
	assert.Equal(t, "https://news.ycombinator.com/", v.Referrer)
	assert.Equal(t, "mobile", v.Device)
	assert.Equal(t, HashIP("203.0.113.7", now), v.IPHash)
	assert.Equal(t, now, v.CreatedAt)
}

func TestRecordSecurityEventKeepsRawIP(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{}
	s := newTestAnalytics(repo, now)

	s.RecordSecurityEvent(models.EventFailedLogin, "203.0.113.7", "admin@example.com", "curl/8.4.0")
	s.Close()

	events := repo.securityEvents()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventFailedLogin, events[0].Type)
	assert.Equal(t, "203.0.113.7", events[0].IP)
	assert.Equal(t, "admin@example.com", events[0].Detail)
	assert.Equal(t, now, events[0].CreatedAt)
}

func TestTrafficSummary(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{}
	s := newTestAnalytics(repo, now)
	defer s.Close()

	day := now.Format(dateFormat)
	view := func(path, ipHash, browser, device string) models.PageView {
		return models.PageView{
			Path: path, IPHash: ipHash, Browser: browser, Device: device,
			CreatedAt: now.Add(-time.Hour),
		}
	}
	repo.views = []models.PageView{
		view("/a", "h1", "Chrome", "desktop"),
		view("/a", "h1", "Chrome", "desktop"),
		view("/b", "h2", "Firefox", "mobile"),
	}

	summary, err := s.TrafficSummary(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalViews)
	assert.Equal(t, 2, summary.UniqueVisitors)

	require.Len(t, summary.Daily, 1)
	assert.Equal(t, DailyTraffic{Date: day, Views: 3, Unique: 2}, summary.Daily[0])

	assert.Equal(t, []PathCount{{Path: "/a", Count: 2}, {Path: "/b", Count: 1}}, summary.TopPages)
	assert.Empty(t, summary.TopReferrers)
	assert.Equal(t, []NameCount{{Name: "Chrome", Count: 2}, {Name: "Firefox", Count: 1}}, summary.Browsers)
	assert.Equal(t, []NameCount{{Name: "desktop", Count: 2}, {Name: "mobile", Count: 1}}, summary.Devices)
}

func TestTrafficSummaryTiesKeepScanOrder(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{}
	s := newTestAnalytics(repo, now)
	defer s.Close()

	for i, path := range []string{"/z", "/a", "/m"} {
		repo.views = append(repo.views, models.PageView{
			Path: path, IPHash: "h", Device: "desktop",
			CreatedAt: now.Add(-time.Duration(3-i) * time.Minute),
		})
	}

	summary, err := s.TrafficSummary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []PathCount{{Path: "/z", Count: 1}, {Path: "/a", Count: 1}, {Path: "/m", Count: 1}}, summary.TopPages)
}

func TestTrafficSummaryClampsWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{}
	s := newTestAnalytics(repo, now)
	defer s.Close()

	repo.views = []models.PageView{
		{Path: "/old", IPHash: "h", CreatedAt: now.AddDate(0, 0, -3)},
		{Path: "/new", IPHash: "h", CreatedAt: now.Add(-time.Hour)},
	}

	// Zero clamps to a single day, excluding the three-day-old view.
	summary, err := s.TrafficSummary(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalViews)
	assert.Equal(t, []PathCount{{Path: "/new", Count: 1}}, summary.TopPages)
}

func TestSecuritySummary(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{}
	s := newTestAnalytics(repo, now)
	defer s.Close()

	event := func(eventType, ip string, age time.Duration) models.SecurityEvent {
		return models.SecurityEvent{Type: eventType, IP: ip, CreatedAt: now.Add(-age)}
	}
	repo.events = []models.SecurityEvent{
		event(models.EventFailedLogin, "203.0.113.7", 3*time.Hour),
		event(models.EventFailedLogin, "203.0.113.7", 2*time.Hour),
		event(models.EventRateLimit, "203.0.113.9", time.Hour),
	}

	summary, err := s.SecuritySummary(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, map[string]int{
		models.EventFailedLogin: 2,
		models.EventRateLimit:   1,
	}, summary.TypeCounts)

	day := now.Format(dateFormat)
	require.Len(t, summary.Daily, 1)
	assert.Equal(t, day, summary.Daily[0].Date)
	assert.Equal(t, map[string]int{
		models.EventFailedLogin: 2,
		models.EventRateLimit:   1,
	}, summary.Daily[0].Counts)

	assert.Equal(t, []IPCount{{IP: "203.0.113.7", Count: 2}, {IP: "203.0.113.9", Count: 1}}, summary.TopIPs)

	// Recent is newest first.
	require.Len(t, summary.Recent, 3)
	assert.Equal(t, models.EventRateLimit, summary.Recent[0].Type)
}

func TestPurgeIsIdempotent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{}
	s := newTestAnalytics(repo, now)
	defer s.Close()

	repo.views = []models.PageView{
		{Path: "/old", CreatedAt: now.AddDate(0, 0, -100)},
		{Path: "/new", CreatedAt: now.Add(-time.Hour)},
	}
	repo.events = []models.SecurityEvent{
		{Type: models.EventRateLimit, CreatedAt: now.AddDate(0, 0, -100)},
	}

	result, err := s.Purge(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.PageViews)
	assert.Equal(t, int64(1), result.SecurityEvents)

	again, err := s.Purge(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.PageViews)
	assert.Equal(t, int64(0), again.SecurityEvents)

	require.Len(t, repo.pageViews(), 1)
	assert.Equal(t, "/new", repo.pageViews()[0].Path)
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 1, clampDays(0))
	assert.Equal(t, 1, clampDays(-5))
	assert.Equal(t, 7, clampDays(7))
	assert.Equal(t, 90, clampDays(90))
	assert.Equal(t, 90, clampDays(365))
}
