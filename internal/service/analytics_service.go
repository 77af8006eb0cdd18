package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository/sqlite"
	"portfolio-backend/internal/util"
)

const (
	maxWindowDays  = 90
	topNLimit      = 10
	recentLimit    = 50
	recordTimeout  = 5 * time.Second
	dateFormat     = "2006-01-02"
	deviceFallback = "desktop"
)

// botMarkers is matched case-insensitively as substrings; a hit means the
// page view is silently discarded.
var botMarkers = []string{"bot", "crawler", "spider", "crawling", "slurp", "mediapartners"}

// IsBot reports whether a user agent belongs to a known crawler.
func IsBot(ua string) bool {
	lower := strings.ToLower(ua)
	for _, marker := range botMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// HashIP hashes an IP with the given day as salt and truncates to 16 hex
// chars. The daily rotation keeps same-day uniqueness countable without a
// stable cross-day identifier.
func HashIP(ip string, day time.Time) string {
	sum := sha256.Sum256([]byte(ip + day.UTC().Format(dateFormat)))
	return hex.EncodeToString(sum[:])[:16]
}

// AnalyticsService owns the two append-only event logs: best-effort recording
// on the write side, windowed summaries on the read side, and retention
// purging. Recording never blocks or fails the caller's request.
type AnalyticsService struct {
	events sqlite.EventRepository
	logger *zap.Logger
	now    func() time.Time

	queue     chan recordTask
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type recordTask struct {
	kind string
	run  func(ctx context.Context) error
}

// NewAnalyticsService creates the service and starts its recording worker.
func NewAnalyticsService(events sqlite.EventRepository, logger *zap.Logger, queueSize int) *AnalyticsService {
	s := &AnalyticsService{
		events: events,
		logger: logger,
		now:    time.Now,
		queue:  make(chan recordTask, queueSize),
	}

	s.wg.Add(1)
	go s.recordLoop()

	return s
}

// Close drains the recording queue.
func (s *AnalyticsService) Close() {
	s.closeOnce.Do(func() { close(s.queue) })
	s.wg.Wait()
}

func (s *AnalyticsService) recordLoop() {
	defer s.wg.Done()
	for task := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := task.run(ctx); err != nil {
			// Central sink for every best-effort failure.
			s.logger.Error("analytics record failed",
				util.String("kind", task.kind),
				util.ErrorField(err))
		}
		cancel()
	}
}

func (s *AnalyticsService) submit(task recordTask) {
	select {
	case s.queue <- task:
	default:
		s.logger.Warn("analytics queue full, dropping record",
			util.String("kind", task.kind))
	}
}

// RecordPageView queues a page view for persistence. Bot traffic is dropped
// before parsing, and only the day-salted hash of the IP is ever stored.
func (s *AnalyticsService) RecordPageView(path, referrer, userAgent, ip string) {
	if IsBot(userAgent) {
		return
	}

	ua := useragent.Parse(userAgent)
	device := deviceFallback
	if ua.Mobile {
		device = "mobile"
	} else if ua.Tablet {
		device = "tablet"
	}

	now := s.now().UTC()
	view := &models.PageView{
		ID:        uuid.NewString(),
		Path:      path,
		Referrer:  referrer,
		Browser:   ua.Name,
		OS:        ua.OS,
		Device:    device,
		IPHash:    HashIP(ip, now),
		CreatedAt: now,
	}

	s.submit(recordTask{
		kind: "page_view",
		run: func(ctx context.Context) error {
			return s.events.InsertPageView(ctx, view)
		},
	})
}

// RecordSecurityEvent queues an abuse record. The raw IP is kept on purpose:
// these rows drive blocking decisions and are purged after the retention
// horizon anyway.
func (s *AnalyticsService) RecordSecurityEvent(eventType, ip, detail, userAgent string) {
	event := &models.SecurityEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		IP:        ip,
		Detail:    detail,
		UserAgent: userAgent,
		CreatedAt: s.now().UTC(),
	}

	s.submit(recordTask{
		kind: "security_event",
		run: func(ctx context.Context) error {
			return s.events.InsertSecurityEvent(ctx, event)
		},
	})
}

// DailyTraffic is one day's page view counts.
type DailyTraffic struct {
	Date   string `json:"date"`
	Views  int    `json:"views"`
	Unique int    `json:"unique"`
}

// PathCount pairs a page path with its view count.
type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// ReferrerCount pairs a referrer with its view count.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int    `json:"count"`
}

// NameCount is a generic name/count pair for browser and device breakdowns.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TrafficSummary is the aggregated traffic report for a trailing window.
type TrafficSummary struct {
	TotalViews     int             `json:"totalViews"`
	UniqueVisitors int             `json:"uniqueVisitors"`
	Daily          []DailyTraffic  `json:"daily"`
	TopPages       []PathCount     `json:"topPages"`
	TopReferrers   []ReferrerCount `json:"topReferrers"`
	Browsers       []NameCount     `json:"browsers"`
	Devices        []NameCount     `json:"devices"`
}

// TrafficSummary aggregates page views over the trailing windowDays days,
// clamped to [1, 90]. Pure read; safe to call concurrently.
func (s *AnalyticsService) TrafficSummary(ctx context.Context, windowDays int) (*TrafficSummary, error) {
	since := s.now().UTC().AddDate(0, 0, -clampDays(windowDays))

	views, err := s.events.PageViewsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("traffic summary: %w", err)
	}

	daily := make(map[string]*DailyTraffic)
	dailyIPs := make(map[string]map[string]struct{})
	pages := newFrequencyTable()
	referrers := newFrequencyTable()
	browsers := newFrequencyTable()
	devices := newFrequencyTable()
	allIPs := make(map[string]struct{})

	for _, v := range views {
		day := v.CreatedAt.UTC().Format(dateFormat)
		entry := daily[day]
		if entry == nil {
			entry = &DailyTraffic{Date: day}
			daily[day] = entry
			dailyIPs[day] = make(map[string]struct{})
		}
		entry.Views++
		dailyIPs[day][v.IPHash] = struct{}{}
		allIPs[v.IPHash] = struct{}{}

		pages.add(v.Path)
		if v.Referrer != "" {
			referrers.add(v.Referrer)
		}
		browser := v.Browser
		if browser == "" {
			browser = "Unknown"
		}
		browsers.add(browser)
		device := v.Device
		if device == "" {
			device = deviceFallback
		}
		devices.add(device)
	}

	days := make([]DailyTraffic, 0, len(daily))
	for day, entry := range daily {
		entry.Unique = len(dailyIPs[day])
		days = append(days, *entry)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	summary := &TrafficSummary{
		TotalViews:     len(views),
		UniqueVisitors: len(allIPs),
		Daily:          days,
		TopPages:       make([]PathCount, 0, topNLimit),
		TopReferrers:   make([]ReferrerCount, 0, topNLimit),
		Browsers:       make([]NameCount, 0, len(browsers.order)),
		Devices:        make([]NameCount, 0, len(devices.order)),
	}

	for _, e := range pages.sortedDesc(topNLimit) {
		summary.TopPages = append(summary.TopPages, PathCount{Path: e.key, Count: e.count})
	}
	for _, e := range referrers.sortedDesc(topNLimit) {
		summary.TopReferrers = append(summary.TopReferrers, ReferrerCount{Referrer: e.key, Count: e.count})
	}
	for _, e := range browsers.sortedDesc(0) {
		summary.Browsers = append(summary.Browsers, NameCount{Name: e.key, Count: e.count})
	}
	for _, e := range devices.sortedDesc(0) {
		summary.Devices = append(summary.Devices, NameCount{Name: e.key, Count: e.count})
	}

	return summary, nil
}

// DailySecurity is one day of per-type counts. It marshals with the type
// counts inlined next to the date, matching the shape the admin UI charts.
type DailySecurity struct {
	Date   string
	Counts map[string]int
}

func (d DailySecurity) MarshalJSON() ([]byte, error) {
	row := make(map[string]interface{}, len(d.Counts)+1)
	row["date"] = d.Date
	for eventType, count := range d.Counts {
		row[eventType] = count
	}
	return json.Marshal(row)
}

// IPCount pairs an IP with its event count.
type IPCount struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// SecuritySummary is the aggregated security report for a trailing window.
type SecuritySummary struct {
	Total      int                    `json:"total"`
	TypeCounts map[string]int         `json:"typeCounts"`
	Daily      []DailySecurity        `json:"daily"`
	TopIPs     []IPCount              `json:"topIps"`
	Recent     []models.SecurityEvent `json:"recent"`
}

// SecuritySummary aggregates security events over the trailing windowDays
// days, clamped to [1, 90]. Pure read; safe to call concurrently.
func (s *AnalyticsService) SecuritySummary(ctx context.Context, windowDays int) (*SecuritySummary, error) {
	since := s.now().UTC().AddDate(0, 0, -clampDays(windowDays))

	// Repository orders newest-first; the recent tail is the head slice.
	events, err := s.events.SecurityEventsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("security summary: %w", err)
	}

	typeCounts := make(map[string]int)
	daily := make(map[string]map[string]int)
	ips := newFrequencyTable()

	for _, e := range events {
		typeCounts[e.Type]++

		day := e.CreatedAt.UTC().Format(dateFormat)
		if daily[day] == nil {
			daily[day] = make(map[string]int)
		}
		daily[day][e.Type]++

		ips.add(e.IP)
	}

	days := make([]DailySecurity, 0, len(daily))
	for day, counts := range daily {
		days = append(days, DailySecurity{Date: day, Counts: counts})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	summary := &SecuritySummary{
		Total:      len(events),
		TypeCounts: typeCounts,
		Daily:      days,
		TopIPs:     make([]IPCount, 0, topNLimit),
		Recent:     events,
	}
	if len(summary.Recent) > recentLimit {
		summary.Recent = summary.Recent[:recentLimit]
	}
	for _, e := range ips.sortedDesc(topNLimit) {
		summary.TopIPs = append(summary.TopIPs, IPCount{IP: e.key, Count: e.count})
	}

	return summary, nil
}

// PurgeResult reports how many rows a retention purge removed.
type PurgeResult struct {
	SecurityEvents int64 `json:"securityEvents"`
	PageViews      int64 `json:"pageViews"`
}

// Purge deletes events strictly older than retentionDays. Both logs are
// purged in parallel; each delete targets exactly one table so there is no
// cross-table invariant to hold. Idempotent.
func (s *AnalyticsService) Purge(ctx context.Context, retentionDays int) (*PurgeResult, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)

	var result PurgeResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.events.DeleteSecurityEventsBefore(gctx, cutoff)
		result.SecurityEvents = n
		return err
	})
	g.Go(func() error {
		n, err := s.events.DeletePageViewsBefore(gctx, cutoff)
		result.PageViews = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("purge: %w", err)
	}

	s.logger.Info("analytics purge completed",
		util.Int64("security_events_deleted", result.SecurityEvents),
		util.Int64("page_views_deleted", result.PageViews))

	return &result, nil
}

func clampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > maxWindowDays {
		return maxWindowDays
	}
	return days
}

// frequencyTable counts keys while remembering first-occurrence order, so
// top-N ties resolve to whichever key was seen first in the scanned set.
type frequencyTable struct {
	counts map[string]int
	order  []string
}

func newFrequencyTable() *frequencyTable {
	return &frequencyTable{counts: make(map[string]int)}
}

func (t *frequencyTable) add(key string) {
	if _, seen := t.counts[key]; !seen {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

type frequencyEntry struct {
	key   string
	count int
}

// sortedDesc returns entries by descending count, ties in first-seen order.
// limit <= 0 means no truncation.
func (t *frequencyTable) sortedDesc(limit int) []frequencyEntry {
	entries := make([]frequencyEntry, 0, len(t.order))
	for _, key := range t.order {
		entries = append(entries, frequencyEntry{key: key, count: t.counts[key]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].count > entries[j].count })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
