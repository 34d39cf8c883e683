package serviceimpl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face-attendance/domain/matching"
	"face-attendance/domain/models"
	"face-attendance/domain/repositories"
	"face-attendance/domain/services"
	"face-attendance/infrastructure/faceapi"
)

// fakeExtractor returns a canned embedding keyed by the image payload, so
// tests can drive the matcher with plain byte strings.
type fakeExtractor struct {
	embeddings map[string][]float32
}

func (f *fakeExtractor) ExtractEmbedding(_ context.Context, imageData []byte, _ string) ([]float32, error) {
	vec, ok := f.embeddings[string(imageData)]
	if !ok {
		return nil, faceapi.ErrNoFaceFound
	}
	return vec, nil
}

type fakeGallery struct {
	entries []matching.GalleryEntry
}

func (f *fakeGallery) Load(context.Context) error        { return nil }
func (f *fakeGallery) Refresh(context.Context) error     { return nil }
func (f *fakeGallery) Snapshot() []matching.GalleryEntry { return f.entries }
func (f *fakeGallery) Size() int                         { return len(f.entries) }
func (f *fakeGallery) LastRefresh() time.Time            { return time.Time{} }
func (f *fakeGallery) Available() bool                   { return true }

// fakeLedger is an in-memory AttendanceRepository. WithIdentityLock takes a
// per-identity mutex, mirroring the serialization the real implementation
// provides with an advisory lock.
type fakeLedger struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	events []models.AttendanceEvent
	nextID uint
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{locks: map[string]*sync.Mutex{}, nextID: 1}
}

func (l *fakeLedger) identityLock(regNo string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[regNo]
	if !ok {
		m = &sync.Mutex{}
		l.locks[regNo] = m
	}
	return m
}

func (l *fakeLedger) LatestOfflineType(_ context.Context, regNo, date string) (models.EventType, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		e := l.events[i]
		if e.RegNo == regNo && e.Date == date && e.Mode == models.ModeOffline {
			return e.Type, true, nil
		}
	}
	return "", false, nil
}

func (l *fakeLedger) HasOnlineMark(_ context.Context, regNo, date string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.RegNo == regNo && e.Date == date && e.Mode == models.ModeOnline {
			return true, nil
		}
	}
	return false, nil
}

func (l *fakeLedger) Append(_ context.Context, event *models.AttendanceEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	event.ID = l.nextID
	l.nextID++
	l.events = append(l.events, *event)
	return nil
}

func (l *fakeLedger) History(_ context.Context, regNo string) ([]models.AttendanceEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.AttendanceEvent
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].RegNo == regNo {
			out = append(out, l.events[i])
		}
	}
	return out, nil
}

func (l *fakeLedger) WithIdentityLock(_ context.Context, regNo string, fn func(tx repositories.AttendanceRepository) error) error {
	m := l.identityLock(regNo)
	m.Lock()
	defer m.Unlock()
	return fn(l)
}

func (l *fakeLedger) eventsFor(regNo string) []models.AttendanceEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.AttendanceEvent
	for _, e := range l.events {
		if e.RegNo == regNo {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(ledger *fakeLedger) services.AttendanceService {
	extractor := &fakeExtractor{embeddings: map[string][]float32{
		"alice": {1, 0, 0},
		"bob":   {0, 1, 0},
		"ghost": {0, 0, 1},
	}}
	gallery := &fakeGallery{entries: []matching.GalleryEntry{
		{RegNo: "S001", Name: "Alice", Embedding: []float32{1, 0, 0}},
		{RegNo: "S002", Name: "Bob", Embedding: []float32{0, 1, 0}},
	}}
	return NewAttendanceService(extractor, matching.NewMatcher(0.7), gallery, ledger, nil, nil, 5, 3)
}

func TestMarkInOutAlternation(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)
	ctx := context.Background()

	res, err := svc.MarkIn(ctx, []byte("alice"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCheckedIn, res.Outcome)
	assert.Equal(t, "S001", res.RegNo)
	assert.Equal(t, "Alice", res.Name)

	res, err = svc.MarkOut(ctx, []byte("alice"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCheckedOut, res.Outcome)

	res, err = svc.MarkIn(ctx, []byte("alice"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCheckedIn, res.Outcome)

	res, err = svc.MarkOut(ctx, []byte("alice"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCheckedOut, res.Outcome)

	events := ledger.eventsFor("S001")
	require.Len(t, events, 4)
	wantTypes := []models.EventType{models.EventIn, models.EventOut, models.EventIn, models.EventOut}
	for i, e := range events {
		assert.Equal(t, wantTypes[i], e.Type)
		assert.Equal(t, models.ModeOffline, e.Mode)
	}
}

func TestMarkOutWithoutCheckIn(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)

	res, err := svc.MarkOut(context.Background(), []byte("alice"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeMustCheckInFirst, res.Outcome)
	assert.Equal(t, "S001", res.RegNo)
	assert.Empty(t, ledger.eventsFor("S001"))
}

func TestMarkInTwiceRejected(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)
	ctx := context.Background()

	_, err := svc.MarkIn(ctx, []byte("alice"), "image/jpeg")
	require.NoError(t, err)

	res, err := svc.MarkIn(ctx, []byte("alice"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAlreadyCheckedIn, res.Outcome)
	assert.Len(t, ledger.eventsFor("S001"), 1)
}

func TestMarkOnlineIdempotent(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)
	ctx := context.Background()

	res, err := svc.MarkOnline(ctx, []byte("bob"), "image/jpeg", "S002")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeVerified, res.Outcome)

	res, err = svc.MarkOnline(ctx, []byte("bob"), "image/jpeg", "S002")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAlreadyVerified, res.Outcome)

	events := ledger.eventsFor("S002")
	require.Len(t, events, 1)
	assert.Equal(t, models.EventPresent, events[0].Type)
	assert.Equal(t, models.ModeOnline, events[0].Mode)
}

func TestMarkOnlineIdentityMismatch(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)

	res, err := svc.MarkOnline(context.Background(), []byte("alice"), "image/jpeg", "S002")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeIdentityMismatch, res.Outcome)
	assert.Empty(t, res.RegNo)
	assert.Empty(t, ledger.eventsFor("S001"))
	assert.Empty(t, ledger.eventsFor("S002"))
}

func TestMarkNoFaceDetected(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)

	res, err := svc.MarkIn(context.Background(), []byte("blank"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeNoFaceDetected, res.Outcome)
	assert.Empty(t, ledger.eventsFor("S001"))
}

func TestMarkNoMatchKeepsScore(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)

	res, err := svc.MarkIn(context.Background(), []byte("ghost"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeNoMatch, res.Outcome)
	assert.Empty(t, res.RegNo)
	assert.InDelta(t, 0.0, res.Score, 1e-9)
}

func TestConcurrentMarkInSingleWinner(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)
	ctx := context.Background()

	const n = 16
	outcomes := make([]services.MarkOutcome, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.MarkIn(ctx, []byte("alice"), "image/jpeg")
			if err != nil {
				errs[i] = err
				return
			}
			outcomes[i] = res.Outcome
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	checkedIn := 0
	for _, o := range outcomes {
		switch o {
		case services.OutcomeCheckedIn:
			checkedIn++
		case services.OutcomeAlreadyCheckedIn:
		default:
			t.Fatalf("unexpected outcome %q", o)
		}
	}
	assert.Equal(t, 1, checkedIn)
	assert.Len(t, ledger.eventsFor("S001"), 1)
}

func TestHistoryNewestFirst(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)
	ctx := context.Background()

	_, err := svc.MarkIn(ctx, []byte("alice"), "image/jpeg")
	require.NoError(t, err)
	_, err = svc.MarkOut(ctx, []byte("alice"), "image/jpeg")
	require.NoError(t, err)

	events, err := svc.History(ctx, "S001")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventOut, events[0].Type)
	assert.Equal(t, models.EventIn, events[1].Type)
}
