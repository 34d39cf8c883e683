package serviceimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"face-attendance/domain/matching"
	"face-attendance/domain/models"
	"face-attendance/domain/repositories"
	"face-attendance/domain/services"
	"face-attendance/infrastructure/faceapi"
	"face-attendance/pkg/logger"
)

const historyCacheTTL = 5 * time.Minute

// EmbeddingExtractor extracts a single face embedding from image bytes.
type EmbeddingExtractor interface {
	ExtractEmbedding(ctx context.Context, imageData []byte, mimeType string) ([]float32, error)
}

// HistoryCache is the optional read-through cache over attendance history.
// A nil cache or any cache error degrades to a direct ledger read.
type HistoryCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type cacheNilChecker func(error) bool

type AttendanceServiceImpl struct {
	extractor      EmbeddingExtractor
	matcher        *matching.Matcher
	gallery        services.GalleryService
	attendanceRepo repositories.AttendanceRepository
	cache          HistoryCache
	cacheIsNil     cacheNilChecker

	opTimeout   time.Duration
	lockRetries int
	now         func() time.Time
}

func NewAttendanceService(
	extractor EmbeddingExtractor,
	matcher *matching.Matcher,
	gallery services.GalleryService,
	attendanceRepo repositories.AttendanceRepository,
	cache HistoryCache,
	cacheIsNil func(error) bool,
	opTimeoutSeconds int,
	lockRetries int,
) services.AttendanceService {
	return &AttendanceServiceImpl{
		extractor:      extractor,
		matcher:        matcher,
		gallery:        gallery,
		attendanceRepo: attendanceRepo,
		cache:          cache,
		cacheIsNil:     cacheIsNil,
		opTimeout:      time.Duration(opTimeoutSeconds) * time.Second,
		lockRetries:    lockRetries,
		now:            time.Now,
	}
}

func (s *AttendanceServiceImpl) MarkIn(ctx context.Context, imageData []byte, mimeType string) (*services.MarkResult, error) {
	return s.markOffline(ctx, imageData, mimeType, models.EventIn)
}

func (s *AttendanceServiceImpl) MarkOut(ctx context.Context, imageData []byte, mimeType string) (*services.MarkResult, error) {
	return s.markOffline(ctx, imageData, mimeType, models.EventOut)
}

// markOffline resolves the identity, then applies the in/out alternation
// rule inside the per-identity critical section. The state read and the
// conditional append share one locked transaction so concurrent requests
// for the same person cannot both act on stale state.
func (s *AttendanceServiceImpl) markOffline(ctx context.Context, imageData []byte, mimeType string, want models.EventType) (*services.MarkResult, error) {
	match, reject, err := s.recognize(ctx, imageData, mimeType)
	if err != nil {
		return nil, err
	}
	if reject != nil {
		return reject, nil
	}

	now := s.now()
	date := now.Format(models.DateLayout)

	result := &services.MarkResult{RegNo: match.RegNo, Name: match.Name, Score: match.Score}

	err = s.withLedger(ctx, match.RegNo, func(tx repositories.AttendanceRepository) error {
		latest, found, err := tx.LatestOfflineType(ctx, match.RegNo, date)
		if err != nil {
			return err
		}

		switch want {
		case models.EventIn:
			if found && latest == models.EventIn {
				result.Outcome = services.OutcomeAlreadyCheckedIn
				return nil
			}
			result.Outcome = services.OutcomeCheckedIn
		case models.EventOut:
			if !found || latest != models.EventIn {
				result.Outcome = services.OutcomeMustCheckInFirst
				return nil
			}
			result.Outcome = services.OutcomeCheckedOut
		}

		return tx.Append(ctx, &models.AttendanceEvent{
			RegNo: match.RegNo,
			Name:  match.Name,
			Type:  want,
			Time:  now.Format(models.TimeLayout),
			Date:  date,
			Mode:  models.ModeOffline,
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterMark(ctx, result)
	return result, nil
}

// MarkOnline verifies a claimed identity. The claim check runs before any
// ledger access: a mismatching face never reveals whether the claimed
// identity has marked today.
func (s *AttendanceServiceImpl) MarkOnline(ctx context.Context, imageData []byte, mimeType string, claimedRegNo string) (*services.MarkResult, error) {
	match, reject, err := s.recognize(ctx, imageData, mimeType)
	if err != nil {
		return nil, err
	}
	if reject != nil {
		return reject, nil
	}

	if match.RegNo != claimedRegNo {
		logger.Attendance("identity_mismatch", "Online mark face does not match claimed identity", map[string]interface{}{
			"claimed_reg_no": claimedRegNo,
			"matched_reg_no": match.RegNo,
			"score":          match.Score,
		})
		return &services.MarkResult{Outcome: services.OutcomeIdentityMismatch, Score: match.Score}, nil
	}

	now := s.now()
	date := now.Format(models.DateLayout)

	result := &services.MarkResult{RegNo: match.RegNo, Name: match.Name, Score: match.Score}

	err = s.withLedger(ctx, match.RegNo, func(tx repositories.AttendanceRepository) error {
		marked, err := tx.HasOnlineMark(ctx, match.RegNo, date)
		if err != nil {
			return err
		}
		if marked {
			result.Outcome = services.OutcomeAlreadyVerified
			return nil
		}
		result.Outcome = services.OutcomeVerified
		return tx.Append(ctx, &models.AttendanceEvent{
			RegNo: match.RegNo,
			Name:  match.Name,
			Type:  models.EventPresent,
			Time:  now.Format(models.TimeLayout),
			Date:  date,
			Mode:  models.ModeOnline,
		})
	})
	if err != nil {
		return nil, err
	}

	s.afterMark(ctx, result)
	return result, nil
}

func (s *AttendanceServiceImpl) History(ctx context.Context, regNo string) ([]models.AttendanceEvent, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, historyCacheKey(regNo))
		if err == nil {
			var events []models.AttendanceEvent
			if jsonErr := json.Unmarshal([]byte(cached), &events); jsonErr == nil {
				logger.Cache("history_hit", "Attendance history served from cache", map[string]interface{}{"reg_no": regNo})
				return events, nil
			}
		} else if s.cacheIsNil == nil || !s.cacheIsNil(err) {
			logger.CacheWarn("history_get", "History cache read failed, falling through to ledger", map[string]interface{}{
				"reg_no": regNo,
				"error":  err.Error(),
			})
		}
	}

	events, err := s.attendanceRepo.History(ctx, regNo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrLedgerUnavailable, err)
	}

	if s.cache != nil {
		if payload, jsonErr := json.Marshal(events); jsonErr == nil {
			if setErr := s.cache.Set(ctx, historyCacheKey(regNo), string(payload), historyCacheTTL); setErr != nil {
				logger.CacheWarn("history_set", "Failed to populate history cache", map[string]interface{}{
					"reg_no": regNo,
					"error":  setErr.Error(),
				})
			}
		}
	}

	return events, nil
}

// recognize runs extraction and matching. It returns either a match, a
// rejection MarkResult (no face, no match, gallery empty), or an
// infrastructure error.
func (s *AttendanceServiceImpl) recognize(ctx context.Context, imageData []byte, mimeType string) (*matching.MatchResult, *services.MarkResult, error) {
	vec, err := s.extractor.ExtractEmbedding(ctx, imageData, mimeType)
	if err != nil {
		if errors.Is(err, faceapi.ErrNoFaceFound) {
			return nil, &services.MarkResult{Outcome: services.OutcomeNoFaceDetected, Score: -1}, nil
		}
		logger.FaceError("extract", "Embedding extraction failed", err, nil)
		return nil, nil, fmt.Errorf("%w: %v", services.ErrExtractionFailed, err)
	}

	match := s.matcher.Match(vec, s.gallery.Snapshot())
	if !match.Matched {
		logger.Matcher("no_match", "No gallery entry above threshold", map[string]interface{}{
			"best_score":   match.Score,
			"gallery_size": s.gallery.Size(),
		})
		return nil, &services.MarkResult{Outcome: services.OutcomeNoMatch, Score: match.Score}, nil
	}

	return &match, nil, nil
}

// withLedger runs the critical section with a bounded per-operation
// timeout, retrying lock conflicts up to the configured limit.
func (s *AttendanceServiceImpl) withLedger(ctx context.Context, regNo string, fn func(tx repositories.AttendanceRepository) error) error {
	var lastErr error
	for attempt := 0; attempt <= s.lockRetries; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
		err := s.attendanceRepo.WithIdentityLock(opCtx, regNo, fn)
		cancel()
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrLockConflict) {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %v", services.ErrConcurrencyTimeout, err)
			}
			return fmt.Errorf("%w: %v", services.ErrLedgerUnavailable, err)
		}
		lastErr = err
		logger.AttendanceError("lock_retry", "Retrying identity lock", err, map[string]interface{}{
			"reg_no":  regNo,
			"attempt": attempt + 1,
		})
	}
	return fmt.Errorf("%w: %v", services.ErrConcurrencyTimeout, lastErr)
}

// afterMark logs the outcome and, when an event was appended, invalidates
// the identity's cached history.
func (s *AttendanceServiceImpl) afterMark(ctx context.Context, result *services.MarkResult) {
	logger.Attendance(string(result.Outcome), "Attendance request resolved", map[string]interface{}{
		"reg_no": result.RegNo,
		"score":  result.Score,
	})

	if !result.Outcome.Accepted() || s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, historyCacheKey(result.RegNo)); err != nil {
		logger.CacheWarn("history_invalidate", "Failed to invalidate history cache", map[string]interface{}{
			"reg_no": result.RegNo,
			"error":  err.Error(),
		})
	}
}

func historyCacheKey(regNo string) string {
	return "attendance:history:" + regNo
}
