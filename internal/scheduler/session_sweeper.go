package scheduler

import (
	"time"

	"github.com/ikkim/storefront-bff/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SessionReaper 유휴 세션 정리 대상 (service.SessionManager)
type SessionReaper interface {
	Sweep(now time.Time) int
	Len() int
}

// SessionSweeper 유휴 세션 자동 정리 스케줄러
type SessionSweeper struct {
	cron     *cron.Cron
	sessions SessionReaper
	schedule string
}

// NewSessionSweeper 세션 정리 스케줄러 생성
// schedule: cron 표현식 또는 "@every 5m" 형식
func NewSessionSweeper(sessions SessionReaper, schedule string) *SessionSweeper {
	return &SessionSweeper{
		cron:     cron.New(),
		sessions: sessions,
		schedule: schedule,
	}
}

// Start 스케줄러 시작
func (s *SessionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		logger.Error("Failed to add cron job for session sweep", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Session sweeper started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

func (s *SessionSweeper) runOnce() {
	evicted := s.sessions.Sweep(time.Now())
	logger.Debug("Session sweep finished", map[string]interface{}{
		"evicted": evicted,
		"active":  s.sessions.Len(),
	})
}

// Stop 스케줄러 중지. 실행 중인 작업이 끝날 때까지 대기
func (s *SessionSweeper) Stop() {
	logger.Info("Stopping session sweeper...")
	<-s.cron.Stop().Done()
	logger.Info("Session sweeper stopped")
}
