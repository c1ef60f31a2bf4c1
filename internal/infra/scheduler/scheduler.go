package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SheetMaintainer re-applies the data validation rules on the employees
// sheet. The sheet is edited by hand, so the manager drop-down list drifts
// and has to be rebuilt periodically.
type SheetMaintainer interface {
	EnsureDataValidations(ctx context.Context) error
}

type ValidationScheduler struct {
	cronEngine *cron.Cron
	maintainer SheetMaintainer
	log        *logrus.Entry
	cronSpec   string
}

func NewValidationScheduler(maintainer SheetMaintainer, log *logrus.Entry, cronSpec string) *ValidationScheduler {
	return &ValidationScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		maintainer: maintainer,
		log:        log,
		cronSpec:   cronSpec,
	}
}

func (s *ValidationScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.maintainer.EnsureDataValidations(ctx); err != nil {
			s.log.WithError(err).Error("Failed to refresh sheet data validations")
			return
		}
		s.log.Info("Sheet data validations refreshed")
	})
	if err != nil {
		return err
	}
	s.cronEngine.Start()
	s.log.WithField("cron_spec", s.cronSpec).Info("Validation scheduler started")
	return nil
}

func (s *ValidationScheduler) Stop() {
	s.log.Info("Stopping validation scheduler...")
	ctx := s.cronEngine.Stop() // Waits for a running job to finish.
	<-ctx.Done()
	s.log.Info("Validation scheduler stopped")
}
