package advisor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
)

// RefreshScheduler periodically refreshes the forecast cache for every
// field that has a location.
type RefreshScheduler struct {
	scheduler *gocron.Scheduler
	cache     *ForecastCache
	fields    []entities.Field
	interval  time.Duration
}

func NewRefreshScheduler(cache *ForecastCache, fields map[string]entities.Field, interval time.Duration) *RefreshScheduler {
	located := make([]entities.Field, 0, len(fields))
	for _, f := range fields {
		if f.HasLocation() {
			located = append(located, f)
		}
	}
	return &RefreshScheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     cache,
		fields:    located,
		interval:  interval,
	}
}

// Start schedules the refresh job; the first run happens immediately.
func (s *RefreshScheduler) Start() error {
	if len(s.fields) == 0 {
		log.Println("scheduler: no located fields; forecast refresh disabled")
		return nil
	}
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 30
	}
	if _, err := s.scheduler.Every(minutes).Minutes().Do(s.refreshAll); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	log.Printf("scheduler: forecast refresh every %dm for %d fields", minutes, len(s.fields))
	return nil
}

func (s *RefreshScheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *RefreshScheduler) refreshAll() {
	var wg sync.WaitGroup
	for _, f := range s.fields {
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := s.cache.Refresh(ctx, f); err != nil {
				log.Printf("scheduler: refresh failed field=%s err=%v", f.ID, err)
			}
		}()
	}
	wg.Wait()
}
