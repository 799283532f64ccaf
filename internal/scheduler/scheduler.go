package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type Scheduler struct {
	instance gocron.Scheduler
}

func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{instance: s}, nil
}

func (s *Scheduler) AddJob(name string, interval time.Duration, job func()) {
	_, err := s.instance.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(job),
		gocron.WithName(name),
	)
	if err != nil {
		log.Printf("Error adding job %q to scheduler: %v", name, err)
	}
}

func (s *Scheduler) Start() {
	s.instance.Start()
	log.Println("Scheduler started")
}

func (s *Scheduler) Shutdown() {
	if err := s.instance.Shutdown(); err != nil {
		log.Printf("Error shutting down scheduler: %v", err)
	}
}
