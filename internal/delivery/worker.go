package delivery

import (
	"context"
	"log"

	"eduscan/internal/metrics"
	"eduscan/internal/queue"
)

// Run consumes delivery jobs until ctx is cancelled. Send failures are
// logged and dropped: delivery is best effort.
func Run(ctx context.Context, q queue.Queue, s Sender) error {
	jobs, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for job := range jobs {
		if err := s.Send(ctx, job.Phone, job.Message); err != nil {
			log.Printf("delivery: job %s for %s failed: %v", job.ID, job.StudentID, err)
			metrics.DeliveriesTotal.WithLabelValues("send_failed").Inc()
			continue
		}
		metrics.DeliveriesTotal.WithLabelValues("sent").Inc()
	}
	return nil
}
