package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vestibox/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueComprobantes = "jobs:comprobantes"
	QueueEmail        = "jobs:email"

	JobComprobante = "comprobante"
	JobEmail       = "email"

	// MaxJobAttempts is how many times a job runs before it goes to the DLQ.
	MaxJobAttempts = 3
)

// ErrPermanente marks a job failure that retrying cannot fix (bad payload,
// order deleted meanwhile). Such jobs go straight to the DLQ.
var ErrPermanente = errors.New("permanent job failure")

// Queue is the subset of the Redis client used for the job lists.
// *redis.Client satisfies it.
type Queue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	RPop(ctx context.Context, key string) *redis.StringCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// HandlerFunc processes one job payload. Returning an error schedules a retry
// unless the error wraps ErrPermanente.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	q Queue
}

func NewDispatcher(q Queue) *Dispatcher {
	return &Dispatcher{q: q}
}

// EnqueueComprobante schedules PDF generation for a closed order.
func (d *Dispatcher) EnqueueComprobante(ctx context.Context, p ComprobantePayload) error {
	return d.enqueue(ctx, QueueComprobantes, JobComprobante, p)
}

// EnqueueEmail schedules an outgoing email.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, p EmailPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.q, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, q Queue, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.LPush(ctx, queue, encoded).Err()
}

func queueFor(jobType string) string {
	if jobType == JobEmail {
		return QueueEmail
	}
	return QueueComprobantes
}

// Pool consumes both queues and routes each job to its handler by type.
type Pool struct {
	q        Queue
	handlers map[string]HandlerFunc
}

func NewPool(q Queue) *Pool {
	return &Pool{q: q, handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for jobType. Jobs of an unregistered type go to the DLQ.
func (p *Pool) Handle(jobType string, fn HandlerFunc) {
	p.handlers[jobType] = fn
}

// Start launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	queues := []string{QueueComprobantes, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := p.q.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.q, queue, "", json.RawMessage(fmt.Sprintf("%q", raw)), err, 0)
		return
	}

	logger := log.With().Str("type", job.Type).Str("queue", queue).Int("attempt", job.Attempts+1).Logger()

	fn, ok := p.handlers[job.Type]
	if !ok {
		logger.Error().Msg("no handler registered for job type")
		SendToDLQ(ctx, p.q, queue, job.Type, job.Payload, fmt.Errorf("%w: unknown job type", ErrPermanente), job.Attempts)
		metrics.JobsProcesados.WithLabelValues(job.Type, "dlq").Inc()
		return
	}

	err := fn(logger.WithContext(ctx), job.Payload)
	if err == nil {
		metrics.JobsProcesados.WithLabelValues(job.Type, "ok").Inc()
		return
	}

	job.Attempts++
	if errors.Is(err, ErrPermanente) || job.Attempts >= MaxJobAttempts {
		SendToDLQ(ctx, p.q, queue, job.Type, job.Payload, err, job.Attempts)
		metrics.JobsProcesados.WithLabelValues(job.Type, "dlq").Inc()
		return
	}

	logger.Warn().Err(err).Msg("job failed, requeued")
	if perr := push(ctx, p.q, queue, job); perr != nil {
		logger.Error().Err(perr).Msg("failed to requeue job")
		return
	}
	metrics.JobsProcesados.WithLabelValues(job.Type, "reintento").Inc()
}
