package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"eventnest/internal/database"
	"eventnest/internal/metrics"
	"eventnest/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DeliveryPayload is the decoded outbox payload handed to channels.
type DeliveryPayload struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Body     string `json:"body,omitempty"`
	Link     string `json:"link,omitempty"`
	Template string `json:"template,omitempty"`
	QuoteID  int64  `json:"quote_id,omitempty"`
}

// Channel delivers an outbox payload to one external destination.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, userID int64, payload DeliveryPayload) error
}

// NotifyWorker drains the notification outbox. Tasks are persisted in the
// database; redis carries wake-up signals so delivery starts promptly, with a
// bounded in-memory channel standing in when redis is not configured. Failed
// deliveries retry with exponential backoff and dead-letter after MaxRetries.
type NotifyWorker struct {
	db           *database.DB
	redis        *redis.Client
	channels     map[string][]Channel // task type -> channels
	retryPolicy  RetryPolicy
	queue        chan int64
	queueKey     string
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewNotifyWorker(db *database.DB, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	def := DefaultRetryPolicy()
	if retry.MaxRetries == 0 {
		retry.MaxRetries = def.MaxRetries
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = def.InitialDelay
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = def.MaxDelay
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = def.BackoffFactor
	}

	return &NotifyWorker{
		db:           db,
		redis:        redisClient,
		channels:     make(map[string][]Channel),
		retryPolicy:  retry,
		queue:        make(chan int64, models.WorkerQueueSize),
		queueKey:     "outbox:queue",
		pollInterval: 2 * time.Second,
		batchSize:    models.DefaultOutboxBatchSize,
		logger:       logger,
		stop:         make(chan struct{}),
	}
}

// SetPolling overrides the poll interval and batch size. Call before Start.
func (w *NotifyWorker) SetPolling(interval time.Duration, batchSize int) {
	if interval > 0 {
		w.pollInterval = interval
	}
	if batchSize > 0 {
		w.batchSize = batchSize
	}
}

// AddChannel registers a delivery channel for a task type.
func (w *NotifyWorker) AddChannel(taskType string, ch Channel) {
	w.channels[taskType] = append(w.channels[taskType], ch)
}

// Enqueue persists the task and signals the dispatch loop. Implements
// domain.OutboxEnqueuer.
func (w *NotifyWorker) Enqueue(ctx context.Context, task *models.OutboxTask) error {
	if task.TaskType == "" {
		return fmt.Errorf("task type is required")
	}
	if err := w.db.CreateOutboxTask(ctx, task); err != nil {
		return err
	}

	if w.redis != nil {
		if err := w.redis.LPush(ctx, w.queueKey, task.ID).Err(); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis enqueue failed, poller will pick it up")
		}
		return nil
	}

	select {
	case w.queue <- task.ID:
	default:
		// Queue full; the poll loop catches the task later.
	}
	return nil
}

// Start launches the dispatch loop, plus the redis watcher when redis is
// configured.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
	if w.redis != nil {
		w.wg.Add(1)
		go w.watchRedis(ctx)
	}
}

// Stop shuts the loop down and waits for in-flight deliveries.
func (w *NotifyWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *NotifyWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-w.queue:
			w.processBatch(ctx)
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

// watchRedis blocks on the signal list and forwards each wake-up into the
// dispatch queue, so delivery starts as soon as a task is enqueued instead of
// waiting for the next poll.
func (w *NotifyWorker) watchRedis(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		res, err := w.redis.BRPop(ctx, time.Second, w.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Warn().Err(err).Msg("redis BRPOP error")
			time.Sleep(time.Second)
			continue
		}
		if len(res) != 2 {
			continue
		}
		taskID, err := strconv.ParseInt(res[1], 10, 64)
		if err != nil {
			w.logger.Warn().Str("value", res[1]).Msg("discarding malformed outbox signal")
			continue
		}

		select {
		case w.queue <- taskID:
		default:
			// Queue full; the poll loop catches the task later.
		}
	}
}

func (w *NotifyWorker) processBatch(ctx context.Context) {
	tasks, err := w.db.GetPendingOutboxTasks(ctx, w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("load pending outbox tasks failed")
		return
	}
	for _, task := range tasks {
		w.process(ctx, task)
	}
}

func (w *NotifyWorker) process(ctx context.Context, task *models.OutboxTask) {
	var payload DeliveryPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("malformed outbox payload")
		_ = w.db.MarkOutboxTaskFailed(ctx, task.ID, "malformed payload: "+err.Error())
		metrics.IncDelivery(task.TaskType, "failed")
		return
	}

	var deliverErr error
	for _, ch := range w.channels[task.TaskType] {
		if err := ch.Deliver(ctx, task.UserID, payload); err != nil {
			deliverErr = fmt.Errorf("%s: %w", ch.Name(), err)
			break
		}
	}

	if deliverErr == nil {
		if err := w.db.MarkOutboxTaskDone(ctx, task.ID); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark outbox task done failed")
		}
		metrics.IncDelivery(task.TaskType, "delivered")
		return
	}

	attempt := task.RetryCount + 1
	if attempt > w.retryPolicy.MaxRetries {
		w.logger.Error().Err(deliverErr).Int64("task_id", task.ID).Msg("outbox task dead-lettered")
		_ = w.db.MarkOutboxTaskFailed(ctx, task.ID, deliverErr.Error())
		metrics.IncDelivery(task.TaskType, "failed")
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(deliverErr).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry", next).Msg("outbox delivery failed, will retry")
	if err := w.db.MarkOutboxTaskRetry(ctx, task.ID, attempt, deliverErr.Error(), next); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark outbox task retry failed")
	}
	metrics.IncDelivery(task.TaskType, "retry")
}
