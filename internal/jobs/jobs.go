package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"iserve/internal/db"
	"iserve/internal/pubsub"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeResponseNotify = "response:notify"
	TypeDemandSweep    = "demand:sweep"
)

type JobServer struct {
	server     *asynq.Server
	scheduler  *asynq.Scheduler
	client     *asynq.Client
	db         *db.Pool
	bus        *pubsub.Bus
	log        *zap.Logger
	staleAfter time.Duration
}

func NewJobServer(redisAddr string, dbPool *db.Pool, bus *pubsub.Bus, staleAfter time.Duration, log *zap.Logger) (*JobServer, *asynq.Client) {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	client := asynq.NewClient(redisOpt)

	return &JobServer{
		server:     server,
		scheduler:  scheduler,
		client:     client,
		db:         dbPool,
		bus:        bus,
		log:        log,
		staleAfter: staleAfter,
	}, client
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TypeResponseNotify, js.handleResponseNotify)
	mux.HandleFunc(TypeDemandSweep, js.handleDemandSweep)

	// Sweep pending demands hourly
	if _, err := js.scheduler.Register("@every 1h", asynq.NewTask(TypeDemandSweep, nil, asynq.Queue("low"))); err != nil {
		return fmt.Errorf("failed to register sweep schedule: %w", err)
	}
	if err := js.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.scheduler.Shutdown()
	js.server.Shutdown()
	js.client.Close()
}

// ResponseNotifyPayload is carried by response:notify tasks
type ResponseNotifyPayload struct {
	ResponseID string `json:"responseId"`
	DemandID   string `json:"demandId"`
}

// EnqueueResponseNotify schedules delivery of a new-response notification
// to the demand owner.
func EnqueueResponseNotify(client *asynq.Client, responseID, demandID string) error {
	payload, err := json.Marshal(ResponseNotifyPayload{ResponseID: responseID, DemandID: demandID})
	if err != nil {
		return err
	}
	_, err = client.Enqueue(asynq.NewTask(TypeResponseNotify, payload, asynq.Queue("default"), asynq.MaxRetry(3)))
	return err
}

func (js *JobServer) handleResponseNotify(ctx context.Context, t *asynq.Task) error {
	var payload ResponseNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	demand, err := js.db.Queries.GetDemandByID(ctx, payload.DemandID)
	if err != nil {
		// Demand deleted before the notification ran; nothing to deliver.
		if err == db.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to get demand: %w", err)
	}

	_ = js.bus.PublishUser(demand.UserID, map[string]interface{}{
		"type":       "response.received",
		"demandId":   demand.ID,
		"responseId": payload.ResponseID,
		"title":      demand.Title,
	})

	js.log.Info("Response notification delivered",
		zap.String("demand_id", demand.ID),
		zap.String("response_id", payload.ResponseID))
	return nil
}

func (js *JobServer) handleDemandSweep(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().Add(-js.staleAfter)
	stale, err := js.db.Queries.ListStaleDemands(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale demands: %w", err)
	}

	for _, d := range stale {
		_ = js.bus.PublishUser(d.UserID, map[string]interface{}{
			"type":     "demand.stale",
			"demandId": d.ID,
			"title":    d.Title,
		})
	}

	js.log.Info("Stale demand sweep finished", zap.Int("count", len(stale)))
	return nil
}
