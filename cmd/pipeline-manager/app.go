package main

import (
	"time"

	"recruiting-pipeline/internal/common/config"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/common/observability"
	"recruiting-pipeline/internal/pipeline/engine"
	"recruiting-pipeline/internal/pipeline/events"
	"recruiting-pipeline/internal/pipeline/hooks"
	"recruiting-pipeline/internal/pipeline/intake"
	"recruiting-pipeline/internal/pipeline/offers"
	"recruiting-pipeline/internal/pipeline/stagegraph"
	"recruiting-pipeline/internal/pipeline/status"
	"recruiting-pipeline/internal/store"
)

// backends are the already-connected collaborators of the core. Optional ones are nil.
type backends struct {
	Store      store.Store
	DeadLetter events.DeadLetter
	Guard      hooks.Guard
	Mirrors    []events.Mirror
	Email      hooks.SESService
	SMS        hooks.SNSService
	Processes  hooks.ProcessStarter
}

type core struct {
	Graph      *stagegraph.Graph
	Recorder   *events.Recorder
	Status     *status.Writer
	Dispatcher *hooks.Dispatcher
	Engine     *engine.Engine
	Offers     *offers.Service
	Intake     *intake.Service
}

func buildCore(cfg *config.Config, b backends, obs *observability.Observability, log logger.Logger) (*core, error) {
	p := cfg.Pipeline
	graph, err := stagegraph.LoadFile(p.StageGraphPath)
	if err != nil {
		return nil, err
	}
	storeTimeout := config.GetDuration(p.StoreTimeout)

	recorder := events.NewRecorder(b.Store, events.Options{
		Timeout:    config.GetDuration(p.EventTimeout),
		DeadLetter: b.DeadLetter,
		Mirrors:    b.Mirrors,
	}, log)
	writer := status.NewWriter(b.Store, recorder, storeTimeout, log)

	n := cfg.Notifications
	automation := []hooks.Hook{
		hooks.NewStatusSyncHook(graph.OfferStage(), writer),
		hooks.NewOnboardingHook(p.OnboardingProcessID, b.Processes, writer, log),
	}
	if n.Enabled() {
		automation = append(automation, hooks.NewNotificationHook(hooks.NotificationConfig{
			FromEmail: n.Email.FromEmail,
			To:        n.Email.To,
			TopicARN:  n.SMS.TopicARN,
		}, b.Email, b.SMS, b.Store))
	}
	dispatcher := hooks.NewDispatcher(hooks.DispatcherConfig{
		Timeout: config.GetDuration(p.HookTimeout),
		Async:   p.AsyncHooks,
	}, b.Guard, log, automation...)

	eng := engine.New(engine.Config{
		StoreTimeout:     storeTimeout,
		RequireSentOffer: p.RequireSentOffer,
	}, engine.Deps{
		Graph:         graph,
		Candidates:    b.Store,
		Offers:        b.Store,
		Recorder:      recorder,
		Hooks:         dispatcher,
		Observability: obs,
		Logger:        log,
	})

	return &core{
		Graph:      graph,
		Recorder:   recorder,
		Status:     writer,
		Dispatcher: dispatcher,
		Engine:     eng,
		Offers:     offers.NewService(b.Store, b.Store, recorder, obs, offers.Config{StoreTimeout: storeTimeout}, log),
		Intake:     intake.NewService(b.Store, recorder, dispatcher, graph.Initial(), storeTimeout, log),
	}, nil
}

// drain waits for in-flight asynchronous hooks, bounded by timeout.
func (c *core) drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		c.Dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
