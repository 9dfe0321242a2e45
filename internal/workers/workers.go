// Package workers wires one Zeebe job worker per pipeline task type.
package workers

import (
	"sort"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/config"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/common/observability"
	"recruiting-pipeline/internal/pipeline/engine"
	"recruiting-pipeline/internal/pipeline/intake"
	"recruiting-pipeline/internal/pipeline/offers"
	"recruiting-pipeline/internal/pipeline/status"
	"recruiting-pipeline/internal/store"
	"recruiting-pipeline/pkg/registry"

	cc "recruiting-pipeline/internal/workers/candidate/create-candidate"
	gct "recruiting-pipeline/internal/workers/candidate/get-candidate-timeline"
	ocs "recruiting-pipeline/internal/workers/candidate/override-candidate-status"
	rfc "recruiting-pipeline/internal/workers/candidate/reference-check"
	rc "recruiting-pipeline/internal/workers/candidate/reject-candidate"
	tcs "recruiting-pipeline/internal/workers/candidate/transition-candidate-stage"
	cod "recruiting-pipeline/internal/workers/offer/create-offer-draft"
	lo "recruiting-pipeline/internal/workers/offer/lock-offer"
	rto "recruiting-pipeline/internal/workers/offer/respond-to-offer"
	so "recruiting-pipeline/internal/workers/offer/send-offer"
	uod "recruiting-pipeline/internal/workers/offer/update-offer-draft"
)

// Deps are the core services the job handlers call into.
type Deps struct {
	Engine     *engine.Engine
	Offers     *offers.Service
	Status     *status.Writer
	Intake     *intake.Service
	Candidates store.CandidateStore
	Validator  camunda.VariableValidator
}

// Handlers builds the job handler for every task type.
func Handlers(cfg *config.Config, deps Deps, obs *observability.Observability, log logger.Logger) map[string]worker.JobHandler {
	wc := func(taskType string) config.WorkerConfig { return config.GetWorkerConfig(cfg, taskType) }
	v := deps.Validator

	return map[string]worker.JobHandler{
		cc.TaskType:  cc.NewHandler(cc.LoadConfig(wc(cc.TaskType), obs), deps.Intake, v, log).Handle,
		tcs.TaskType: tcs.NewHandler(tcs.LoadConfig(wc(tcs.TaskType), obs), deps.Engine, v, log).Handle,
		rc.TaskType:  rc.NewHandler(rc.LoadConfig(wc(rc.TaskType), obs), deps.Engine, v, log).Handle,
		ocs.TaskType: ocs.NewHandler(ocs.LoadConfig(wc(ocs.TaskType), obs), deps.Status, v, log).Handle,
		rfc.TaskType: rfc.NewHandler(rfc.LoadConfig(wc(rfc.TaskType), obs), deps.Status, deps.Candidates, v, log).Handle,
		gct.TaskType: gct.NewHandler(gct.LoadConfig(wc(gct.TaskType), obs), deps.Engine, v, log).Handle,
		cod.TaskType: cod.NewHandler(cod.LoadConfig(wc(cod.TaskType), obs), deps.Offers, v, log).Handle,
		uod.TaskType: uod.NewHandler(uod.LoadConfig(wc(uod.TaskType), obs), deps.Offers, v, log).Handle,
		so.TaskType:  so.NewHandler(so.LoadConfig(wc(so.TaskType), obs), deps.Offers, v, log).Handle,
		lo.TaskType:  lo.NewHandler(lo.LoadConfig(wc(lo.TaskType), obs), deps.Offers, v, log).Handle,
		rto.TaskType: rto.NewHandler(rto.LoadConfig(wc(rto.TaskType), obs), deps.Offers, v, log).Handle,
	}
}

// Start opens a worker per enabled task type. Each worker fetches only the
// variables its registry input schema declares.
func Start(client zbc.Client, cfg *config.Config, reg *registry.ActivityRegistry, handlers map[string]worker.JobHandler, log logger.Logger) []worker.JobWorker {
	taskTypes := make([]string, 0, len(handlers))
	for taskType := range handlers {
		taskTypes = append(taskTypes, taskType)
	}
	sort.Strings(taskTypes)

	var opened []worker.JobWorker
	for _, taskType := range taskTypes {
		var fetch []string
		if a, ok := reg.Find(taskType); ok {
			fetch = a.InputVariables()
		} else {
			log.Warn("task type missing from activity registry", map[string]interface{}{"taskType": taskType})
		}
		if w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), fetch, handlers[taskType], log); w != nil {
			opened = append(opened, w)
		}
	}
	return opened
}
