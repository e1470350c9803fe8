package durable

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/config"
	"github.com/sells-group/underwriter/internal/model"
)

// Dial connects to the Temporal frontend described by cfg.
func Dial(cfg config.TemporalConfig) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    zapLogger{},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "durable: dial %s", cfg.HostPort)
	}
	return c, nil
}

// Register adds the underwriting workflow and its activities to r.
func Register(r worker.Registry, acts *Activities, opts Options) {
	r.RegisterWorkflowWithOptions(NewWorkflow(opts), workflow.RegisterOptions{Name: WorkflowName})
	r.RegisterActivity(acts)
}

// Start begins an underwriting workflow on taskQueue. The workflow ID is
// derived from the application ID so duplicate submissions are rejected.
func Start(ctx context.Context, c client.Client, taskQueue string, req model.WorkflowRequest) (client.WorkflowRun, error) {
	if req.ApplicationID == "" {
		req.ApplicationID = fmt.Sprintf("WF-%d", time.Now().UnixMilli())
	}
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(req.ApplicationID),
		TaskQueue: taskQueue,
	}, WorkflowName, req)
	if err != nil {
		return nil, eris.Wrapf(err, "durable: start workflow for %s", req.ApplicationID)
	}
	zap.L().Info("durable: workflow started",
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()),
	)
	return run, nil
}

// WorkflowID maps an application ID to its workflow ID.
func WorkflowID(applicationID string) string {
	return "underwrite-" + applicationID
}

// zapLogger routes SDK logs through the global zap logger.
type zapLogger struct{}

func (zapLogger) Debug(msg string, keyvals ...interface{}) { zap.L().Sugar().Debugw(msg, keyvals...) }
func (zapLogger) Info(msg string, keyvals ...interface{})  { zap.L().Sugar().Infow(msg, keyvals...) }
func (zapLogger) Warn(msg string, keyvals ...interface{})  { zap.L().Sugar().Warnw(msg, keyvals...) }
func (zapLogger) Error(msg string, keyvals ...interface{}) { zap.L().Sugar().Errorw(msg, keyvals...) }
