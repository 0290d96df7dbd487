/*
Package stepflow provides a calendar-aware recurring-task scheduler for
deterministic, step-driven execution environments.

Scheduling (pkg/engine, pkg/schedule, pkg/agenda):
  - engine: step-driven scheduling engine with resync and priority ordering
  - schedule: one-shot, period, and cron recurrences over a pluggable calendar
  - agenda: arena of live entries with step-bucket and name indexes

Dispatch (pkg/dispatch):
  - dispatch: the collaborator that executes fired actions
  - redisq: publish firings to a Redis Stream for cross-process execution

Observability (pkg/metrics): Prometheus instrumentation for scheduling and
dispatch activity.

Example usage:

	import (
		"github.com/stepflow/stepflow/pkg/engine"
		"github.com/stepflow/stepflow/pkg/schedule"
	)

	eng, _ := engine.New(engine.Config{Clock: hostClock})
	eng.ScheduleNamed("payroll", origin,
		schedule.Every(start, schedule.Period{Months: 1}, 12), 10, action)

	// once per execution step, in the host's loop:
	eng.RunStep(ctx, hostClock.CurrentStep())
*/
package stepflow
