// Package jobs schedules the worker's periodic tasks with github.com/robfig/cron/v3.
//
// Two jobs are registered:
//
//  1. AdvancementJob runs a simulator tick (default "@hourly").
//  2. RetentionJob deletes expired orders (default "@daily"); it is not
//     scheduled when retention is disabled.
//
// Both share one cron instance owned by Manager. Job errors are logged and
// never stop the scheduler.
package jobs
