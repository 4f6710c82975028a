// Package workflow coordinates the job lifecycle end to end.
//
// The Manager owns the job store, the submission service, the polling
// engine, the notifier, and the optional history archive. It is the only
// layer that turns lifecycle outcomes into notifications, and it guarantees
// exactly one terminal notification per job id no matter whether the
// transition was observed by a poll loop or a refresh.
package workflow
