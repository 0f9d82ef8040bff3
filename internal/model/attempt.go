package model

import "time"

// AttemptStatus is the outcome of a single registration attempt
type AttemptStatus string

const (
	AttemptPending        AttemptStatus = "pending"
	AttemptSuccess        AttemptStatus = "success"
	AttemptFailed         AttemptStatus = "failed"
	AttemptQueued         AttemptStatus = "queued"
	AttemptLotteryEntered AttemptStatus = "lottery_entered"
)

// Caller-facing messages for attempts. Policy rejections are distinguishable by message.
const (
	MsgRegistered       = "registration confirmed"
	MsgWaitlisted       = "added to waitlist"
	MsgQueued           = "added to registration queue"
	MsgLotteryEntered   = "entered into lottery"
	MsgLotteryWinner    = "selected in lottery"
	MsgRateLimited      = "rate limit exceeded"
	MsgTournamentFull   = "tournament is full"
	MsgNotFound         = "tournament not found"
	MsgInvalidUser      = "user id is required"
	MsgLotteryRunning   = "lottery in progress"
	MsgNotSelected      = "not selected in lottery"
	MsgRetryLimit       = "retry limit exceeded"
	MsgMaintenance      = "registration is paused for maintenance"
	MsgShutdown         = "registration is temporarily unavailable"
	MsgQueueFull        = "registration queue is full"
	MsgRegistrationShut = "registration is not open for this tournament"
	MsgInternal         = "registration failed, please try again"
)

// RegistrationAttempt is the immutable result of one register/enter-lottery call
type RegistrationAttempt struct {
	ID            string
	UserID        UserID
	TournamentID  TournamentID
	Timestamp     time.Time
	Status        AttemptStatus
	QueuePosition int           // Set when Status is queued
	EstimatedWait time.Duration // Set when Status is queued
	Waitlisted    bool
	Message       string
	RetryCount    int
	MaxRetries    int
}

// Succeeded reports whether the attempt secured a slot or waitlist place
func (a *RegistrationAttempt) Succeeded() bool {
	return a.Status == AttemptSuccess
}
