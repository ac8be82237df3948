package fixture

import "strings"

// Status is the canonical, provider-independent fixture state.
type Status string

const (
	StatusNotStarted   Status = "not_started"
	StatusFirstPeriod  Status = "first_period"
	StatusBreak        Status = "break"
	StatusSecondPeriod Status = "second_period"
	StatusExtraTime    Status = "extra_time"
	StatusPenalties    Status = "penalties"
	StatusFinished     Status = "finished"
	StatusPostponed    Status = "postponed"
	StatusCancelled    Status = "cancelled"
	StatusSuspended    Status = "suspended"
	StatusAbandoned    Status = "abandoned"
	StatusInterrupted  Status = "interrupted"
	StatusLive         Status = "live"
)

var allStatuses = []Status{
	StatusNotStarted,
	StatusFirstPeriod,
	StatusBreak,
	StatusSecondPeriod,
	StatusExtraTime,
	StatusPenalties,
	StatusFinished,
	StatusPostponed,
	StatusCancelled,
	StatusSuspended,
	StatusAbandoned,
	StatusInterrupted,
	StatusLive,
}

func (s Status) Valid() bool {
	for _, item := range allStatuses {
		if item == s {
			return true
		}
	}
	return false
}

// IsLive reports whether the status is one of the in-play sub-states.
func (s Status) IsLive() bool {
	switch s {
	case StatusFirstPeriod, StatusBreak, StatusSecondPeriod, StatusExtraTime, StatusPenalties, StatusLive:
		return true
	default:
		return false
	}
}

func (s Status) IsFinished() bool {
	return s == StatusFinished
}

// HasStarted reports whether a score is meaningful for the status.
func (s Status) HasStarted() bool {
	if s.IsLive() {
		return true
	}
	switch s {
	case StatusFinished, StatusSuspended, StatusInterrupted, StatusAbandoned:
		return true
	default:
		return false
	}
}

// LiveStatuses lists the statuses the orphan reconciler may finalize.
func LiveStatuses() []Status {
	return []Status{StatusFirstPeriod, StatusBreak, StatusSecondPeriod, StatusExtraTime, StatusPenalties, StatusLive}
}

// StatusTable maps one provider's status vocabulary onto Status.
// Keys are matched case-insensitively.
type StatusTable map[string]Status

func (t StatusTable) Lookup(raw string) (Status, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	status, ok := t[key]
	return status, ok
}

// GuessStatus classifies free-form status text that a provider table does not know.
func GuessStatus(raw string) (Status, bool) {
	info := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case info == "":
		return "", false
	case strings.Contains(info, "postpon"):
		return StatusPostponed, true
	case strings.Contains(info, "cancel"):
		return StatusCancelled, true
	case strings.Contains(info, "abandon"):
		return StatusAbandoned, true
	case strings.Contains(info, "suspend"):
		return StatusSuspended, true
	case strings.Contains(info, "interrupt"):
		return StatusInterrupted, true
	case strings.Contains(info, "penalt"):
		return StatusPenalties, true
	case strings.Contains(info, "extra"):
		return StatusExtraTime, true
	case strings.Contains(info, "half time"), strings.Contains(info, "half-time"), strings.Contains(info, "halftime"),
		strings.Contains(info, "break"), strings.Contains(info, "pause"):
		return StatusBreak, true
	case strings.Contains(info, "first half"), strings.Contains(info, "1st half"):
		return StatusFirstPeriod, true
	case strings.Contains(info, "second half"), strings.Contains(info, "2nd half"):
		return StatusSecondPeriod, true
	case strings.Contains(info, "finish"), strings.Contains(info, "full time"), strings.Contains(info, "ended"),
		strings.Contains(info, "complete"), strings.Contains(info, "final"):
		return StatusFinished, true
	case strings.Contains(info, "live"), strings.Contains(info, "in play"), strings.Contains(info, "progress"):
		return StatusLive, true
	case strings.Contains(info, "schedul"), strings.Contains(info, "not started"), strings.Contains(info, "upcoming"),
		strings.Contains(info, "timed"):
		return StatusNotStarted, true
	default:
		return "", false
	}
}
