package constants

import "time"

// Room lifecycle states
const (
	StatusIdle      = "idle"
	StatusCountdown = "countdown"
	StatusActive    = "active"
	StatusFinished  = "finished"
)

// Race timing and validation
const (
	// StartGraceOffset is added to the server clock when a race is
	// requested so clients have time to render a synchronized countdown.
	StartGraceOffset = 1500 * time.Millisecond

	// FinishTolerance bounds how far a client-reported elapsed time may
	// deviate from the server-measured duration and still be trusted.
	FinishTolerance = 5 * time.Second

	// MaxProgressDrop is the largest backwards progress step accepted in
	// a single update. Bigger drops look like replayed or forged state.
	MaxProgressDrop = 25.0

	MaxUsernameLength = 32
)

// Progress updates are telemetry, not a contract; anything above this
// per-connection rate is dropped.
const (
	ProgressEventsPerSecond = 20
	ProgressEventBurst      = 40
)

// Room eviction policy
const (
	RoomIdleTTL       = 10 * time.Minute
	RoomSweepInterval = time.Minute
)

const BroadcastWriteTimeout = 5 * time.Second

// Subscription plans and promotion gating
const (
	PlanFree        = "free"
	PlanPremium     = "premium"
	PlanPremiumPlus = "premium_plus"

	BaseLevel = "beginner"

	// UpgradeAmount is recorded on a pending premium_plus request when a
	// promotion is withheld behind the plan gate.
	UpgradeAmount = 1000

	// StatsPathMinWins is the win floor before the average-WPM level
	// recalibration applies.
	StatsPathMinWins = 3
)
