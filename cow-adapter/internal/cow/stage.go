package cow

// Stage is a state of the sell-order flow. Stages only move forward; any
// failure ends the flow in StageFailed.
type Stage int

const (
	StageReceived Stage = iota
	StageNormalized
	StageQuoted
	StageAdjusted
	StageMetadataPublished
	StageOrderAssembled
	StageOrderSubmitted
	StageApprovalResolved
	StageBundled
	StageReturned
	StageFailed
)

var stageNames = [...]string{
	StageReceived:          "received",
	StageNormalized:        "normalized",
	StageQuoted:            "quoted",
	StageAdjusted:          "adjusted",
	StageMetadataPublished: "metadata_published",
	StageOrderAssembled:    "order_assembled",
	StageOrderSubmitted:    "order_submitted",
	StageApprovalResolved:  "approval_resolved",
	StageBundled:           "bundled",
	StageReturned:          "returned",
	StageFailed:            "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// StageObserver is told about every stage a flow enters, once per stage.
type StageObserver interface {
	OnStage(chainID uint64, stage Stage)
}

// StageObserverFunc adapts a function to StageObserver.
type StageObserverFunc func(chainID uint64, stage Stage)

func (f StageObserverFunc) OnStage(chainID uint64, stage Stage) { f(chainID, stage) }

type nopObserver struct{}

func (nopObserver) OnStage(uint64, Stage) {}
