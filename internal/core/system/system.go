package system

// Phase identifies one step of an engine tick. Phases run in declaration order.
type Phase int

const (
	PhaseEnter        Phase = iota // 0: fire pending activation edges
	PhaseCommitAdd                 // 1: write staged components into stores
	PhaseGain                      // 2: record newly eligible entities
	PhaseAdd                       // 3: Add callbacks, merge into update sets
	PhaseUpdate                    // 4: Update callbacks
	PhaseLoss                      // 5: record entities that stop being eligible
	PhaseRemove                    // 6: Remove callbacks
	PhaseCommitRemove              // 7: delete staged removals from stores
	PhaseExit                      // 8: fire pending deactivation edges
	PhaseDestroy                   // 9: purge destroyed entities
	PhaseClear                     // 10: reset per-tick staging
	NumPhases
)

var phaseNames = [NumPhases]string{
	"enter",
	"commit_add",
	"gain",
	"add",
	"update",
	"loss",
	"remove",
	"commit_remove",
	"exit",
	"destroy",
	"clear",
}

func (p Phase) String() string {
	if p < 0 || p >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}
