package build

// State is a step of the preparation pipeline.
type State int

const (
	Init State = iota
	DepsDirsEnsured
	ToolchainReadyA // schema toolchain built or already present
	SchemaReady
	LinkedA
	ToolchainReadyB // media library built or already present
	LinkedB
	RuntimeCopied
	UnitAssembled
	Failed
)

var stateNames = [...]string{
	Init:            "Init",
	DepsDirsEnsured: "DepsDirsEnsured",
	ToolchainReadyA: "ToolchainReady(A)",
	SchemaReady:     "SchemaReady",
	LinkedA:         "LinkedA",
	ToolchainReadyB: "ToolchainReady(B)",
	LinkedB:         "LinkedB",
	RuntimeCopied:   "RuntimeCopied",
	UnitAssembled:   "UnitAssembled",
	Failed:          "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(?)"
}
