package types

type DependencyType string

const (
	DependencyTypePip DependencyType = "pip"
	DependencyTypeApt DependencyType = "apt"
)

type ConstraintOp string

const (
	ConstraintOpNone      ConstraintOp = ""
	ConstraintOpEq        ConstraintOp = "="
	ConstraintOpEq2       ConstraintOp = "=="
	ConstraintOpArbitrary ConstraintOp = "==="
	ConstraintOpNe        ConstraintOp = "!="
	ConstraintOpCompat    ConstraintOp = "~="
	ConstraintOpGte       ConstraintOp = ">="
	ConstraintOpLte       ConstraintOp = "<="
	ConstraintOpGt        ConstraintOp = ">"
	ConstraintOpLt        ConstraintOp = "<"
)

// Stage is a state of the build pipeline. Stages are strictly ordered and
// only ever advance one step at a time.
type Stage string

const (
	StageStart             Stage = "start"
	StageBaseSelected      Stage = "base-selected"
	StageDepsInstalled     Stage = "deps-installed"
	StageSourceStaged      Stage = "source-staged"
	StageEntryPointDefined Stage = "entry-point-defined"
	StageBuilt             Stage = "built"
)

// StageOrder lists every pipeline stage in execution order.
var StageOrder = []Stage{
	StageStart,
	StageBaseSelected,
	StageDepsInstalled,
	StageSourceStaged,
	StageEntryPointDefined,
	StageBuilt,
}

type InstructionKind string

const (
	InstructionFrom    InstructionKind = "FROM"
	InstructionWorkdir InstructionKind = "WORKDIR"
	InstructionCopy    InstructionKind = "COPY"
	InstructionRun     InstructionKind = "RUN"
	InstructionExpose  InstructionKind = "EXPOSE"
	InstructionCmd     InstructionKind = "CMD"
)
