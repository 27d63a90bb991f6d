package core

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"streamlit-packager/internal/types"
)

// Pipeline tracks how far a build has progressed. It only moves forward
// one stage at a time.
type Pipeline struct {
	stage types.Stage
}

func NewPipeline() *Pipeline {
	return &Pipeline{stage: types.StageStart}
}

// ResumePipeline continues a pipeline that already reached stage.
func ResumePipeline(stage types.Stage) (*Pipeline, error) {
	if stageIndex(stage) < 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown pipeline stage %q", stage))
	}
	return &Pipeline{stage: stage}, nil
}

func (p *Pipeline) Stage() types.Stage {
	return p.stage
}

// Advance moves to next, which must directly follow the current stage.
func (p *Pipeline) Advance(next types.Stage) error {
	current := stageIndex(p.stage)
	target := stageIndex(next)
	if target < 0 || target != current+1 {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("pipeline cannot move from %s to %s", p.stage, next))
	}
	p.stage = next
	return nil
}

func stageIndex(stage types.Stage) int {
	for i, s := range types.StageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}
