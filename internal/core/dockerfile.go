package core

import (
	"encoding/json"
	"strings"

	"streamlit-packager/internal/types"
)

// RenderDockerfile renders plan as Dockerfile text. Stages are separated
// by a blank line; the dependency stage is kept together.
func RenderDockerfile(plan types.BuildPlan) string {
	var b strings.Builder
	for i, ins := range plan.Instructions {
		if i > 0 && !sameBlock(plan.Instructions[i-1], ins) {
			b.WriteString("\n")
		}
		b.WriteString(renderInstruction(ins))
		b.WriteString("\n")
	}
	return b.String()
}

func sameBlock(prev types.Instruction, cur types.Instruction) bool {
	return prev.Stage == cur.Stage && cur.Stage == types.StageDepsInstalled
}

func renderInstruction(ins types.Instruction) string {
	if !ins.Exec {
		return string(ins.Kind) + " " + strings.Join(ins.Args, " ")
	}
	quoted := make([]string, 0, len(ins.Args))
	for _, arg := range ins.Args {
		encoded, err := json.Marshal(arg)
		if err != nil {
			encoded = []byte(`""`)
		}
		quoted = append(quoted, string(encoded))
	}
	return string(ins.Kind) + " [" + strings.Join(quoted, ", ") + "]"
}
