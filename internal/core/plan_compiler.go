package core

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/types"
)

const (
	pipInstallCommand = "pip install --upgrade pip && pip install --no-cache-dir -r %s"
	aptInstallCommand = "apt-get update && apt-get install -y --no-install-recommends %s && rm -rf /var/lib/apt/lists/*"
)

// PlanInput is everything a build plan is compiled from. System is empty
// when the application has no system package manifest.
type PlanInput struct {
	Recipe   types.Recipe
	Manifest types.Manifest
	System   types.Manifest
	Tree     types.SourceTree
}

type PlanCompiler struct{}

func NewPlanCompiler() PlanCompiler {
	return PlanCompiler{}
}

// Compile turns a recipe, its manifests and the source tree into the
// ordered build instructions. Dependencies are always installed before
// the source tree is staged.
func (c PlanCompiler) Compile(ctx context.Context, input PlanInput) (types.BuildPlan, error) {
	recipe := input.Recipe
	if !input.Tree.HasEntry {
		return types.BuildPlan{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("entry file not found: %s", recipe.Entry))
	}
	for _, file := range input.Manifest.Files {
		if !input.Tree.Contains(file) {
			return types.BuildPlan{}, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("manifest file %s is excluded from the build context", file))
		}
	}

	pipeline := NewPipeline()
	var instructions []types.Instruction
	emit := func(kind types.InstructionKind, exec bool, args ...string) {
		instructions = append(instructions, types.Instruction{
			Kind:  kind,
			Args:  args,
			Exec:  exec,
			Stage: pipeline.Stage(),
		})
	}

	if err := pipeline.Advance(types.StageBaseSelected); err != nil {
		return types.BuildPlan{}, err
	}
	emit(types.InstructionFrom, false, recipe.BaseImage)
	emit(types.InstructionWorkdir, false, recipe.Workdir)

	if err := pipeline.Advance(types.StageDepsInstalled); err != nil {
		return types.BuildPlan{}, err
	}
	if !input.System.Empty() {
		emit(types.InstructionRun, false, fmt.Sprintf(aptInstallCommand, strings.Join(AptInstallArgs(input.System), " ")))
	}
	for _, args := range manifestCopyArgs(input.Manifest.Files) {
		emit(types.InstructionCopy, false, args...)
	}
	emit(types.InstructionRun, false, fmt.Sprintf(pipInstallCommand, input.Manifest.Path))

	if err := pipeline.Advance(types.StageSourceStaged); err != nil {
		return types.BuildPlan{}, err
	}
	emit(types.InstructionCopy, false, ".", ".")

	if err := pipeline.Advance(types.StageEntryPointDefined); err != nil {
		return types.BuildPlan{}, err
	}
	launch := LaunchCommand(recipe)
	emit(types.InstructionExpose, false, fmt.Sprintf("%d", recipe.Port))
	emit(types.InstructionCmd, true, launch.Argv...)

	plan := types.BuildPlan{
		Recipe:       recipe,
		Instructions: instructions,
		Launch:       launch,
		Stage:        pipeline.Stage(),
	}
	plan.Keys = ComputeLayerKeys(plan.Instructions, []types.Manifest{input.Manifest, input.System}, input.Tree)
	log.Ctx(ctx).Debug().
		Int("instructions", len(plan.Instructions)).
		Str("dependency_key", plan.Keys.Dependency).
		Str("source_key", plan.Keys.Source).
		Msg("build plan compiled")
	return plan, nil
}

// PinBaseImage rewrites the FROM instruction to reference the base image
// by digest and refreshes the layer keys.
func PinBaseImage(plan types.BuildPlan, baseDigest string, manifests []types.Manifest, tree types.SourceTree) types.BuildPlan {
	if baseDigest == "" {
		return plan
	}
	instructions := make([]types.Instruction, len(plan.Instructions))
	copy(instructions, plan.Instructions)
	for i, ins := range instructions {
		if ins.Kind != types.InstructionFrom {
			continue
		}
		ref := strings.SplitN(plan.Recipe.BaseImage, "@", 2)[0]
		instructions[i].Args = []string{ref + "@" + baseDigest}
	}
	plan.Instructions = instructions
	plan.BaseDigest = baseDigest
	plan.Keys = ComputeLayerKeys(instructions, manifests, tree)
	return plan
}

// MarkBuilt records that the engine produced an image for plan.
func MarkBuilt(plan types.BuildPlan) (types.BuildPlan, error) {
	pipeline, err := ResumePipeline(plan.Stage)
	if err != nil {
		return plan, err
	}
	if err := pipeline.Advance(types.StageBuilt); err != nil {
		return plan, err
	}
	plan.Stage = pipeline.Stage()
	return plan, nil
}

// manifestCopyArgs groups manifest files by directory so each directory
// needs one COPY, keeping their paths relative to the working root.
func manifestCopyArgs(files []string) [][]string {
	var dirs []string
	grouped := map[string][]string{}
	for _, file := range files {
		dir := path.Dir(file)
		if _, ok := grouped[dir]; !ok {
			dirs = append(dirs, dir)
		}
		grouped[dir] = append(grouped[dir], file)
	}
	out := make([][]string, 0, len(dirs))
	for _, dir := range dirs {
		sources := grouped[dir]
		dest := dir + "/"
		if dir == "." {
			dest = "./"
			if len(sources) == 1 {
				dest = "."
			}
		}
		out = append(out, append(append([]string{}, sources...), dest))
	}
	return out
}
