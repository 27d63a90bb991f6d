package core

import (
	"fmt"
	"io"

	digest "github.com/opencontainers/go-digest"

	"streamlit-packager/internal/types"
)

// ComputeLayerKeys derives cache keys for the two halves of a build. The
// dependency key covers the instructions up to dependency installation
// and the manifest contents; it does not depend on application files.
// The source key chains the dependency key with every staged file.
func ComputeLayerKeys(instructions []types.Instruction, manifests []types.Manifest, tree types.SourceTree) types.LayerKeys {
	dep := digest.Canonical.Digester()
	for _, ins := range instructions {
		if ins.Stage != types.StageBaseSelected && ins.Stage != types.StageDepsInstalled {
			continue
		}
		_, _ = io.WriteString(dep.Hash(), renderInstruction(ins)+"\n")
	}
	for _, manifest := range manifests {
		if manifest.Path == "" {
			continue
		}
		_, _ = fmt.Fprintf(dep.Hash(), "%s\x00", manifest.Path)
		_, _ = dep.Hash().Write(manifest.Content)
	}
	depKey := dep.Digest()

	src := digest.Canonical.Digester()
	_, _ = io.WriteString(src.Hash(), depKey.String()+"\n")
	for _, file := range tree.Files {
		_, _ = fmt.Fprintf(src.Hash(), "%s\x00%s\n", file, tree.Digests[file])
	}
	for _, ins := range instructions {
		if ins.Stage == types.StageBaseSelected || ins.Stage == types.StageDepsInstalled {
			continue
		}
		_, _ = io.WriteString(src.Hash(), renderInstruction(ins)+"\n")
	}
	return types.LayerKeys{
		Dependency: depKey.String(),
		Source:     src.Digest().String(),
	}
}
