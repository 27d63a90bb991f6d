package types

// Instruction is one step of a container build recipe.
type Instruction struct {
	Kind  InstructionKind
	Args  []string
	Exec  bool
	Stage Stage
}

// LayerKeys identify the cacheable halves of a build. Dependency covers
// everything up to and including dependency installation; Source covers
// the staged application files.
type LayerKeys struct {
	Dependency string `json:"dependency" yaml:"dependency"`
	Source     string `json:"source" yaml:"source"`
}

// LaunchCommand is the single foreground process started by the image.
type LaunchCommand struct {
	Argv    []string `json:"argv" yaml:"argv"`
	Port    int      `json:"port" yaml:"port"`
	Address string   `json:"address" yaml:"address"`
}

type BuildPlan struct {
	Recipe       Recipe
	Instructions []Instruction
	Launch       LaunchCommand
	Keys         LayerKeys
	BaseDigest   string
	Stage        Stage
}

// SourceTree is the application file tree staged into the image. Files
// are slash-separated paths relative to Root, sorted, with ignored
// paths removed. Digests maps each file to the digest of its content.
type SourceTree struct {
	Root     string
	Files    []string
	Digests  map[string]string
	Ignore   []string
	Entry    string
	HasEntry bool
}

// Contains reports whether rel is one of the staged files.
func (t SourceTree) Contains(rel string) bool {
	for _, file := range t.Files {
		if file == rel {
			return true
		}
	}
	return false
}
