package core

import (
	"fmt"

	"streamlit-packager/internal/types"
)

// LaunchCommand builds the foreground process of the image:
// "<launcher> run <entry> --server.port=<port> --server.address=<address>".
func LaunchCommand(recipe types.Recipe) types.LaunchCommand {
	return types.LaunchCommand{
		Argv: []string{
			recipe.Launcher,
			"run",
			recipe.Entry,
			fmt.Sprintf("--server.port=%d", recipe.Port),
			fmt.Sprintf("--server.address=%s", recipe.Address),
		},
		Port:    recipe.Port,
		Address: recipe.Address,
	}
}
