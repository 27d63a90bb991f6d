package core

import (
	"fmt"
	"net"
	"strconv"

	"streamlit-packager/internal/types"
)

// ComposeProject describes a single compose service running the image
// with the launch command baked into it. When buildContext is set the
// service builds from it with the generated Dockerfile.
func ComposeProject(recipe types.Recipe, service string, hostPort int, buildContext string) types.ComposeProject {
	if hostPort == 0 {
		hostPort = recipe.Port
	}
	svc := types.ComposeService{
		Image:         recipe.Image,
		ContainerName: service,
		Ports:         []string{fmt.Sprintf("%d:%d", hostPort, recipe.Port)},
		Labels:        recipe.Labels,
		Healthcheck: &types.ComposeHealth{
			Test:     []string{"CMD", "python", "-c", fmt.Sprintf("import urllib.request; urllib.request.urlopen('%s')", healthURL("localhost", recipe.Port))},
			Interval: "30s",
			Timeout:  "5s",
			Retries:  3,
		},
	}
	if buildContext != "" {
		svc.Build = &types.ComposeBuild{
			Context:    buildContext,
			Dockerfile: recipe.Dockerfile,
		}
	}
	return types.ComposeProject{Services: map[string]types.ComposeService{service: svc}}
}

// RunArgs renders the equivalent "docker run" command line. No command
// is appended so the image's own entry point runs unchanged.
func RunArgs(recipe types.Recipe, name string, hostPort int) []string {
	if hostPort == 0 {
		hostPort = recipe.Port
	}
	args := []string{"docker", "run", "-d"}
	if name != "" {
		args = append(args, "--name", name)
	}
	args = append(args, "-p", fmt.Sprintf("%d:%d", hostPort, recipe.Port))
	args = append(args, recipe.Image)
	return args
}

// HealthURL is the Streamlit health endpoint of a server on host:port.
func HealthURL(host string, port int) string {
	return healthURL(host, port)
}

func healthURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/_stcore/health"
}
