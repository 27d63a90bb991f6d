package server

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/app"
	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

type handler struct {
	service app.Service
	cfg     Config
}

func newHandler(service app.Service, cfg Config) *handler {
	return &handler{service: service, cfg: cfg}
}

func (h *handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handler) Plan(c *fiber.Ctx) error {
	result, err := h.service.Plan(c.UserContext(), app.PlanRequest{SourceRequest: h.cfg.Source})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(result.Dockerfile)
}

type buildRequest struct {
	Source  string `json:"source"`
	Recipe  string `json:"recipe"`
	RepoURL string `json:"repo_url"`
	Ref     string `json:"ref"`
	Image   string `json:"image"`
	NoCache bool   `json:"no_cache"`
	Pull    bool   `json:"pull"`
}

func (h *handler) Build(c *fiber.Ctx) error {
	var req buildRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body", err)
	}
	source := h.cfg.Source
	if req.Source != "" || req.Recipe != "" || req.RepoURL != "" {
		sourcePath, err := h.confine("source", req.Source)
		if err != nil {
			return err
		}
		recipePath, err := h.confine("recipe", req.Recipe)
		if err != nil {
			return err
		}
		source = app.SourceRequest{
			RecipePath: recipePath,
			RepoURL:    req.RepoURL,
			RepoRef:    req.Ref,
			Overrides:  types.Recipe{Source: sourcePath},
		}
	}
	if req.Image != "" {
		source.Overrides.Image = req.Image
	}
	result, err := h.service.Build(c.UserContext(), app.BuildRequest{
		PlanRequest: app.PlanRequest{SourceRequest: source, OutputDir: h.cfg.OutputDir},
		NoCache:     req.NoCache,
		Pull:        req.Pull,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result.Report)
}

func (h *handler) ListContainers(c *fiber.Ctx) error {
	containers, err := h.service.List(c.UserContext(), app.ListRequest{All: c.QueryBool("all")})
	if err != nil {
		return err
	}
	if containers == nil {
		containers = []types.ContainerInfo{}
	}
	return c.JSON(containers)
}

type startContainerRequest struct {
	Image    string   `json:"image"`
	Name     string   `json:"name"`
	HostPort int      `json:"host_port"`
	Env      []string `json:"env"`
	Wait     bool     `json:"wait"`
}

func (h *handler) StartContainer(c *fiber.Ctx) error {
	var req startContainerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body", err)
	}
	if !h.imageAllowed(req.Image) {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("image is not allowed: " + req.Image)
	}
	run := app.RunRequest{
		Image:    req.Image,
		Name:     req.Name,
		HostPort: req.HostPort,
		Env:      req.Env,
		Health:   true,
		Wait:     h.cfg.Wait,
	}
	if req.Wait {
		run.ProbeHost = h.cfg.ProbeHost
	}
	result, err := h.service.Run(c.UserContext(), run)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    result.Container.ID,
		"name":  result.Container.Name,
		"image": req.Image,
		"url":   result.URL,
	})
}

func (h *handler) StopContainer(c *fiber.Ctx) error {
	err := h.service.Stop(c.UserContext(), app.StopRequest{
		ID:         c.Params("id"),
		TimeoutSec: c.QueryInt("timeout"),
		Remove:     c.QueryBool("remove"),
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *handler) ContainerLogs(c *fiber.Ctx) error {
	var buf bytes.Buffer
	err := h.service.Logs(c.UserContext(), app.LogsRequest{
		ID:     c.Params("id"),
		Tail:   c.Query("tail", "all"),
		Output: &buf,
	})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(buf.Bytes())
}

// confine resolves a request path against the configured source root.
// Absolute paths and paths leaving the root are rejected.
func (h *handler) confine(field string, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	root := strings.TrimSpace(h.cfg.SourceRoot)
	if root == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg(field + " paths are disabled; start the server with --source-root")
	}
	rel := filepath.ToSlash(value)
	cleaned := path.Clean(rel)
	if path.IsAbs(cleaned) || filepath.IsAbs(value) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg(fmt.Sprintf("%s must be a relative path inside the source root, got %q", field, value))
	}
	return filepath.Join(root, filepath.FromSlash(cleaned)), nil
}

func (h *handler) imageAllowed(image string) bool {
	if len(h.cfg.AllowedImages) == 0 {
		return true
	}
	for _, prefix := range h.cfg.AllowedImages {
		if prefix = strings.TrimSpace(prefix); prefix != "" && strings.HasPrefix(image, prefix) {
			return true
		}
	}
	return false
}

func badRequest(msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg).
		WithCause(cause)
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}
	status := statusForError(err)
	message := shared.ErrorMessage(err)
	if status >= fiber.StatusInternalServerError {
		log.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": strings.TrimSpace(message)})
}

func statusForError(err error) int {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		return fiber.StatusBadRequest
	case errbuilder.CodeNotFound:
		return fiber.StatusNotFound
	case errbuilder.CodeAlreadyExists, errbuilder.CodeFailedPrecondition:
		return fiber.StatusConflict
	case errbuilder.CodePermissionDenied:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}
