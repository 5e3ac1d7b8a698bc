package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/arturoeanton/go-code-rag-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-code-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-code-rag-ollama/internal/port"
	"github.com/arturoeanton/go-code-rag-ollama/internal/service"
)

// ProjectHandler manages projects and their indexing lifecycle.
type ProjectHandler struct {
	store   *store.PostgresStore
	vectors *store.VectorStore
	loader  *service.SourceLoader
	indexer *service.Indexer
	tracker *JobTracker
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(s *store.PostgresStore, v *store.VectorStore, loader *service.SourceLoader, indexer *service.Indexer, tracker *JobTracker) *ProjectHandler {
	return &ProjectHandler{store: s, vectors: v, loader: loader, indexer: indexer, tracker: tracker}
}

// Register sets up project routes.
func (h *ProjectHandler) Register(router fiber.Router) {
	projects := router.Group("/projects")
	projects.Post("/", h.Create)
	projects.Get("/", h.List)
	projects.Get("/:id", h.Get)
	projects.Delete("/:id", h.Delete)
	projects.Post("/:id/index", h.Index)
	projects.Get("/:id/index/status", h.IndexStatus)
}

// Create registers a new project.
func (h *ProjectHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	project, err := h.store.CreateProject(c.Context(), body.Name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// List returns all projects.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.store.ListProjects(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// Get returns a project by ID.
func (h *ProjectHandler) Get(c fiber.Ctx) error {
	project, err := h.store.GetProjectByID(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(project)
}

// Delete removes a project and, via cascade, all its embedding records.
func (h *ProjectHandler) Delete(c fiber.Ctx) error {
	err := h.store.DeleteProject(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Index kicks off ingestion of a remote repository into the project's index.
// The work runs in the background; the response carries a job ID the client
// can poll or stream.
func (h *ProjectHandler) Index(c fiber.Ctx) error {
	projectID := c.Params("id")

	var ref domain.RepoRef
	if err := c.Bind().JSON(&ref); err != nil || ref.Owner == "" || ref.Repo == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if _, err := h.store.GetProjectByID(c.Context(), projectID); err != nil {
		if errors.Is(err, port.ErrProjectNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	jobID := uuid.NewString()
	h.tracker.CreateJob(jobID, projectID)

	go func() {
		ctx := context.Background()
		slog.Info("indexing repository", "job_id", jobID, "project_id", projectID,
			"owner", ref.Owner, "repo", ref.Repo)

		docs, err := h.loader.Load(ctx, ref.Owner, ref.Repo)
		if err != nil {
			slog.Error("repository load failed", "job_id", jobID, "error", err)
			h.tracker.FailJob(jobID, err.Error())
			return
		}
		h.tracker.SetIndexing(jobID, len(docs))

		summary := h.indexer.IndexDocuments(ctx, projectID, docs)
		h.tracker.CompleteJob(jobID, summary)
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
}

// IndexStatus reports whether the project has ever been indexed and how many
// records it holds.
func (h *ProjectHandler) IndexStatus(c fiber.Ctx) error {
	count, err := h.vectors.CountRecords(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(domain.IndexStatus{Indexed: count > 0, Count: count})
}
