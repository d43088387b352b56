package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleInfo)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.recorder.Handler())
	mux.Handle("GET /ws", s.hub)

	mux.HandleFunc("POST /api/v1/recipes", s.handleSaveRecipe)
	mux.HandleFunc("GET /api/v1/recipes", s.handleListRecipes)
	mux.HandleFunc("GET /api/v1/recipes/{id}", s.handleGetRecipe)

	mux.HandleFunc("POST /api/v1/products", s.handleSaveProduct)
	mux.HandleFunc("GET /api/v1/products", s.handleListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", s.handleGetProduct)

	mux.HandleFunc("POST /api/v1/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.handleGetProject)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("POST /api/v1/projects/{id}/activate", s.projectAction(s.projects.Activate))
	mux.HandleFunc("POST /api/v1/projects/{id}/hold", s.projectAction(s.projects.Hold))
	mux.HandleFunc("POST /api/v1/projects/{id}/resume", s.projectAction(s.projects.Resume))
	mux.HandleFunc("POST /api/v1/projects/{id}/cancel", s.projectAction(s.projects.Cancel))
	mux.HandleFunc("GET /api/v1/projects/{id}/tasks", s.handleProjectTasks)

	mux.HandleFunc("GET /api/v1/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("POST /api/v1/tasks/{id}/assign", s.handleAssignTask)
	mux.HandleFunc("POST /api/v1/tasks/{id}/start", s.taskAction(s.tasks.Start))
	mux.HandleFunc("POST /api/v1/tasks/{id}/pause", s.handlePauseTask)
	mux.HandleFunc("POST /api/v1/tasks/{id}/resume", s.taskAction(s.tasks.Resume))
	mux.HandleFunc("POST /api/v1/tasks/{id}/complete", s.taskAction(s.tasks.Complete))
	mux.HandleFunc("POST /api/v1/tasks/{id}/fail", s.taskAction(s.tasks.Fail))

	mux.HandleFunc("POST /api/v1/devices", s.handleRegisterDevice)
	mux.HandleFunc("GET /api/v1/devices", s.handleListDevices)
	mux.HandleFunc("GET /api/v1/devices/{id}", s.handleGetDevice)
	mux.HandleFunc("PUT /api/v1/devices/{id}/status", s.handleDeviceStatus)

	mux.HandleFunc("POST /api/v1/alerts", s.handleRaiseAlert)
	mux.HandleFunc("GET /api/v1/alerts", s.handleListAlerts)
	mux.HandleFunc("POST /api/v1/alerts/{id}/acknowledge", s.handleAcknowledgeAlert)
	mux.HandleFunc("POST /api/v1/alerts/{id}/resolve", s.handleResolveAlert)

	return mux
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.mu.RLock()
	startedAt := s.startedAt
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "plantline",
		"version": s.config.Version,
		"uptime":  time.Since(startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Conn().PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"ws_clients": s.hub.ClientCount(),
	})
}

// Recipes

func (s *Server) handleSaveRecipe(w http.ResponseWriter, r *http.Request) {
	var recipe domain.Recipe
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		writeError(w, fmt.Errorf("invalid recipe body: %w", err))
		return
	}
	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.Must(uuid.NewV7())
		recipe.CreatedAt = time.Now()
	}
	for i := range recipe.Steps {
		if recipe.Steps[i].ID == uuid.Nil {
			recipe.Steps[i].ID = uuid.Must(uuid.NewV7())
		}
	}
	if err := s.recipes.SaveRecipe(r.Context(), &recipe); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &recipe)
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.recipes.ListRecipes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	recipe, err := s.recipes.GetRecipe(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// Products

func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, fmt.Errorf("invalid product body: %w", err))
		return
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.Must(uuid.NewV7())
		product.CreatedAt = time.Now()
	}
	if err := s.recipes.SaveProduct(r.Context(), &product); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &product)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.recipes.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	product, err := s.recipes.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Projects

type createProjectRequest struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	RecipeID       *uuid.UUID `json:"recipe_id"`
	ProductID      *uuid.UUID `json:"product_id"`
	TargetQuantity int        `json:"target_quantity"`
	Priority       int        `json:"priority"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid project body: %w", err))
		return
	}

	var project *domain.Project
	switch {
	case req.RecipeID != nil:
		project = domain.NewRecipeProject(req.Name, *req.RecipeID, req.TargetQuantity)
	case req.ProductID != nil:
		project = domain.NewProductProject(req.Name, *req.ProductID, req.TargetQuantity)
	default:
		writeError(w, fmt.Errorf("either recipe_id or product_id is required"))
		return
	}
	project.Description = req.Description
	project.Priority = req.Priority

	if err := s.projects.CreateProject(r.Context(), project); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var filter ports.ProjectFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.ProjectStatus(raw)
		filter.Status = &status
	}
	projects, err := s.projects.ListProjects(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	project, err := s.projects.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.projects.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// projectAction adapts a project service method into a handler.
func (s *Server) projectAction(action func(ctx context.Context, id uuid.UUID) (*domain.Project, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		project, err := action(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	}
}

func (s *Server) handleProjectTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tasks, err := s.tasks.ListTasks(r.Context(), ports.TaskFilter{ProjectID: &id})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Tasks

// taskAction adapts a task lifecycle method into a handler.
func (s *Server) taskAction(action func(ctx context.Context, id uuid.UUID) (*domain.Task, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		task, err := action(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := taskFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tasks, err := s.tasks.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := s.tasks.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type assignRequest struct {
	DeviceID uuid.UUID `json:"device_id"`
	WorkerID uuid.UUID `json:"worker_id"`
}

func (s *Server) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid assignment body: %w", err))
		return
	}
	task, err := s.tasks.Assign(r.Context(), id, req.DeviceID, req.WorkerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type pauseRequest struct {
	Reason   string `json:"reason"`
	PausedBy string `json:"paused_by"`
}

func (s *Server) handlePauseTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid pause body: %w", err))
		return
	}
	task, err := s.tasks.Pause(r.Context(), id, req.Reason, req.PausedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Devices

type registerDeviceRequest struct {
	Name         string    `json:"name"`
	DeviceTypeID uuid.UUID `json:"device_type_id"`
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid device body: %w", err))
		return
	}
	device, err := s.devices.Register(r.Context(), req.Name, req.DeviceTypeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var filter ports.DeviceFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.DeviceStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("device_type_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, fmt.Errorf("invalid device_type_id: %w", err))
			return
		}
		filter.DeviceTypeID = &id
	}
	devices, err := s.devices.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	device, err := s.devices.GetDevice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

type deviceStatusRequest struct {
	Status domain.DeviceStatus `json:"status"`
	Reason string              `json:"reason"`
}

func (s *Server) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req deviceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid status body: %w", err))
		return
	}
	device, err := s.devices.SetStatus(r.Context(), id, req.Status, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// Alerts

type raiseAlertRequest struct {
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	ReportedBy string     `json:"reported_by"`
	TaskID     *uuid.UUID `json:"task_id"`
	DeviceID   *uuid.UUID `json:"device_id"`
}

func (s *Server) handleRaiseAlert(w http.ResponseWriter, r *http.Request) {
	var req raiseAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid alert body: %w", err))
		return
	}
	if req.Title == "" {
		writeError(w, fmt.Errorf("alert title is required"))
		return
	}
	alert, err := s.emergency.Raise(r.Context(), req.Title, req.Message, req.ReportedBy, req.TaskID, req.DeviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.emergency.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	alert, err := s.emergency.Acknowledge(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	alert, err := s.emergency.Resolve(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// Helpers

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func taskFilterFromQuery(r *http.Request) (ports.TaskFilter, error) {
	var filter ports.TaskFilter
	query := r.URL.Query()

	for param, target := range map[string]**uuid.UUID{
		"project_id":     &filter.ProjectID,
		"device_type_id": &filter.DeviceTypeID,
		"device_id":      &filter.DeviceID,
		"worker_id":      &filter.WorkerID,
	} {
		if raw := query.Get(param); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return filter, fmt.Errorf("invalid %s: %w", param, err)
			}
			*target = &id
		}
	}
	if raw := query.Get("status"); raw != "" {
		status := domain.TaskStatus(raw)
		filter.Status = &status
	}
	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest

	var notFound *domain.NotFoundError
	var invalid *domain.InvalidTransitionError
	var mismatch *domain.DeviceTypeMismatchError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &mismatch):
		status = http.StatusConflict
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
