package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// In-memory repository mocks shared by the service tests.

type mockRecipeRepo struct {
	recipes map[uuid.UUID]*domain.Recipe
	getErr  error
}

func newMockRecipeRepo() *mockRecipeRepo {
	return &mockRecipeRepo{recipes: make(map[uuid.UUID]*domain.Recipe)}
}

func (m *mockRecipeRepo) Create(_ context.Context, recipe *domain.Recipe) error {
	m.recipes[recipe.ID] = recipe
	return nil
}

func (m *mockRecipeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Recipe, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	recipe, ok := m.recipes[id]
	if !ok || recipe.IsDeleted {
		return nil, nil
	}
	return recipe, nil
}

func (m *mockRecipeRepo) Update(_ context.Context, recipe *domain.Recipe) error {
	m.recipes[recipe.ID] = recipe
	return nil
}

func (m *mockRecipeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if recipe, ok := m.recipes[id]; ok {
		recipe.IsDeleted = true
	}
	return nil
}

func (m *mockRecipeRepo) List(_ context.Context) ([]*domain.Recipe, error) {
	var result []*domain.Recipe
	for _, recipe := range m.recipes {
		if !recipe.IsDeleted {
			result = append(result, recipe)
		}
	}
	return result, nil
}

type mockProductRepo struct {
	products map[uuid.UUID]*domain.Product
	getErr   error
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	product, ok := m.products[id]
	if !ok || product.IsDeleted {
		return nil, nil
	}
	return product, nil
}

func (m *mockProductRepo) Update(_ context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if product, ok := m.products[id]; ok {
		product.IsDeleted = true
	}
	return nil
}

func (m *mockProductRepo) List(_ context.Context) ([]*domain.Product, error) {
	var result []*domain.Product
	for _, product := range m.products {
		if !product.IsDeleted {
			result = append(result, product)
		}
	}
	return result, nil
}

type mockRecipeSnapRepo struct {
	snapshots map[uuid.UUID]*domain.RecipeSnapshot
}

func newMockRecipeSnapRepo() *mockRecipeSnapRepo {
	return &mockRecipeSnapRepo{snapshots: make(map[uuid.UUID]*domain.RecipeSnapshot)}
}

func (m *mockRecipeSnapRepo) Create(_ context.Context, snapshot *domain.RecipeSnapshot) error {
	m.snapshots[snapshot.ID] = snapshot
	return nil
}

func (m *mockRecipeSnapRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.RecipeSnapshot, error) {
	return m.snapshots[id], nil
}

func (m *mockRecipeSnapRepo) GetLatest(_ context.Context, recipeID uuid.UUID) (*domain.RecipeSnapshot, error) {
	var latest *domain.RecipeSnapshot
	for _, snapshot := range m.snapshots {
		if snapshot.OriginalRecipeID != recipeID {
			continue
		}
		if latest == nil || snapshot.Version > latest.Version {
			latest = snapshot
		}
	}
	return latest, nil
}

func (m *mockRecipeSnapRepo) ListByRecipe(_ context.Context, recipeID uuid.UUID) ([]*domain.RecipeSnapshot, error) {
	var result []*domain.RecipeSnapshot
	for _, snapshot := range m.snapshots {
		if snapshot.OriginalRecipeID == recipeID {
			result = append(result, snapshot)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version > result[j].Version })
	return result, nil
}

type mockProductSnapRepo struct {
	snapshots map[uuid.UUID]*domain.ProductSnapshot
}

func newMockProductSnapRepo() *mockProductSnapRepo {
	return &mockProductSnapRepo{snapshots: make(map[uuid.UUID]*domain.ProductSnapshot)}
}

func (m *mockProductSnapRepo) Create(_ context.Context, snapshot *domain.ProductSnapshot) error {
	m.snapshots[snapshot.ID] = snapshot
	return nil
}

func (m *mockProductSnapRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.ProductSnapshot, error) {
	return m.snapshots[id], nil
}

func (m *mockProductSnapRepo) GetLatest(_ context.Context, productID uuid.UUID) (*domain.ProductSnapshot, error) {
	var latest *domain.ProductSnapshot
	for _, snapshot := range m.snapshots {
		if snapshot.OriginalProductID != productID {
			continue
		}
		if latest == nil || snapshot.Version > latest.Version {
			latest = snapshot
		}
	}
	return latest, nil
}

type mockProjectRepo struct {
	projects map[uuid.UUID]*domain.Project
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[uuid.UUID]*domain.Project)}
}

func (m *mockProjectRepo) Create(_ context.Context, project *domain.Project) error {
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	project, ok := m.projects[id]
	if !ok || project.IsDeleted {
		return nil, nil
	}
	return project, nil
}

func (m *mockProjectRepo) Update(_ context.Context, project *domain.Project) error {
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	if project, ok := m.projects[id]; ok {
		project.IsDeleted = true
	}
	return nil
}

func (m *mockProjectRepo) List(_ context.Context, filter ports.ProjectFilter) ([]*domain.Project, error) {
	var result []*domain.Project
	for _, project := range m.projects {
		if project.IsDeleted {
			continue
		}
		if filter.Status != nil && project.Status != *filter.Status {
			continue
		}
		result = append(result, project)
	}
	return result, nil
}

type mockTaskRepo struct {
	tasks map[uuid.UUID]*domain.Task
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task *domain.Task) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepo) CreateBatch(_ context.Context, tasks []*domain.Task) error {
	for _, task := range tasks {
		m.tasks[task.ID] = task
	}
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	return m.tasks[id], nil
}

func (m *mockTaskRepo) Update(_ context.Context, task *domain.Task) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepo) List(_ context.Context, filter ports.TaskFilter) ([]*domain.Task, error) {
	var result []*domain.Task
	for _, task := range m.tasks {
		if filter.ProjectID != nil && task.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.RecipeSnapshotID != nil && task.RecipeSnapshotID != *filter.RecipeSnapshotID {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.OnlyLastStep && !task.IsLastStepInRecipe {
			continue
		}
		result = append(result, task)
	}
	return result, nil
}

func (m *mockTaskRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	var result []*domain.Task
	for _, task := range m.tasks {
		if task.ProjectID == projectID {
			result = append(result, task)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) CountByProject(_ context.Context, projectID uuid.UUID) (int64, int64, error) {
	var total, completed int64
	for _, task := range m.tasks {
		if task.ProjectID != projectID {
			continue
		}
		total++
		if task.Status == domain.TaskStatusCompleted {
			completed++
		}
	}
	return total, completed, nil
}

func (m *mockTaskRepo) DeleteByProject(_ context.Context, projectID uuid.UUID) (int64, error) {
	var removed int64
	for id, task := range m.tasks {
		if task.ProjectID == projectID {
			delete(m.tasks, id)
			removed++
		}
	}
	return removed, nil
}

type mockDeviceRepo struct {
	devices map[uuid.UUID]*domain.Device
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[uuid.UUID]*domain.Device)}
}

func (m *mockDeviceRepo) Create(_ context.Context, device *domain.Device) error {
	m.devices[device.ID] = device
	return nil
}

func (m *mockDeviceRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Device, error) {
	return m.devices[id], nil
}

func (m *mockDeviceRepo) Update(_ context.Context, device *domain.Device) error {
	m.devices[device.ID] = device
	return nil
}

func (m *mockDeviceRepo) List(_ context.Context, filter ports.DeviceFilter) ([]*domain.Device, error) {
	var result []*domain.Device
	for _, device := range m.devices {
		if filter.DeviceTypeID != nil && device.DeviceTypeID != *filter.DeviceTypeID {
			continue
		}
		if filter.Status != nil && device.Status != *filter.Status {
			continue
		}
		result = append(result, device)
	}
	return result, nil
}

type mockAlertRepo struct {
	alerts    map[uuid.UUID]*domain.Alert
	createErr error
}

func newMockAlertRepo() *mockAlertRepo {
	return &mockAlertRepo{alerts: make(map[uuid.UUID]*domain.Alert)}
}

func (m *mockAlertRepo) Create(_ context.Context, alert *domain.Alert) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.alerts[alert.ID] = alert
	return nil
}

func (m *mockAlertRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Alert, error) {
	return m.alerts[id], nil
}

func (m *mockAlertRepo) Update(_ context.Context, alert *domain.Alert) error {
	m.alerts[alert.ID] = alert
	return nil
}

func (m *mockAlertRepo) ListActive(_ context.Context) ([]*domain.Alert, error) {
	var result []*domain.Alert
	for _, alert := range m.alerts {
		if !alert.IsResolved() {
			result = append(result, alert)
		}
	}
	return result, nil
}

// recordingSink captures published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Topic   string
	Payload interface{}
}

func (s *recordingSink) Publish(_ context.Context, topic string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, publishedEvent{Topic: topic, Payload: payload})
	return nil
}

func (s *recordingSink) topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, len(s.events))
	for i, e := range s.events {
		result[i] = e.Topic
	}
	return result
}

func (s *recordingSink) count(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Topic == topic {
			n++
		}
	}
	return n
}

// env bundles a fully wired service stack over in-memory repositories.
type env struct {
	recipeRepo      *mockRecipeRepo
	productRepo     *mockProductRepo
	recipeSnapRepo  *mockRecipeSnapRepo
	productSnapRepo *mockProductSnapRepo
	projectRepo     *mockProjectRepo
	taskRepo        *mockTaskRepo
	deviceRepo      *mockDeviceRepo
	alertRepo       *mockAlertRepo
	sink            *recordingSink

	recipes    *RecipeService
	snapshots  *SnapshotService
	expander   *Expander
	production *ProductionService
	devices    *DeviceService
	tasks      *TaskService
	projects   *ProjectService
	emergency  *EmergencyService
}

func newEnv() *env {
	e := &env{
		recipeRepo:      newMockRecipeRepo(),
		productRepo:     newMockProductRepo(),
		recipeSnapRepo:  newMockRecipeSnapRepo(),
		productSnapRepo: newMockProductSnapRepo(),
		projectRepo:     newMockProjectRepo(),
		taskRepo:        newMockTaskRepo(),
		deviceRepo:      newMockDeviceRepo(),
		alertRepo:       newMockAlertRepo(),
		sink:            &recordingSink{},
	}

	logger := &NopLogger{}
	e.recipes = NewRecipeService(e.recipeRepo, e.productRepo, logger)
	e.snapshots = NewSnapshotService(e.recipeRepo, e.productRepo, e.recipeSnapRepo, e.productSnapRepo, logger)
	e.expander = NewExpander(e.recipeSnapRepo, logger)
	e.production = NewProductionService(e.projectRepo, e.taskRepo, e.productSnapRepo, e.sink, logger)
	e.devices = NewDeviceService(e.deviceRepo, e.sink, logger)
	e.tasks = NewTaskService(e.taskRepo, e.deviceRepo, e.devices, e.production, e.sink, logger)
	e.projects = NewProjectService(e.projectRepo, e.taskRepo, e.snapshots, e.expander, e.production, e.sink, logger)
	e.emergency = NewEmergencyService(e.alertRepo, e.taskRepo, e.deviceRepo, e.production, e.sink, logger)
	return e
}
