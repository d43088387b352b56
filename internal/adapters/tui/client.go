package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
)

// Client fetches board data from the daemon's REST API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates an API client for the given daemon address.
func NewClient(base string) *Client {
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Messages delivered back into the Bubble Tea loop.
type (
	projectsLoadedMsg []*domain.Project
	tasksLoadedMsg    []*domain.Task
	devicesLoadedMsg  []*domain.Device
	alertsLoadedMsg   []*domain.Alert
	taskChangedMsg    *domain.Task
	alertChangedMsg   *domain.Alert
	apiErrMsg         struct{ err error }
	refreshTickMsg    time.Time
)

const refreshInterval = 5 * time.Second

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func (c *Client) fetchProjects() tea.Msg {
	var projects []*domain.Project
	if err := c.get("/api/v1/projects", &projects); err != nil {
		return apiErrMsg{err}
	}
	return projectsLoadedMsg(projects)
}

func (c *Client) fetchTasks() tea.Msg {
	var tasks []*domain.Task
	if err := c.get("/api/v1/tasks", &tasks); err != nil {
		return apiErrMsg{err}
	}
	return tasksLoadedMsg(tasks)
}

func (c *Client) fetchDevices() tea.Msg {
	var devices []*domain.Device
	if err := c.get("/api/v1/devices", &devices); err != nil {
		return apiErrMsg{err}
	}
	return devicesLoadedMsg(devices)
}

func (c *Client) fetchAlerts() tea.Msg {
	var alerts []*domain.Alert
	if err := c.get("/api/v1/alerts", &alerts); err != nil {
		return apiErrMsg{err}
	}
	return alertsLoadedMsg(alerts)
}

// taskAction posts a lifecycle action against a task.
func (c *Client) taskAction(id uuid.UUID, action string) tea.Cmd {
	return func() tea.Msg {
		var task domain.Task
		if err := c.post("/api/v1/tasks/"+id.String()+"/"+action, &task); err != nil {
			return apiErrMsg{err}
		}
		return taskChangedMsg(&task)
	}
}

// alertAction posts a lifecycle action against an alert.
func (c *Client) alertAction(id uuid.UUID, action string) tea.Cmd {
	return func() tea.Msg {
		var alert domain.Alert
		if err := c.post("/api/v1/alerts/"+id.String()+"/"+action, &alert); err != nil {
			return apiErrMsg{err}
		}
		return alertChangedMsg(&alert)
	}
}

func (c *Client) get(path string, out interface{}) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) post(path string, out interface{}) error {
	resp, err := c.http.Post(c.base+path, "application/json", strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
