package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/plantline/plantline/internal/core/domain"
)

// DeviceItem wraps a device for the list widget.
type DeviceItem struct {
	device *domain.Device
}

func (d DeviceItem) Title() string {
	icon := "🟢"
	switch d.device.Status {
	case domain.DeviceStatusInUse:
		icon = "🔵"
	case domain.DeviceStatusMaintenance:
		icon = "🟠"
	case domain.DeviceStatusOffline:
		icon = "⚫"
	}
	return fmt.Sprintf("%s %s", icon, d.device.Name)
}

func (d DeviceItem) Description() string {
	desc := fmt.Sprintf("Status: %s | Type: %s", d.device.Status, d.device.DeviceTypeID.String()[:8])
	if d.device.ErrorReason != "" {
		desc += " | " + d.device.ErrorReason
	}
	return desc
}

func (d DeviceItem) FilterValue() string {
	return d.device.Name + " " + string(d.device.Status)
}

// DeviceBoardModel lists devices and their availability.
type DeviceBoardModel struct {
	list list.Model
}

// NewDeviceBoardModel creates the device board.
func NewDeviceBoardModel() *DeviceBoardModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(primaryColor).BorderForeground(primaryColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(mutedColor).BorderForeground(primaryColor)

	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "🛠 Devices"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &DeviceBoardModel{list: l}
}

// SetDevices replaces the board contents.
func (m *DeviceBoardModel) SetDevices(devices []*domain.Device) {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = DeviceItem{device: d}
	}
	m.list.SetItems(items)
}

// Update handles device board input.
func (m *DeviceBoardModel) Update(msg tea.Msg) (*DeviceBoardModel, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.list.SetWidth(msg.Width - 4)
		m.list.SetHeight(msg.Height - 8)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the device board.
func (m *DeviceBoardModel) View(width, height int) string {
	return m.list.View()
}
