package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"thermogo/internal/bus"
	"thermogo/internal/series"
)

// Dependencies are the runtime collaborators the window consumes.
type Dependencies struct {
	Ctx            context.Context
	Logger         *slog.Logger
	Bus            bus.MessageBus
	Registry       *series.Registry
	Window         float64
	RedrawInterval time.Duration
	OnQuit         func()
}

// App owns the Fyne window showing the live plot, the legend, and
// the connection status line.
type App struct {
	fyApp  fyne.App
	window fyne.Window
	plot   *PlotWidget
	status *widget.Label
	dep    Dependencies
}

func NewApp(dep Dependencies) *App {
	fyApp := fyneapp.NewWithID("thermogo")
	window := fyApp.NewWindow("thermogo")
	window.Resize(fyne.NewSize(960, 600))

	names := dep.Registry.Names()
	plot := NewPlotWidget(names)
	status := widget.NewLabel("connecting")
	legend := buildLegend(plot, names)

	window.SetContent(container.NewBorder(status, legend, nil, nil, plot))

	return &App{
		fyApp:  fyApp,
		window: window,
		plot:   plot,
		status: status,
		dep:    dep,
	}
}

// Sender returns a notification sender backed by this Fyne app.
func (a *App) Sender() *FyneNotificationSender {
	return NewFyneNotificationSender(a.fyApp)
}

// Run shows the window and blocks until it closes. The redraw ticker
// is the consumer side of the registry: it snapshots under the lock,
// then renders entirely outside it.
func (a *App) Run() {
	a.dep.Logger.Info("showing main window",
		"redraw_interval", a.dep.RedrawInterval, "window_seconds", a.dep.Window)
	go a.redrawLoop()
	go a.statusLoop()

	a.window.SetOnClosed(func() {
		if a.dep.OnQuit != nil {
			a.dep.OnQuit()
		}
	})
	a.window.ShowAndRun()
}

func (a *App) redrawLoop() {
	ticker := time.NewTicker(a.dep.RedrawInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.dep.Ctx.Done():
			return
		case <-ticker.C:
			snap, ok := a.dep.Registry.SnapshotAndClip(a.dep.Window)
			fyne.Do(func() {
				a.plot.SetSnapshot(snap, ok)
				a.plot.Refresh()
			})
		}
	}
}

func (a *App) statusLoop() {
	connSub := a.dep.Bus.Subscribe(bus.TopicConnStatus)
	alertSub := a.dep.Bus.Subscribe(bus.TopicAlert)
	defer a.dep.Bus.Unsubscribe(connSub, bus.TopicConnStatus)
	defer a.dep.Bus.Unsubscribe(alertSub, bus.TopicAlert)

	for {
		select {
		case <-a.dep.Ctx.Done():
			return
		case msg, ok := <-connSub:
			if !ok {
				return
			}
			status, ok := msg.(bus.ConnectionStatus)
			if !ok {
				continue
			}
			a.setStatus(connStatusText(status))
		case msg, ok := <-alertSub:
			if !ok {
				return
			}
			alert, ok := msg.(bus.TemperatureAlert)
			if !ok {
				continue
			}
			a.setStatus(alertStatusText(alert))
		}
	}
}

func (a *App) setStatus(text string) {
	fyne.Do(func() {
		a.status.SetText(text)
	})
}

func connStatusText(status bus.ConnectionStatus) string {
	text := string(status.State)
	if status.Target != "" {
		text = fmt.Sprintf("%s (%s)", text, status.Target)
	}
	if status.Err != "" {
		text = fmt.Sprintf("%s: %s", text, status.Err)
	}

	return text
}

func alertStatusText(alert bus.TemperatureAlert) string {
	switch alert.Kind {
	case bus.AlertRecovered:
		return fmt.Sprintf("channel %d recovered at %.2f °C", alert.Channel, alert.Temperature)
	default:
		return fmt.Sprintf("channel %d %s temperature: %.2f °C", alert.Channel, alert.Kind, alert.Temperature)
	}
}
