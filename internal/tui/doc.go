// Package tui provides terminal user interface components for sandnet-ctl.
//
// This package uses the Bubble Tea framework to create interactive terminal
// interfaces: an environment picker and a live watch view.
//
// # Environment Picker
//
// The picker displays defined environments and allows selection:
//
//	name, err := tui.RunPicker(envs, registry.Active())
//	if name != "" {
//	    // Start or switch to the chosen environment
//	}
//
// # Watch View
//
// The watch view renders the coordinator's status header, a rolling feed
// of lifecycle events, and the validator's recent output:
//
//	err := tui.RunWatch(ctx, coord, handleLines)
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
