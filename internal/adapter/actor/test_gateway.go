package actor

import (
	"sync"

	"sunswitch/internal/core/domain"
	"sunswitch/internal/core/port"
)

func CreateTestSwitchGateway() *TestSwitchGateway {
	return &TestSwitchGateway{
		States: map[domain.DeviceKind]bool{},
	}
}

// TestSwitchGateway is an in-memory switch gateway that records every command
// it receives, for actor tests.
type TestSwitchGateway struct {
	mu       sync.Mutex
	States   map[domain.DeviceKind]bool
	GetErr   error
	SetErr   error
	Commands []domain.SwitchCommand
}

func (g *TestSwitchGateway) GetState(device domain.DeviceKind) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.GetErr != nil {
		return false, g.GetErr
	}
	return g.States[device], nil
}

func (g *TestSwitchGateway) SetState(device domain.DeviceKind, on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SetErr != nil {
		return g.SetErr
	}
	g.Commands = append(g.Commands, domain.SwitchCommand{Device: device, On: on})
	g.States[device] = on
	return nil
}

func (g *TestSwitchGateway) RecordedCommands() []domain.SwitchCommand {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.SwitchCommand, len(g.Commands))
	copy(out, g.Commands)
	return out
}

func (g *TestSwitchGateway) SetLiveState(device domain.DeviceKind, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.States[device] = on
}

// ensure interface compliance
var _ port.SwitchGateway = (*TestSwitchGateway)(nil)
