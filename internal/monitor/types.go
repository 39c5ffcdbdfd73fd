package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/mabhi256/gvm/internal/jvm"
)

type TabType int

const (
	OverviewTab TabType = iota
	OpcodesTab
	HeapTab
)

const tabCount = int(HeapTab) + 1

// Snapshot is one sampler observation of the running VM.
type Snapshot struct {
	Taken        time.Time
	Instructions uint64
	Rate         float64 // instructions per second since the previous sample
	HeapUsed     int
	HeapCapacity int
	Classes      int
	Uptime       time.Duration
	Done         bool
}

type KeyMap struct {
	Tab1  key.Binding
	Tab2  key.Binding
	Tab3  key.Binding
	Left  key.Binding
	Right key.Binding
	Quit  key.Binding
}

func k(keys []string, help, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(help, desc),
	)
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:  k([]string{"1"}, "1", "overview"),
		Tab2:  k([]string{"2"}, "2", "opcodes"),
		Tab3:  k([]string{"3"}, "3", "heap"),
		Left:  k([]string{"left", "h"}, "←/h", "prev tab"),
		Right: k([]string{"right", "l"}, "→/l", "next tab"),
		Quit:  k([]string{"q", "ctrl+c"}, "q", "quit"),
	}
}

// sample reads the VM's counters into a Snapshot.
func sample(vm *jvm.VM, prev *Snapshot, done bool) Snapshot {
	now := time.Now()
	total := vm.Stats.Total()

	s := Snapshot{
		Taken:        now,
		Instructions: total,
		HeapUsed:     vm.Arena.Used(),
		HeapCapacity: vm.Arena.Capacity(),
		Classes:      vm.LoadedClassCount(),
		Uptime:       vm.Stats.Uptime(),
		Done:         done,
	}
	if prev != nil {
		dt := now.Sub(prev.Taken).Seconds()
		if dt > 0 {
			s.Rate = float64(total-prev.Instructions) / dt
		}
	}
	return s
}
