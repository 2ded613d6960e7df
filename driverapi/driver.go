package driverapi

import (
	"log"
	"sync"
)

// Driver loads and unloads a concrete backend implementation. This
// mirrors the registry pattern used throughout the wider engine
// ecosystem: a backend package registers itself from an init function,
// and callers select among registered Drivers by name rather than
// importing the concrete backend package directly.
type Driver interface {
	// Open initializes the driver and returns the GPU session. Further
	// calls on an already-open Driver must return the same GPU
	// instance. Open is not safe for parallel execution.
	Open() (GPU, error)

	// Name returns the driver's name. Must not cause the driver to be
	// opened.
	Name() string

	// Close deinitializes the driver. Closing a driver that is not
	// open has no effect. Not safe for parallel execution.
	Close()
}

var (
	mu      sync.Mutex
	drivers []Driver
)

// Register registers drv. Backend packages call this exactly once,
// from an init function. Registering a second driver under a name
// already in use replaces the first.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			log.Printf("driverapi: driver %q replaced", drv.Name())
			return
		}
	}
	drivers = append(drivers, drv)
	log.Printf("driverapi: driver %q registered", drv.Name())
}

// Drivers returns the currently registered Drivers.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Driver, len(drivers))
	copy(out, drivers)
	return out
}

// Lookup returns the registered driver with the given name, if any.
func Lookup(name string) (Driver, bool) {
	mu.Lock()
	defer mu.Unlock()
	for _, d := range drivers {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}
