package sim

// VTime defines the time in the simulated space. One unit of VTime is one
// unit of CPU burst.
type VTime int64

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTime
}

// An Event is something that happens at a point in simulated time.
type Event interface {
	// Time returns the time that the event happens.
	Time() VTime
}

// A Named object is an object that has a name.
type Named interface {
	Name() string
}
