package protocol

// Delivery is one event received by a client resource.
type Delivery struct {
	Resource *Resource
	Event    Event
}

// Recorder is a Sink that keeps every event it receives.
type Recorder struct {
	Deliveries []Delivery
	// OnSend, when set, is called for every delivery.
	OnSend func(Delivery)
}

// Send records the event.
func (r *Recorder) Send(res *Resource, ev Event) {
	d := Delivery{Resource: res, Event: ev}
	r.Deliveries = append(r.Deliveries, d)
	if r.OnSend != nil {
		r.OnSend(d)
	}
}

// Events returns the recorded events in order.
func (r *Recorder) Events() []Event {
	out := make([]Event, len(r.Deliveries))
	for i, d := range r.Deliveries {
		out[i] = d.Event
	}
	return out
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	out := make([]string, len(r.Deliveries))
	for i, d := range r.Deliveries {
		out[i] = d.Event.Name()
	}
	return out
}

// Count returns how many events with the given name were recorded.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Event.Name() == name {
			n++
		}
	}
	return n
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.Deliveries = nil
}
