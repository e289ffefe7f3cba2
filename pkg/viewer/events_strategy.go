package viewer

type EventsConsumerStrategy interface {
	Consume(poll func(timeoutMs int) (Event, bool), handle func(Event), timeoutMs int) int
}

// DrainAllStrategy handles every queued event before the next frame.
type DrainAllStrategy struct{}

func (DrainAllStrategy) Consume(poll func(timeoutMs int) (Event, bool), handle func(Event), timeoutMs int) int {
	return DrainMaxStrategy{}.drain(poll, handle, timeoutMs, -1)
}

// DrainMaxStrategy handles at most Max events per frame so a burst of
// mouse motion cannot starve rendering.
type DrainMaxStrategy struct {
	Max int
}

func (s DrainMaxStrategy) Consume(poll func(timeoutMs int) (Event, bool), handle func(Event), timeoutMs int) int {
	return s.drain(poll, handle, timeoutMs, max(s.Max, 1))
}

// drain waits up to timeoutMs for the first event, then takes whatever is
// already queued. A negative limit means no limit.
func (DrainMaxStrategy) drain(poll func(int) (Event, bool), handle func(Event), timeoutMs, limit int) int {
	event, ok := poll(timeoutMs)
	if !ok {
		return 0
	}
	handle(event)
	count := 1
	for limit < 0 || count < limit {
		event, ok = poll(0)
		if !ok {
			break
		}
		handle(event)
		count++
	}
	return count
}

func DrainAll() EventsConsumerStrategy {
	return DrainAllStrategy{}
}

func DrainMax(max int) EventsConsumerStrategy {
	return DrainMaxStrategy{Max: max}
}
