package frames

// Sink receives every frame decoded by a capture source and returns the frame to display.
// Implementations must be safe to call from the capture goroutine.
type Sink interface {
	Recv(frame Frame) Frame
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(frame Frame) Frame

func (f SinkFunc) Recv(frame Frame) Frame {
	return f(frame)
}

// Tee forwards each frame through the sinks in order, feeding each the previous sink's result.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(frame Frame) Frame {
		for _, s := range sinks {
			if s != nil {
				frame = s.Recv(frame)
			}
		}
		return frame
	})
}
