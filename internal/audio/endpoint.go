package audio

import "time"

// Endpointer decides when a single-utterance capture is finished.
// Frames are fed in order; Push reports true once capture should stop.
type Endpointer struct {
	frame          time.Duration
	initialSilence time.Duration
	endSilence     time.Duration
	maxUtterance   time.Duration

	started bool
	elapsed time.Duration
	silence time.Duration
}

type EndpointConfig struct {
	Frame          time.Duration
	InitialSilence time.Duration
	EndSilence     time.Duration
	MaxUtterance   time.Duration
}

func NewEndpointer(cfg EndpointConfig) *Endpointer {
	return &Endpointer{
		frame:          cfg.Frame,
		initialSilence: cfg.InitialSilence,
		endSilence:     cfg.EndSilence,
		maxUtterance:   cfg.MaxUtterance,
	}
}

func (e *Endpointer) Push(voiced bool) bool {
	e.elapsed += e.frame

	if !e.started {
		if voiced {
			e.started = true
			e.silence = 0
		} else if e.elapsed >= e.initialSilence {
			return true
		}
	} else if voiced {
		e.silence = 0
	} else {
		e.silence += e.frame
		if e.silence >= e.endSilence {
			return true
		}
	}

	return e.maxUtterance > 0 && e.elapsed >= e.maxUtterance
}

// Heard reports whether any voiced frame was seen.
func (e *Endpointer) Heard() bool { return e.started }

func (e *Endpointer) Elapsed() time.Duration { return e.elapsed }
