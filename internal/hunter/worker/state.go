package worker

import "fmt"

type State int

const (
	Acquiring State = iota
	Decoding
	Classifying
	Finalizing
	CoolingDown
)

func (s State) String() string {
	switch s {
	case Acquiring:
		return "ACQUIRING"
	case Decoding:
		return "DECODING"
	case Classifying:
		return "CLASSIFYING"
	case Finalizing:
		return "FINALIZING"
	case CoolingDown:
		return "COOLING_DOWN"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
