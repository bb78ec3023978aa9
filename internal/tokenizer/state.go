package tokenizer

import (
	"fmt"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// State is the tokenizer's control state.
type State uint8

const (
	StateTitleOpen State = iota
	StateTitle
	StateDetailsOpen
	StateDetails
	StateFileOpen
	StateFile
	StateStatus
	StateStage
	StateSource
	StateCreateAt
	StateSentBy
	StateSentToOpen
	StateSentTo
	StateCustomResponseOpen
	StateCustomResponse

	numStates
)

var stateNames = [numStates]string{
	StateTitleOpen:          "title_open",
	StateTitle:              "title",
	StateDetailsOpen:        "details_open",
	StateDetails:            "details",
	StateFileOpen:           "file_open",
	StateFile:               "file",
	StateStatus:             "status",
	StateStage:              "stage",
	StateSource:             "source",
	StateCreateAt:           "create_at",
	StateSentBy:             "sent_by",
	StateSentToOpen:         "sent_to_open",
	StateSentTo:             "sent_to",
	StateCustomResponseOpen: "custom_response_open",
	StateCustomResponse:     "custom_response",
}

// stateFields maps each state to the buffer it writes. Open states decide
// quoting for the field they lead into; stage writes nothing.
var stateFields = [numStates]model.Field{
	StateTitleOpen:          model.FieldTitle,
	StateTitle:              model.FieldTitle,
	StateDetailsOpen:        model.FieldDetails,
	StateDetails:            model.FieldDetails,
	StateFileOpen:           model.FieldFile,
	StateFile:               model.FieldFile,
	StateStatus:             model.FieldStatus,
	StateStage:              model.FieldStage,
	StateSource:             model.FieldSource,
	StateCreateAt:           model.FieldCreateAt,
	StateSentBy:             model.FieldSentBy,
	StateSentToOpen:         model.FieldSentTo,
	StateSentTo:             model.FieldSentTo,
	StateCustomResponseOpen: model.FieldCustomResponse,
	StateCustomResponse:     model.FieldCustomResponse,
}

func (s State) String() string {
	if s >= numStates {
		return fmt.Sprintf("State(%d)", s)
	}
	return stateNames[s]
}

// Field returns the record field owned by s.
func (s State) Field() model.Field {
	if s >= numStates {
		return -1
	}
	return stateFields[s]
}

// States lists every state in transition order.
func States() []State {
	out := make([]State, numStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}
