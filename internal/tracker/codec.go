package tracker

import (
	"encoding/json"
	"fmt"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/model"
)

// snapshotVersion is written with every blob. Readers ignore it.
const snapshotVersion = 0

type envelope struct {
	State   model.State `json:"state"`
	Version int         `json:"version"`
}

// Encode serializes st as the blob stored under the repository key.
func Encode(st model.State) ([]byte, error) {
	if st.Sessions == nil {
		st.Sessions = []model.SleepSession{}
	}
	data, err := json.Marshal(envelope{State: st, Version: snapshotVersion})
	if err != nil {
		return nil, fmt.Errorf("encoding sleep state: %w", err)
	}
	return data, nil
}

// Decode parses a blob written by Encode. Tracking is derived from the
// presence of an active session.
func Decode(data []byte) (model.State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.State{}, fmt.Errorf("decoding sleep state: %w", err)
	}
	st := env.State
	if st.Sessions == nil {
		st.Sessions = []model.SleepSession{}
	}
	st.Tracking = st.Active != nil
	return st, nil
}
