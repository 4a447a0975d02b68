package flows

import (
	"fmt"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Context bag keys of the new-event sequence.
const (
	keySubject   = "subject"
	keyAttendees = "attendees"
	keyStart     = "start"
	keyEnd       = "end"
)

// DecodeDraft reads the event draft out of the context bag. Values may come
// straight from the steps or back from a JSON store, where instants are
// RFC 3339 strings and lists are []any.
func DecodeDraft(values map[string]any) (domain.EventDraft, error) {
	var draft domain.EventDraft
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		Result:     &draft,
	})
	if err != nil {
		return draft, err
	}
	if err := dec.Decode(values); err != nil {
		return draft, fmt.Errorf("decode event draft: %w", err)
	}
	if draft.Attendees == nil {
		draft.Attendees = []string{}
	}
	return draft, nil
}
