package redis

import (
	"context"
	"fmt"
	"strconv"
)

// AppendEvent appends an outbox record to the given stream with an
// auto-generated stream id. Field layout matches the indexer contract:
// event_id, event_type, payload.
func (s *Store) AppendEvent(ctx context.Context, streamKey string, eventID int64, eventType string, payload []byte) error {
	cmd := s.client.B().Xadd().Key(streamKey).Id("*").
		FieldValue().
		FieldValue("event_id", strconv.FormatInt(eventID, 10)).
		FieldValue("event_type", eventType).
		FieldValue("payload", string(payload)).
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("xadd %s: %w", streamKey, err)
	}
	return nil
}
