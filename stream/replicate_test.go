package stream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/go-cmp/cmp"

	"github.com/jacentio/docupsert/store"
	"github.com/jacentio/docupsert/stream"
	"github.com/jacentio/docupsert/upsert"
)

func newHandler() (*stream.Handler, *store.Memory) {
	target := store.NewMemory()
	engine := upsert.New(target, upsert.DefaultConfig())
	return stream.NewHandler(engine, nil), target
}

func record(name, id, rev string, extra map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	image := map[string]events.DynamoDBAttributeValue{
		"id":       events.NewStringAttribute(id),
		"revision": events.NewStringAttribute(rev),
	}
	for k, v := range extra {
		image[k] = v
	}
	r := events.DynamoDBEventRecord{
		EventID:   name + "-" + id + "-" + rev,
		EventName: name,
		Change: events.DynamoDBStreamRecord{
			Keys: map[string]events.DynamoDBAttributeValue{
				"id": events.NewStringAttribute(id),
			},
		},
	}
	if name != "REMOVE" {
		r.Change.NewImage = image
	}
	return r
}

func fetch(t *testing.T, m *store.Memory, id string) upsert.Document {
	t.Helper()
	doc, err := m.Fetch(context.Background(), id)
	if err != nil {
		t.Fatalf("fetch %q: %v", id, err)
	}
	return doc
}

func TestNewHandler(t *testing.T) {
	// Test with nil engine and logger (should not panic)
	h := stream.NewHandler(nil, nil)
	if h == nil {
		t.Fatal("expected non-nil Handler")
	}
}

func TestHandleReplicate_Insert(t *testing.T) {
	h, target := newHandler()

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		record("INSERT", "a", "1-abc", map[string]events.DynamoDBAttributeValue{
			"name": events.NewStringAttribute("x"),
			"ttl":  events.NewNumberAttribute("123"),
		}),
	}}

	if err := h.HandleReplicate(context.Background(), event); err != nil {
		t.Fatalf("HandleReplicate() failed: %v", err)
	}

	doc := fetch(t, target, "a")
	want := upsert.Document{
		"id":                       "a",
		"revision":                 doc.Revision(),
		"name":                     "x",
		stream.SourceRevisionField: "1-abc",
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("replicated document mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleReplicate_ModifyNewerAndStale(t *testing.T) {
	h, target := newHandler()
	ctx := context.Background()

	events1 := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		record("INSERT", "a", "1-abc", map[string]events.DynamoDBAttributeValue{"v": events.NewNumberAttribute("1")}),
		record("MODIFY", "a", "3-def", map[string]events.DynamoDBAttributeValue{"v": events.NewNumberAttribute("3")}),
		// Redelivered older record must not roll the document back.
		record("MODIFY", "a", "2-fed", map[string]events.DynamoDBAttributeValue{"v": events.NewNumberAttribute("2")}),
	}}

	if err := h.HandleReplicate(ctx, events1); err != nil {
		t.Fatalf("HandleReplicate() failed: %v", err)
	}

	doc := fetch(t, target, "a")
	if doc["v"] != float64(3) || doc[stream.SourceRevisionField] != "3-def" {
		t.Errorf("expected newest source version, got %v", doc)
	}
	if target.Writes() != 2 {
		t.Errorf("expected stale record to be skipped, got %d writes", target.Writes())
	}
}

func TestHandleReplicate_StaleModifyKeepsTombstone(t *testing.T) {
	h, target := newHandler()

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		record("INSERT", "a", "1-abc", map[string]events.DynamoDBAttributeValue{"v": events.NewNumberAttribute("1")}),
		record("MODIFY", "a", "3-def", map[string]events.DynamoDBAttributeValue{"deleted": events.NewBooleanAttribute(true)}),
		// Arrives after the deletion it precedes in the source.
		record("MODIFY", "a", "2-fed", map[string]events.DynamoDBAttributeValue{"v": events.NewNumberAttribute("2")}),
	}}

	if err := h.HandleReplicate(context.Background(), event); err != nil {
		t.Fatalf("HandleReplicate() failed: %v", err)
	}

	doc := fetch(t, target, "a")
	if !doc.IsDeleted() || doc[stream.SourceRevisionField] != "3-def" {
		t.Errorf("expected tombstone from the newest source version, got %v", doc)
	}
	if target.Writes() != 2 {
		t.Errorf("expected stale record to be skipped, got %d writes", target.Writes())
	}
}

func TestHandleReplicate_Remove(t *testing.T) {
	h, target := newHandler()
	ctx := context.Background()

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		record("INSERT", "a", "1-abc", nil),
		record("REMOVE", "a", "", nil),
		record("REMOVE", "never-seen", "", nil),
	}}

	if err := h.HandleReplicate(ctx, event); err != nil {
		t.Fatalf("HandleReplicate() failed: %v", err)
	}
	if !fetch(t, target, "a").IsDeleted() {
		t.Error("expected replicated tombstone")
	}
	if _, err := target.Fetch(ctx, "never-seen"); !errors.Is(err, upsert.ErrNotFound) {
		t.Errorf("expected removal of unknown doc not to create it, got %v", err)
	}

	// A re-created source document revives the replica, even with a lower sequence.
	revive := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		record("INSERT", "a", "1-new", nil),
	}}
	if err := h.HandleReplicate(ctx, revive); err != nil {
		t.Fatalf("revive failed: %v", err)
	}
	if fetch(t, target, "a").IsDeleted() {
		t.Error("expected replica to be revived")
	}
}

func TestHandleReplicate_Errors(t *testing.T) {
	h, _ := newHandler()

	tests := []struct {
		name   string
		record events.DynamoDBEventRecord
	}{
		{
			name:   "missing id",
			record: events.DynamoDBEventRecord{EventID: "e1", EventName: "INSERT"},
		},
		{
			name: "keys only stream",
			record: events.DynamoDBEventRecord{
				EventID:   "e2",
				EventName: "MODIFY",
				Change: events.DynamoDBStreamRecord{
					Keys: map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute("a")},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{tt.record}}
			if err := h.HandleReplicate(context.Background(), event); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHandleReplicate_IgnoresUnknownEvents(t *testing.T) {
	h, target := newHandler()

	r := record("INSERT", "a", "1-abc", nil)
	r.EventName = "UNKNOWN"
	if err := h.HandleReplicate(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{r}}); err != nil {
		t.Fatalf("HandleReplicate() failed: %v", err)
	}
	if target.Len() != 0 {
		t.Error("expected unknown event to be ignored")
	}
}

func TestHandleReplicate_EmptyEvent(t *testing.T) {
	h, _ := newHandler()
	if err := h.HandleReplicate(context.Background(), events.DynamoDBEvent{}); err != nil {
		t.Errorf("expected no error for empty event, got %v", err)
	}
}

// --- ConvertImage ---

func TestConvertImage(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"s":    events.NewStringAttribute("text"),
		"n":    events.NewNumberAttribute("42.5"),
		"b":    events.NewBooleanAttribute(true),
		"null": events.NewNullAttribute(),
		"bin":  events.NewBinaryAttribute([]byte("raw")),
		"list": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewStringAttribute("x"),
			events.NewNumberAttribute("1"),
		}),
		"map": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
			"nested": events.NewBooleanAttribute(false),
		}),
		"ss": events.NewStringSetAttribute([]string{"a", "b"}),
		"ns": events.NewNumberSetAttribute([]string{"1", "2"}),
	}

	got := stream.ConvertImage(image)
	want := upsert.Document{
		"s":    "text",
		"n":    42.5,
		"b":    true,
		"null": nil,
		"bin":  []byte("raw"),
		"list": []any{"x", float64(1)},
		"map":  map[string]any{"nested": false},
		"ss":   []string{"a", "b"},
		"ns":   []float64{1, 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ConvertImage() mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertImage_Empty(t *testing.T) {
	doc := stream.ConvertImage(nil)
	if doc == nil || len(doc) != 0 {
		t.Errorf("expected empty document, got %#v", doc)
	}
}
