// Package stream provides a DynamoDB Streams handler that replicates
// documents into another store through the upsert engine.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/docupsert/internal/fields"
	"github.com/jacentio/docupsert/store"
	"github.com/jacentio/docupsert/upsert"
)

// SourceRevisionField records, on replicated documents, the revision the
// document had in the source table.
const SourceRevisionField = "source_revision"

// Handler processes DynamoDB stream events from a source document table.
type Handler struct {
	engine *upsert.Engine
	logger *slog.Logger
}

// NewHandler creates a new stream handler writing through engine.
func NewHandler(engine *upsert.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// HandleReplicate applies each stream record to the target store.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleReplicate(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	id := getStringAttr(record.Change.Keys, upsert.IDField)
	if id == "" {
		id = getStringAttr(record.Change.NewImage, upsert.IDField)
	}
	if id == "" {
		return fmt.Errorf("record %s: missing document id", record.EventID)
	}

	switch record.EventName {
	case "INSERT", "MODIFY":
		return h.replicate(ctx, id, record.Change.NewImage)
	case "REMOVE":
		// The source purged an expired tombstone; keep ours as a tombstone.
		if _, err := h.engine.Tombstone(ctx, id); err != nil {
			return fmt.Errorf("tombstone %q: %w", id, err)
		}
		h.logger.Info("replicated removal", "id", id)
		return nil
	default:
		return nil
	}
}

func (h *Handler) replicate(ctx context.Context, id string, image map[string]events.DynamoDBAttributeValue) error {
	if len(image) == 0 {
		return fmt.Errorf("record for %q has no new image; the stream must include NEW_IMAGE", id)
	}

	source := ConvertImage(image)
	newDoc := fields.Omit(source, upsert.IDField, upsert.RevisionField, "ttl")
	newDoc[SourceRevisionField] = source.Revision()

	doc, err := h.engine.Upsert(ctx, upsert.NewRequest(id, newDoc).WithShouldUpdate(newerSource))
	if err != nil {
		return fmt.Errorf("replicate %q: %w", id, err)
	}

	h.logger.Info("replicated document",
		"id", id,
		"sourceRevision", source.Revision(),
		"revision", doc.Revision(),
	)
	return nil
}

// newerSource accepts a record only if it is newer than what was last
// replicated, so redelivered and out-of-order records are ignored.
// A tombstoned replica also accepts a first revision: the source document
// was removed and created again, restarting its sequence.
func newerSource(existing, newDoc upsert.Document) bool {
	have, _ := existing[SourceRevisionField].(string)
	want, _ := newDoc[SourceRevisionField].(string)
	if existing.IsDeleted() && store.RevisionSeq(want) == 1 {
		return true
	}
	return store.RevisionSeq(want) > store.RevisionSeq(have)
}

// ConvertImage converts a DynamoDB stream image into a document, decoding
// values the way attributevalue.UnmarshalMap does for interface fields.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) upsert.Document {
	doc := make(upsert.Document, len(image))
	for k, v := range image {
		doc[k] = convertValue(v)
	}
	return doc
}

func convertValue(v events.DynamoDBAttributeValue) any {
	switch v.DataType() {
	case events.DataTypeString:
		return v.String()
	case events.DataTypeNumber:
		return parseNumber(v.Number())
	case events.DataTypeBoolean:
		return v.Boolean()
	case events.DataTypeBinary:
		return v.Binary()
	case events.DataTypeList:
		list := make([]any, 0, len(v.List()))
		for _, item := range v.List() {
			list = append(list, convertValue(item))
		}
		return list
	case events.DataTypeMap:
		m := make(map[string]any, len(v.Map()))
		for k, item := range v.Map() {
			m[k] = convertValue(item)
		}
		return m
	case events.DataTypeStringSet:
		return v.StringSet()
	case events.DataTypeNumberSet:
		nums := make([]float64, 0, len(v.NumberSet()))
		for _, n := range v.NumberSet() {
			nums = append(nums, parseNumber(n))
		}
		return nums
	case events.DataTypeBinarySet:
		return v.BinarySet()
	default:
		return nil
	}
}

func parseNumber(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}
