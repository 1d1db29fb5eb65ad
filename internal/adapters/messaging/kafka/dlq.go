package kafka

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Headers attached to records forwarded to a dead-letter topic.
const (
	HeaderEventType         = "event-type"
	HeaderErrorType         = "error_type"
	HeaderErrorString       = "error_string"
	HeaderOriginalTopic     = "original_topic"
	HeaderOriginalPartition = "original_partition"
	HeaderOriginalOffset    = "original_offset"
)

// NewDLQRecord copies original into dlqTopic with failure metadata in headers.
func NewDLQRecord(original *kgo.Record, dlqTopic, errorType string, cause error) *kgo.Record {
	return &kgo.Record{
		Topic: dlqTopic,
		Key:   original.Key,
		Value: original.Value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderErrorType, Value: []byte(errorType)},
			{Key: HeaderErrorString, Value: []byte(cause.Error())},
			{Key: HeaderOriginalTopic, Value: []byte(original.Topic)},
			{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(int(original.Partition)))},
			{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(original.Offset, 10))},
		},
	}
}

// Header returns the value of key, or "N/A" when absent.
func Header(headers []kgo.RecordHeader, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return "N/A"
}

// ParsePartitionOffset parses "partition:offset", e.g. "0:123".
func ParsePartitionOffset(arg string) (int32, int64, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid format %q, expected partition:offset, e.g. 0:123", arg)
	}
	partition, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil || partition < 0 {
		return 0, 0, fmt.Errorf("invalid partition %q", parts[0])
	}
	offset, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset %q", parts[1])
	}
	return int32(partition), offset, nil
}
