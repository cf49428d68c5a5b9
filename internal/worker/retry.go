package worker

import (
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// MaxRetryDelay is the largest visibility timeout used for a retry, in seconds.
const MaxRetryDelay int32 = 3600

// RetryDelay doubles the visibility timeout with each delivery, starting at
// 20 seconds and capped at one hour.
func RetryDelay(receiveCount int) int32 {
	if receiveCount < 1 {
		receiveCount = 1
	}
	backoff := math.Pow(2, float64(receiveCount)) * 10
	if backoff > float64(MaxRetryDelay) {
		return MaxRetryDelay
	}
	return int32(backoff)
}

// ReceiveCount reads the ApproximateReceiveCount system attribute; it is 1
// when the attribute was not requested.
func ReceiveCount(msg types.Message) int {
	n, err := strconv.Atoi(msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// SentAt reads the SentTimestamp system attribute.
func SentAt(msg types.Message) (time.Time, bool) {
	ms, err := strconv.ParseInt(msg.Attributes[string(types.MessageSystemAttributeNameSentTimestamp)], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
