package utils

import (
	"time"
	"unsafe"
)

// StringToBytes converts string to a byte slice without any memory allocation.
func StringToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// BytesToString converts byte slice to a string without any memory allocation.
func BytesToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// ToDuration converts a number of seconds to a time.Duration.
func ToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// ToDurationMs converts a number of milliseconds to a time.Duration.
func ToDurationMs(millis int) time.Duration {
	return time.Duration(millis) * time.Millisecond
}
