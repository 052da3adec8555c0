package batcher

import "encoding/json"

// BytesLen measures a record by its byte length. The usual SizeOf for raw
// payloads.
func BytesLen(rec []byte) int { return len(rec) }

// StringLen measures a record by its byte length.
func StringLen(rec string) int { return len(rec) }

// JSONLen measures a record by the byte length of its JSON encoding.
// A record that cannot be marshaled measures as 0 and so never trips a
// size limit; validate records upstream when that matters.
func JSONLen[T any](rec T) int {
	p, err := json.Marshal(rec)
	if err != nil {
		return 0
	}
	return len(p)
}
