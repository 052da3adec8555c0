package settings

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/huynhanx03/go-batching/pkg/batcher"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a settings struct against its declared validation tags.
// It accepts Config as well as the individual section structs.
func Validate(cfg any) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// BatchConfig converts declarative batch settings into a core batching
// configuration for records of type T. The core constructor performs the
// cross-field validation (SizeOf presence, negative limits).
func BatchConfig[T any](b Batch, sizeOf func(T) int) (batcher.Config[T], error) {
	policy, err := batcher.ParseOverflowPolicy(b.Overflow)
	if err != nil {
		return batcher.Config[T]{}, err
	}
	return batcher.Config[T]{
		MaxBatchLen:   b.MaxBatchLen,
		MaxRecordSize: b.MaxRecordSize,
		MaxBatchSize:  b.MaxBatchSize,
		SizeOf:        sizeOf,
		Overflow:      policy,
	}, nil
}
