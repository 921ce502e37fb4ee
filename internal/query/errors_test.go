package query

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "server rejection is an operation error",
			err:  mongo.CommandError{Code: 2, Message: "unknown top level operator: $wat"},
			want: KindOperation,
		},
		{
			name: "wrapped server rejection is still an operation error",
			err:  fmt.Errorf("find: %w", mongo.CommandError{Code: 13, Message: "not authorized"}),
			want: KindOperation,
		},
		{
			name: "anything else is unclassified",
			err:  errors.New("unexpected EOF decoding document"),
			want: KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err).Kind)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, "failed to connect to MongoDB: boom", (&Error{Kind: KindConnection, Err: cause}).Error())
	assert.Equal(t, "MongoDB operation failed: boom", (&Error{Kind: KindOperation, Err: cause}).Error())
	assert.Equal(t, "query execution failed: boom", (&Error{Kind: KindInternal, Err: cause}).Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Kind: KindOperation, Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindOperation, KindOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, Kind(0), KindOf(cause))
}
