package dynamodb

import (
	"errors"

	pkgerrors "twinklepod/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker"
)

// mapError turns any client failure into Unavailable. AppErrors raised by
// the stores themselves pass through.
func mapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.IsAppError(err) {
		return err
	}

	details := map[string]interface{}{}
	var ae smithy.APIError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		details["reason"] = "circuit_open"
	case pkgerrors.IsDeadline(err):
		details["reason"] = "deadline"
	case errors.As(err, &ae):
		details["reason"] = "store_error"
		details["code"] = ae.ErrorCode()
	default:
		details["reason"] = "client_error"
	}
	return pkgerrors.NewUnavailableError(operation, err).WithDetails(details)
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}
